package buffer

import (
	"errors"
	"io"
)

// Reader is a sequential reader of the values in a Buffer.
// It mirrors the [io.Reader] and [io.Seeker] interfaces for values instead of bytes.
//
// The reader does not snapshot the buffer; appends and resets made between
// reads are visible to it. A Release invalidates the reader's position; call Reset.
type Reader[T Number] struct {
	b        *Buffer[T] // Values Buffer.
	chunkIdx int        // Index of the current chunk.
	pos      int        // Read position within the current chunk.
	offset   int        // Absolute read offset, in values.
}

func NewReader[T Number](b *Buffer[T]) *Reader[T] {
	return &Reader[T]{b: b}
}

// Offset returns the absolute offset of the next value to read.
func (r *Reader[T]) Offset() int {
	return r.offset
}

// Reset resets the reader to the start of the buffer.
func (r *Reader[T]) Reset() *Reader[T] {
	r.chunkIdx = 0
	r.pos = 0
	r.offset = 0
	return r
}

// Seek sets the offset for the next read.
//
// Seeking to an offset before the start of the buffer is an error.
// Seeking past the end is allowed; subsequent reads return [io.EOF] until
// enough values have been appended.
func (r *Reader[T]) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = int64(r.offset) + offset
	case io.SeekEnd:
		newOffset = int64(r.b.count) + offset // Offset is expected to be negative.
	default:
		return 0, errors.New("invalid whence")
	}
	if newOffset < 0 {
		return 0, errors.New("invalid offset: cannot be negative")
	}
	r.chunkIdx, r.pos = r.b.position(int(newOffset))
	r.offset = int(newOffset)
	return newOffset, nil
}

// Read reads up to len(p) values into p and returns the number of values read.
// The error is [io.EOF] only if no values were read.
func (r *Reader[T]) Read(p []T) (n int, err error) {
	if len(p) == 0 {
		return 0, nil // No-op
	}
	chunks := r.b.chunks
	for n < len(p) {
		remaining := r.b.count - r.offset
		if remaining <= 0 {
			break
		}
		if r.chunkIdx >= len(chunks) || r.pos > len(chunks[r.chunkIdx]) {
			// Position was set past the chunks allocated at the time; the
			// offset is authoritative.
			r.chunkIdx, r.pos = r.b.position(r.offset)
		}
		chunk := chunks[r.chunkIdx]
		available := min(len(chunk)-r.pos, remaining)
		if available <= 0 {
			r.chunkIdx++
			r.pos = 0
			continue // Move to the next chunk.
		}
		toCopy := copy(p[n:], chunk[r.pos:r.pos+available])
		r.pos += toCopy
		r.offset += toCopy
		n += toCopy
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// position returns the chunk index and the position within that chunk for
// an absolute offset.
func (b *Buffer[T]) position(offset int) (chunkIdx int, pos int) {
	for i, c := range b.chunks {
		if offset < len(c) {
			return i, offset
		}
		offset -= len(c)
	}
	return len(b.chunks), offset
}
