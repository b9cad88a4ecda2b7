// Package buffer implements an append-only buffer of numeric values stored in a
// sequence of fixed-capacity chunks.
package buffer

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfBounds     = errors.New("out of bounds")
)

// Number is the set of element types a Buffer can hold.
// None of them contain pointers, so chunks may live outside the Go heap.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Stats represents buffer stats.
type Stats struct {
	Len         int // Number of logically stored values.
	Chunks      int // Number of allocated chunks, including recycled ones.
	ActiveChunk int // Index of the chunk accepting writes.
	Capacity    int // Total number of values the allocated chunks can hold.
}

// Buffer represents an append-only store for numeric values.
//
// Values are written into a list of chunks. When the active chunk is full the next
// chunk becomes active; a new chunk is only allocated when no previously allocated
// chunk is left, and it is at least twice the size of the one before it. Written
// values are never moved.
//
// A Buffer is not safe for concurrent use.
type Buffer[T Number] struct {
	logger          *slog.Logger
	chunkAlloc      ChunkAllocator[T]
	initialCapacity int

	// chunks contains the allocated chunks in allocation order.
	// Chunks after the active one are kept for reuse after a Reset.
	chunks [][]T

	active       int // Index of the chunk currently being written into.
	filledBefore int // Number of values held by the chunks before the active one.
	count        int // Number of logically valid values.
}

// New creates a new, empty Buffer and allocates its first chunk.
// The error wraps ErrInvalidArgument if the config is invalid.
func New[T Number](chunkAlloc ChunkAllocator[T], logger *slog.Logger, config Config) (*Buffer[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Buffer[T]{
		logger:          logger,
		chunkAlloc:      chunkAlloc,
		initialCapacity: config.InitialCapacity,
	}
	b.chunks = [][]T{b.allocChunk(config.InitialCapacity)}
	return b, nil
}

// Len returns the number of values in the buffer.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Stats returns the buffer's stats.
func (b *Buffer[T]) Stats() Stats {
	s := Stats{
		Len:         b.count,
		Chunks:      len(b.chunks),
		ActiveChunk: b.active,
	}
	for _, c := range b.chunks {
		s.Capacity += len(c)
	}
	return s
}

// Append appends a single value, growing the buffer as needed.
func (b *Buffer[T]) Append(v T) {
	pos := b.count - b.filledBefore
	if pos == len(b.chunks[b.active]) {
		b.advance(b.count + 1)
		pos = 0
	}
	b.chunks[b.active][pos] = v
	b.count++
}

// AppendAll appends all values of src, growing the buffer as needed.
func (b *Buffer[T]) AppendAll(src ...T) {
	b.write(src)
}

// AppendSlice appends length values of src starting at offset.
// The error wraps ErrOutOfBounds if the range is not within src, in which
// case nothing is written.
func (b *Buffer[T]) AppendSlice(src []T, offset, length int) error {
	// offset > len(src)-length avoids overflowing offset+length.
	if offset < 0 || length < 0 || offset > len(src)-length {
		return fmt.Errorf("%w: offset %d, length %d for source of length %d", ErrOutOfBounds, offset, length, len(src))
	}
	b.write(src[offset : offset+length])
	return nil
}

// write copies p into the buffer chunk by chunk.
func (b *Buffer[T]) write(p []T) {
	for len(p) > 0 {
		chunk := b.chunks[b.active]
		pos := b.count - b.filledBefore
		if pos == len(chunk) {
			b.advance(b.count + len(p))
			continue
		}
		n := copy(chunk[pos:], p)
		b.count += n
		p = p[n:]
	}
}

// advance makes the next chunk active, allocating one if none is left.
// needed is the total number of values the buffer must hold once the
// triggering write completes.
func (b *Buffer[T]) advance(needed int) {
	full := len(b.chunks[b.active])
	// needed is measured from the start of the full chunk.
	capacity := max(2*full, needed-b.filledBefore)
	b.filledBefore += full
	b.active++
	if b.active < len(b.chunks) {
		return // Recycled chunk from before a Reset.
	}
	b.chunks = append(b.chunks, b.allocChunk(capacity))
	b.logger.Debug(
		"Allocated buffer chunk",
		"chunk", b.active,
		"capacity", len(b.chunks[b.active]),
		"len", b.count,
	)
}

// allocChunk gets a chunk of at least the given capacity from the allocator.
func (b *Buffer[T]) allocChunk(capacity int) []T {
	c := b.chunkAlloc.Get(capacity)
	if len(c) < capacity {
		panic(fmt.Errorf("internal error: allocator returned chunk of %d values, requested %d", len(c), capacity))
	}
	return c
}

// Reset empties the buffer. Allocated chunks are kept and reused by subsequent
// appends; their contents are not cleared.
func (b *Buffer[T]) Reset() {
	b.active = 0
	b.filledBefore = 0
	b.count = 0
}

// Release returns all chunks to the allocator and leaves the buffer as if
// newly created.
func (b *Buffer[T]) Release() {
	for i, c := range b.chunks {
		b.chunkAlloc.Put(c)
		b.chunks[i] = nil // Unreference released chunk.
	}
	b.chunks = [][]T{b.allocChunk(b.initialCapacity)}
	b.Reset()
}

// ToSlice returns a newly allocated slice holding all values in append order.
func (b *Buffer[T]) ToSlice() []T {
	out := make([]T, b.count)
	n := 0
	for _, c := range b.chunks {
		if n == b.count {
			break
		}
		n += copy(out[n:], c)
	}
	return out
}

// All returns an iterator over index-value pairs in append order.
func (b *Buffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for _, c := range b.chunks {
			for _, v := range c {
				if i == b.count {
					return
				}
				if !yield(i, v) {
					return
				}
				i++
			}
		}
	}
}

// Digest returns the xxhash of the values in the buffer.
// Values are hashed in their in-memory representation, so digests are only
// comparable between buffers of the same element type on the same architecture.
func (b *Buffer[T]) Digest() uint64 {
	d := xxhash.New()
	remaining := b.count
	for _, c := range b.chunks {
		if remaining == 0 {
			break
		}
		n := min(remaining, len(c))
		d.Write(valueBytes(c[:n]))
		remaining -= n
	}
	return d.Sum64()
}

// valueBytes returns the bytes backing s without copying.
func valueBytes[T Number](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// Print outputs a visual representation of the buffer for debugging purposes.
// It prints the logical contents of each chunk on its own row; chunks past the
// active one are printed as recycled.
func (b *Buffer[T]) Print(w io.Writer) {
	if b == nil {
		return
	}
	fmt.Fprintf(w, "--- Buffer len=%d chunks=%d ---\n", b.count, len(b.chunks))

	// Calculate the padding width needed to align all chunk indexes.
	paddingWidth := len(strconv.Itoa(len(b.chunks) - 1))

	remaining := b.count
	for i, c := range b.chunks {
		n := min(remaining, len(c))
		remaining -= n
		switch {
		case i > b.active:
			fmt.Fprintf(w, "%*d: cap=%d [recycled]\n", paddingWidth, i, len(c))
		case i == b.active:
			fmt.Fprintf(w, "%*d: cap=%d %v (active)\n", paddingWidth, i, len(c), c[:n])
		default:
			fmt.Fprintf(w, "%*d: cap=%d %v\n", paddingWidth, i, len(c), c[:n])
		}
	}
}
