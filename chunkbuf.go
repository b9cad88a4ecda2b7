// Package chunkbuf implements a growable, append-only buffer of numeric values.
// Values are stored in chunks that double in size and are never copied on growth.
package chunkbuf

import (
	"log/slog"

	"github.com/holmberd/go-chunkbuf/internal/buffer"
)

var (
	ErrInvalidArgument = buffer.ErrInvalidArgument
	ErrOutOfBounds     = buffer.ErrOutOfBounds
)

type (
	Number                   = buffer.Number
	Buffer[T Number]         = buffer.Buffer[T]
	Reader[T Number]         = buffer.Reader[T]
	ChunkAllocator[T Number] = buffer.ChunkAllocator[T]
	Stats                    = buffer.Stats
)

// New creates a new buffer with chunks allocated on the Go heap.
// The error wraps ErrInvalidArgument if initialCapacity is negative.
func New[T Number](initialCapacity int) (*Buffer[T], error) {
	return buffer.New[T](buffer.HeapAllocator[T]{}, slog.Default(), buffer.Config{InitialCapacity: initialCapacity})
}

// Custom creates a new buffer with a custom chunk allocator, logger and config.
// A nil logger uses the default logger.
func Custom[T Number](alloc ChunkAllocator[T], logger *slog.Logger, config Config) (*Buffer[T], error) {
	bConfig := buffer.DefaultConfig()
	bConfig.InitialCapacity = config.InitialCapacity
	return buffer.New(alloc, logger, bConfig)
}

// NewReader returns a reader positioned at the start of b.
func NewReader[T Number](b *Buffer[T]) *Reader[T] {
	return buffer.NewReader(b)
}
