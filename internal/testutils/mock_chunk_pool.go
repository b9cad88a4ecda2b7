package testutils

import (
	"sync/atomic"
)

// MockChunkAllocator is a heap backed chunk allocator that counts its calls.
// Chunks are filled with Poison so that unwritten values are easy to spot.
type MockChunkAllocator[T ~int64 | ~float64] struct {
	getCalls atomic.Int64
	putCalls atomic.Int64

	// Extra is added to every requested capacity to simulate an allocator
	// that rounds chunk sizes up.
	Extra int
}

// Poison is the value fresh chunks are filled with.
const Poison = -7

func (p *MockChunkAllocator[T]) Get(capacity int) []T {
	p.getCalls.Add(1)
	c := make([]T, capacity+p.Extra)
	for i := range c {
		c[i] = Poison
	}
	return c
}

func (p *MockChunkAllocator[T]) Put(c []T) {
	p.putCalls.Add(1)
}

func (p *MockChunkAllocator[T]) GetCalls() int64 {
	return p.getCalls.Load()
}

func (p *MockChunkAllocator[T]) PutCalls() int64 {
	return p.putCalls.Load()
}

func (p *MockChunkAllocator[T]) ChunksInUse() int64 {
	return p.GetCalls() - p.PutCalls()
}

func (p *MockChunkAllocator[T]) Reset() {
	p.getCalls.Store(0)
	p.putCalls.Store(0)
}
