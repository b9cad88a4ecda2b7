package buffer

// ChunkAllocator defines the contract for an allocator of value chunks.
type ChunkAllocator[T Number] interface {
	Get(capacity int) []T // Get returns a chunk with a length of at least capacity.
	Put(c []T)            // Put hands a chunk back to the allocator.
}

// HeapAllocator allocates chunks on the Go heap.
// Chunks handed back with Put are left to the garbage collector.
type HeapAllocator[T Number] struct{}

func (HeapAllocator[T]) Get(capacity int) []T {
	return make([]T, capacity)
}

func (HeapAllocator[T]) Put(c []T) {}
