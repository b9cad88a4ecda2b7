package chunkbuf

import (
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

type ChunkPoolConfig struct {
	// Number of free chunks each size class can hold before starting to release memory.
	// A value <= 0 keeps all free chunks.
	FreeThreshold int

	Logger  *slog.Logger // Defaults to slog.Default().
	Metrics *Metrics     // Optional.
}

// ChunkPool is a thread-safe pool of value chunks backed by memory mapped
// outside of the Go heap.
//
// Requested capacities are rounded up to a size class: a power of two number of
// bytes, no smaller than a page. Chunks returned by Get may therefore hold more
// values than requested. Since chunks are invisible to the garbage collector,
// buffers using the pool must be released with Buffer.Release.
type ChunkPool[T Number] struct {
	mu   sync.Mutex
	free map[int][][]byte // Free chunks by size class in bytes.

	freeThreshold int
	pageSize      int
	logger        *slog.Logger
	metrics       *Metrics
}

// NewChunkPool creates a new, empty chunk pool.
func NewChunkPool[T Number](config ChunkPoolConfig) *ChunkPool[T] {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkPool[T]{
		free:          make(map[int][][]byte),
		freeThreshold: config.FreeThreshold,
		pageSize:      os.Getpagesize(),
		logger:        logger,
		metrics:       config.Metrics,
	}
}

func elemSize[T Number]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// maxChunkBytes is the largest size class a chunk can be rounded up to.
const maxChunkBytes = 1 << (bits.UintSize - 2)

// SizeClass returns the size in bytes of the chunks handed out for a capacity.
// It panics if the size class would exceed maxChunkBytes.
func (p *ChunkPool[T]) SizeClass(capacity int) int {
	if capacity > maxChunkBytes/elemSize[T]() {
		panic(fmt.Errorf("chunk capacity %d exceeds the maximum chunk size of %d bytes", capacity, maxChunkBytes))
	}
	n := capacity * elemSize[T]()
	if n <= p.pageSize {
		return p.pageSize
	}
	return 1 << bits.Len(uint(n-1))
}

func (p *ChunkPool[T]) isSizeClass(size int) bool {
	return size >= p.pageSize && size&(size-1) == 0
}

// Get retrieves a chunk that holds at least capacity values.
// Get(0) returns an empty chunk without mapping any memory.
func (p *ChunkPool[T]) Get(capacity int) []T {
	if capacity <= 0 {
		return []T{}
	}
	size := p.SizeClass(capacity)

	p.mu.Lock()
	if len(p.free[size]) == 0 {
		p.alloc(size, 1)
	}
	list := p.free[size]
	n := len(list) - 1
	c := list[n]
	list[n] = nil
	p.free[size] = list[:n]
	p.mu.Unlock()

	p.metrics.setFreeChunks(size, n)
	return unsafe.Slice((*T)(unsafe.Pointer(&c[0])), size/elemSize[T]())
}

// Put returns a chunk to the pool.
// It does nothing if the chunk is not of a size class, e.g. empty chunks.
// Chunks must have been retrieved with Get from the same pool.
func (p *ChunkPool[T]) Put(c []T) {
	if cap(c) == 0 {
		return
	}
	c = c[:cap(c)] // Ensure the chunk is reset to its full capacity before returning.
	size := len(c) * elemSize[T]()
	if !p.isSizeClass(size) {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&c[0])), size)

	p.mu.Lock()
	list := append(p.free[size], b)
	list, toUnmap := releaseChunks(list, p.freeThreshold)
	p.free[size] = list
	numFree := len(list)
	p.mu.Unlock()

	p.metrics.setFreeChunks(size, numFree)

	// Perform unmap outside of the lock to avoid blocking other operations.
	for _, chunk := range toUnmap {
		p.unmap(chunk)
	}
}

// Allocate ensures that at least numChunks are available in the pool for the
// size class of capacity. This is useful for pre-warming a pool.
func (p *ChunkPool[T]) Allocate(capacity int, numChunks int) {
	if numChunks <= 0 || capacity <= 0 {
		return
	}
	size := p.SizeClass(capacity)
	p.mu.Lock()
	if n := numChunks - len(p.free[size]); n > 0 {
		p.alloc(size, n)
	}
	numFree := len(p.free[size])
	p.mu.Unlock()
	p.metrics.setFreeChunks(size, numFree)
}

// Close unmaps all free chunks. Chunks still held by buffers are unaffected.
func (p *ChunkPool[T]) Close() {
	p.mu.Lock()
	free := p.free
	p.free = make(map[int][][]byte)
	p.mu.Unlock()

	for size, list := range free {
		for _, chunk := range list {
			p.unmap(chunk)
		}
		p.metrics.setFreeChunks(size, 0)
	}
}

// unmap releases the memory of a chunk back to the operating system.
func (p *ChunkPool[T]) unmap(c []byte) {
	if err := unix.Munmap(c); err != nil {
		p.logger.Error("failed to unmap chunk", "error", err)
		return
	}
	p.metrics.chunkUnmapped(len(c))
}

// alloc maps numChunks chunks of the given size and appends them to its free list.
// It assumes the caller holds the mutex.
func (p *ChunkPool[T]) alloc(size int, numChunks int) {
	for range numChunks {
		// Use unix.Mmap to allocate memory that is not part of the Go heap.
		// Each chunk is mapped separately so it can be unmapped on its own.
		data, err := unix.Mmap(-1, 0, size,
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_ANON|unix.MAP_PRIVATE,
		)
		if err != nil {
			panic(fmt.Errorf("cannot allocate %d bytes via mmap: %w", size, err))
		}
		p.free[size] = append(p.free[size], data)
		p.metrics.chunkMapped(size)
	}
}

// numFree returns the number of available chunks in the size class of capacity.
// It is primarily intended as helper method in tests.
func (p *ChunkPool[T]) numFree(capacity int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[p.SizeClass(capacity)])
}

// releaseChunks is a generic helper that trims the free list if it exceeds the given threshold.
// It returns the updated list and a list of any chunks that were removed and should be unmapped.
func releaseChunks[C any](freeList []C, threshold int) (newList []C, toUnmap []C) {
	if threshold > 0 && len(freeList) > threshold {
		// Release half of the free chunks to prevent thrashing around the threshold.
		freeCount := len(freeList) / 2
		toUnmap = append([]C(nil), freeList[:freeCount]...)
		newList = append(freeList[:0], freeList[freeCount:]...)
		return newList, toUnmap
	}
	return freeList, nil
}
