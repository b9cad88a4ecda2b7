package chunkbuf

import "github.com/holmberd/go-chunkbuf/internal/buffer"

type Config struct {
	// InitialCapacity is the number of values the first chunk can hold.
	// Chunks allocated on growth are at least twice the size of the previous one.
	InitialCapacity int
}

func DefaultConfig() Config {
	return Config{InitialCapacity: buffer.DefaultInitialCapacity}
}

func DefaultChunkPoolConfig() ChunkPoolConfig {
	return ChunkPoolConfig{
		FreeThreshold: 64, // Free chunks per size class before releasing memory.
	}
}
