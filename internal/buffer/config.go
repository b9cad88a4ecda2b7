package buffer

import (
	"errors"
	"fmt"
)

// DefaultInitialCapacity is the capacity of the first chunk when none is configured.
const DefaultInitialCapacity = 1024

type Config struct {
	// InitialCapacity is the number of values the first chunk can hold.
	// Zero is allowed; the first append then allocates a chunk sized to fit it.
	InitialCapacity int
}

func (c Config) Validate() error {
	var errs []error
	if c.InitialCapacity < 0 {
		errs = append(
			errs,
			fmt.Errorf("%w: initial capacity %d must not be negative", ErrInvalidArgument, c.InitialCapacity),
		)
	}
	return errors.Join(errs...)
}

func DefaultConfig() Config {
	return Config{
		InitialCapacity: DefaultInitialCapacity,
	}
}
