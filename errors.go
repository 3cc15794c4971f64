package keyedtable

import "errors"

var (
	// ErrKeyNotFound is returned by Get and Delete when the probe sequence
	// is exhausted without a match.
	ErrKeyNotFound = errors.New("keyedtable: key not found")

	// ErrInvalidConfig is returned at construction time for unusable sizes.
	ErrInvalidConfig = errors.New("keyedtable: invalid config")

	// ErrLockPoisoned is returned by every SharedTable operation once a
	// panic has unwound through one of its critical sections.
	ErrLockPoisoned = errors.New("keyedtable: lock poisoned")

	// ErrCapacityExhausted is never returned. It's the panic value (wrapped)
	// when an insert can't be seated even after a rehash.
	ErrCapacityExhausted = errors.New("keyedtable: capacity exhausted")
)
