package keyedtable

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// HashFunc maps a key to its 64-bit hash. It must be stable for the whole
// time the key is stored in a table.
type HashFunc[K comparable] func(K) uint64

func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// XXHashFunc returns an unseeded xxhash64 function for string-like keys.
// Unlike the default one, it's deterministic across processes.
func XXHashFunc[K ~string]() HashFunc[K] {
	return func(k K) uint64 {
		return xxhash.Sum64String(string(k))
	}
}

// HashSplit derives the double hashing parameters for a table of `size`
// slots: the primary index h1 in [0, size) and the probe step h2 in
// [1, size-1].
func HashSplit(hash uint64, size uintptr) (uintptr, uintptr) {
	s := uint64(size)

	h1 := uintptr(hash % s)
	h2 := uintptr(1 + hash%(s-1))

	return h1, h2
}
