package keyedtable

// slot is either Empty (used == false) or Occupied.
// There's no tombstone state: a deleted slot goes straight back to Empty,
// lookups walk the whole probe sequence instead of stopping at a hole.
type slot[K comparable, V any] struct {
	// Full hash of the key, so comparisons can reject on mismatch before
	// touching the key and rehashing never calls the hash function again.
	hash uint64

	key   K
	value V

	used bool
}
