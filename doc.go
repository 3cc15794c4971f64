// Package keyedtable implements an open-addressing hash table that resolves
// collisions with double hashing.
//
// For a table of `size` slots the i-th probe of a key visits
//
//	(h1 + i*h2) mod size
//
// where h1 = hash mod size and h2 = 1 + hash mod (size-1). The table grows to
// 2*size+1 slots before the load factor would pass 0.75, or when a probe
// sequence has no free slot left. It never shrinks.
//
// Deleted slots go straight back to Empty, there are no tombstones. Until
// the first delete every probe chain ends at its first Empty slot. Once
// deletes left holes, lookups walk the whole probe sequence of a key, until
// Compact (run automatically when a quarter of the slots are holes) or a
// rehash makes the chains contiguous again.
//
// Sizes aren't required to be prime, so with a composite size some probe
// sequences cycle through a subset of the slots. Use WithPrimeSizes to get
// full coverage for every key.
package keyedtable
