package keyedtable

import (
	"fmt"
	"hash/maphash"
	"log"
)

const (
	// DefaultInitialSize is the number of slots a table starts with.
	DefaultInitialSize = 13

	// The secondary hash is taken modulo size-1, which has to be at least 1.
	minSize = 2
)

type table[K comparable, V any] struct {
	slots []slot[K, V]

	size     uintptr
	count    uintptr
	rehashes int

	// Number of deletes since the last rebuild. While it's zero every probe
	// chain is contiguous and ends at its first Empty slot.
	holes uintptr

	primeSizes bool
	hashFunc   HashFunc[K]
	logger     *log.Logger

	emptyV V
}

type Option[K comparable, V any] func(t *table[K, V])

// Override default hash function.
func WithHashFunc[K comparable, V any](f HashFunc[K]) Option[K, V] {
	return func(t *table[K, V]) {
		t.hashFunc = f
	}
}

// Round the initial size and every grown size up to the next prime,
// which guarantees that every probe sequence visits all slots.
func WithPrimeSizes[K comparable, V any]() Option[K, V] {
	return func(t *table[K, V]) {
		t.primeSizes = true
	}
}

// Log rehash events to the given logger.
func WithLogger[K comparable, V any](l *log.Logger) Option[K, V] {
	return func(t *table[K, V]) {
		t.logger = l
	}
}

func (t *table[K, V]) init(initialSize int, opts ...Option[K, V]) error {
	if initialSize < minSize {
		return fmt.Errorf("%w: initial size %d, must be at least %d", ErrInvalidConfig, initialSize, minSize)
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.hashFunc == nil {
		t.hashFunc = MakeDefaultHashFunc[K](maphash.MakeSeed())
	}

	size := uintptr(initialSize)
	if t.primeSizes {
		size = NextPrime(size)
	}

	t.slots = make([]slot[K, V], size)
	t.size = size
	t.count = 0
	t.holes = 0

	return nil
}

// overloaded reports whether count >= 0.75 * size.
func (t *table[K, V]) overloaded() bool {
	return t.count*4 >= t.size*3
}

// lookup walks the probe sequence of the key and returns the index of its
// slot. The walk stops at the first Empty slot unless deletes left holes.
func (t *table[K, V]) lookup(key K) (uintptr, bool) {
	hash := t.hashFunc(key)
	h1, h2 := HashSplit(hash, t.size)

	for i, idx := uintptr(0), h1; i < t.size; i++ {
		s := &t.slots[idx]
		if s.used {
			if s.hash == hash && s.key == key {
				return idx, true
			}
		} else if t.holes == 0 {
			return 0, false
		}

		idx = (idx + h2) % t.size
	}

	return 0, false
}

func (t *table[K, V]) get(key K) (V, bool) {
	idx, ok := t.lookup(key)
	if !ok {
		return t.emptyV, false
	}

	return t.slots[idx].value, true
}

// set reports whether the key is new.
func (t *table[K, V]) set(key K, value V) bool {
	if t.overloaded() {
		t.rehash()
	}

	hash := t.hashFunc(key)
	if seated, added := t.insert(hash, key, value); seated {
		return added
	}

	// The probe sequence had neither a match nor a hole.
	t.rehash()

	seated, added := t.insert(hash, key, value)
	if !seated {
		panic(fmt.Errorf("%w: key %v not seated in %d slots after rehash", ErrCapacityExhausted, key, t.size))
	}

	return added
}

// insert overwrites the value of an existing key or writes a new entry to
// the first Empty slot of the probe sequence. Once deletes left holes, a key
// may live past an Empty slot, so the whole sequence is checked for it first.
func (t *table[K, V]) insert(hash uint64, key K, value V) (seated bool, added bool) {
	var (
		h1, h2 = HashSplit(hash, t.size)

		target    uintptr
		foundSlot bool
	)

	for i, idx := uintptr(0), h1; i < t.size; i++ {
		s := &t.slots[idx]

		// 1. Existing check
		if s.used {
			if s.hash == hash && s.key == key {
				s.value = value
				return true, false
			}
		} else {
			// 2. Cache first available slot
			if !foundSlot {
				target = idx
				foundSlot = true
			}

			// 3. Termination condition
			if t.holes == 0 {
				break
			}
		}

		idx = (idx + h2) % t.size
	}

	if !foundSlot {
		return false, false
	}

	t.slots[target] = slot[K, V]{hash: hash, key: key, value: value, used: true}
	t.count++

	return true, true
}

// place writes an entry to the first Empty slot of its probe sequence
// without looking for duplicates.
func place[K comparable, V any](slots []slot[K, V], s slot[K, V]) bool {
	size := uintptr(len(slots))
	h1, h2 := HashSplit(s.hash, size)

	for i, idx := uintptr(0), h1; i < size; i++ {
		if !slots[idx].used {
			slots[idx] = s
			return true
		}

		idx = (idx + h2) % size
	}

	return false
}

func (t *table[K, V]) delete(key K) bool {
	idx, ok := t.lookup(key)
	if !ok {
		return false
	}

	t.slots[idx] = slot[K, V]{}
	t.count--
	t.holes++

	// A quarter of the slots are holes, misses have to walk whole sequences.
	if t.holes*4 >= t.size {
		t.Compact()
	}

	return true
}

// rehash moves every entry into a larger table. Keys are already unique, so
// the plain first-empty placement is used. If some entry can't be seated,
// the target size grows again.
func (t *table[K, V]) rehash() {
	oldSize := t.size
	newSize := growSize(t.size, t.primeSizes)

	for {
		slots, ok := t.reseat(newSize)
		if ok {
			t.slots = slots
			t.size = newSize
			t.holes = 0
			t.rehashes++
			break
		}

		newSize = growSize(newSize, t.primeSizes)
	}

	if t.logger != nil {
		t.logger.Printf("keyedtable: rehash %d -> %d slots, %d entries", oldSize, t.size, t.count)
	}
}

func (t *table[K, V]) reseat(size uintptr) ([]slot[K, V], bool) {
	slots := make([]slot[K, V], size)

	for i := range t.slots {
		if !t.slots[i].used {
			continue
		}

		if !place(slots, t.slots[i]) {
			return nil, false
		}
	}

	return slots, true
}

// all yields occupied entries in physical slot order.
func (t *table[K, V]) all(yield func(K, V) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}

		if !yield(s.key, s.value) {
			return
		}
	}
}

// snapshot copies occupied entries in physical slot order.
func (t *table[K, V]) snapshot() []slot[K, V] {
	entries := make([]slot[K, V], 0, t.count)
	for i := range t.slots {
		if t.slots[i].used {
			entries = append(entries, t.slots[i])
		}
	}

	return entries
}

func (t *table[K, V]) Reset() {
	clear(t.slots)
	t.count = 0
	t.holes = 0
}

// Compact drops the holes left by deletes by reseating every entry into a
// fresh slice of the same size. Afterwards every probe chain is contiguous
// again and lookups stop at the first Empty slot.
func (t *table[K, V]) Compact() {
	if t.holes == 0 {
		return
	}

	slots, ok := t.reseat(t.size)
	if !ok {
		// A short probe cycle can't seat its entry at this size.
		t.rehash()
		return
	}

	t.slots = slots
	t.holes = 0
}

func (t *table[K, V]) Stats() Stats {
	return Stats{
		Size:       int(t.count),
		Capacity:   int(t.size),
		LoadFactor: float32(t.count) / float32(t.size),
		Rehashes:   t.rehashes,
		Holes:      int(t.holes),
	}
}
