package keyedtable

import (
	"fmt"
	"iter"
	"sync"

	"golang.org/x/sys/cpu"
)

// SharedTable is a KeyedTable guarded by a single exclusive lock. Every
// operation, including rehashing, holds the lock for its entire duration,
// so no operation observes a partially rehashed table.
//
// The execution contexts sharing a SharedTable are goroutines of one
// process. Slots hold arbitrary K and V values, which may contain pointers
// into the Go heap, so the backing storage can't live in memory mapped into
// other processes.
//
// If a panic unwinds through a critical section (for example a panicking
// HashFunc in the middle of a rehash), the table is poisoned and every
// following operation returns ErrLockPoisoned. The panic itself propagates
// untouched.
type SharedTable[K comparable, V any] struct {
	_ cpu.CacheLinePad

	// The lock word sits on its own cache line, away from neighbouring
	// allocations and from the table header below.
	lock sync.Mutex

	_ cpu.CacheLinePad

	mu       sync.Locker
	poisoned bool

	t table[K, V]
}

// Returns a new shared table. A nil locker means the table's own mutex;
// otherwise every operation goes through the given one.
func NewShared[K comparable, V any](initialSize int, locker sync.Locker, opts ...Option[K, V]) (*SharedTable[K, V], error) {
	st := &SharedTable[K, V]{mu: locker}
	if st.mu == nil {
		st.mu = &st.lock
	}

	if err := st.t.init(initialSize, opts...); err != nil {
		return nil, err
	}

	return st, nil
}

// locked runs f holding the lock. The table is marked poisoned if f doesn't
// return normally; the panic is never recovered here.
func (st *SharedTable[K, V]) locked(f func()) error {
	st.mu.Lock()
	if st.poisoned {
		st.mu.Unlock()
		return ErrLockPoisoned
	}

	done := false
	defer func() {
		if !done {
			st.poisoned = true
		}

		st.mu.Unlock()
	}()

	f()
	done = true

	return nil
}

func (st *SharedTable[K, V]) Set(key K, value V) error {
	return st.locked(func() {
		st.t.set(key, value)
	})
}

func (st *SharedTable[K, V]) Get(key K) (V, error) {
	var (
		v  V
		ok bool
	)

	if err := st.locked(func() { v, ok = st.t.get(key) }); err != nil {
		return v, err
	}

	if !ok {
		return v, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return v, nil
}

func (st *SharedTable[K, V]) Find(key K) (V, bool, error) {
	var (
		v  V
		ok bool
	)

	err := st.locked(func() { v, ok = st.t.get(key) })

	return v, ok, err
}

func (st *SharedTable[K, V]) Contains(key K) (bool, error) {
	var ok bool

	err := st.locked(func() { _, ok = st.t.lookup(key) })

	return ok, err
}

func (st *SharedTable[K, V]) Delete(key K) error {
	var ok bool

	if err := st.locked(func() { ok = st.t.delete(key) }); err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return nil
}

// Remove reports a missing key as false instead of an error. The error is
// only ever ErrLockPoisoned.
func (st *SharedTable[K, V]) Remove(key K) (bool, error) {
	var ok bool

	err := st.locked(func() { ok = st.t.delete(key) })

	return ok, err
}

func (st *SharedTable[K, V]) Len() (int, error) {
	var n int

	err := st.locked(func() { n = int(st.t.count) })

	return n, err
}

func (st *SharedTable[K, V]) Size() (int, error) {
	var n int

	err := st.locked(func() { n = int(st.t.size) })

	return n, err
}

// Keys takes a snapshot of the keys under the lock. The returned sequence
// yields from the snapshot without holding the lock, so it never reflects
// mutations made after the call.
func (st *SharedTable[K, V]) Keys() (iter.Seq[K], error) {
	entries, err := st.snapshot()
	if err != nil {
		return nil, err
	}

	return func(yield func(K) bool) {
		for i := range entries {
			if !yield(entries[i].key) {
				return
			}
		}
	}, nil
}

// All is the same as Keys, for entries.
func (st *SharedTable[K, V]) All() (iter.Seq2[K, V], error) {
	entries, err := st.snapshot()
	if err != nil {
		return nil, err
	}

	return func(yield func(K, V) bool) {
		for i := range entries {
			if !yield(entries[i].key, entries[i].value) {
				return
			}
		}
	}, nil
}

func (st *SharedTable[K, V]) snapshot() ([]slot[K, V], error) {
	var entries []slot[K, V]

	err := st.locked(func() { entries = st.t.snapshot() })

	return entries, err
}

func (st *SharedTable[K, V]) Reset() error {
	return st.locked(st.t.Reset)
}

func (st *SharedTable[K, V]) Compact() error {
	return st.locked(st.t.Compact)
}

func (st *SharedTable[K, V]) Stats() (Stats, error) {
	var stats Stats

	err := st.locked(func() { stats = st.t.Stats() })

	return stats, err
}
