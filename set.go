package keyedtable

import "iter"

// KeyedSet is a set-like data structure over the same double hashing table.
// It doesn't store values, only keys. Like KeyedTable it's single-owner.
type KeyedSet[K comparable] struct {
	t table[K, struct{}]
}

type SetOption[K comparable] = Option[K, struct{}]

func NewSet[K comparable](initialSize int, opts ...SetOption[K]) (*KeyedSet[K], error) {
	var ks KeyedSet[K]
	if err := ks.t.init(initialSize, opts...); err != nil {
		return nil, err
	}

	return &ks, nil
}

// Puts a key in the set. Returns whether the key is new.
func (ks *KeyedSet[K]) Add(key K) bool {
	return ks.t.set(key, struct{}{})
}

func (ks *KeyedSet[K]) Has(key K) bool {
	_, ok := ks.t.lookup(key)
	return ok
}

func (ks *KeyedSet[K]) Remove(key K) bool {
	return ks.t.delete(key)
}

func (ks *KeyedSet[K]) Len() int {
	return int(ks.t.count)
}

func (ks *KeyedSet[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		ks.t.all(func(k K, _ struct{}) bool {
			return yield(k)
		})
	}
}

func (ks *KeyedSet[K]) Reset() {
	ks.t.Reset()
}

func (ks *KeyedSet[K]) Compact() {
	ks.t.Compact()
}

func (ks *KeyedSet[K]) Stats() Stats {
	return ks.t.Stats()
}
