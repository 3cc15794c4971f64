package keyedtable

import (
	"fmt"
	"iter"
)

// KeyedTable is an associative container using double hashing for collision
// resolution. It grows automatically once 75% of the slots are occupied and
// never shrinks.
//
// KeyedTable is single-owner: it does no synchronization of its own. Use
// SharedTable when the table is accessed from several goroutines.
type KeyedTable[K comparable, V any] struct {
	table[K, V]
}

// Returns a new table with `initialSize` slots, which must be at least 2.
func New[K comparable, V any](initialSize int, opts ...Option[K, V]) (*KeyedTable[K, V], error) {
	var kt KeyedTable[K, V]
	if err := kt.init(initialSize, opts...); err != nil {
		return nil, err
	}

	return &kt, nil
}

// Same as New, but panics on invalid configuration.
func MustNew[K comparable, V any](initialSize int, opts ...Option[K, V]) *KeyedTable[K, V] {
	kt, err := New(initialSize, opts...)
	if err != nil {
		panic(err)
	}

	return kt
}

// Puts a key in the table or overwrites its value.
// May grow the table, which is visible via Size.
func (kt *KeyedTable[K, V]) Set(key K, value V) {
	kt.set(key, value)
}

// Returns the value of the key or ErrKeyNotFound.
func (kt *KeyedTable[K, V]) Get(key K) (V, error) {
	v, ok := kt.get(key)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return v, nil
}

// Returns the value of the key and whether it was found.
func (kt *KeyedTable[K, V]) Find(key K) (V, bool) {
	return kt.get(key)
}

// Checks whether a key is in the table.
func (kt *KeyedTable[K, V]) Contains(key K) bool {
	_, ok := kt.lookup(key)
	return ok
}

// Deletes a key from the table or returns ErrKeyNotFound.
func (kt *KeyedTable[K, V]) Delete(key K) error {
	if !kt.delete(key) {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return nil
}

// Deletes a key from the table. Returns false if it wasn't there.
func (kt *KeyedTable[K, V]) Remove(key K) bool {
	return kt.delete(key)
}

// Returns the number of keys in the table.
func (kt *KeyedTable[K, V]) Len() int {
	return int(kt.count)
}

// Returns the number of slots in the table.
func (kt *KeyedTable[K, V]) Size() int {
	return int(kt.size)
}

// Keys iterates over the keys in physical slot order. The order isn't
// preserved across rehashes. Mutating the table while iterating is undefined.
func (kt *KeyedTable[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		kt.all(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// All iterates over the entries in physical slot order.
func (kt *KeyedTable[K, V]) All() iter.Seq2[K, V] {
	return kt.all
}
