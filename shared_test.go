package keyedtable

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

func TestSharedTable_Basic(t *testing.T) {
	st, err := NewShared[string, int](DefaultInitialSize, nil)
	require.NoError(t, err)

	require.NoError(t, st.Set("a", 1))
	require.NoError(t, st.Set("b", 2))
	require.NoError(t, st.Set("a", 3))

	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = st.Get("c")
	require.ErrorIs(t, err, ErrKeyNotFound)

	v, ok, err := st.Find("b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	ok, err = st.Contains("c")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Delete("a"))
	require.ErrorIs(t, st.Delete("a"), ErrKeyNotFound)

	ok, err = st.Remove("b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Remove("b")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = st.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSharedTable_InvalidSize(t *testing.T) {
	st, err := NewShared[string, int](1, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Nil(t, st)
}

func TestSharedTable_LockCacheLine(t *testing.T) {
	st, err := NewShared[int, int](DefaultInitialSize, nil)
	require.NoError(t, err)

	// The default locker is the mutex stored inside the padded struct.
	require.Same(t, &st.lock, st.mu)

	pad := unsafe.Sizeof(cpu.CacheLinePad{})
	lockAddr := uintptr(unsafe.Pointer(&st.lock))
	base := uintptr(unsafe.Pointer(st))

	assert.GreaterOrEqual(t, lockAddr-base, pad)
	assert.GreaterOrEqual(t, unsafe.Offsetof(st.mu)-unsafe.Offsetof(st.lock), pad)
	assert.Less(t, lockAddr, base+unsafe.Sizeof(*st))
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestSharedTable_ExternalLocker(t *testing.T) {
	l := &countingLocker{}

	st, err := NewShared[int, int](5, l)
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, st.Set(i, i))
	}

	size, err := st.Size()
	require.NoError(t, err)
	assert.Greater(t, size, 5)
	assert.Equal(t, 11, l.locks)

	// Released on the error path too.
	_, err = st.Get(100)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.True(t, l.TryLock())
	l.Unlock()
}

func TestSharedTable_KeysSnapshot(t *testing.T) {
	st, err := NewShared[string, int](DefaultInitialSize, nil)
	require.NoError(t, err)

	for _, k := range []string{"k1", "k2", "k3"} {
		require.NoError(t, st.Set(k, len(k)))
	}

	keys, err := st.Keys()
	require.NoError(t, err)

	all, err := st.All()
	require.NoError(t, err)

	// Mutations after the snapshot, while iterating, don't deadlock and
	// aren't reflected.
	for k := range keys {
		require.NoError(t, st.Set(k+"_new", 0))
	}
	require.NoError(t, st.Delete("k1"))

	assert.ElementsMatch(t, []string{"k1", "k2", "k3"}, slices.Collect(keys))

	entries := make(map[string]int)
	for k, v := range all {
		entries[k] = v
	}
	assert.Equal(t, map[string]int{"k1": 2, "k2": 2, "k3": 2}, entries)

	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSharedTable_Poisoned(t *testing.T) {
	panicky := func(k string) uint64 {
		if k == "boom" {
			panic("hash failure")
		}

		return XXHashFunc[string]()(k)
	}

	st, err := NewShared(DefaultInitialSize, nil, WithHashFunc[string, int](panicky))
	require.NoError(t, err)
	require.NoError(t, st.Set("a", 1))

	assert.PanicsWithValue(t, "hash failure", func() {
		_ = st.Set("boom", 2)
	})

	// The lock itself was released, every operation now reports the poison.
	require.ErrorIs(t, st.Set("b", 2), ErrLockPoisoned)

	_, err = st.Get("a")
	require.ErrorIs(t, err, ErrLockPoisoned)
	require.NotErrorIs(t, err, ErrKeyNotFound)

	_, err = st.Contains("a")
	require.ErrorIs(t, err, ErrLockPoisoned)

	_, err = st.Remove("a")
	require.ErrorIs(t, err, ErrLockPoisoned)

	_, err = st.Len()
	require.ErrorIs(t, err, ErrLockPoisoned)

	_, err = st.Keys()
	require.ErrorIs(t, err, ErrLockPoisoned)

	require.ErrorIs(t, st.Reset(), ErrLockPoisoned)

	_, err = st.Stats()
	require.ErrorIs(t, err, ErrLockPoisoned)

	require.ErrorIs(t, st.Compact(), ErrLockPoisoned)

	// The lock itself is free again.
	require.True(t, st.lock.TryLock())
	st.lock.Unlock()
}

func TestSharedTable_Concurrent(t *testing.T) {
	st, err := NewShared[string, int](5, nil)
	require.NoError(t, err)

	const ops = 1000

	var g errgroup.Group
	for w := range 2 {
		g.Go(func() error {
			for i := range ops {
				k := fmt.Sprintf("w%d_%d", w, i)

				if err := st.Set(k, i); err != nil {
					return err
				}

				v, err := st.Get(k)
				if err != nil {
					return err
				}
				if v != i {
					return fmt.Errorf("lost update for %s: got %d, want %d", k, v, i)
				}

				// Every third key is deleted again.
				if i%3 == 0 {
					if err := st.Delete(k); err != nil {
						return err
					}
				}
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())

	live := 2 * (ops - (ops+2)/3)

	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, live, n)

	keys, err := st.Keys()
	require.NoError(t, err)
	assert.Len(t, slices.Collect(keys), live)

	for w := range 2 {
		for i := range ops {
			ok, err := st.Contains(fmt.Sprintf("w%d_%d", w, i))
			require.NoError(t, err)
			require.Equal(t, i%3 != 0, ok)
		}
	}
}

func TestSharedTable_ResetStats(t *testing.T) {
	st, err := NewShared[int, int](DefaultInitialSize, nil)
	require.NoError(t, err)

	for i := range 20 {
		require.NoError(t, st.Set(i, i))
	}

	stats, err := st.Stats()
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Size)
	assert.Positive(t, stats.Rehashes)

	for i := range 5 {
		require.NoError(t, st.Delete(i))
	}

	stats, err = st.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Holes)

	require.NoError(t, st.Compact())

	stats, err = st.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Holes)
	assert.Equal(t, 15, stats.Size)

	require.NoError(t, st.Reset())

	n, err := st.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}
