package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
)

func TestMapAddGet(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	ok, err := m.TryAdd(1, 100)
	require.NoError(t, err)
	require.True(t, ok)

	v, found := m.TryGetValue(1)
	require.True(t, found)
	require.Equal(t, int64(100), v)

	v, err = m.Get(1)
	require.NoError(t, err)
	require.Equal(t, int64(100), v)

	_, err = m.Get(2)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, int64(1), m.Count())
}

func TestMapDuplicateKey(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	require.NoError(t, m.Add(5, 50))

	// TryAdd reports failure without side effects.
	ok, err := m.TryAdd(5, 999)
	require.NoError(t, err)
	require.False(t, ok)
	v, _ := m.TryGetValue(5)
	require.Equal(t, int64(50), v, "rejected insert must leave the stored value unchanged")

	// Add signals the duplicate.
	require.ErrorIs(t, m.Add(5, 999), ErrDuplicateKey)
	require.Equal(t, int64(1), m.Count())
}

func TestMapSetUpserts(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	require.NoError(t, m.Set(1, 10))
	require.NoError(t, m.Set(1, 20))
	v, _ := m.TryGetValue(1)
	require.Equal(t, int64(20), v)
	require.Equal(t, int64(1), m.Count())
}

func TestMapRemove(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	require.NoError(t, m.Add(1, 10))
	require.NoError(t, m.Add(2, 20))

	require.True(t, m.Remove(1))
	require.False(t, m.ContainsKey(1))
	require.True(t, m.ContainsKey(2))
	require.Equal(t, int64(1), m.Count())

	// Removal of an absent key is a no-op returning false.
	require.False(t, m.Remove(1))
	require.Equal(t, int64(1), m.Count())
}

func TestMapSlotReuseAfterRemove(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	require.NoError(t, m.Add(1, 10))
	require.NoError(t, m.Add(2, 20))
	slot := m.SlotOf(2)
	require.GreaterOrEqual(t, slot, int64(0))

	require.True(t, m.Remove(2))
	require.NoError(t, m.Add(3, 30))

	// The freed slot index is recycled for the next insert.
	require.Equal(t, slot, m.SlotOf(3))
	v, _ := m.TryGetValue(3)
	require.Equal(t, int64(30), v)
}

func TestMapGrowsWhenFreeListEmpty(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	for i := int64(0); i < 100; i++ {
		require.NoError(t, m.Add(i, i*10))
	}
	require.Equal(t, int64(100), m.Count())
	require.True(t, buf.IsPow2(m.Cap()))
	require.GreaterOrEqual(t, m.Cap(), int64(100))

	// Resize never changes logical presence.
	for i := int64(0); i < 100; i++ {
		v, found := m.TryGetValue(i)
		require.Truef(t, found, "key %d lost in resize", i)
		require.Equal(t, i*10, v)
	}
}

func TestMapSetCapAndTrimExcess(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	for i := int64(0); i < 20; i++ {
		require.NoError(t, m.Add(i, i))
	}
	require.NoError(t, m.SetCap(128))
	require.Equal(t, int64(128), m.Cap())

	require.NoError(t, m.TrimExcess())
	require.Equal(t, int64(32), m.Cap(), "20 entries trim to the next power of two")
	for i := int64(0); i < 20; i++ {
		require.True(t, m.ContainsKey(i))
	}

	// The floor holds even for a nearly empty map.
	for i := int64(0); i < 19; i++ {
		m.Remove(i)
	}
	require.NoError(t, m.TrimExcess())
	require.Equal(t, int64(minMapCapacity), m.Cap())
	require.True(t, m.ContainsKey(19))
}

func TestMapStructKeys(t *testing.T) {
	type key struct {
		A int32
		B int32
	}
	m, err := NewMap[key, float64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	require.NoError(t, m.Add(key{1, 2}, 1.5))
	require.NoError(t, m.Add(key{2, 1}, 2.5))

	v, found := m.TryGetValue(key{1, 2})
	require.True(t, found)
	require.Equal(t, 1.5, v)
	require.False(t, m.ContainsKey(key{1, 3}))
}

func TestMapIterVisitsEveryPairOnce(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	for i := int64(0); i < 50; i++ {
		require.NoError(t, m.Add(i, i*2))
	}
	m.Remove(10)
	m.Remove(30)

	seen := make(map[int64]int64)
	it := m.Iter()
	for it.Next() {
		seen[it.Key()] = it.Value()
	}
	require.Len(t, seen, 48)
	for k, v := range seen {
		require.Equal(t, k*2, v)
	}

	// The cursor is restartable.
	it.Reset()
	n := 0
	for it.Next() {
		n++
	}
	require.Equal(t, 48, n)
}

func TestMapKeysValuesSnapshots(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, m.Add(i, -i))
	}

	ks, vs, err := m.KeyValues(alloc.Heap)
	require.NoError(t, err)
	defer ks.Dispose()
	defer vs.Dispose()

	require.Equal(t, int64(5), ks.Len())
	require.Equal(t, int64(5), vs.Len())
	for i := int64(0); i < 5; i++ {
		require.Equal(t, -ks.Get(i), vs.Get(i), "keys and values must be index-aligned")
	}
}

func TestMapReadOnlyView(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()
	require.NoError(t, m.Add(1, 10))

	r := m.ReadOnly()
	require.Equal(t, int64(1), r.Count())
	require.True(t, r.ContainsKey(1))
	v, found := r.TryGetValue(1)
	require.True(t, found)
	require.Equal(t, int64(10), v)
}

func TestMapDisposed(t *testing.T) {
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	require.NoError(t, m.Add(1, 10))
	m.Dispose()

	require.False(t, m.IsCreated())
	require.Equal(t, int64(0), m.Count())
	require.False(t, m.ContainsKey(1), "disposed map reads as empty")
	_, found := m.TryGetValue(1)
	require.False(t, found)
	_, err = m.TryAdd(1, 1)
	require.ErrorIs(t, err, ErrNotCreated)
	require.False(t, m.Remove(1))

	m.Dispose() // no-op
}

func TestMapCollidingKeysShareBucket(t *testing.T) {
	// Fill enough keys that chains form, then remove from the middle of
	// chains and verify the survivors.
	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	defer m.Dispose()

	const n = 64
	for i := int64(0); i < n; i++ {
		require.NoError(t, m.Add(i, i))
	}
	for i := int64(0); i < n; i += 3 {
		require.True(t, m.Remove(i))
	}
	for i := int64(0); i < n; i++ {
		want := i%3 != 0
		require.Equalf(t, want, m.ContainsKey(i), "key %d presence", i)
	}
}
