package container

import (
	"github.com/joshuapare/memkit/alloc"
)

// MapIter is a restartable single-pass cursor over a map's occupied slots
// in physical storage order. That order has no relation to insertion
// order and changes across rehashes. Key and Value are undefined before
// the first Next.
type MapIter[K any, V any] struct {
	m   *Map[K, V]
	idx int64
}

// Iter returns a cursor positioned before the first occupied slot.
func (m *Map[K, V]) Iter() MapIter[K, V] {
	return MapIter[K, V]{m: m, idx: -1}
}

// Next advances to the next occupied slot, reporting whether one exists.
func (it *MapIter[K, V]) Next() bool {
	if !it.m.IsCreated() {
		return false
	}
	for i := it.idx + 1; i < it.m.buckets.cap; i++ {
		if it.m.occupied.IsSet(i) {
			it.idx = i
			return true
		}
	}
	it.idx = it.m.buckets.cap
	return false
}

// Key returns the key at the cursor.
func (it *MapIter[K, V]) Key() K { return *it.m.keyAt(it.idx) }

// Value returns the value at the cursor.
func (it *MapIter[K, V]) Value() V { return *it.m.valAt(it.idx) }

// Reset rewinds the cursor to before the first occupied slot.
func (it *MapIter[K, V]) Reset() { it.idx = -1 }

// Keys copies the stored keys, in slot order, into a new List owned by h.
// The caller disposes the result.
func (m *Map[K, V]) Keys(h alloc.Handle) (*List[K], error) {
	out, err := NewList[K](m.count, h)
	if err != nil {
		return nil, err
	}
	it := m.Iter()
	for it.Next() {
		if err := out.Add(it.Key()); err != nil {
			out.Dispose()
			return nil, err
		}
	}
	return out, nil
}

// Values copies the stored values, in slot order, into a new List owned
// by h. The caller disposes the result.
func (m *Map[K, V]) Values(h alloc.Handle) (*List[V], error) {
	out, err := NewList[V](m.count, h)
	if err != nil {
		return nil, err
	}
	it := m.Iter()
	for it.Next() {
		if err := out.Add(it.Value()); err != nil {
			out.Dispose()
			return nil, err
		}
	}
	return out, nil
}

// KeyValues copies keys and values into two parallel Lists owned by h,
// index-aligned in slot order. The caller disposes both.
func (m *Map[K, V]) KeyValues(h alloc.Handle) (*List[K], *List[V], error) {
	ks, err := m.Keys(h)
	if err != nil {
		return nil, nil, err
	}
	vs, err := m.Values(h)
	if err != nil {
		ks.Dispose()
		return nil, nil, err
	}
	return ks, vs, nil
}

// MapReader is a non-owning read view over a Map, safe for any number of
// concurrent readers while no writer is active.
//
// The reader snapshots the storage header at creation, so a reader handed
// to scheduled work keeps addressing the storage even after the owner is
// logically invalidated by DisposeAfter; deferred disposal keeps the
// memory alive until that work completes.
type MapReader[K any, V any] struct {
	m Map[K, V]
}

// ReadOnly returns the concurrent read view of m. The map has no parallel
// writer: its mutation API is single-writer only.
func (m *Map[K, V]) ReadOnly() MapReader[K, V] {
	return MapReader[K, V]{m: *m}
}

// Count returns the number of stored pairs.
func (r *MapReader[K, V]) Count() int64 { return r.m.Count() }

// ContainsKey reports whether key is present.
func (r *MapReader[K, V]) ContainsKey(key K) bool { return r.m.ContainsKey(key) }

// TryGetValue returns the stored value for key and whether it was found.
func (r *MapReader[K, V]) TryGetValue(key K) (V, bool) { return r.m.TryGetValue(key) }
