package container

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
)

// minMapCapacity is the smallest slot capacity a created map keeps, also
// the floor TrimExcess shrinks to.
const minMapCapacity = 8

// emptySlot terminates bucket chains and the free list.
const emptySlot = int32(-1)

// Map is an unmanaged hash map with open hashing: a power-of-two bucket
// array heads singly linked chains threaded through a next array, and
// removed slots go onto a free list for reuse. Keys hash with xxhash over
// their raw bytes and compare bytewise, so K must be fully initialized,
// padding included.
//
// All parallel arrays (buckets, next links, keys, values, occupancy
// bits) live in storage owned by one allocator handle. Mutation is
// single-writer; ReadOnly returns the concurrent read view.
type Map[K any, V any] struct {
	buckets  Buffer // int32 chain heads; bucket count == slot capacity
	next     Buffer // int32 chain / free-list links
	keys     Buffer // K per slot
	values   Buffer // V per slot
	occupied BitSet // one bit per slot, drives physical-order iteration
	count    int64
	freeHead int32

	kSize, vSize   uintptr
	kAlign, vAlign uintptr
}

// NewMap allocates a map with at least the requested slot capacity
// (floored to minMapCapacity, rounded to a power of two) through h.
// K and V must have non-zero size.
func NewMap[K any, V any](capacity int64, h alloc.Handle) (*Map[K, V], error) {
	var k K
	var v V
	m := &Map[K, V]{
		kSize:  unsafe.Sizeof(k),
		vSize:  unsafe.Sizeof(v),
		kAlign: unsafe.Alignof(k),
		vAlign: unsafe.Alignof(v),
	}
	if capacity < minMapCapacity {
		capacity = minMapCapacity
	}
	if err := m.alloc(buf.NextPow2(capacity), h); err != nil {
		return nil, err
	}
	return m, nil
}

// alloc builds all parallel arrays for capacity slots and resets the
// chains: every bucket empty, every slot on the free list.
func (m *Map[K, V]) alloc(capacity int64, h alloc.Handle) error {
	buckets, err := newBuffer(capacity, 4, 4, h, false)
	if err != nil {
		return err
	}
	next, err := newBuffer(capacity, 4, 4, h, false)
	if err != nil {
		buckets.free(4)
		return err
	}
	keys, err := newBuffer(capacity, m.kSize, m.kAlign, h, false)
	if err != nil {
		buckets.free(4)
		next.free(4)
		return err
	}
	values, err := newBuffer(capacity, m.vSize, m.vAlign, h, false)
	if err != nil {
		buckets.free(4)
		next.free(4)
		keys.free(m.kSize)
		return err
	}
	occ, err := newBitSet(capacity, h, true)
	if err != nil {
		buckets.free(4)
		next.free(4)
		keys.free(m.kSize)
		values.free(m.vSize)
		return err
	}

	m.buckets, m.next, m.keys, m.values, m.occupied = buckets, next, keys, values, *occ
	for i := int64(0); i < capacity; i++ {
		*m.bucketAt(i) = emptySlot
		if i+1 < capacity {
			*m.nextAt(i) = int32(i + 1)
		} else {
			*m.nextAt(i) = emptySlot
		}
	}
	m.freeHead = 0
	m.count = 0
	return nil
}

// IsCreated reports whether the map is usable (not disposed).
func (m *Map[K, V]) IsCreated() bool { return m.buckets.IsCreated() }

// Count returns the number of stored key/value pairs.
func (m *Map[K, V]) Count() int64 { return m.count }

// Cap returns the slot capacity.
func (m *Map[K, V]) Cap() int64 { return m.buckets.cap }

func (m *Map[K, V]) bucketAt(i int64) *int32 { return (*int32)(elemPtr(m.buckets.data, i, 4)) }
func (m *Map[K, V]) nextAt(i int64) *int32   { return (*int32)(elemPtr(m.next.data, i, 4)) }
func (m *Map[K, V]) keyAt(i int64) *K        { return (*K)(elemPtr(m.keys.data, i, m.kSize)) }
func (m *Map[K, V]) valAt(i int64) *V        { return (*V)(elemPtr(m.values.data, i, m.vSize)) }

func (m *Map[K, V]) bucketOf(key *K) int64 {
	h := xxhash.Sum64(unsafe.Slice((*byte)(unsafe.Pointer(key)), m.kSize))
	return int64(h & uint64(m.buckets.cap-1))
}

// findSlot walks the chain for key, returning its slot and chain
// predecessor (emptySlot when the match heads the chain), or emptySlot
// slot when absent.
func (m *Map[K, V]) findSlot(key *K) (slot, prev int32) {
	if !m.IsCreated() {
		return emptySlot, emptySlot
	}
	prev = emptySlot
	for s := *m.bucketAt(m.bucketOf(key)); s != emptySlot; s = *m.nextAt(int64(s)) {
		if memequal(unsafe.Pointer(m.keyAt(int64(s))), unsafe.Pointer(key), m.kSize) {
			return s, prev
		}
		prev = s
	}
	return emptySlot, emptySlot
}

// TryAdd inserts key/value. It returns false (with nil error) when the
// key is already present, leaving the stored value untouched. The map
// grows automatically when the free list is exhausted.
func (m *Map[K, V]) TryAdd(key K, value V) (bool, error) {
	if !m.IsCreated() {
		return false, ErrNotCreated
	}
	if s, _ := m.findSlot(&key); s != emptySlot {
		return false, nil
	}
	if m.freeHead == emptySlot {
		if err := m.rehash(m.buckets.cap * 2); err != nil {
			return false, err
		}
	}
	slot := m.freeHead
	m.freeHead = *m.nextAt(int64(slot))

	*m.keyAt(int64(slot)) = key
	*m.valAt(int64(slot)) = value
	b := m.bucketOf(&key)
	*m.nextAt(int64(slot)) = *m.bucketAt(b)
	*m.bucketAt(b) = slot
	m.occupied.Set(int64(slot), true)
	m.count++
	return true, nil
}

// Add inserts key/value, failing with ErrDuplicateKey when the key is
// already present.
func (m *Map[K, V]) Add(key K, value V) error {
	ok, err := m.TryAdd(key, value)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateKey
	}
	return nil
}

// Set upserts: overwrite the stored value when the key exists, insert
// otherwise.
func (m *Map[K, V]) Set(key K, value V) error {
	if s, _ := m.findSlot(&key); s != emptySlot {
		*m.valAt(int64(s)) = value
		return nil
	}
	return m.Add(key, value)
}

// Remove unlinks key's slot, pushes it onto the free list, and reports
// whether a removal occurred. Removing an absent key is a no-op.
func (m *Map[K, V]) Remove(key K) bool {
	slot, prev := m.findSlot(&key)
	if slot == emptySlot {
		return false
	}
	if prev == emptySlot {
		*m.bucketAt(m.bucketOf(&key)) = *m.nextAt(int64(slot))
	} else {
		*m.nextAt(int64(prev)) = *m.nextAt(int64(slot))
	}
	*m.nextAt(int64(slot)) = m.freeHead
	m.freeHead = slot
	m.occupied.Set(int64(slot), false)
	m.count--
	return true
}

// TryGetValue returns the stored value for key and whether it was found.
// A not-created map is empty.
func (m *Map[K, V]) TryGetValue(key K) (V, bool) {
	if s, _ := m.findSlot(&key); s != emptySlot {
		return *m.valAt(int64(s)), true
	}
	var zero V
	return zero, false
}

// Get returns the stored value for key, failing with ErrKeyNotFound when
// absent. Optional lookup belongs to TryGetValue; Get never synthesizes a
// default.
func (m *Map[K, V]) Get(key K) (V, error) {
	v, ok := m.TryGetValue(key)
	if !ok {
		return v, ErrKeyNotFound
	}
	return v, nil
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	s, _ := m.findSlot(&key)
	return s != emptySlot
}

// SlotOf returns the physical slot index holding key, or -1. Useful for
// verifying slot reuse in diagnostics and tests.
func (m *Map[K, V]) SlotOf(key K) int64 {
	s, _ := m.findSlot(&key)
	return int64(s)
}

// SetCap rehashes into a new slot capacity: at least the current count,
// at least minMapCapacity, rounded to a power of two.
func (m *Map[K, V]) SetCap(capacity int64) error {
	if !m.IsCreated() {
		return ErrNotCreated
	}
	if capacity < m.count {
		capacity = m.count
	}
	if capacity < minMapCapacity {
		capacity = minMapCapacity
	}
	capacity = buf.NextPow2(capacity)
	if capacity == m.buckets.cap {
		return nil
	}
	return m.rehash(capacity)
}

// TrimExcess shrinks to the smallest capacity that holds the current
// count, subject to the minimum-capacity floor.
func (m *Map[K, V]) TrimExcess() error {
	return m.SetCap(m.count)
}

// rehash moves every occupied slot into freshly allocated parallel
// arrays. Physical slot indices compact to [0, count) in old physical
// order; logical presence never changes.
func (m *Map[K, V]) rehash(capacity int64) error {
	old := *m
	if err := m.alloc(capacity, old.buckets.h); err != nil {
		// The map is still intact under its old storage.
		*m = old
		return err
	}

	slot := int32(0)
	for i := int64(0); i < old.buckets.cap; i++ {
		if !old.occupied.IsSet(i) {
			continue
		}
		key := old.keyAt(i)
		memmove(unsafe.Pointer(m.keyAt(int64(slot))), unsafe.Pointer(key), m.kSize)
		memmove(unsafe.Pointer(m.valAt(int64(slot))), unsafe.Pointer(old.valAt(i)), m.vSize)
		b := m.bucketOf(key)
		*m.nextAt(int64(slot)) = *m.bucketAt(b)
		*m.bucketAt(b) = slot
		m.occupied.Set(int64(slot), true)
		slot++
	}
	m.count = old.count
	if int64(slot) < capacity {
		m.freeHead = slot
	} else {
		m.freeHead = emptySlot
	}

	old.dropStorage()
	return nil
}

// dropStorage frees the parallel arrays without touching logical fields.
func (m *Map[K, V]) dropStorage() {
	m.buckets.free(4)
	m.next.free(4)
	m.keys.free(m.kSize)
	m.values.free(m.vSize)
	m.occupied.Dispose()
}

// Dispose frees all storage synchronously and leaves the map in the
// "not created" state. A second Dispose is a no-op.
func (m *Map[K, V]) Dispose() {
	m.dropStorage()
	m.count = 0
	m.freeHead = emptySlot
}
