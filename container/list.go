package container

import (
	"unsafe"

	"github.com/joshuapare/memkit/alloc"
)

// List is the strongly typed dynamic array over RawList. T must be an
// unmanaged type: fixed size, no Go pointers. Element comparison
// (IndexOf, Contains) is bytewise.
type List[T any] struct {
	rl *RawList
}

// NewList allocates storage for at least capacity elements of T through
// h. The memory is not zero-filled; use NewListCleared when reading ahead
// of writes.
func NewList[T any](capacity int64, h alloc.Handle) (*List[T], error) {
	return newList[T](capacity, h, false)
}

// NewListCleared is NewList with zero-filled storage.
func NewListCleared[T any](capacity int64, h alloc.Handle) (*List[T], error) {
	return newList[T](capacity, h, true)
}

func newList[T any](capacity int64, h alloc.Handle, zero bool) (*List[T], error) {
	var t T
	rl, err := NewRawList(unsafe.Sizeof(t), unsafe.Alignof(t), capacity, h, zero)
	if err != nil {
		return nil, err
	}
	return &List[T]{rl: rl}, nil
}

// ListView aliases an existing slice as a non-owning List. The view can
// read, write in place, and remove, but never grow or free; the slice
// must stay reachable while the view is in use.
func ListView[T any](s []T) *List[T] {
	var t T
	var p unsafe.Pointer
	if len(s) > 0 {
		p = unsafe.Pointer(unsafe.SliceData(s))
	}
	return &List[T]{rl: RawListView(p, int64(len(s)), unsafe.Sizeof(t), unsafe.Alignof(t))}
}

// Raw exposes the untyped engine, for callers that need byte-level access.
func (l *List[T]) Raw() *RawList { return l.rl }

// IsCreated reports whether the list is usable (not disposed).
func (l *List[T]) IsCreated() bool { return l.rl.IsCreated() }

// Len returns the element count.
func (l *List[T]) Len() int64 { return l.rl.Len() }

// Cap returns the element capacity.
func (l *List[T]) Cap() int64 { return l.rl.Cap() }

// SetLen resizes the logical length; growing allocates as needed and
// leaves the new elements uninitialized.
func (l *List[T]) SetLen(n int64) error { return l.rl.SetLen(n, false) }

// SetLenCleared resizes the logical length, zero-filling any newly
// exposed elements.
func (l *List[T]) SetLenCleared(n int64) error { return l.rl.SetLen(n, true) }

// SetCap reallocates to exactly n element capacity, truncating the
// length when it no longer fits.
func (l *List[T]) SetCap(n int64) error { return l.rl.SetCap(n) }

// Get returns element i.
func (l *List[T]) Get(i int64) T { return *(*T)(l.rl.Elem(i)) }

// Set overwrites element i.
func (l *List[T]) Set(i int64, v T) { *(*T)(l.rl.Elem(i)) = v }

// At returns a pointer to element i, valid until the next reallocation.
func (l *List[T]) At(i int64) *T { return (*T)(l.rl.Elem(i)) }

// Add appends v, growing capacity when exhausted.
func (l *List[T]) Add(v T) error {
	return l.rl.Add(unsafe.Pointer(&v))
}

// AddRange bulk-appends all of vs, growing as needed.
func (l *List[T]) AddRange(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	return l.rl.AddRange(unsafe.Pointer(unsafe.SliceData(vs)), int64(len(vs)))
}

// AddNoResize appends v without reallocating, failing with ErrCapacity
// when full.
func (l *List[T]) AddNoResize(v T) error {
	return l.rl.AddNoResize(unsafe.Pointer(&v))
}

// AddRangeNoResize bulk-appends vs without reallocating, failing with
// ErrCapacity when vs does not fit.
func (l *List[T]) AddRangeNoResize(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	return l.rl.AddRangeNoResize(unsafe.Pointer(unsafe.SliceData(vs)), int64(len(vs)))
}

// RemoveAtSwapBack removes element i by moving the tail element into its
// place. Order is not preserved.
func (l *List[T]) RemoveAtSwapBack(i int64) { l.rl.RemoveAtSwapBack(i) }

// RemoveRangeSwapBack removes [begin, end) by filling the hole from the
// tail. Order is not preserved.
func (l *List[T]) RemoveRangeSwapBack(begin, end int64) { l.rl.RemoveRangeSwapBack(begin, end) }

// IndexOf returns the index of the first element bytewise equal to v, or
// -1 when absent.
func (l *List[T]) IndexOf(v T) int64 {
	return l.rl.IndexOf(unsafe.Pointer(&v))
}

// Contains reports whether v occurs in the list.
func (l *List[T]) Contains(v T) bool { return l.IndexOf(v) >= 0 }

// TrimExcess reallocates to exactly the current length.
func (l *List[T]) TrimExcess() error { return l.rl.TrimExcess() }

// ToSlice copies the elements into a fresh Go slice.
func (l *List[T]) ToSlice() []T {
	n := l.rl.Len()
	out := make([]T, n)
	if n > 0 {
		memmove(unsafe.Pointer(unsafe.SliceData(out)), l.rl.buf.data, uintptr(n)*l.rl.elemSize)
	}
	return out
}

// Dispose frees the storage synchronously. A second Dispose is a no-op.
func (l *List[T]) Dispose() { l.rl.Dispose() }
