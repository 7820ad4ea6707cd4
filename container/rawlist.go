package container

import (
	"unsafe"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/config"
)

// growFloorBytes is the smallest allocation a growing list makes: growth
// targets at least this many bytes worth of elements before rounding the
// element capacity up to a power of two.
const growFloorBytes = 64

// RawList is the untyped dynamic-array engine. It moves raw bytes with an
// element size and alignment fixed at construction; List provides the
// strongly typed surface over it.
//
// Mutation is single-writer. Append-only concurrent use goes through the
// no-resize operations, which reserve index ranges with an atomic
// fetch-and-add on the buffer length (see ParallelWriter).
type RawList struct {
	buf       Buffer
	elemSize  uintptr
	elemAlign uintptr
}

// NewRawList allocates storage for at least capacity elements through h.
// With zero true the storage is zero-filled. capacity 0 defers the first
// allocation to the first growing operation.
func NewRawList(elemSize, elemAlign uintptr, capacity int64, h alloc.Handle, zero bool) (*RawList, error) {
	if capacity > 0 {
		capacity = grownCapacity(capacity, elemSize)
	}
	b, err := newBuffer(capacity, elemSize, elemAlign, h, zero)
	if err != nil {
		return nil, err
	}
	return &RawList{buf: b, elemSize: elemSize, elemAlign: elemAlign}, nil
}

// RawListView wraps externally owned memory holding length elements. The
// view cannot grow or free; no-resize appends beyond length fail.
func RawListView(p unsafe.Pointer, length int64, elemSize, elemAlign uintptr) *RawList {
	return &RawList{buf: bufferView(p, length), elemSize: elemSize, elemAlign: elemAlign}
}

// grownCapacity applies the growth policy: at least the requested element
// count, at least growFloorBytes worth of elements, rounded up to the
// next power of two.
func grownCapacity(request int64, elemSize uintptr) int64 {
	floor := int64(growFloorBytes / elemSize)
	if floor < 1 {
		floor = 1
	}
	if request < floor {
		request = floor
	}
	return buf.NextPow2(request)
}

// IsCreated reports whether the list has (or ever had lazily allocatable)
// storage behind it.
func (l *RawList) IsCreated() bool {
	return l.buf.IsCreated() || l.buf.h != alloc.None
}

// Len returns the logical element count.
func (l *RawList) Len() int64 { return l.buf.len }

// Cap returns the element capacity.
func (l *RawList) Cap() int64 { return l.buf.cap }

// Handle returns the owning allocator handle.
func (l *RawList) Handle() alloc.Handle { return l.buf.h }

// Ptr returns the raw storage pointer.
func (l *RawList) Ptr() unsafe.Pointer { return l.buf.data }

// Elem returns a pointer to element i. Under MEMKIT_BOUNDS_CHECK an
// out-of-range index panics; otherwise the caller is responsible.
func (l *RawList) Elem(i int64) unsafe.Pointer {
	if config.BoundsCheck() {
		l.checkIndex(i)
	}
	return elemPtr(l.buf.data, i, l.elemSize)
}

func (l *RawList) checkIndex(i int64) {
	if i < 0 || i >= l.buf.len {
		panic("container: index out of range")
	}
}

// SetLen resizes the logical length. Growing allocates capacity as needed
// and, with zero true, zero-fills the newly exposed range. Shrinking is
// O(1) and releases nothing.
func (l *RawList) SetLen(n int64, zero bool) error {
	if n < 0 {
		n = 0
	}
	old := l.buf.len
	if n > l.buf.cap {
		if err := l.reserve(n); err != nil {
			return err
		}
	}
	l.buf.len = n
	if zero && n > old {
		memclr(elemPtr(l.buf.data, old, l.elemSize), uintptr(n-old)*l.elemSize)
	}
	return nil
}

// SetCap reallocates to exactly n element capacity. Setting below the
// current length truncates the length.
func (l *RawList) SetCap(n int64) error {
	if n < 0 {
		n = 0
	}
	if !l.buf.IsCreated() && l.buf.h == alloc.None {
		return ErrNotCreated
	}
	return l.buf.setCapacity(n, l.elemSize, l.elemAlign)
}

// reserve grows capacity so that at least n elements fit, per the growth
// policy. Never shrinks.
func (l *RawList) reserve(n int64) error {
	if n <= l.buf.cap {
		return nil
	}
	if !l.buf.IsCreated() && l.buf.h == alloc.None {
		return ErrNotCreated
	}
	return l.buf.setCapacity(grownCapacity(n, l.elemSize), l.elemSize, l.elemAlign)
}

// Add appends one element, growing as needed.
func (l *RawList) Add(src unsafe.Pointer) error {
	return l.AddRange(src, 1)
}

// AddRange bulk-appends count elements from src, growing as needed.
func (l *RawList) AddRange(src unsafe.Pointer, count int64) error {
	if count <= 0 {
		return nil
	}
	if err := l.reserve(l.buf.len + count); err != nil {
		return err
	}
	memmove(elemPtr(l.buf.data, l.buf.len, l.elemSize), src, uintptr(count)*l.elemSize)
	l.buf.len += count
	return nil
}

// AddNoResize appends one element without ever reallocating; it fails
// with ErrCapacity when the buffer is full.
func (l *RawList) AddNoResize(src unsafe.Pointer) error {
	return l.AddRangeNoResize(src, 1)
}

// AddRangeNoResize bulk-appends count elements without ever reallocating.
// The capacity check is unconditional: exceeding it on this path would
// corrupt memory, not just lose data.
func (l *RawList) AddRangeNoResize(src unsafe.Pointer, count int64) error {
	if count <= 0 {
		return nil
	}
	if l.buf.len+count > l.buf.cap {
		return ErrCapacity
	}
	memmove(elemPtr(l.buf.data, l.buf.len, l.elemSize), src, uintptr(count)*l.elemSize)
	l.buf.len += count
	return nil
}

// RemoveAtSwapBack removes element i by overwriting it with the tail
// element and shrinking the length. Order is not preserved.
func (l *RawList) RemoveAtSwapBack(i int64) {
	l.RemoveRangeSwapBack(i, i+1)
}

// RemoveRangeSwapBack removes [begin, end) by copying the last
// min(end-begin, len-end) elements from the tail into the hole, then
// shrinking the length by end-begin. Removing a tail range degenerates to
// truncation.
func (l *RawList) RemoveRangeSwapBack(begin, end int64) {
	if config.BoundsCheck() && !buf.CheckRange(begin, end, l.buf.len) {
		panic("container: range out of range")
	}
	removed := end - begin
	if removed <= 0 {
		return
	}
	tail := l.buf.len - end
	k := removed
	if tail < k {
		k = tail
	}
	if k > 0 {
		memmove(
			elemPtr(l.buf.data, begin, l.elemSize),
			elemPtr(l.buf.data, l.buf.len-k, l.elemSize),
			uintptr(k)*l.elemSize,
		)
	}
	l.buf.len -= removed
}

// IndexOf scans for the first element bytewise equal to the value at src.
// Returns -1 when absent.
func (l *RawList) IndexOf(src unsafe.Pointer) int64 {
	for i := int64(0); i < l.buf.len; i++ {
		if memequal(elemPtr(l.buf.data, i, l.elemSize), src, l.elemSize) {
			return i
		}
	}
	return -1
}

// TrimExcess reallocates to exactly the current length.
func (l *RawList) TrimExcess() error {
	return l.SetCap(l.buf.len)
}

// Dispose frees the storage synchronously and leaves the list in the
// "not created" state. A second Dispose is a no-op; disposing a view only
// drops the aliasing pointer.
func (l *RawList) Dispose() {
	l.buf.free(l.elemSize)
}
