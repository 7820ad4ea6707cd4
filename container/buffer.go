package container

import (
	"unsafe"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/buf"
)

// Buffer is the shared storage leaf under every container: a raw pointer,
// a logical length and capacity in elements, and the allocator handle
// that owns the memory.
//
// Invariants: data == nil exactly when cap == 0, and len <= cap. A Buffer
// whose handle is alloc.None is a view over externally owned memory and
// is never freed.
type Buffer struct {
	data unsafe.Pointer
	len  int64 // reserved atomically on parallel append paths
	cap  int64
	h    alloc.Handle
}

// newBuffer allocates storage for capElems elements of the given size and
// alignment through h. capElems == 0 allocates nothing.
func newBuffer(capElems int64, elemSize, elemAlign uintptr, h alloc.Handle, zero bool) (Buffer, error) {
	if capElems == 0 {
		return Buffer{h: h}, nil
	}
	bytes, err := buf.ElemBytes(capElems, int64(elemSize))
	if err != nil {
		return Buffer{}, err
	}
	p := h.Alloc(uintptr(bytes), elemAlign)
	if zero {
		memclr(p, uintptr(bytes))
	}
	return Buffer{data: p, cap: capElems, h: h}, nil
}

// bufferView wraps externally owned memory holding length elements. The
// view carries the alloc.None sentinel so it can never grow or free.
func bufferView(p unsafe.Pointer, length int64) Buffer {
	return Buffer{data: p, len: length, cap: length, h: alloc.None}
}

// IsCreated reports whether the buffer has storage. A disposed or
// zero-value Buffer is "not created".
func (b *Buffer) IsCreated() bool { return b.data != nil }

// IsView reports whether the buffer aliases memory it does not own.
func (b *Buffer) IsView() bool { return b.h.IsView() && b.data != nil }

// Len returns the logical element count.
func (b *Buffer) Len() int64 { return b.len }

// Cap returns the element capacity.
func (b *Buffer) Cap() int64 { return b.cap }

// Handle returns the owning allocator handle (alloc.None for views).
func (b *Buffer) Handle() alloc.Handle { return b.h }

// Ptr returns the raw storage pointer.
func (b *Buffer) Ptr() unsafe.Pointer { return b.data }

// setCapacity reallocates storage to exactly capElems elements, copying
// the surviving prefix and truncating len when it no longer fits.
// Growing a view panics through the handle: that is an ownership bug.
func (b *Buffer) setCapacity(capElems int64, elemSize, elemAlign uintptr) error {
	if capElems == b.cap {
		return nil
	}
	if capElems == 0 {
		h := b.h
		b.free(elemSize)
		b.h = h // capacity 0 is empty, not disposed; the handle survives
		return nil
	}
	newBytes, err := buf.ElemBytes(capElems, int64(elemSize))
	if err != nil {
		return err
	}
	oldBytes := b.cap * int64(elemSize)
	b.data = b.h.Realloc(b.data, uintptr(oldBytes), uintptr(newBytes), elemAlign)
	b.cap = capElems
	if b.len > capElems {
		b.len = capElems
	}
	return nil
}

// free releases the storage and clears all fields, leaving the buffer in
// the "not created" state. Safe to call twice; a view only drops its
// aliasing pointer.
func (b *Buffer) free(elemSize uintptr) {
	if b.data != nil {
		b.h.Free(b.data, uintptr(b.cap)*elemSize)
	}
	*b = Buffer{}
}

// elemPtr returns a pointer to element i of a storage block.
func elemPtr(p unsafe.Pointer, i int64, elemSize uintptr) unsafe.Pointer {
	return unsafe.Add(p, uintptr(i)*elemSize)
}

// memmove copies n bytes between possibly overlapping regions.
func memmove(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

// memclr zeroes n bytes at p.
func memclr(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	clear(unsafe.Slice((*byte)(p), n))
}

// memequal reports whether two n-byte regions hold identical bytes.
func memequal(a, b unsafe.Pointer, n uintptr) bool {
	if a == b {
		return true
	}
	sa := unsafe.Slice((*byte)(a), n)
	sb := unsafe.Slice((*byte)(b), n)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
