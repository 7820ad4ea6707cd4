package alloc

import (
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
)

// heapAllocator hands out raw pointers into Go-heap slabs. Each slab is
// pinned in a concurrent map keyed by the aligned pointer it produced, so
// the garbage collector keeps the backing array alive until Free drops
// the pin.
type heapAllocator struct {
	pins *xsync.MapOf[uintptr, []byte]
}

func newHeapAllocator() *heapAllocator {
	return &heapAllocator{pins: xsync.NewMapOf[uintptr, []byte]()}
}

func (a *heapAllocator) Alloc(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	// Go slabs are at least 8-byte aligned; over-allocate for stricter
	// alignments and offset into the slab.
	pad := uintptr(0)
	if align > 8 {
		pad = align - 1
	}
	slab := make([]byte, size+pad)
	p := unsafe.Pointer(unsafe.SliceData(slab))
	if rem := uintptr(p) & (align - 1); rem != 0 {
		p = unsafe.Add(p, align-rem)
	}
	a.pins.Store(uintptr(p), slab)
	return p
}

func (a *heapAllocator) Realloc(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	return reallocCopy(a, ptr, oldSize, newSize, align)
}

func (a *heapAllocator) Free(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	a.pins.Delete(uintptr(ptr))
}
