//go:build unix

package alloc

import (
	"os"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sys/unix"
)

// pageAllocator serves page-granular blocks from anonymous private
// mappings. Requests round up to whole pages, so it suits large
// long-lived buffers, not small churny ones.
type pageAllocator struct {
	pageSize uintptr
	maps     *xsync.MapOf[uintptr, []byte]
}

func newPageAllocator() Allocator {
	return &pageAllocator{
		pageSize: uintptr(os.Getpagesize()),
		maps:     xsync.NewMapOf[uintptr, []byte](),
	}
}

func (a *pageAllocator) roundUp(size uintptr) int {
	return int((size + a.pageSize - 1) &^ (a.pageSize - 1))
}

func (a *pageAllocator) Alloc(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	// Mappings are page-aligned, which satisfies any plausible element
	// alignment.
	m, err := unix.Mmap(-1, 0, a.roundUp(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic("alloc: mmap failed: " + err.Error())
	}
	p := unsafe.Pointer(unsafe.SliceData(m))
	a.maps.Store(uintptr(p), m)
	return p
}

func (a *pageAllocator) Realloc(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	// Growth within the already-mapped final page needs no new mapping.
	if ptr != nil && newSize > 0 && a.roundUp(oldSize) == a.roundUp(newSize) {
		return ptr
	}
	return reallocCopy(a, ptr, oldSize, newSize, align)
}

func (a *pageAllocator) Free(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	m, ok := a.maps.LoadAndDelete(uintptr(ptr))
	if !ok {
		return
	}
	_ = unix.Munmap(m)
}
