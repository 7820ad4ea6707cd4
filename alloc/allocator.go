package alloc

import (
	"sync"
	"unsafe"
)

// Allocator is the raw allocation strategy behind a Handle. Alloc returns
// memory of at least size bytes aligned to align; the contents are
// unspecified. Free releases a block previously returned by Alloc or
// Realloc of this allocator; size must match what was requested.
type Allocator interface {
	Alloc(size, align uintptr) unsafe.Pointer
	Realloc(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer
	Free(ptr unsafe.Pointer, size uintptr)
}

// Handle identifies a registered Allocator. The zero value is None, the
// non-owning view sentinel: a container carrying None aliases memory it
// must never free or grow.
type Handle int32

const (
	// None marks a non-owning view. Free through None is a no-op;
	// Alloc/Realloc through None panics with ErrViewAlloc.
	None Handle = iota

	// Heap is the default allocator, backed by pinned Go-heap slabs.
	Heap

	// Page allocates page-granular anonymous mappings.
	Page
)

var registry = struct {
	mu     sync.RWMutex
	allocs []Allocator
}{
	allocs: []Allocator{nil, newHeapAllocator(), newPageAllocator()},
}

// Register adds a custom Allocator and returns its Handle. The returned
// handle stays valid until Unregister.
func Register(a Allocator) Handle {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for i := int(Page) + 1; i < len(registry.allocs); i++ {
		if registry.allocs[i] == nil {
			registry.allocs[i] = a
			return Handle(i)
		}
	}
	registry.allocs = append(registry.allocs, a)
	return Handle(len(registry.allocs) - 1)
}

// Unregister removes a previously registered Allocator. The built-in
// handles cannot be unregistered.
func Unregister(h Handle) {
	if h <= Page {
		return
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if int(h) < len(registry.allocs) {
		registry.allocs[h] = nil
	}
}

func lookup(h Handle) Allocator {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if h < 0 || int(h) >= len(registry.allocs) {
		return nil
	}
	return registry.allocs[h]
}

// IsView reports whether h is the non-owning sentinel.
func (h Handle) IsView() bool { return h == None }

// Alloc allocates size bytes aligned to align through h. Allocating
// through None panics: only owning containers may grow.
func (h Handle) Alloc(size, align uintptr) unsafe.Pointer {
	if h == None {
		panic(ErrViewAlloc)
	}
	checkAlign(align)
	if size == 0 {
		return nil
	}
	a := lookup(h)
	if a == nil {
		panic(ErrBadHandle)
	}
	p := a.Alloc(size, align)
	trackAlloc(h, p, size)
	return p
}

// Realloc resizes a block through h, preserving min(oldSize, newSize)
// bytes. ptr may be nil (pure allocation) and newSize may be 0 (pure
// free, returning nil).
func (h Handle) Realloc(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	if h == None {
		panic(ErrViewAlloc)
	}
	checkAlign(align)
	a := lookup(h)
	if a == nil {
		panic(ErrBadHandle)
	}
	if ptr == nil {
		if newSize == 0 {
			return nil
		}
		p := a.Alloc(newSize, align)
		trackAlloc(h, p, newSize)
		return p
	}
	if newSize == 0 {
		trackFree(h, ptr)
		a.Free(ptr, oldSize)
		return nil
	}
	trackFree(h, ptr)
	p := a.Realloc(ptr, oldSize, newSize, align)
	trackAlloc(h, p, newSize)
	return p
}

// Free releases a block through h. Freeing through None or freeing nil is
// a no-op.
func (h Handle) Free(ptr unsafe.Pointer, size uintptr) {
	if h == None || ptr == nil {
		return
	}
	a := lookup(h)
	if a == nil {
		panic(ErrBadHandle)
	}
	trackFree(h, ptr)
	a.Free(ptr, size)
}

func checkAlign(align uintptr) {
	if align == 0 || align&(align-1) != 0 {
		panic(ErrOddAlign)
	}
}

// reallocCopy implements Realloc for allocators without an in-place
// resize path: allocate, copy the surviving prefix, free the old block.
func reallocCopy(a Allocator, ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	p := a.Alloc(newSize, align)
	n := oldSize
	if newSize < n {
		n = newSize
	}
	if n > 0 {
		copy(unsafe.Slice((*byte)(p), n), unsafe.Slice((*byte)(ptr), n))
	}
	a.Free(ptr, oldSize)
	return p
}
