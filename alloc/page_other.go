//go:build !unix

package alloc

// Platforms without anonymous mmap fall back to pinned heap slabs; the
// Page handle keeps its page-granular contract in spirit only.
func newPageAllocator() Allocator {
	return newHeapAllocator()
}
