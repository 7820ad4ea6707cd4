// Package alloc is the allocation backend for memkit's unmanaged
// containers.
//
// Containers never call an allocator directly; they hold a Handle and
// allocate, reallocate, and free through it. A Handle is a small integer
// keying a process-global registry of Allocator implementations, so a
// container header stays flat and copyable while the allocation strategy
// behind it is pluggable.
//
// Three handles are pre-registered:
//
//   - None: the view sentinel. A container built over externally owned
//     memory carries None; freeing through it is a no-op and allocating
//     through it panics, because a view growing is an ownership bug.
//   - Heap: general-purpose allocator backed by Go-heap slabs pinned in a
//     registry so the raw pointers handed out stay valid until freed.
//   - Page: page-granular allocator over anonymous memory mappings.
//
// Additional allocators (for example a Bump arena) are registered with
// Register and torn down with Unregister.
//
// When leak tracking is enabled (MEMKIT_LEAK_CHECK), every live block is
// recorded per handle and CheckLeaks reports whatever was never freed.
package alloc
