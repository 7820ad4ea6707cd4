// Package container provides unmanaged, allocator-explicit container
// primitives: a growable array (List), a growable bit-set (BitSet), and a
// chained hash map (Map).
//
// # Memory model
//
// Nothing in this package is reclaimed automatically. Every owning
// container is constructed against an alloc.Handle, grows through it, and
// must be released with Dispose (or DisposeAfter for asynchronous
// teardown). A view aliases externally owned memory under the alloc.None
// sentinel and can never grow or free.
//
// Element and key types must be unmanaged: fixed-size plain data with no
// Go pointers, since the bytes live outside the garbage collector's view.
// Equality inside the containers is bytewise, so keys and searched values
// must be fully initialized, padding included.
//
// # Concurrency contracts
//
// The owning API is single-writer. Any number of goroutines may append to
// a pre-sized List through a ParallelWriter, because each append reserves
// its index range with one atomic fetch-and-add on the shared length;
// capacity must be fixed before writers start and growth is forbidden
// until they finish. ParallelReader and the Map read-only view are safe
// for any number of concurrent readers with no writer active.
//
// Bounds validation on index and bit-position arguments runs only when
// MEMKIT_BOUNDS_CHECK is on; capacity and duplicate-key checks protect
// structure integrity and are always active.
package container
