package container

import (
	"sync/atomic"
	"unsafe"
)

// ParallelWriter is a non-owning append handle over a List that any
// number of goroutines may use concurrently. Each append reserves its
// index range with one atomic fetch-and-add on the shared length; the
// write into the reserved range then needs no further synchronization
// because no other writer can address it.
//
// The writer has no growth operation at all: capacity must be fixed
// before the first writer starts, and the owner must not grow, trim, or
// dispose the list until every writer has finished. The host scheduler is
// responsible for that barrier.
type ParallelWriter[T any] struct {
	rl *RawList
}

// ParallelWriter returns the concurrent append view of l.
func (l *List[T]) ParallelWriter() ParallelWriter[T] {
	return ParallelWriter[T]{rl: l.rl}
}

// AddNoResize appends v into an atomically reserved index. Fails with
// ErrCapacity when the list is full; the reservation is rolled back and
// the length is unchanged by a failed call.
func (w ParallelWriter[T]) AddNoResize(v T) error {
	idx, err := w.reserve(1)
	if err != nil {
		return err
	}
	*(*T)(elemPtr(w.rl.buf.data, idx, w.rl.elemSize)) = v
	return nil
}

// AddRangeNoResize appends all of vs into an atomically reserved range.
// All-or-nothing: when vs does not fit, nothing is written.
func (w ParallelWriter[T]) AddRangeNoResize(vs []T) error {
	n := int64(len(vs))
	if n == 0 {
		return nil
	}
	idx, err := w.reserve(n)
	if err != nil {
		return err
	}
	memmove(
		elemPtr(w.rl.buf.data, idx, w.rl.elemSize),
		unsafe.Pointer(unsafe.SliceData(vs)),
		uintptr(n)*w.rl.elemSize,
	)
	return nil
}

// Len returns the current length, including ranges other writers have
// reserved but possibly not yet written.
func (w ParallelWriter[T]) Len() int64 {
	return atomic.LoadInt64(&w.rl.buf.len)
}

// Cap returns the fixed capacity.
func (w ParallelWriter[T]) Cap() int64 { return w.rl.buf.cap }

// reserve claims count indices, returning the start of the claimed
// range. The pre-increment value is the start index, so two writers never
// receive overlapping ranges.
func (w ParallelWriter[T]) reserve(count int64) (int64, error) {
	end := atomic.AddInt64(&w.rl.buf.len, count)
	if end > w.rl.buf.cap {
		atomic.AddInt64(&w.rl.buf.len, -count)
		return 0, ErrCapacity
	}
	return end - count, nil
}

// ParallelReader is a non-owning read handle over a List, safe for any
// number of concurrent readers while no writer is active. It exposes only
// non-mutating scans.
//
// The reader snapshots the storage header at creation, so a reader handed
// to scheduled work keeps addressing the storage even after the owner is
// logically invalidated by DisposeAfter; deferred disposal keeps the
// memory alive until that work completes.
type ParallelReader[T any] struct {
	rl RawList
}

// ParallelReader returns the concurrent read view of l.
func (l *List[T]) ParallelReader() ParallelReader[T] {
	return ParallelReader[T]{rl: *l.rl}
}

// Len returns the element count.
func (r *ParallelReader[T]) Len() int64 { return r.rl.Len() }

// IndexOf returns the index of the first element bytewise equal to v, or
// -1 when absent.
func (r *ParallelReader[T]) IndexOf(v T) int64 {
	return r.rl.IndexOf(unsafe.Pointer(&v))
}

// Contains reports whether v occurs in the list.
func (r *ParallelReader[T]) Contains(v T) bool { return r.IndexOf(v) >= 0 }
