package container

import (
	"github.com/joshuapare/memkit/sched"
)

// Deferred teardown: DisposeAfter invalidates the container immediately,
// so no further synchronous use can reach the storage, and registers the
// physical free with the executor gated on dep. The memory is released
// only once every operation reachable through dep has completed; until
// then a concurrently running reader or writer may still touch it safely.
//
// If dep never resolves, the free never runs. That is a resource leak
// (visible through alloc leak tracking), not a safety violation.

// DisposeAfter schedules the list's storage to be freed after dep
// resolves and returns the token for the free itself. The list is
// unusable as soon as the call returns; on an already-disposed list it is
// a no-op returning a resolved token.
func (l *List[T]) DisposeAfter(dep sched.Dependency, ex *sched.Executor) sched.Dependency {
	return l.rl.DisposeAfter(dep, ex)
}

// DisposeAfter is the untyped engine behind List.DisposeAfter.
func (l *RawList) DisposeAfter(dep sched.Dependency, ex *sched.Executor) sched.Dependency {
	b := l.buf
	l.buf = Buffer{}
	if !b.IsCreated() {
		return sched.Dependency{}
	}
	size := l.elemSize
	return ex.After(dep, func() { b.free(size) })
}

// DisposeAfter schedules the bit-set's storage to be freed after dep
// resolves. The set is unusable as soon as the call returns.
func (b *BitSet) DisposeAfter(dep sched.Dependency, ex *sched.Executor) sched.Dependency {
	s := b.buf
	b.buf = Buffer{}
	if !s.IsCreated() {
		return sched.Dependency{}
	}
	return ex.After(dep, func() { s.free(wordSize) })
}

// DisposeAfter schedules all of the map's parallel arrays to be freed
// after dep resolves. The map is unusable as soon as the call returns.
func (m *Map[K, V]) DisposeAfter(dep sched.Dependency, ex *sched.Executor) sched.Dependency {
	if !m.IsCreated() {
		return sched.Dependency{}
	}
	old := *m
	m.buckets = Buffer{}
	m.next = Buffer{}
	m.keys = Buffer{}
	m.values = Buffer{}
	m.occupied = BitSet{}
	m.count = 0
	m.freeHead = emptySlot
	return ex.After(dep, func() { old.dropStorage() })
}
