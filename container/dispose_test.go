package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/config"
	"github.com/joshuapare/memkit/sched"
)

func TestDisposeAfterWaitsForDependency(t *testing.T) {
	config.SetLeak(config.LeakOn)
	defer func() {
		config.SetLeak(config.LeakOff)
		alloc.ResetTracking()
	}()
	alloc.ResetTracking()

	ex := sched.NewExecutor(2)
	defer ex.Close()

	l, err := NewList[int64](16, alloc.Heap)
	require.NoError(t, err)
	require.NoError(t, l.Add(1))

	gate := make(chan struct{})
	reader := ex.Run(func() { <-gate })

	freed := l.DisposeAfter(reader, ex)

	// Logical invalidation is immediate.
	require.False(t, l.IsCreated())
	require.Equal(t, int64(0), l.Len())

	// The physical free is still pending while the reader runs.
	require.False(t, freed.Resolved())
	require.Equal(t, 1, alloc.CheckLeaks(), "storage must stay allocated until the dependency resolves")

	close(gate)
	freed.Wait()
	require.Equal(t, 0, alloc.CheckLeaks())
}

func TestDisposeAfterOnDisposedListIsNoOp(t *testing.T) {
	ex := sched.NewExecutor(1)
	defer ex.Close()

	l, err := NewList[int64](4, alloc.Heap)
	require.NoError(t, err)
	l.Dispose()

	dep := l.DisposeAfter(sched.Dependency{}, ex)
	require.True(t, dep.Resolved())
}

func TestBitSetDisposeAfter(t *testing.T) {
	config.SetLeak(config.LeakOn)
	defer func() {
		config.SetLeak(config.LeakOff)
		alloc.ResetTracking()
	}()
	alloc.ResetTracking()

	ex := sched.NewExecutor(2)
	defer ex.Close()

	b, err := NewBitSet(256, alloc.Heap)
	require.NoError(t, err)

	gate := make(chan struct{})
	dep := ex.Run(func() { <-gate })
	freed := b.DisposeAfter(dep, ex)

	require.False(t, b.IsCreated())
	require.Equal(t, 1, alloc.CheckLeaks())

	close(gate)
	freed.Wait()
	require.Equal(t, 0, alloc.CheckLeaks())
}

func TestMapDisposeAfter(t *testing.T) {
	config.SetLeak(config.LeakOn)
	defer func() {
		config.SetLeak(config.LeakOff)
		alloc.ResetTracking()
	}()
	alloc.ResetTracking()

	ex := sched.NewExecutor(2)
	defer ex.Close()

	m, err := NewMap[int64, int64](8, alloc.Heap)
	require.NoError(t, err)
	require.NoError(t, m.Add(1, 10))

	gate := make(chan struct{})
	dep := ex.Run(func() { <-gate })
	freed := m.DisposeAfter(dep, ex)

	require.False(t, m.IsCreated())
	require.False(t, m.ContainsKey(1))
	require.Equal(t, 5, alloc.CheckLeaks(), "all five parallel arrays stay allocated until the dependency resolves")

	close(gate)
	freed.Wait()
	require.Equal(t, 0, alloc.CheckLeaks())
}

func TestDisposeAfterResolvedDependencyFreesPromptly(t *testing.T) {
	ex := sched.NewExecutor(1)
	defer ex.Close()

	l, err := NewList[int64](4, alloc.Heap)
	require.NoError(t, err)

	freed := l.DisposeAfter(sched.Dependency{}, ex)
	freed.Wait()
	require.False(t, l.IsCreated())
}
