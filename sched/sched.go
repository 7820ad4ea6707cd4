package sched

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/joshuapare/memkit/internal/config"
)

// Dependency is an opaque token for previously scheduled work. The zero
// value is already resolved.
type Dependency struct {
	done <-chan struct{}
}

// Resolved reports whether the work behind the token has completed.
func (d Dependency) Resolved() bool {
	if d.done == nil {
		return true
	}
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the work behind the token has completed.
func (d Dependency) Wait() {
	if d.done != nil {
		<-d.done
	}
}

// job is one scheduled action; done is closed after fn returns.
type job struct {
	fn   func()
	done chan struct{}
}

// Executor runs scheduled actions on a fixed pool of workers. Actions
// gated on a Dependency are held back until it resolves and then queued
// FIFO.
type Executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor creates an Executor with the given worker count. workers <= 0
// selects the configured default (MEMKIT_WORKERS or GOMAXPROCS).
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = config.Workers()
	}
	e := &Executor{q: queue.New()}
	e.cond = sync.NewCond(&e.mu)
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	config.Log.Debug().Int("workers", workers).Msg("executor started")
	return e
}

var (
	defaultOnce sync.Once
	defaultExec *Executor
)

// Default returns the shared process-wide executor, creating it on first
// use with the configured worker count.
func Default() *Executor {
	defaultOnce.Do(func() {
		defaultExec = NewExecutor(0)
	})
	return defaultExec
}

// Run schedules fn immediately and returns its completion token.
func (e *Executor) Run(fn func()) Dependency {
	done := make(chan struct{})
	e.submit(job{fn: fn, done: done})
	return Dependency{done: done}
}

// After schedules fn to run strictly after dep resolves and returns the
// token for fn's own completion. If dep never resolves, fn never runs.
func (e *Executor) After(dep Dependency, fn func()) Dependency {
	if dep.Resolved() {
		return e.Run(fn)
	}
	done := make(chan struct{})
	go func() {
		dep.Wait()
		e.submit(job{fn: fn, done: done})
	}()
	return Dependency{done: done}
}

// Combine returns a token that resolves once every given token has
// resolved. Combine of nothing is already resolved.
func (e *Executor) Combine(deps ...Dependency) Dependency {
	pending := deps[:0:0]
	for _, d := range deps {
		if !d.Resolved() {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return Dependency{}
	}
	done := make(chan struct{})
	go func() {
		for _, d := range pending {
			d.Wait()
		}
		close(done)
	}()
	return Dependency{done: done}
}

// Close stops the workers after the queue drains. Actions submitted after
// Close run inline on the submitting goroutine, so no completion token is
// ever left dangling.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) submit(j job) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		j.fn()
		close(j.done)
		return
	}
	e.q.Add(j)
	e.cond.Signal()
	e.mu.Unlock()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.q.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.q.Length() == 0 {
			e.mu.Unlock()
			return
		}
		j := e.q.Remove().(job)
		e.mu.Unlock()

		j.fn()
		close(j.done)
	}
}
