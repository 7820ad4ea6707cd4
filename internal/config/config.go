// Package config holds the process-wide diagnostic toggles for memkit.
//
// All toggles are read from the environment once at startup. They gate
// extra validation and bookkeeping only; they never change the behavior
// of the container algorithms themselves.
package config

import (
	"os"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// LeakMode selects how much allocation bookkeeping the alloc package keeps.
type LeakMode int32

const (
	// LeakOff disables allocation tracking entirely.
	LeakOff LeakMode = iota

	// LeakOn tracks live allocation count and bytes.
	LeakOn

	// LeakStack additionally captures an allocation call stack per block.
	LeakStack
)

var (
	leakMode    atomic.Int32
	boundsCheck atomic.Bool
	workers     atomic.Int32
)

// Log is the package logger for memkit diagnostics. It writes to stderr
// and is silenced unless MEMKIT_LOG sets a level.
var Log zerolog.Logger

func init() {
	level := zerolog.Disabled
	if s := os.Getenv("MEMKIT_LOG"); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	Log = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	switch os.Getenv("MEMKIT_LEAK_CHECK") {
	case "on", "1":
		leakMode.Store(int32(LeakOn))
	case "stack", "2":
		leakMode.Store(int32(LeakStack))
	}

	if s := os.Getenv("MEMKIT_BOUNDS_CHECK"); s == "1" || s == "on" {
		boundsCheck.Store(true)
	}

	n := runtime.GOMAXPROCS(0)
	if s := os.Getenv("MEMKIT_WORKERS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			n = v
		}
	}
	workers.Store(int32(n))
}

// Leak returns the current leak-tracking mode.
func Leak() LeakMode { return LeakMode(leakMode.Load()) }

// SetLeak overrides the leak-tracking mode. Intended for tests.
func SetLeak(m LeakMode) { leakMode.Store(int32(m)) }

// BoundsCheck reports whether index/range validation is enabled.
// When false, out-of-range arguments are the caller's problem.
func BoundsCheck() bool { return boundsCheck.Load() }

// SetBoundsCheck overrides the bounds-check toggle. Intended for tests.
func SetBoundsCheck(on bool) { boundsCheck.Store(on) }

// Workers returns the configured worker-thread count for the scheduler.
func Workers() int { return int(workers.Load()) }

// SetWorkers overrides the worker-thread count. Intended for tests.
func SetWorkers(n int) {
	if n > 0 {
		workers.Store(int32(n))
	}
}
