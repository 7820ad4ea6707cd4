package alloc

import (
	"runtime"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/joshuapare/memkit/internal/config"
)

// block records one live allocation under leak tracking.
type block struct {
	handle Handle
	size   uintptr
	stack  []uintptr // nil unless LeakStack
}

var live = xsync.NewMapOf[uintptr, block]()

func trackAlloc(h Handle, p unsafe.Pointer, size uintptr) {
	mode := config.Leak()
	if mode == config.LeakOff || p == nil {
		return
	}
	b := block{handle: h, size: size}
	if mode == config.LeakStack {
		pcs := make([]uintptr, 16)
		// Skip runtime.Callers, trackAlloc, and the Handle method.
		n := runtime.Callers(3, pcs)
		b.stack = pcs[:n]
	}
	live.Store(uintptr(p), b)
}

// trackFree always deletes so that blocks allocated while tracking was on
// are forgotten even if tracking was switched off in between.
func trackFree(h Handle, p unsafe.Pointer) {
	if p == nil {
		return
	}
	live.Delete(uintptr(p))
}

// CheckLeaks logs every allocation that is still live and returns the
// count. With tracking off it always returns 0.
func CheckLeaks() int {
	n := 0
	live.Range(func(p uintptr, b block) bool {
		n++
		ev := config.Log.Warn().
			Uint64("ptr", uint64(p)).
			Int32("handle", int32(b.handle)).
			Uint64("size", uint64(b.size))
		if b.stack != nil {
			frames := runtime.CallersFrames(b.stack)
			sites := make([]string, 0, len(b.stack))
			for {
				fr, more := frames.Next()
				if fr.Function != "" {
					sites = append(sites, fr.Function)
				}
				if !more {
					break
				}
			}
			ev = ev.Strs("stack", sites)
		}
		ev.Msg("leaked allocation")
		return true
	})
	return n
}

// ResetTracking forgets all recorded allocations. Intended for tests that
// flip tracking modes.
func ResetTracking() {
	live.Clear()
}
