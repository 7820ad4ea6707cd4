package alloc

import (
	"sync"
	"unsafe"
)

// DefaultChunkSize is the default chunk size for new Bump arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// Bump is a chunked bump-pointer arena. Alloc is O(1), Free is a no-op,
// and Reset reclaims every block at once, which makes it the right
// backend for containers with identical lifetimes (per-frame or
// per-request scratch data).
//
// A Bump must be registered to obtain its Handle and released with
// Release when no container refers to its memory anymore.
type Bump struct {
	mu        sync.Mutex
	chunks    [][]byte
	offsets   []uintptr
	chunkSize uintptr
	handle    Handle
}

// NewBump creates a Bump arena with the given chunk size and registers it.
// chunkSize <= 0 selects DefaultChunkSize.
func NewBump(chunkSize int) *Bump {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	b := &Bump{chunkSize: uintptr(chunkSize)}
	b.handle = Register(b)
	return b
}

// Handle returns the registered handle for this arena.
func (b *Bump) Handle() Handle { return b.handle }

func (b *Bump) Alloc(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chunkSize == 0 {
		panic("alloc: bump arena used after Release")
	}
	if n := len(b.chunks); n > 0 {
		if p := b.bumpInto(n-1, size, align); p != nil {
			return p
		}
	}
	sz := b.chunkSize
	if size+align > sz {
		sz = size + align
	}
	b.chunks = append(b.chunks, make([]byte, sz))
	b.offsets = append(b.offsets, 0)
	return b.bumpInto(len(b.chunks)-1, size, align)
}

// bumpInto tries to carve size bytes from chunk i. Returns nil when the
// chunk cannot hold the request.
func (b *Bump) bumpInto(i int, size, align uintptr) unsafe.Pointer {
	c := b.chunks[i]
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c)))
	off := b.offsets[i]
	if rem := (base + off) & (align - 1); rem != 0 {
		off += align - rem
	}
	if off+size > uintptr(len(c)) {
		return nil
	}
	b.offsets[i] = off + size
	return unsafe.Pointer(&c[off])
}

func (b *Bump) Realloc(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	if newSize == 0 {
		return nil
	}
	p := b.Alloc(newSize, align)
	n := oldSize
	if newSize < n {
		n = newSize
	}
	if ptr != nil && n > 0 {
		copy(unsafe.Slice((*byte)(p), n), unsafe.Slice((*byte)(ptr), n))
	}
	return p
}

// Free is a no-op: arena memory is reclaimed in bulk by Reset or Release.
func (b *Bump) Free(ptr unsafe.Pointer, size uintptr) {}

// Reset rewinds every chunk, invalidating all outstanding blocks while
// keeping the chunks for reuse.
func (b *Bump) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.offsets {
		b.offsets[i] = 0
	}
}

// Release unregisters the arena and drops its chunks. Any container still
// holding arena memory is invalid after this call.
func (b *Bump) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	Unregister(b.handle)
	b.chunks = nil
	b.offsets = nil
	b.chunkSize = 0
}
