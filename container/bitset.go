package container

import (
	"math/bits"
	"unsafe"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/config"
)

const (
	wordBits  = 64
	wordShift = 6
	wordMask  = wordBits - 1
	wordSize  = unsafe.Sizeof(uint64(0))
)

// BitSet is a growless set of bits packed into 64-bit words. The logical
// bit length always rounds up to a multiple of 64. All positions handed
// to range operations must lie in [0, Len()); that is validated only
// under MEMKIT_BOUNDS_CHECK.
type BitSet struct {
	buf Buffer // uint64 words; len == cap == word count
}

// NewBitSet allocates a zero-filled set of at least numBits bits through h.
func NewBitSet(numBits int64, h alloc.Handle) (*BitSet, error) {
	return newBitSet(numBits, h, true)
}

// NewBitSetUninitialized allocates without zero-filling; the caller must
// write (or Clear) before testing bits.
func NewBitSetUninitialized(numBits int64, h alloc.Handle) (*BitSet, error) {
	return newBitSet(numBits, h, false)
}

func newBitSet(numBits int64, h alloc.Handle, zero bool) (*BitSet, error) {
	words := (numBits + wordMask) >> wordShift
	b, err := newBuffer(words, wordSize, wordSize, h, zero)
	if err != nil {
		return nil, err
	}
	b.len = words
	return &BitSet{buf: b}, nil
}

// BitSetView wraps an existing word slice as a non-owning BitSet.
func BitSetView(words []uint64) *BitSet {
	var p unsafe.Pointer
	if len(words) > 0 {
		p = unsafe.Pointer(unsafe.SliceData(words))
	}
	return &BitSet{buf: bufferView(p, int64(len(words)))}
}

// IsCreated reports whether the set has storage.
func (b *BitSet) IsCreated() bool { return b.buf.IsCreated() }

// Len returns the bit length (a multiple of 64). A not-created set is
// empty.
func (b *BitSet) Len() int64 { return b.buf.len << wordShift }

func (b *BitSet) word(i int64) *uint64 {
	return (*uint64)(elemPtr(b.buf.data, i, wordSize))
}

func (b *BitSet) checkRange(pos, count int64) {
	if pos < 0 || count < 0 || pos+count > b.Len() {
		panic("container: bit range out of range")
	}
}

// Clear zeroes every bit.
func (b *BitSet) Clear() {
	memclr(b.buf.data, uintptr(b.buf.len)*wordSize)
}

// Set sets or clears the bit at pos.
func (b *BitSet) Set(pos int64, value bool) {
	if config.BoundsCheck() {
		b.checkRange(pos, 1)
	}
	w := b.word(pos >> wordShift)
	mask := uint64(1) << uint(pos&wordMask)
	if value {
		*w |= mask
	} else {
		*w &^= mask
	}
}

// IsSet reports the bit at pos.
func (b *BitSet) IsSet(pos int64) bool {
	if config.BoundsCheck() {
		b.checkRange(pos, 1)
	}
	return *b.word(pos>>wordShift)&(uint64(1)<<uint(pos&wordMask)) != 0
}

// splitRange decomposes [pos, pos+count) into a partial first word, full
// interior words, and a partial last word, invoking fn with each word
// index and the mask of affected bits. Branch-free per piece.
func (b *BitSet) splitRange(pos, count int64, fn func(wi int64, mask uint64)) {
	if count <= 0 {
		return
	}
	wi := pos >> wordShift
	off := uint(pos & wordMask)

	n := int64(wordBits) - int64(off)
	if n > count {
		n = count
	}
	fn(wi, maskN(uint(n))<<off)
	count -= n
	wi++

	for ; count >= wordBits; count -= wordBits {
		fn(wi, ^uint64(0))
		wi++
	}

	if count > 0 {
		fn(wi, maskN(uint(count)))
	}
}

// maskN returns a mask of the n lowest bits; n must be in [1, 64].
func maskN(n uint) uint64 {
	if n >= wordBits {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// SetBits sets or clears count bits starting at pos.
func (b *BitSet) SetBits(pos int64, value bool, count int64) {
	if config.BoundsCheck() {
		b.checkRange(pos, count)
	}
	var or uint64
	if value {
		or = ^uint64(0)
	}
	b.splitRange(pos, count, func(wi int64, mask uint64) {
		w := b.word(wi)
		*w = (*w &^ mask) | (or & mask)
	})
}

// CountBits returns the number of set bits in [pos, pos+count).
func (b *BitSet) CountBits(pos, count int64) int64 {
	if config.BoundsCheck() {
		b.checkRange(pos, count)
	}
	var n int64
	b.splitRange(pos, count, func(wi int64, mask uint64) {
		n += int64(bits.OnesCount64(*b.word(wi) & mask))
	})
	return n
}

// TestNone reports whether no bit in [pos, pos+count) is set.
func (b *BitSet) TestNone(pos, count int64) bool {
	if config.BoundsCheck() {
		b.checkRange(pos, count)
	}
	none := true
	b.splitRange(pos, count, func(wi int64, mask uint64) {
		if *b.word(wi)&mask != 0 {
			none = false
		}
	})
	return none
}

// TestAny reports whether at least one bit in [pos, pos+count) is set.
func (b *BitSet) TestAny(pos, count int64) bool {
	return !b.TestNone(pos, count)
}

// TestAll reports whether every bit in [pos, pos+count) is set.
func (b *BitSet) TestAll(pos, count int64) bool {
	if config.BoundsCheck() {
		b.checkRange(pos, count)
	}
	all := true
	b.splitRange(pos, count, func(wi int64, mask uint64) {
		if *b.word(wi)&mask != mask {
			all = false
		}
	})
	return all
}

// Dispose frees the storage synchronously. A second Dispose is a no-op.
func (b *BitSet) Dispose() {
	b.buf.free(wordSize)
}
