// Package buf contains overflow-safe arithmetic for sizing raw-memory
// buffers. Every capacity computation that multiplies an element count by
// an element size goes through these helpers so a hostile count can never
// wrap into a small allocation.
package buf

import (
	"fmt"
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result
// would overflow int64. This is essential for count * elementSize
// calculations before every allocation.
func MulOverflowSafe(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(uint64(abs(a)), uint64(abs(b)))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	r := int64(lo)
	if (a < 0) != (b < 0) {
		r = -r
	}
	return r, true
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ElemBytes validates that count elements of elemSize bytes describe a
// representable byte size and returns it. It is the recommended gate before
// handing a size to an allocator:
//
//	n, err := buf.ElemBytes(capacity, int64(elemSize))
//	if err != nil {
//	    return err
//	}
func ElemBytes(count, elemSize int64) (int64, error) {
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if elemSize <= 0 {
		return 0, fmt.Errorf("non-positive element size: %d", elemSize)
	}
	total, ok := MulOverflowSafe(count, elemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}
	return total, nil
}

// CheckRange reports whether [begin, end) is a valid sub-range of a
// container with n elements.
func CheckRange(begin, end, n int64) bool {
	return begin >= 0 && begin <= end && end <= n
}

// NextPow2 rounds v up to the next power of two. Values <= 1 round to 1.
func NextPow2(v int64) int64 {
	if v <= 1 {
		return 1
	}
	return 1 << (64 - bits.LeadingZeros64(uint64(v-1)))
}

// IsPow2 reports whether v is a positive power of two.
func IsPow2(v int64) bool {
	return v > 0 && v&(v-1) == 0
}
