package container

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/config"
)

func TestBitSetRoundsUpToWords(t *testing.T) {
	b, err := NewBitSet(1, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()
	require.Equal(t, int64(64), b.Len())

	b2, err := NewBitSet(65, alloc.Heap)
	require.NoError(t, err)
	defer b2.Dispose()
	require.Equal(t, int64(128), b2.Len())
}

func TestBitSetSetAndTest(t *testing.T) {
	b, err := NewBitSet(256, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	b.Set(0, true)
	b.Set(63, true)
	b.Set(64, true)
	b.Set(255, true)

	require.True(t, b.IsSet(0))
	require.True(t, b.IsSet(63))
	require.True(t, b.IsSet(64))
	require.True(t, b.IsSet(255))
	require.False(t, b.IsSet(1))
	require.False(t, b.IsSet(128))

	b.Set(63, false)
	require.False(t, b.IsSet(63))
}

func TestBitSetSetBitsAcrossWords(t *testing.T) {
	b, err := NewBitSet(256, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	// Head partial word, two interior words, tail partial word.
	b.SetBits(30, true, 170)

	require.True(t, b.TestAll(30, 170))
	require.True(t, b.TestNone(0, 30))
	require.True(t, b.TestNone(200, 56))
	require.Equal(t, int64(170), b.CountBits(0, 256))

	// Clearing the interior leaves the edges.
	b.SetBits(40, false, 150)
	require.True(t, b.TestAll(30, 10))
	require.True(t, b.TestNone(40, 150))
	require.True(t, b.TestAll(190, 10))
}

func TestBitSetCountMatchesIsSet(t *testing.T) {
	b, err := NewBitSet(512, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	rng := rand.New(rand.NewSource(7))
	for i := int64(0); i < 512; i++ {
		b.Set(i, rng.Intn(2) == 0)
	}

	for _, r := range [][2]int64{{0, 512}, {0, 1}, {63, 2}, {30, 170}, {500, 12}, {64, 64}, {1, 511}} {
		pos, count := r[0], r[1]
		var want int64
		for i := pos; i < pos+count; i++ {
			if b.IsSet(i) {
				want++
			}
		}
		require.Equalf(t, want, b.CountBits(pos, count), "CountBits(%d,%d)", pos, count)
	}
}

func TestBitSetTestAnyNoneAll(t *testing.T) {
	b, err := NewBitSet(128, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	require.True(t, b.TestNone(0, 128))
	require.False(t, b.TestAny(0, 128))
	require.False(t, b.TestAll(0, 128))

	b.Set(70, true)
	require.False(t, b.TestNone(0, 128))
	require.True(t, b.TestAny(0, 128))
	require.True(t, b.TestAny(70, 1))
	require.False(t, b.TestAll(0, 128))
	require.True(t, b.TestAll(70, 1))

	b.SetBits(0, true, 128)
	require.True(t, b.TestAll(0, 128))
	require.Equal(t, int64(128), b.CountBits(0, 128))
}

func TestBitSetClear(t *testing.T) {
	b, err := NewBitSet(192, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	b.SetBits(0, true, 192)
	b.Clear()
	require.True(t, b.TestNone(0, 192))
}

func TestBitSetView(t *testing.T) {
	words := []uint64{0, ^uint64(0)}
	v := BitSetView(words)

	require.Equal(t, int64(128), v.Len())
	require.True(t, v.TestNone(0, 64))
	require.True(t, v.TestAll(64, 64))

	v.Set(3, true)
	require.Equal(t, uint64(8), words[0], "view writes through to the backing words")

	v.Dispose()
	require.Equal(t, uint64(8), words[0], "disposing a view must not touch the backing memory")
}

func TestBitSetBoundsCheckMode(t *testing.T) {
	config.SetBoundsCheck(true)
	defer config.SetBoundsCheck(false)

	b, err := NewBitSet(64, alloc.Heap)
	require.NoError(t, err)
	defer b.Dispose()

	require.Panics(t, func() { b.IsSet(64) })
	require.Panics(t, func() { b.Set(-1, true) })
	require.Panics(t, func() { b.SetBits(60, true, 10) })
	require.Panics(t, func() { b.CountBits(0, 65) })
}

func TestBitSetDisposedIsEmpty(t *testing.T) {
	b, err := NewBitSet(64, alloc.Heap)
	require.NoError(t, err)
	b.Dispose()
	require.False(t, b.IsCreated())
	require.Equal(t, int64(0), b.Len())
	b.Dispose() // no-op
}
