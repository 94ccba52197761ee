package tick

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/tickmath"
)

// ticksAt builds a balanced set: every tick adds one unit of net liquidity
// except the last, which removes the accumulated total.
func ticksAt(indices ...int) []Tick {
	ticks := make([]Tick, len(indices))
	for i, idx := range indices {
		net := uint256.NewInt(1)
		if i == len(indices)-1 {
			net = new(uint256.Int).Neg(uint256.NewInt(uint64(len(indices) - 1)))
		}
		ticks[i] = Tick{Index: idx, LiquidityGross: uint256.NewInt(1), LiquidityNet: net}
	}
	return ticks
}

func allIndexes(t *testing.T, spacing int, ticks []Tick) map[string]Provider {
	t.Helper()
	list, err := NewListIndex(spacing, ticks)
	require.NoError(t, err)
	bitmap, err := NewBitmapIndex(spacing, ticks)
	require.NoError(t, err)
	word, err := NewWordIndex(spacing, mustMapSource(t, spacing, ticks))
	require.NoError(t, err)
	return map[string]Provider{"list": list, "bitmap": bitmap, "word": word}
}

func TestNextInitializedTickWithinOneWordSpacingOne(t *testing.T) {
	ticks := ticksAt(-200, -55, -4, 70, 78, 84, 139, 240, 535)
	cases := []struct {
		tick     int
		lte      bool
		wantTick int
		wantInit bool
	}{
		{78, true, 78, true},
		{79, true, 78, true},
		{258, true, 256, false},
		{256, true, 256, false},
		{515, true, 512, false},
		{72, true, 70, true},
		{-55, true, -55, true},
		{-56, true, -200, true},
		{-257, true, -512, false},
		{535, true, 535, true},
		{-200, true, -200, true},
		{-201, true, -256, false},
		{78, false, 84, true},
		{77, false, 78, true},
		{-56, false, -55, true},
		{255, false, 511, false},
		{-257, false, -200, true},
		{340, false, 511, false},
		{534, false, 535, true},
		{535, false, 767, false},
		{-200, false, -55, true},
		{-1, false, 70, true},
	}
	for name, idx := range allIndexes(t, 1, ticks) {
		t.Run(name, func(t *testing.T) {
			for _, tc := range cases {
				next, init, err := idx.NextInitializedTickWithinOneWord(context.Background(), tc.tick, tc.lte, 1)
				require.NoError(t, err)
				assert.Equal(t, tc.wantTick, next, "tick %d lte %v", tc.tick, tc.lte)
				assert.Equal(t, tc.wantInit, init, "tick %d lte %v", tc.tick, tc.lte)
			}
		})
	}
}

func TestNextInitializedTickWithinOneWordSpacingSixty(t *testing.T) {
	ticks := ticksAt(-1020, -60, 0, 60, 900)
	cases := []struct {
		tick     int
		lte      bool
		wantTick int
		wantInit bool
	}{
		// -61 compresses to -2, not -1: floor division toward minus infinity
		{-61, true, -1020, true},
		{-60, true, -60, true},
		{-59, true, -60, true},
		{0, true, 0, true},
		{-1, true, -60, true},
		{1, true, 0, true},
		{59, false, 60, true},
		{60, false, 900, true},
		{-61, false, -60, true},
		{-121, false, -60, true},
		{900, true, 900, true},
		{901, true, 900, true},
		{899, false, 900, true},
		{900, false, 15300, false},
		{-1020, true, -1020, true},
		{-1021, true, -15360, false},
		{-1021, false, -1020, true},
		{15359, true, 900, true},
		{15360, true, 15360, false},
	}
	for name, idx := range allIndexes(t, 60, ticks) {
		t.Run(name, func(t *testing.T) {
			for _, tc := range cases {
				next, init, err := idx.NextInitializedTickWithinOneWord(context.Background(), tc.tick, tc.lte, 60)
				require.NoError(t, err)
				assert.Equal(t, tc.wantTick, next, "tick %d lte %v", tc.tick, tc.lte)
				assert.Equal(t, tc.wantInit, init, "tick %d lte %v", tc.tick, tc.lte)
			}
		})
	}
}

func TestGetTick(t *testing.T) {
	ticks := ticksAt(-120, 0, 180)
	for name, idx := range allIndexes(t, 60, ticks) {
		t.Run(name, func(t *testing.T) {
			got, err := idx.GetTick(context.Background(), -120)
			require.NoError(t, err)
			assert.Equal(t, -120, got.Index)
			assert.Equal(t, "1", got.LiquidityNet.Dec())

			_, err = idx.GetTick(context.Background(), 60)
			assert.ErrorIs(t, err, ErrNoTickData)
		})
	}
}

func TestQuerySpacingMustMatchConstruction(t *testing.T) {
	for name, idx := range allIndexes(t, 60, ticksAt(-60, 60)) {
		t.Run(name, func(t *testing.T) {
			_, _, err := idx.NextInitializedTickWithinOneWord(context.Background(), 0, true, 10)
			assert.ErrorIs(t, err, ErrInvalidTickSpacing)
		})
	}
}

func TestValidateTickSet(t *testing.T) {
	valid := ticksAt(-60, 0, 60)

	t.Run("accepts a balanced aligned set", func(t *testing.T) {
		assert.NoError(t, ValidateTickSet(60, valid))
	})

	t.Run("rejects non-positive spacing", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTickSet(0, valid), ErrInvalidTickSpacing)
		assert.ErrorIs(t, ValidateTickSet(-60, valid), ErrInvalidTickSpacing)
	})

	t.Run("rejects misaligned index", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTickSet(60, ticksAt(-60, 30, 60)), ErrMisalignedTick)
	})

	t.Run("rejects unsorted and duplicate indices", func(t *testing.T) {
		unsorted := ticksAt(0, -60, 60)
		assert.ErrorIs(t, ValidateTickSet(60, unsorted), ErrUnsortedTicks)
		dup := ticksAt(-60, 0, 0, 60)
		assert.ErrorIs(t, ValidateTickSet(60, dup), ErrUnsortedTicks)
	})

	t.Run("rejects out of range index", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTickSet(1, ticksAt(tickmath.MinTick-1, 0)), ErrTickOutOfRange)
		assert.ErrorIs(t, ValidateTickSet(1, ticksAt(0, tickmath.MaxTick+1)), ErrTickOutOfRange)
	})

	t.Run("rejects liquidity outside its width", func(t *testing.T) {
		wideGross := ticksAt(-60, 60)
		wideGross[0].LiquidityGross = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
		assert.ErrorIs(t, ValidateTickSet(60, wideGross), ErrLiquidityOutOfRange)

		wideNet := ticksAt(-60, 0, 60)
		wideNet[1].LiquidityNet = new(uint256.Int).Lsh(uint256.NewInt(1), 127)
		assert.ErrorIs(t, ValidateTickSet(60, wideNet), ErrLiquidityOutOfRange)

		nilNet := ticksAt(-60, 60)
		nilNet[1].LiquidityNet = nil
		assert.ErrorIs(t, ValidateTickSet(60, nilNet), ErrLiquidityOutOfRange)
	})

	t.Run("rejects nonzero net sum", func(t *testing.T) {
		unbalanced := ticksAt(-60, 0, 60)
		unbalanced[2].LiquidityNet = uint256.NewInt(5)
		assert.ErrorIs(t, ValidateTickSet(60, unbalanced), ErrUnbalancedLiquidity)
	})
}

func TestAddLiquidityDelta(t *testing.T) {
	maxU128 := new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

	got, err := AddLiquidityDelta(uint256.NewInt(100), uint256.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, "150", got.Dec())

	got, err = AddLiquidityDelta(uint256.NewInt(100), new(uint256.Int).Neg(uint256.NewInt(100)))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = AddLiquidityDelta(uint256.NewInt(100), new(uint256.Int).Neg(uint256.NewInt(101)))
	assert.ErrorIs(t, err, ErrLiquidityUnderOverflow)

	_, err = AddLiquidityDelta(maxU128, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrLiquidityUnderOverflow)

	got, err = AddLiquidityDelta(maxU128, new(uint256.Int).Neg(uint256.NewInt(1)))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).SubUint64(maxU128, 1).Dec(), got.Dec())
}

// The realizations must be indistinguishable for any set and any query.
func TestRealizationsAgreeOnRandomSets(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	spacings := []int{1, 10, 60, 200}

	for round := 0; round < 25; round++ {
		spacing := spacings[rng.Intn(len(spacings))]
		span := 3000 * spacing

		seen := map[int]bool{}
		var indices []int
		for len(indices) < 40 {
			idx := (rng.Intn(6001) - 3000) * spacing
			if !seen[idx] {
				seen[idx] = true
				indices = append(indices, idx)
			}
		}
		sort.Ints(indices)
		ticks := ticksAt(indices...)

		list, err := NewListIndex(spacing, ticks)
		require.NoError(t, err)
		bitmap, err := NewBitmapIndex(spacing, ticks)
		require.NoError(t, err)
		word, err := NewWordIndex(spacing, mustMapSource(t, spacing, ticks))
		require.NoError(t, err)

		for q := 0; q < 600; q++ {
			tickQ := rng.Intn(2*span+2*spacing+1) - span - spacing
			lte := rng.Intn(2) == 0

			ln, li, lerr := list.NextInitializedTickWithinOneWord(context.Background(), tickQ, lte, spacing)
			bn, bi, berr := bitmap.NextInitializedTickWithinOneWord(context.Background(), tickQ, lte, spacing)
			wn, wi, werr := word.NextInitializedTickWithinOneWord(context.Background(), tickQ, lte, spacing)
			require.NoError(t, lerr)
			require.NoError(t, berr)
			require.NoError(t, werr)
			require.Equal(t, ln, bn, "spacing %d tick %d lte %v", spacing, tickQ, lte)
			require.Equal(t, li, bi, "spacing %d tick %d lte %v", spacing, tickQ, lte)
			require.Equal(t, ln, wn, "spacing %d tick %d lte %v", spacing, tickQ, lte)
			require.Equal(t, li, wi, "spacing %d tick %d lte %v", spacing, tickQ, lte)
		}
	}
}
