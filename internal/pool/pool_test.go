package pool

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/tick"
	"swapScope/internal/tickmath"
)

func d(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func signed(s string) *uint256.Int {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return new(uint256.Int).Neg(d(rest))
	}
	return d(s)
}

func tk(index int, net string) tick.Tick {
	n := signed(net)
	gross := n.Clone()
	if gross.Sign() < 0 {
		gross.Neg(gross)
	}
	return tick.Tick{Index: index, LiquidityGross: gross, LiquidityNet: n}
}

var priceOne = d("79228162514264337593543950336")

// fullRangePool is a 0.05% pool holding 1e18 liquidity across the whole
// usable range, priced 1:1.
func fullRangePool(t *testing.T) *Pool {
	t.Helper()
	idx, err := tick.NewBitmapIndex(10, []tick.Tick{
		tk(-887270, "1000000000000000000"),
		tk(887270, "-1000000000000000000"),
	})
	require.NoError(t, err)
	p, err := New(State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      500,
		TickSpacing:  10,
	}, idx)
	require.NoError(t, err)
	return p
}

// ladderTicks is a 0.3% pool shape with two rungs on each side of spot.
func ladderTicks() []tick.Tick {
	return []tick.Tick{
		tk(-120, "500000000000000000"),
		tk(-60, "300000000000000000"),
		tk(60, "-300000000000000000"),
		tk(120, "-500000000000000000"),
	}
}

func ladderPool(t *testing.T) *Pool {
	t.Helper()
	idx, err := tick.NewBitmapIndex(60, ladderTicks())
	require.NoError(t, err)
	p, err := New(State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      3000,
		TickSpacing:  60,
	}, idx)
	require.NoError(t, err)
	return p
}

func TestSwapOneToOnePool(t *testing.T) {
	t.Run("100 token0 in buys exactly 98 token1", func(t *testing.T) {
		res, err := fullRangePool(t).Swap(context.Background(), true, uint256.NewInt(100), nil)
		require.NoError(t, err)
		assert.Equal(t, "100", res.Amount0.Dec())
		assert.Equal(t, "98", new(uint256.Int).Neg(res.Amount1).Dec())
		assert.Equal(t, "79228162514264329749955861424", res.SqrtPriceX96.Dec())
		assert.Equal(t, -1, res.Tick)
		assert.Equal(t, "1", res.FeeAmount.Dec())
		assert.Equal(t, 2, res.Steps)
		assert.Equal(t, 0, res.CrossedTicks)
	})

	t.Run("requesting 98 token1 out costs exactly 100 token0", func(t *testing.T) {
		res, err := fullRangePool(t).Swap(context.Background(), true, signed("-98"), nil)
		require.NoError(t, err)
		assert.Equal(t, "100", res.Amount0.Dec())
		assert.Equal(t, "98", new(uint256.Int).Neg(res.Amount1).Dec())
		assert.Equal(t, "79228162514264329829184023938", res.SqrtPriceX96.Dec())
		assert.Equal(t, -1, res.Tick)
	})

	t.Run("100 token1 in buys exactly 98 token0", func(t *testing.T) {
		res, err := fullRangePool(t).Swap(context.Background(), false, uint256.NewInt(100), nil)
		require.NoError(t, err)
		assert.Equal(t, "98", new(uint256.Int).Neg(res.Amount0).Dec())
		assert.Equal(t, "100", res.Amount1.Dec())
		assert.Equal(t, "79228162514264345437132039248", res.SqrtPriceX96.Dec())
		assert.Equal(t, 0, res.Tick)
		assert.Equal(t, 1, res.Steps)
	})
}

func TestSwapCrossesInitializedTick(t *testing.T) {
	res, err := ladderPool(t).Swap(context.Background(), true, d("5000000000000000"), nil)
	require.NoError(t, err)

	assert.Equal(t, "5000000000000000", res.Amount0.Dec())
	assert.Equal(t, "4958614795547695", new(uint256.Int).Neg(res.Amount1).Dec())
	assert.Equal(t, "78768638231268842423852846874", res.SqrtPriceX96.Dec())
	assert.Equal(t, -117, res.Tick)
	assert.Equal(t, "700000000000000000", res.Liquidity.Dec())
	assert.Equal(t, "15000000000001", res.FeeAmount.Dec())
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, 1, res.CrossedTicks)
}

func TestSwapExactOutputAcrossTick(t *testing.T) {
	res, err := ladderPool(t).Swap(context.Background(), true, signed("-4000000000000000"), nil)
	require.NoError(t, err)

	assert.Equal(t, "4028587562403726", res.Amount0.Dec())
	assert.Equal(t, "4000000000000000", new(uint256.Int).Neg(res.Amount1).Dec())
	assert.Equal(t, "78877137215283458319138633571", res.SqrtPriceX96.Dec())
	assert.Equal(t, -89, res.Tick)
	assert.Equal(t, "700000000000000000", res.Liquidity.Dec())
	assert.Equal(t, "12085762687213", res.FeeAmount.Dec())
	assert.Equal(t, 1, res.CrossedTicks)
}

func TestSwapStopsAtPriceLimit(t *testing.T) {
	limit := d("79109415290437042302807587396") // tick -30
	res, err := ladderPool(t).Swap(context.Background(), true, d("5000000000000000"), limit)
	require.NoError(t, err)

	// partial fill: the limit cuts the trade short
	assert.Equal(t, "1505567156606351", res.Amount0.Dec())
	assert.Equal(t, "1498800679694116", new(uint256.Int).Neg(res.Amount1).Dec())
	assert.Equal(t, limit.Dec(), res.SqrtPriceX96.Dec())
	assert.Equal(t, -30, res.Tick)
	assert.Equal(t, "1000000000000000000", res.Liquidity.Dec())
	assert.Equal(t, 0, res.CrossedTicks)
}

func TestSwapDrainsToDefaultLimit(t *testing.T) {
	idx, err := tick.NewBitmapIndex(60, []tick.Tick{
		tk(-120, "1000000000000000000"),
		tk(120, "-1000000000000000000"),
	})
	require.NoError(t, err)
	p, err := New(State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      3000,
		TickSpacing:  60,
	}, idx)
	require.NoError(t, err)

	res, err := p.Swap(context.Background(), true, d("10000000000000000000"), nil)
	require.NoError(t, err)

	// all liquidity exits at -120, the rest of the walk is empty words
	assert.Equal(t, "6035841794200769", res.Amount0.Dec())
	assert.Equal(t, "5981737760509662", new(uint256.Int).Neg(res.Amount1).Dec())
	assert.Equal(t, "4295128740", res.SqrtPriceX96.Dec())
	assert.Equal(t, tickmath.MinTick, res.Tick)
	assert.True(t, res.Liquidity.IsZero())
	assert.Equal(t, 60, res.Steps)
	assert.Equal(t, 1, res.CrossedTicks)
}

func TestSwapAcrossZeroLiquidityGap(t *testing.T) {
	idx, err := tick.NewBitmapIndex(60, []tick.Tick{
		tk(-120, "400000000000000000"),
		tk(-60, "-400000000000000000"),
		tk(60, "700000000000000000"),
		tk(120, "-700000000000000000"),
	})
	require.NoError(t, err)
	p, err := New(State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    uint256.NewInt(0),
		FeePips:      3000,
		TickSpacing:  60,
	}, idx)
	require.NoError(t, err)

	res, err := p.Swap(context.Background(), false, d("1000000000000000"), nil)
	require.NoError(t, err)

	// the price jumps the empty band for free, then trades inside [60,120)
	assert.Equal(t, "989630912286230", new(uint256.Int).Neg(res.Amount0).Dec())
	assert.Equal(t, "1000000000000000", res.Amount1.Dec())
	assert.Equal(t, "79579035506235818830537151002", res.SqrtPriceX96.Dec())
	assert.Equal(t, 88, res.Tick)
	assert.Equal(t, "700000000000000000", res.Liquidity.Dec())
	assert.Equal(t, "3000000000000", res.FeeAmount.Dec())
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 1, res.CrossedTicks)
}

func TestSwapPreconditions(t *testing.T) {
	p := ladderPool(t)
	ctx := context.Background()

	t.Run("zero amount", func(t *testing.T) {
		_, err := p.Swap(ctx, true, uint256.NewInt(0), nil)
		assert.ErrorIs(t, err, ErrZeroAmount)
		_, err = p.Swap(ctx, true, nil, nil)
		assert.ErrorIs(t, err, ErrZeroAmount)
	})

	t.Run("limit on the wrong side", func(t *testing.T) {
		above := d("79466191966197645195421774833") // tick 60
		_, err := p.Swap(ctx, true, uint256.NewInt(1000), above)
		assert.ErrorIs(t, err, ErrInvalidPriceLimit)

		below := d("78990846045029531151608375686") // tick -60
		_, err = p.Swap(ctx, false, uint256.NewInt(1000), below)
		assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	})

	t.Run("limit outside the price domain", func(t *testing.T) {
		_, err := p.Swap(ctx, true, uint256.NewInt(1000), tickmath.MinSqrtRatio)
		assert.ErrorIs(t, err, ErrInvalidPriceLimit)
		_, err = p.Swap(ctx, false, uint256.NewInt(1000), tickmath.MaxSqrtRatio)
		assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	})
}

func TestSwapLiquidityUnderflowOnCrossing(t *testing.T) {
	// sums to zero, but the snapshot liquidity cannot cover the downward cross
	idx, err := tick.NewBitmapIndex(60, []tick.Tick{
		tk(-60, "2000000000000000000"),
		tk(60, "-2000000000000000000"),
	})
	require.NoError(t, err)
	p, err := New(State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      3000,
		TickSpacing:  60,
	}, idx)
	require.NoError(t, err)

	_, err = p.Swap(context.Background(), true, d("1000000000000000000"), nil)
	assert.ErrorIs(t, err, tick.ErrLiquidityUnderOverflow)
}

func TestSwapHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ladderPool(t).Swap(ctx, true, uint256.NewInt(1000), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSwapIdenticalAcrossProviders(t *testing.T) {
	list, err := tick.NewListIndex(60, ladderTicks())
	require.NoError(t, err)
	bitmap, err := tick.NewBitmapIndex(60, ladderTicks())
	require.NoError(t, err)

	state := State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      3000,
		TickSpacing:  60,
	}
	pl, err := New(state, list)
	require.NoError(t, err)
	pb, err := New(state, bitmap)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		amount := uint256.NewInt(rng.Uint64() % 10_000_000_000_000_000)
		if amount.IsZero() {
			continue
		}
		zeroForOne := rng.Intn(2) == 0
		if rng.Intn(2) == 0 {
			amount.Neg(amount)
		}

		rl, lerr := pl.Swap(context.Background(), zeroForOne, amount, nil)
		rb, berr := pb.Swap(context.Background(), zeroForOne, amount, nil)
		require.NoError(t, lerr)
		require.NoError(t, berr)
		require.Equal(t, rl.Amount0.Dec(), rb.Amount0.Dec())
		require.Equal(t, rl.Amount1.Dec(), rb.Amount1.Dec())
		require.Equal(t, rl.SqrtPriceX96.Dec(), rb.SqrtPriceX96.Dec())
		require.Equal(t, rl.Tick, rb.Tick)
		require.Equal(t, rl.Liquidity.Dec(), rb.Liquidity.Dec())
		require.Equal(t, rl.CrossedTicks, rb.CrossedTicks)
	}
}

// Exact input never spends more than offered; exact output never pays out
// more than requested.
func TestSwapConservation(t *testing.T) {
	p := ladderPool(t)
	rng := rand.New(rand.NewSource(123))

	for i := 0; i < 60; i++ {
		amount := uint256.NewInt(rng.Uint64()%10_000_000_000_000_000 + 1)
		zeroForOne := rng.Intn(2) == 0

		res, err := p.Swap(context.Background(), zeroForOne, amount, nil)
		require.NoError(t, err)
		spent := res.Amount0
		if !zeroForOne {
			spent = res.Amount1
		}
		require.False(t, spent.Gt(amount), "spent %s of %s", spent.Dec(), amount.Dec())

		res, err = p.Swap(context.Background(), zeroForOne, new(uint256.Int).Neg(amount), nil)
		require.NoError(t, err)
		got := new(uint256.Int).Neg(res.Amount1)
		if !zeroForOne {
			got = new(uint256.Int).Neg(res.Amount0)
		}
		require.False(t, got.Gt(amount), "received %s of %s", got.Dec(), amount.Dec())
	}
}

func TestSwapLeavesPoolUntouched(t *testing.T) {
	p := ladderPool(t)
	_, err := p.Swap(context.Background(), true, d("5000000000000000"), nil)
	require.NoError(t, err)

	assert.Equal(t, priceOne.Dec(), p.SqrtPriceX96().Dec())
	assert.Equal(t, 0, p.Tick())
	assert.Equal(t, "1000000000000000000", p.Liquidity().Dec())
}

func TestNewValidation(t *testing.T) {
	idx, err := tick.NewBitmapIndex(60, ladderTicks())
	require.NoError(t, err)
	good := State{
		SqrtPriceX96: priceOne,
		Tick:         0,
		Liquidity:    d("1000000000000000000"),
		FeePips:      3000,
		TickSpacing:  60,
	}

	cases := []struct {
		name   string
		mutate func(*State)
	}{
		{"price below domain", func(s *State) { s.SqrtPriceX96 = uint256.NewInt(1) }},
		{"price at upper bound", func(s *State) { s.SqrtPriceX96 = tickmath.MaxSqrtRatio }},
		{"nil price", func(s *State) { s.SqrtPriceX96 = nil }},
		{"tick out of range", func(s *State) { s.Tick = tickmath.MaxTick + 1 }},
		{"zero spacing", func(s *State) { s.TickSpacing = 0 }},
		{"fee at denominator", func(s *State) { s.FeePips = 1_000_000 }},
		{"liquidity too wide", func(s *State) { s.Liquidity = new(uint256.Int).Lsh(uint256.NewInt(1), 128) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := good
			tc.mutate(&bad)
			_, err := New(bad, idx)
			assert.ErrorIs(t, err, ErrInvalidPoolState)
		})
	}

	t.Run("nil provider", func(t *testing.T) {
		_, err := New(good, nil)
		assert.ErrorIs(t, err, ErrInvalidPoolState)
	})
}
