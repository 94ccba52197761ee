package tick

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"swapScope/internal/fullmath"
	"swapScope/internal/tickmath"
)

// Tick is one rung of the price ladder. LiquidityGross is unsigned (uint128
// domain), LiquidityNet is signed two's complement (int128 domain): the
// amount added to in-range liquidity when the price crosses the tick moving
// up, removed moving down. Ticks are immutable once handed to an index.
type Tick struct {
	Index          int
	LiquidityGross *uint256.Int
	LiquidityNet   *uint256.Int
}

// Provider is the tick data contract the swap loop depends on. Any backing
// store is substitutable as long as identical tick sets answer identically.
// Implementations must answer each call before the loop issues the next one;
// results for one logical set must not depend on query order.
type Provider interface {
	GetTick(ctx context.Context, index int) (Tick, error)
	NextInitializedTickWithinOneWord(ctx context.Context, current int, lte bool, tickSpacing int) (next int, initialized bool, err error)
}

var (
	ErrNoTickData             = errors.New("no tick data")
	ErrLiquidityUnderOverflow = errors.New("liquidity under/overflow")

	// construction preconditions, reported before any query runs
	ErrInvalidTickSpacing  = errors.New("invalid tick spacing")
	ErrMisalignedTick      = errors.New("tick not aligned to spacing")
	ErrUnsortedTicks       = errors.New("tick indices not strictly ascending")
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrLiquidityOutOfRange = errors.New("tick liquidity out of range")
	ErrUnbalancedLiquidity = errors.New("liquidity net sum not zero")
)

var (
	one        = uint256.NewInt(1)
	maxInt128  = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(one, 127), 1)
	minInt128  = new(uint256.Int).Neg(new(uint256.Int).Lsh(one, 127))
	maxUint128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(one, 128), 1)
)

// ValidateTickSet checks the construction preconditions shared by every
// realization holding a complete ladder: positive spacing, aligned, strictly
// ascending, in range, liquidity within width, and a zero liquidity net sum.
func ValidateTickSet(tickSpacing int, ticks []Tick) error {
	if err := validateTicks(tickSpacing, ticks); err != nil {
		return err
	}
	var netSum uint256.Int
	for _, t := range ticks {
		netSum.Add(&netSum, t.LiquidityNet)
	}
	if !netSum.IsZero() {
		return ErrUnbalancedLiquidity
	}
	return nil
}

// validateTicks checks every per-tick precondition but not the net sum,
// which only a complete ladder can satisfy.
func validateTicks(tickSpacing int, ticks []Tick) error {
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, tickSpacing)
	}
	for i, t := range ticks {
		if t.Index < tickmath.MinTick || t.Index > tickmath.MaxTick {
			return fmt.Errorf("tick %d: %w", t.Index, ErrTickOutOfRange)
		}
		if t.Index%tickSpacing != 0 {
			return fmt.Errorf("tick %d: %w %d", t.Index, ErrMisalignedTick, tickSpacing)
		}
		if i > 0 && t.Index <= ticks[i-1].Index {
			return fmt.Errorf("tick %d after %d: %w", t.Index, ticks[i-1].Index, ErrUnsortedTicks)
		}
		if t.LiquidityGross == nil || t.LiquidityNet == nil {
			return fmt.Errorf("tick %d: nil liquidity: %w", t.Index, ErrLiquidityOutOfRange)
		}
		if t.LiquidityGross.Gt(maxUint128) {
			return fmt.Errorf("tick %d: gross %s: %w", t.Index, t.LiquidityGross.Dec(), ErrLiquidityOutOfRange)
		}
		if t.LiquidityNet.Slt(minInt128) || t.LiquidityNet.Sgt(maxInt128) {
			return fmt.Errorf("tick %d: net out of int128: %w", t.Index, ErrLiquidityOutOfRange)
		}
	}
	return nil
}

// AddLiquidityDelta applies a signed two's complement delta to unsigned
// liquidity, failing when the result would leave the uint128 domain.
func AddLiquidityDelta(liquidity, delta *uint256.Int) (*uint256.Int, error) {
	if delta.Sign() < 0 {
		abs := new(uint256.Int).Neg(delta)
		if liquidity.Lt(abs) {
			return nil, ErrLiquidityUnderOverflow
		}
		return abs.Sub(liquidity, abs), nil
	}
	sum := new(uint256.Int).Add(liquidity, delta)
	if sum.Gt(maxUint128) {
		return nil, ErrLiquidityUnderOverflow
	}
	return sum, nil
}

// Compress floors the tick onto the spacing grid. Exported for callers that
// plan bitmap word walks outside this package.
func Compress(tick, tickSpacing int) int {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// position splits a compressed tick into its bitmap word and bit.
func position(compressed int) (int16, uint8) {
	return int16(compressed >> 8), uint8(compressed & 255)
}

// scanWord answers the one-word query given the 256-bit word holding the
// compressed position. For lte the caller passes the compressed tick itself;
// for gte the compressed tick already incremented by one. Uninitialized
// results are the word's boundary on the search side.
func scanWord(word *uint256.Int, compressed int, bitPos uint8, lte bool, tickSpacing int) (int, bool, error) {
	if lte {
		bit := new(uint256.Int).Lsh(one, uint(bitPos))
		mask := new(uint256.Int).SubUint64(bit, 1)
		mask.Add(mask, bit)
		masked := mask.And(word, mask)
		if masked.IsZero() {
			return (compressed - int(bitPos)) * tickSpacing, false, nil
		}
		msb, err := fullmath.MostSignificantBit(masked)
		if err != nil {
			return 0, false, err
		}
		return (compressed - int(bitPos) + int(msb)) * tickSpacing, true, nil
	}

	mask := new(uint256.Int).Lsh(one, uint(bitPos))
	mask.SubUint64(mask, 1)
	mask.Not(mask)
	masked := mask.And(word, mask)
	if masked.IsZero() {
		return (compressed + 255 - int(bitPos)) * tickSpacing, false, nil
	}
	lsb, err := fullmath.LeastSignificantBit(masked)
	if err != nil {
		return 0, false, err
	}
	return (compressed + int(lsb) - int(bitPos)) * tickSpacing, true, nil
}
