package pool

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"swapScope/internal/swapmath"
	"swapScope/internal/tick"
	"swapScope/internal/tickmath"
)

// SwapResult is the immutable outcome of one simulated trade. Amount0 and
// Amount1 are signed two's complement: positive flows into the pool, negative
// out to the trader. FeeAmount, always in the input token, is already part of
// the input side total.
type SwapResult struct {
	Amount0      *uint256.Int
	Amount1      *uint256.Int
	SqrtPriceX96 *uint256.Int
	Tick         int
	Liquidity    *uint256.Int
	FeeAmount    *uint256.Int
	Steps        int
	CrossedTicks int
}

// Swap simulates a trade. amountSpecified is signed two's complement:
// positive for exact input, negative for exact output. sqrtPriceLimitX96 may
// be nil for the widest limit in the trade's direction. The loop advances one
// tick word per step, crossing initialized ticks and stopping when the amount
// is consumed or the price reaches the limit. On error nothing is returned;
// ctx is honored at step boundaries.
func (p *Pool) Swap(ctx context.Context, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *uint256.Int) (*SwapResult, error) {
	if amountSpecified == nil || amountSpecified.IsZero() {
		return nil, ErrZeroAmount
	}

	limit := sqrtPriceLimitX96
	if limit == nil {
		if zeroForOne {
			limit = new(uint256.Int).AddUint64(tickmath.MinSqrtRatio, 1)
		} else {
			limit = new(uint256.Int).SubUint64(tickmath.MaxSqrtRatio, 1)
		}
	}
	if zeroForOne {
		if !limit.Lt(p.sqrtPriceX96) || !limit.Gt(tickmath.MinSqrtRatio) {
			return nil, fmt.Errorf("%w: selling token0 needs limit below price %s, got %s",
				ErrInvalidPriceLimit, p.sqrtPriceX96.Dec(), limit.Dec())
		}
	} else {
		if !limit.Gt(p.sqrtPriceX96) || !limit.Lt(tickmath.MaxSqrtRatio) {
			return nil, fmt.Errorf("%w: selling token1 needs limit above price %s, got %s",
				ErrInvalidPriceLimit, p.sqrtPriceX96.Dec(), limit.Dec())
		}
	}

	exactInput := amountSpecified.Sign() > 0

	var (
		remaining  = amountSpecified.Clone()
		calculated = new(uint256.Int)
		price      = p.sqrtPriceX96.Clone()
		currTick   = p.tick
		liquidity  = p.liquidity.Clone()
		feeTotal   = new(uint256.Int)
		steps      int
		crossed    int
	)

	for !remaining.IsZero() && !price.Eq(limit) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := price

		tickNext, initialized, err := p.ticks.NextInitializedTickWithinOneWord(ctx, currTick, zeroForOne, p.tickSpacing)
		if err != nil {
			return nil, fmt.Errorf("next tick from %d: %w", currTick, err)
		}
		// the word scan may run past the usable range
		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}
		sqrtNextTick, err := tickmath.GetSqrtRatioAtTick(tickNext)
		if err != nil {
			return nil, err
		}

		target := sqrtNextTick
		if zeroForOne {
			if sqrtNextTick.Lt(limit) {
				target = limit
			}
		} else {
			if sqrtNextTick.Gt(limit) {
				target = limit
			}
		}

		step, err := swapmath.ComputeSwapStep(price, target, liquidity, remaining, p.feePips)
		if err != nil {
			return nil, fmt.Errorf("step at tick %d: %w", currTick, err)
		}
		price = step.SqrtRatioNextX96
		feeTotal.Add(feeTotal, step.FeeAmount)
		steps++

		if exactInput {
			remaining.Sub(remaining, new(uint256.Int).Add(step.AmountIn, step.FeeAmount))
			calculated.Sub(calculated, step.AmountOut)
		} else {
			remaining.Add(remaining, step.AmountOut)
			calculated.Add(calculated, new(uint256.Int).Add(step.AmountIn, step.FeeAmount))
		}

		switch {
		case price.Eq(sqrtNextTick):
			// landed exactly on the boundary
			if initialized {
				entry, err := p.ticks.GetTick(ctx, tickNext)
				if err != nil {
					return nil, fmt.Errorf("crossing tick %d: %w", tickNext, err)
				}
				net := entry.LiquidityNet.Clone()
				if zeroForOne {
					net.Neg(net)
				}
				liquidity, err = tick.AddLiquidityDelta(liquidity, net)
				if err != nil {
					return nil, fmt.Errorf("crossing tick %d: %w", tickNext, err)
				}
				crossed++
			}
			if zeroForOne {
				currTick = tickNext - 1
			} else {
				currTick = tickNext
			}
		case !price.Eq(stepStart):
			// partial step inside a range: the tick cannot be assumed unchanged
			currTick, err = tickmath.GetTickAtSqrtRatio(price)
			if err != nil {
				return nil, err
			}
		}
	}

	consumed := new(uint256.Int).Sub(amountSpecified, remaining)
	var amount0, amount1 *uint256.Int
	if zeroForOne == exactInput {
		amount0, amount1 = consumed, calculated
	} else {
		amount0, amount1 = calculated, consumed
	}

	return &SwapResult{
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: price,
		Tick:         currTick,
		Liquidity:    liquidity,
		FeeAmount:    feeTotal,
		Steps:        steps,
		CrossedTicks: crossed,
	}, nil
}
