package swapmath

import (
	"github.com/holiman/uint256"

	"swapScope/internal/fullmath"
	"swapScope/internal/sqrtmath"
)

// FeeDenominator is the fee unit, hundredths of a bip.
const FeeDenominator = 1_000_000

// Step is the outcome of moving the price within a single tick range.
// AmountIn excludes the fee; FeeAmount is always in the input token.
type Step struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep advances the price from current toward target, constrained
// by the remaining amount. amountRemaining is two's complement signed:
// non-negative means exact input (fee comes out of it), negative means exact
// output. The price stops at the target when the remainder suffices, otherwise
// at the price the remainder can reach; when an exact input falls short of the
// target the entire unconsumed remainder becomes fee.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int, feePips uint32) (Step, error) {
	var (
		step Step
		err  error
	)
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)
	exactIn := amountRemaining.Sign() >= 0

	feeNum := uint256.NewInt(uint64(feePips))
	feeRem := uint256.NewInt(FeeDenominator - uint64(feePips))

	var amountOutRequested *uint256.Int
	if !exactIn {
		amountOutRequested = new(uint256.Int).Neg(amountRemaining)
	}

	if exactIn {
		var amountRemainingLessFee *uint256.Int
		amountRemainingLessFee, err = fullmath.MulDiv(amountRemaining, feeRem, uint256.NewInt(FeeDenominator))
		if err != nil {
			return Step{}, err
		}
		if zeroForOne {
			step.AmountIn, err = sqrtmath.GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			step.AmountIn, err = sqrtmath.GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}
		if !amountRemainingLessFee.Lt(step.AmountIn) {
			step.SqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = sqrtmath.GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if zeroForOne {
			step.AmountOut, err = sqrtmath.GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			step.AmountOut, err = sqrtmath.GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}
		if !amountOutRequested.Lt(step.AmountOut) {
			step.SqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = sqrtmath.GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountOutRequested, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTargetX96.Eq(step.SqrtRatioNextX96)

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = sqrtmath.GetAmount0Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = sqrtmath.GetAmount1Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = sqrtmath.GetAmount1Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = sqrtmath.GetAmount0Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	// exact output never pays out more than requested
	if !exactIn && step.AmountOut.Gt(amountOutRequested) {
		step.AmountOut = amountOutRequested
	}

	if exactIn && !reachedTarget {
		// target missed on exact input: the whole leftover is fee
		step.FeeAmount = new(uint256.Int).Sub(amountRemaining, step.AmountIn)
	} else {
		step.FeeAmount, err = fullmath.MulDivRoundingUp(step.AmountIn, feeNum, feeRem)
		if err != nil {
			return Step{}, err
		}
	}
	return step, nil
}
