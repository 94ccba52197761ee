package sqrtmath

import (
	"errors"

	"github.com/holiman/uint256"

	"swapScope/internal/fullmath"
)

var (
	// ErrInsufficientLiquidity covers zero liquidity/price preconditions and
	// output demands the current reserves cannot cover.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInvalidSqrtPrice marks a next price that left the 160-bit domain.
	ErrInvalidSqrtPrice = errors.New("sqrt price out of range")
)

// GetAmount0Delta returns the token0 amount held between two sqrt prices at
// the given liquidity, rounding in the caller's favor direction.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}
	if a.IsZero() {
		return nil, ErrInvalidSqrtPrice
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(b, a)

	if roundUp {
		inner, err := fullmath.MulDivRoundingUp(numerator1, numerator2, b)
		if err != nil {
			return nil, err
		}
		return fullmath.DivRoundingUp(inner, a)
	}
	inner, err := fullmath.MulDiv(numerator1, numerator2, b)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(inner, a), nil
}

// GetAmount1Delta returns the token1 amount held between two sqrt prices at
// the given liquidity.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}
	diff := new(uint256.Int).Sub(b, a)
	if roundUp {
		return fullmath.MulDivRoundingUp(liquidity, diff, fullmath.Q96)
	}
	return fullmath.MulDiv(liquidity, diff, fullmath.Q96)
}

// GetAmount0DeltaSigned mirrors the sign of a two's complement liquidity
// delta: negative liquidity rounds down and negates, positive rounds up.
func GetAmount0DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if liquidity.Sign() < 0 {
		amount, err := GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, new(uint256.Int).Neg(liquidity), false)
		if err != nil {
			return nil, err
		}
		return amount.Neg(amount), nil
	}
	return GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}

// GetAmount1DeltaSigned is the token1 counterpart of GetAmount0DeltaSigned.
func GetAmount1DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if liquidity.Sign() < 0 {
		amount, err := GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, new(uint256.Int).Neg(liquidity), false)
		if err != nil {
			return nil, err
		}
		return amount.Neg(amount), nil
	}
	return GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}

// GetNextSqrtPriceFromInput returns the price after consuming amountIn of the
// input token, rounding so the consumed input is never understated.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() || liquidity.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the price after paying out amountOut of
// the output token, rounding so the paid output is never overstated.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() || liquidity.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

// nextSqrtPriceFromAmount0RoundingUp moves the price along the token0 axis.
// Adding token0 lowers the price, removing raises it. The exact form
// liquidity*sqrtP / (liquidity +- amount*sqrtP) is used whenever the product
// fits 256 bits; adding falls back to the equivalent division otherwise.
func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	product := new(uint256.Int).Mul(amount, sqrtPX96)
	productOk := new(uint256.Int).Div(product, amount).Eq(sqrtPX96)

	if add {
		if productOk {
			denominator, carry := new(uint256.Int).AddOverflow(numerator1, product)
			if !carry {
				return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		denominator := new(uint256.Int).Div(numerator1, sqrtPX96)
		denominator, carry := denominator.AddOverflow(denominator, amount)
		if carry {
			return nil, ErrInvalidSqrtPrice
		}
		return fullmath.DivRoundingUp(numerator1, denominator)
	}

	if !productOk || !numerator1.Gt(product) {
		return nil, ErrInsufficientLiquidity
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	next, err := fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
	if err != nil {
		return nil, err
	}
	if next.Gt(fullmath.MaxUint160) {
		return nil, ErrInvalidSqrtPrice
	}
	return next, nil
}

// nextSqrtPriceFromAmount1RoundingDown moves the price along the token1 axis:
// price +- amount/liquidity in Q96, rounding down so the output side is never
// overstated.
func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		quotient, err := quotientQ96(liquidity, amount, false)
		if err != nil {
			return nil, err
		}
		next, carry := quotient.AddOverflow(sqrtPX96, quotient)
		if carry || next.Gt(fullmath.MaxUint160) {
			return nil, ErrInvalidSqrtPrice
		}
		return next, nil
	}

	quotient, err := quotientQ96(liquidity, amount, true)
	if err != nil {
		return nil, err
	}
	if !sqrtPX96.Gt(quotient) {
		return nil, ErrInsufficientLiquidity
	}
	return quotient.Sub(sqrtPX96, quotient), nil
}

func quotientQ96(liquidity, amount *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if !amount.Gt(fullmath.MaxUint160) {
		shifted := new(uint256.Int).Lsh(amount, 96)
		if roundUp {
			return fullmath.DivRoundingUp(shifted, liquidity)
		}
		return shifted.Div(shifted, liquidity), nil
	}
	if roundUp {
		return fullmath.MulDivRoundingUp(amount, fullmath.Q96, liquidity)
	}
	return fullmath.MulDiv(amount, fullmath.Q96, liquidity)
}
