package price

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Division precision for the Q192 unscale. Wide enough to keep significant
// digits even near the price floor of the tick range.
const divisionPrecision = 48

var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// FromSqrtPriceX96 renders a Q64.96 sqrt price as the human price of token0
// quoted in token1: (sqrtP/2^96)^2 scaled by the decimals gap.
func FromSqrtPriceX96(sqrtPriceX96 *uint256.Int, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("sqrt price is zero")
	}
	s := sqrtPriceX96.ToBig()
	num := decimal.NewFromBigInt(new(big.Int).Mul(s, s), 0)
	ratio := num.DivRound(q192, divisionPrecision)
	return ratio.Shift(int32(decimals0) - int32(decimals1)), nil
}

// Invert flips a price to quote the other token. Zero stays zero rather than
// dividing by it.
func Invert(p decimal.Decimal) decimal.Decimal {
	if p.IsZero() {
		return decimal.Decimal{}
	}
	return decimal.NewFromInt(1).DivRound(p, divisionPrecision)
}

// HumanAmount renders a signed base-unit amount in whole-token units. The
// input uses two's complement for negatives, matching the swap accounting.
func HumanAmount(amount *uint256.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Decimal{}
	}
	neg := amount.Sign() < 0
	abs := amount.Clone()
	if neg {
		abs.Neg(abs)
	}
	d := decimal.NewFromBigInt(abs.ToBig(), -int32(decimals))
	if neg {
		d = d.Neg()
	}
	return d
}
