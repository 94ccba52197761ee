package tickmath

import (
	"errors"

	"github.com/holiman/uint256"

	"swapScope/internal/fullmath"
)

// Tick domain. MinSqrtRatio/MaxSqrtRatio are the sqrt prices at the tick
// bounds; every valid sqrt price lies in [MinSqrtRatio, MaxSqrtRatio).
const (
	MinTick = -887272
	MaxTick = 887272
)

var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrInvalidTick      = errors.New("tick out of range")
	ErrInvalidSqrtPrice = errors.New("sqrt price out of range")
)

// sqrtBaseOdd is 1.0001^(-1/2) in Q128.128; tickRatios[k] is 1.0001^(-2^(k+1)/2).
var (
	sqrtBaseOdd = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	oneQ128     = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	tickRatios = [19]*uint256.Int{
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	logSqrt10001Scale = uint256.MustFromDecimal("255738958999603826347141")
	tickLowMargin     = uint256.MustFromDecimal("3402992956809132418596140100660247210")
	tickHighMargin    = uint256.MustFromDecimal("291339464771989622907027621153398088495")

	q32Mask = uint256.NewInt(0xffffffff)
)

func mulShift(ratio, mulBy *uint256.Int) {
	ratio.Mul(ratio, mulBy)
	ratio.Rsh(ratio, 128)
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96. The accumulator
// multiplies one Q128.128 constant per set bit of |tick|, inverts for positive
// ticks, and rounds the final 32-bit truncation up so the mapping stays
// strictly monotone.
func GetSqrtRatioAtTick(tick int) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrInvalidTick
	}
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(sqrtBaseOdd)
	} else {
		ratio.Set(oneQ128)
	}
	for i, mulBy := range tickRatios {
		if absTick&(2<<i) != 0 {
			mulShift(ratio, mulBy)
		}
	}
	if tick > 0 {
		ratio.Div(fullmath.MaxUint256, ratio)
	}

	var rem uint256.Int
	rem.And(ratio, q32Mask)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the unique tick t with
// GetSqrtRatioAtTick(t) <= sqrtPriceX96 < GetSqrtRatioAtTick(t+1). The log2 of
// the price is approximated from the most significant bit plus fourteen
// squaring refinements, then the candidate window of at most two ticks is
// resolved by recomputing the forward mapping.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrInvalidSqrtPrice
	}

	ratio := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb, err := fullmath.MostSignificantBit(ratio)
	if err != nil {
		return 0, err
	}

	r := new(uint256.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb)-127)
	} else {
		r.Lsh(ratio, 127-uint(msb))
	}

	// log2 in signed Q64.64, two's complement over uint256.
	log2 := new(uint256.Int).Sub(uint256.NewInt(uint64(msb)), uint256.NewInt(128))
	log2.Lsh(log2, 64)

	var f uint256.Int
	for i := 0; i < 14; i++ {
		r.Rsh(r.Mul(r, r), 127)
		f.Rsh(r, 128)
		log2.Or(log2, new(uint256.Int).Lsh(&f, uint(63-i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt10001 := new(uint256.Int).Mul(log2, logSqrt10001Scale)

	tickLow := toTick(new(uint256.Int).SRsh(new(uint256.Int).Sub(logSqrt10001, tickLowMargin), 128))
	tickHigh := toTick(new(uint256.Int).SRsh(new(uint256.Int).Add(logSqrt10001, tickHighMargin), 128))

	if tickLow == tickHigh {
		return tickLow, nil
	}
	ratioHigh, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if !ratioHigh.Gt(sqrtPriceX96) {
		return tickHigh, nil
	}
	return tickLow, nil
}

// toTick narrows a small two's complement uint256 to an int tick.
func toTick(v *uint256.Int) int {
	return int(int32(uint32(v.Uint64())))
}
