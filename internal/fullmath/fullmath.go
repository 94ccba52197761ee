package fullmath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

var (
	// ErrDivisionByZero is returned when a zero denominator is supplied.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrOverflow is returned when the true quotient does not fit in 256 bits.
	ErrOverflow = errors.New("mul div overflow")
	// ErrZeroValue is returned by the bit scanners for a zero argument.
	ErrZeroValue = errors.New("zero value")
)

// Fixed-point scaling constants shared by the price math.
var (
	Q96  = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	Q192 = new(uint256.Int).Lsh(uint256.NewInt(1), 192)

	MaxUint256 = new(uint256.Int).Not(uint256.NewInt(0))
	MaxUint160 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)
	MaxUint128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

	two   = uint256.NewInt(2)
	three = uint256.NewInt(3)
)

// mul512 returns the 512-bit product of a and b as (high, low) 256-bit words.
// The high word is recovered from a modular multiply, the low word wraps.
func mul512(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	var prod0, prod1, mm uint256.Int
	prod0.Mul(a, b)
	mm.MulMod(a, b, MaxUint256)
	prod1.Sub(&mm, &prod0)
	if mm.Lt(&prod0) {
		prod1.SubUint64(&prod1, 1)
	}
	return &prod1, &prod0
}

// MulDiv computes floor(a*b/denominator) with a full 512-bit intermediate
// product. It fails with ErrDivisionByZero when denominator is zero and with
// ErrOverflow when the quotient does not fit in 256 bits.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}

	prod1, prod0 := mul512(a, b)

	if prod1.IsZero() {
		return new(uint256.Int).Div(prod0, denominator), nil
	}
	if !prod1.Lt(denominator) {
		return nil, ErrOverflow
	}

	// Subtract the remainder so [prod1 prod0] divides exactly.
	var remainder uint256.Int
	remainder.MulMod(a, b, denominator)
	if remainder.Gt(prod0) {
		prod1.SubUint64(prod1, 1)
	}
	prod0.Sub(prod0, &remainder)

	// Factor powers of two out of the denominator.
	var twos uint256.Int
	twos.Neg(denominator)
	twos.And(&twos, denominator)
	denom := new(uint256.Int).Div(denominator, &twos)
	prod0.Div(prod0, &twos)

	// Fold the low bits of prod1 into prod0: multiply by 2^256/twos.
	var shift uint256.Int
	shift.Neg(&twos)
	shift.Div(&shift, &twos)
	shift.AddUint64(&shift, 1)
	var carry uint256.Int
	carry.Mul(prod1, &shift)
	prod0.Or(prod0, &carry)

	// Modular inverse of the odd denominator via Newton-Raphson. Each round
	// doubles the number of correct low bits: 8, 16, 32, 64, 128, 256.
	var inv uint256.Int
	inv.Mul(denom, three)
	inv.Xor(&inv, two)
	var t uint256.Int
	for i := 0; i < 6; i++ {
		t.Mul(denom, &inv)
		t.Sub(two, &t)
		inv.Mul(&inv, &t)
	}

	return new(uint256.Int).Mul(prod0, &inv), nil
}

// MulDivRoundingUp computes ceil(a*b/denominator), failing with ErrOverflow
// when the rounded quotient does not fit in 256 bits.
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	var remainder uint256.Int
	remainder.MulMod(a, b, denominator)
	if !remainder.IsZero() {
		if result.Eq(MaxUint256) {
			return nil, ErrOverflow
		}
		result.AddUint64(result, 1)
	}
	return result, nil
}

// MulDivQ96 computes a*b/2^96, failing with ErrOverflow when the high word of
// the 512-bit product is 2^96 or more.
func MulDivQ96(a, b *uint256.Int) (*uint256.Int, error) {
	prod1, prod0 := mul512(a, b)
	if !prod1.Lt(Q96) {
		return nil, ErrOverflow
	}
	result := new(uint256.Int).Rsh(prod0, 96)
	var high uint256.Int
	high.Lsh(prod1, 160)
	return result.Or(result, &high), nil
}

// DivRoundingUp computes ceil(x/y).
func DivRoundingUp(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrDivisionByZero
	}
	var quot, rem uint256.Int
	quot.DivMod(x, y, &rem)
	if !rem.IsZero() {
		quot.AddUint64(&quot, 1)
	}
	return &quot, nil
}

// MostSignificantBit returns the 0-based position of the highest set bit of x.
// Binary narrowing against the 2^128..2^8 thresholds leaves at most one byte,
// resolved by table lookup.
func MostSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrZeroValue
	}
	v := new(uint256.Int).Set(x)
	var t uint256.Int
	var r uint8
	if !t.Rsh(v, 128).IsZero() {
		v.Set(&t)
		r += 128
	}
	if !t.Rsh(v, 64).IsZero() {
		v.Set(&t)
		r += 64
	}
	if !t.Rsh(v, 32).IsZero() {
		v.Set(&t)
		r += 32
	}
	if !t.Rsh(v, 16).IsZero() {
		v.Set(&t)
		r += 16
	}
	if !t.Rsh(v, 8).IsZero() {
		v.Set(&t)
		r += 8
	}
	r += uint8(bits.Len8(uint8(v.Uint64()))) - 1
	return r, nil
}

// LeastSignificantBit returns the 0-based position of the lowest set bit of x.
func LeastSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrZeroValue
	}
	v := new(uint256.Int).Set(x)
	var t uint256.Int
	var r uint8
	if t.And(v, MaxUint128).IsZero() {
		v.Rsh(v, 128)
		r += 128
	}
	if t.And(v, mask64).IsZero() {
		v.Rsh(v, 64)
		r += 64
	}
	if t.And(v, mask32).IsZero() {
		v.Rsh(v, 32)
		r += 32
	}
	if t.And(v, mask16).IsZero() {
		v.Rsh(v, 16)
		r += 16
	}
	if t.And(v, mask8).IsZero() {
		v.Rsh(v, 8)
		r += 8
	}
	r += uint8(bits.TrailingZeros8(uint8(v.Uint64())))
	return r, nil
}

var (
	mask64 = uint256.NewInt(0xffffffffffffffff)
	mask32 = uint256.NewInt(0xffffffff)
	mask16 = uint256.NewInt(0xffff)
	mask8  = uint256.NewInt(0xff)
)
