package model

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Big numbers cross the wire as decimal strings. Unsigned values map onto
// uint256 directly; signed values use an optional leading minus on the wire
// and two's complement in memory.

// FormatUint renders an unsigned value as a decimal string. Nil renders as
// "0" so partially built records stay encodable.
func FormatUint(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// ParseUint parses an unsigned decimal string.
func ParseUint(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

// FormatSigned renders a two's complement value as a decimal string with an
// optional leading minus.
func FormatSigned(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	if v.Sign() < 0 {
		return "-" + new(uint256.Int).Neg(v).Dec()
	}
	return v.Dec()
}

// ParseSigned parses a decimal string with an optional leading minus into
// two's complement form.
func ParseSigned(s string) (*uint256.Int, error) {
	rest, neg := strings.CutPrefix(s, "-")
	if neg && rest == "" {
		return nil, fmt.Errorf("parse %q: missing digits", s)
	}
	v, err := uint256.FromDecimal(rest)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}
