package swapmath

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

// signed parses a decimal with optional minus sign into two's complement.
func signed(s string) *uint256.Int {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return new(uint256.Int).Neg(d(rest))
	}
	return d(s)
}

func TestComputeSwapStep(t *testing.T) {
	var (
		tick0    = d("79228162514264337593543950336")
		tickUp60 = d("79466191966197645195421774833")
		tickDn60 = d("78990846045029531151608375686")
		oneE18   = d("1000000000000000000")
	)

	cases := []struct {
		name      string
		current   *uint256.Int
		target    *uint256.Int
		liquidity *uint256.Int
		remaining *uint256.Int
		feePips   uint32
		wantNext  string
		wantIn    string
		wantOut   string
		wantFee   string
	}{
		{
			name:    "exact input capped at target",
			current: tick0, target: tickUp60, liquidity: oneE18,
			remaining: oneE18, feePips: 3000,
			wantNext: "79466191966197645195421774833",
			wantIn:   "3004354062741926",
			wantOut:  "2995354955910780",
			wantFee:  "9040182736436",
		},
		{
			name:    "exact input stopping inside the range",
			current: tick0, target: tickUp60, liquidity: oneE18,
			remaining: d("1000000000000000"), feePips: 3000,
			wantNext: "79307152992291059138124713654",
			wantIn:   "997000000000000",
			wantOut:  "996006981039903",
			wantFee:  "3000000000000",
		},
		{
			name:    "exact output capped at target",
			current: tick0, target: tickDn60, liquidity: oneE18,
			remaining: signed("-50000000000000000"), feePips: 3000,
			wantNext: "78990846045029531151608375686",
			wantIn:   "3004354062741926",
			wantOut:  "2995354955910780",
			wantFee:  "9040182736436",
		},
		{
			name:    "exact output stopping inside the range",
			current: tick0, target: tickDn60, liquidity: oneE18,
			remaining: signed("-1000000000000000"), feePips: 3000,
			wantNext: "79148934351750073255950406385",
			wantIn:   "1001001001001002",
			wantOut:  "1000000000000000",
			wantFee:  "3012039120365",
		},
		{
			name:    "zero liquidity jumps to target, exact input",
			current: tick0, target: tickUp60, liquidity: uint256.NewInt(0),
			remaining: oneE18, feePips: 3000,
			wantNext: "79466191966197645195421774833",
			wantIn:   "0", wantOut: "0", wantFee: "0",
		},
		{
			name:    "zero liquidity jumps to target, exact output",
			current: tick0, target: tickDn60, liquidity: uint256.NewInt(0),
			remaining: signed("-1000000000000000"), feePips: 3000,
			wantNext: "78990846045029531151608375686",
			wantIn:   "0", wantOut: "0", wantFee: "0",
		},
		{
			name:    "thin ladder rung, exact output",
			current: d("75158610158898582261156019586"), target: d("78986896798918269864234038184"),
			liquidity: uint256.NewInt(94868),
			remaining: signed("-4846"), feePips: 3000,
			wantNext: "78986896798918269864234038184",
			wantIn:   "4585", wantOut: "4846", wantFee: "14",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step, err := ComputeSwapStep(tc.current, tc.target, tc.liquidity, tc.remaining, tc.feePips)
			require.NoError(t, err)
			assert.Equal(t, tc.wantNext, step.SqrtRatioNextX96.Dec(), "next price")
			assert.Equal(t, tc.wantIn, step.AmountIn.Dec(), "amount in")
			assert.Equal(t, tc.wantOut, step.AmountOut.Dec(), "amount out")
			assert.Equal(t, tc.wantFee, step.FeeAmount.Dec(), "fee")
		})
	}
}

// When an exact input stops short of the target the step must consume the
// remainder to the last unit: input plus fee equals exactly what was offered.
func TestComputeSwapStepShortfallConsumesRemainder(t *testing.T) {
	current := d("79228162514264337593543950336")
	target := d("79466191966197645195421774833")
	liquidity := d("1000000000000000000")

	for _, remaining := range []string{"1000000000000000", "333333333333333", "12345678901", "7"} {
		rem := d(remaining)
		step, err := ComputeSwapStep(current, target, liquidity, rem, 3000)
		require.NoError(t, err)
		if step.SqrtRatioNextX96.Eq(target) {
			continue
		}
		total := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
		assert.Equal(t, rem.Dec(), total.Dec(), "remaining %s", remaining)
	}
}

// An exact output step may be cut short by rounding but never pays out more
// than requested.
func TestComputeSwapStepOutputNeverExceedsRequest(t *testing.T) {
	current := d("79228162514264337593543950336")
	target := d("78990846045029531151608375686")
	liquidity := d("1000000000000000000")

	for _, out := range []string{"1", "999", "1000000000000000", "2995354955910780"} {
		requested := d(out)
		step, err := ComputeSwapStep(current, target, liquidity, new(uint256.Int).Neg(requested), 500)
		require.NoError(t, err)
		assert.False(t, step.AmountOut.Gt(requested), "out %s paid %s", out, step.AmountOut.Dec())
	}
}
