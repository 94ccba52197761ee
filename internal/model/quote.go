package model

// QuoteResult is the wire form of one simulated swap against a snapshot.
// Signed amounts follow pool sign conventions: positive means paid into the
// pool, negative means paid out.
type QuoteResult struct {
	Pool            string `json:"pool"`
	BlockNumber     uint64 `json:"block_number"`
	ZeroForOne      bool   `json:"zero_for_one"`
	AmountSpecified string `json:"amount_specified"`
	Amount0         string `json:"amount0"`
	Amount1         string `json:"amount1"`
	SqrtPriceX96    string `json:"sqrt_price_x96"`
	Tick            int32  `json:"tick"`
	Liquidity       string `json:"liquidity"`
	FeeAmount       string `json:"fee_amount"`
	Steps           int    `json:"steps"`
	CrossedTicks    int    `json:"crossed_ticks"`
	PriceAfter      string `json:"price_after,omitempty"`
}
