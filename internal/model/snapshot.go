package model

// PoolSnapshot is a point-in-time capture of everything a swap simulation
// needs: immutable pool parameters, the live slot0 state and the initialized
// tick ladder at one block. Complete marks a ladder covering the whole valid
// tick range; a windowed snapshot holds only the words near the current tick.
type PoolSnapshot struct {
	ChainID      uint64       `json:"chain_id"`
	Address      string       `json:"address"`
	BlockNumber  uint64       `json:"block_number"`
	BlockTime    uint64       `json:"block_time"`
	Token0       TokenMeta    `json:"token0"`
	Token1       TokenMeta    `json:"token1"`
	Fee          uint32       `json:"fee"`
	TickSpacing  int32        `json:"tick_spacing"`
	SqrtPriceX96 string       `json:"sqrt_price_x96"`
	Tick         int32        `json:"tick"`
	Liquidity    string       `json:"liquidity"`
	Ticks        []TickRecord `json:"ticks"`
	Complete     bool         `json:"complete"`
	ObservedAt   string       `json:"observed_at"`
}

// TickRecord is one initialized tick of a snapshot. LiquidityNet carries a
// sign; both amounts are decimal strings.
type TickRecord struct {
	Index          int32  `json:"index"`
	LiquidityGross string `json:"liquidity_gross"`
	LiquidityNet   string `json:"liquidity_net"`
}
