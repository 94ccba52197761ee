package model

// PoolMeta holds the pool immutables. They never change after deployment,
// so one read serves every block.
type PoolMeta struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
}

// PoolState is the mutable half of the pool, observed at one block. All
// three fields come from the same height or the simulation would mix states.
type PoolState struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	Liquidity    string `json:"liquidity"`
}

// TokenMeta describes one side of a pool pair. Decimals drives human price
// rendering; symbol and name are best effort and may be empty.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
