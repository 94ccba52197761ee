package quote

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"swapScope/internal/fetch"
	"swapScope/internal/model"
	"swapScope/internal/pool"
	"swapScope/internal/price"
	"swapScope/internal/tick"
)

// Request describes one simulated trade. AmountSpecified is signed two's
// complement: positive sells exactly that input, negative buys exactly that
// output. A nil price limit means the widest limit for the direction.
type Request struct {
	ZeroForOne        bool
	AmountSpecified   *uint256.Int
	SqrtPriceLimitX96 *uint256.Int
}

// Quoter runs trade simulations against one pool pinned at one block. The
// underlying pool state never changes, so a Quoter is safe for concurrent
// use and every quote is independent.
type Quoter struct {
	pool    *pool.Pool
	address string
	block   uint64
	token0  model.TokenMeta
	token1  model.TokenMeta
	logger  *zap.Logger
}

// NewFromSnapshot builds a Quoter from a stored snapshot. A complete snapshot
// gets the fully validated index; a windowed one is served through the word
// scan over just the ticks it holds.
func NewFromSnapshot(snap *model.PoolSnapshot, logger *zap.Logger) (*Quoter, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqrtPrice, err := model.ParseUint(snap.SqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("snapshot sqrt price: %w", err)
	}
	liquidity, err := model.ParseUint(snap.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("snapshot liquidity: %w", err)
	}
	ticks := make([]tick.Tick, 0, len(snap.Ticks))
	for _, r := range snap.Ticks {
		gross, err := model.ParseUint(r.LiquidityGross)
		if err != nil {
			return nil, fmt.Errorf("tick %d gross: %w", r.Index, err)
		}
		net, err := model.ParseSigned(r.LiquidityNet)
		if err != nil {
			return nil, fmt.Errorf("tick %d net: %w", r.Index, err)
		}
		ticks = append(ticks, tick.Tick{Index: int(r.Index), LiquidityGross: gross, LiquidityNet: net})
	}

	spacing := int(snap.TickSpacing)
	var provider tick.Provider
	if snap.Complete {
		provider, err = tick.NewBitmapIndex(spacing, ticks)
		if err != nil {
			return nil, fmt.Errorf("snapshot ticks: %w", err)
		}
	} else {
		src, err := tick.NewMapSource(spacing, ticks)
		if err != nil {
			return nil, fmt.Errorf("snapshot ticks: %w", err)
		}
		provider, err = tick.NewWordIndex(spacing, src)
		if err != nil {
			return nil, err
		}
	}

	p, err := pool.New(pool.State{
		SqrtPriceX96: sqrtPrice,
		Tick:         int(snap.Tick),
		Liquidity:    liquidity,
		FeePips:      snap.Fee,
		TickSpacing:  spacing,
	}, provider)
	if err != nil {
		return nil, err
	}

	return &Quoter{
		pool:    p,
		address: snap.Address,
		block:   snap.BlockNumber,
		token0:  snap.Token0,
		token1:  snap.Token1,
		logger:  logger,
	}, nil
}

// NewLive builds a Quoter that reads tick data lazily over RPC, pinned at
// blockNumber (zero resolves to latest). Only the words a trade actually
// walks get fetched.
func NewLive(ctx context.Context, fetcher *fetch.Fetcher, poolAddr common.Address, blockNumber uint64, logger *zap.Logger) (*Quoter, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("nil fetcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	idx, block, err := fetcher.RemoteIndex(ctx, poolAddr, blockNumber)
	if err != nil {
		return nil, err
	}
	meta, err := fetcher.PoolMeta(ctx, poolAddr)
	if err != nil {
		return nil, err
	}
	state, err := fetcher.PoolState(ctx, poolAddr, block)
	if err != nil {
		return nil, err
	}
	token0, err := fetcher.TokenMeta(ctx, common.HexToAddress(meta.Token0))
	if err != nil {
		return nil, fmt.Errorf("token0 meta: %w", err)
	}
	token1, err := fetcher.TokenMeta(ctx, common.HexToAddress(meta.Token1))
	if err != nil {
		return nil, fmt.Errorf("token1 meta: %w", err)
	}

	sqrtPrice, err := model.ParseUint(state.SqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	liquidity, err := model.ParseUint(state.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("pool liquidity: %w", err)
	}

	p, err := pool.New(pool.State{
		SqrtPriceX96: sqrtPrice,
		Tick:         int(state.Tick),
		Liquidity:    liquidity,
		FeePips:      meta.Fee,
		TickSpacing:  int(meta.TickSpacing),
	}, idx)
	if err != nil {
		return nil, err
	}

	return &Quoter{
		pool:    p,
		address: poolAddr.Hex(),
		block:   block,
		token0:  token0,
		token1:  token1,
		logger:  logger,
	}, nil
}

// Block returns the block the quoter is pinned to.
func (q *Quoter) Block() uint64 { return q.block }

// Quote simulates one trade and renders the outcome in wire form.
func (q *Quoter) Quote(ctx context.Context, req Request) (*model.QuoteResult, error) {
	res, err := q.pool.Swap(ctx, req.ZeroForOne, req.AmountSpecified, req.SqrtPriceLimitX96)
	if err != nil {
		return nil, err
	}

	out := &model.QuoteResult{
		Pool:            q.address,
		BlockNumber:     q.block,
		ZeroForOne:      req.ZeroForOne,
		AmountSpecified: model.FormatSigned(req.AmountSpecified),
		Amount0:         model.FormatSigned(res.Amount0),
		Amount1:         model.FormatSigned(res.Amount1),
		SqrtPriceX96:    res.SqrtPriceX96.Dec(),
		Tick:            int32(res.Tick),
		Liquidity:       res.Liquidity.Dec(),
		FeeAmount:       res.FeeAmount.Dec(),
		Steps:           res.Steps,
		CrossedTicks:    res.CrossedTicks,
	}
	if q.token0.Address != "" && q.token1.Address != "" {
		after, err := price.FromSqrtPriceX96(res.SqrtPriceX96, q.token0.Decimals, q.token1.Decimals)
		if err == nil {
			out.PriceAfter = after.String()
		}
	}

	q.logger.Debug("quote computed",
		zap.String("pool", q.address),
		zap.Uint64("block", q.block),
		zap.Bool("zero_for_one", req.ZeroForOne),
		zap.String("amount_specified", out.AmountSpecified),
		zap.Int("steps", res.Steps),
		zap.Int("crossed_ticks", res.CrossedTicks),
	)
	return out, nil
}
