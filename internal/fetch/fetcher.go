package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/fullmath"
	"swapScope/internal/model"
	"swapScope/internal/tick"
	"swapScope/internal/tickmath"
)

// Config holds runtime settings for the snapshot fetcher.
type Config struct {
	// WordRadius limits the bitmap walk to this many words on each side of
	// the current tick's word. Zero walks every word in the valid range and
	// yields a complete snapshot.
	WordRadius    int
	RetryAttempts uint
	RetryDelay    time.Duration
	MetaTTL       time.Duration
}

const (
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = 200 * time.Millisecond
	DefaultMetaTTL       = 10 * time.Minute
)

// Fetcher assembles pool snapshots from on-chain state, pinning every read
// to one block.
type Fetcher struct {
	cfg    Config
	chain  *chain.Client
	logger *zap.Logger
	meta   *cache.Cache
}

// NewFetcher builds a Fetcher with its dependencies.
func NewFetcher(cfg Config, chainClient *chain.Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WordRadius < 0 {
		cfg.WordRadius = 0
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MetaTTL <= 0 {
		cfg.MetaTTL = DefaultMetaTTL
	}
	return &Fetcher{
		cfg:    cfg,
		chain:  chainClient,
		logger: logger,
		meta:   cache.New(cfg.MetaTTL, cfg.MetaTTL),
	}
}

// Snapshot reads the pool at blockNumber (zero means latest) and materializes
// the initialized ticks within the configured word window.
func (f *Fetcher) Snapshot(ctx context.Context, pool common.Address, blockNumber uint64) (*model.PoolSnapshot, error) {
	if f.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	blockNumber, err := f.resolveBlock(ctx, blockNumber)
	if err != nil {
		return nil, err
	}

	chainID, err := f.chain.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	meta, err := f.PoolMeta(ctx, pool)
	if err != nil {
		return nil, err
	}

	state, err := f.PoolState(ctx, pool, blockNumber)
	if err != nil {
		return nil, err
	}

	token0, err := f.TokenMeta(ctx, common.HexToAddress(meta.Token0))
	if err != nil {
		return nil, fmt.Errorf("token0 meta: %w", err)
	}
	token1, err := f.TokenMeta(ctx, common.HexToAddress(meta.Token1))
	if err != nil {
		return nil, fmt.Errorf("token1 meta: %w", err)
	}

	records, complete, err := f.tickWindow(ctx, pool, blockNumber, int(meta.TickSpacing), int(state.Tick))
	if err != nil {
		return nil, err
	}

	blockTime, err := retry.DoWithData(func() (uint64, error) {
		return f.chain.BlockTimestamp(ctx, blockNumber)
	}, f.retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("block timestamp %d: %w", blockNumber, err)
	}

	snap := &model.PoolSnapshot{
		ChainID:      chainID.Uint64(),
		Address:      pool.Hex(),
		BlockNumber:  blockNumber,
		BlockTime:    blockTime,
		Token0:       token0,
		Token1:       token1,
		Fee:          meta.Fee,
		TickSpacing:  meta.TickSpacing,
		SqrtPriceX96: state.SqrtPriceX96,
		Tick:         state.Tick,
		Liquidity:    state.Liquidity,
		Ticks:        records,
		Complete:     complete,
		ObservedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	f.logger.Info("snapshot assembled",
		zap.String("pool", pool.Hex()),
		zap.Uint64("block", blockNumber),
		zap.Int("ticks", len(records)),
		zap.Bool("complete", complete),
	)
	return snap, nil
}

// PoolMeta returns immutable pool metadata, cached across calls.
func (f *Fetcher) PoolMeta(ctx context.Context, pool common.Address) (model.PoolMeta, error) {
	key := "pool:" + pool.Hex()
	if v, ok := f.meta.Get(key); ok {
		return v.(model.PoolMeta), nil
	}
	meta, err := retry.DoWithData(func() (model.PoolMeta, error) {
		return dex.FetchPoolMeta(ctx, f.chain, pool)
	}, f.retryOptions(ctx)...)
	if err != nil {
		return model.PoolMeta{}, fmt.Errorf("pool meta: %w", err)
	}
	f.meta.Set(key, meta, cache.DefaultExpiration)
	return meta, nil
}

// PoolState returns slot0 and liquidity at blockNumber.
func (f *Fetcher) PoolState(ctx context.Context, pool common.Address, blockNumber uint64) (model.PoolState, error) {
	state, err := retry.DoWithData(func() (model.PoolState, error) {
		return dex.FetchPoolState(ctx, f.chain, pool, blockNumber)
	}, f.retryOptions(ctx)...)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("pool state at block %d: %w", blockNumber, err)
	}
	return state, nil
}

// TokenMeta returns ERC20 metadata, cached across calls.
func (f *Fetcher) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	key := "token:" + token.Hex()
	if v, ok := f.meta.Get(key); ok {
		return v.(model.TokenMeta), nil
	}
	meta, err := retry.DoWithData(func() (model.TokenMeta, error) {
		return dex.FetchTokenMeta(ctx, f.chain, token, f.logger)
	}, f.retryOptions(ctx)...)
	if err != nil {
		return model.TokenMeta{}, err
	}
	f.meta.Set(key, meta, cache.DefaultExpiration)
	return meta, nil
}

func (f *Fetcher) resolveBlock(ctx context.Context, blockNumber uint64) (uint64, error) {
	if blockNumber != 0 {
		return blockNumber, nil
	}
	latest, err := retry.DoWithData(func() (uint64, error) {
		return f.chain.LatestBlockNumber(ctx)
	}, f.retryOptions(ctx)...)
	if err != nil {
		return 0, fmt.Errorf("get latest block: %w", err)
	}
	return latest, nil
}

// tickWindow walks the bitmap words of the window and reads every set bit's
// tick record. Records come out ascending because words and bits are walked
// ascending.
func (f *Fetcher) tickWindow(ctx context.Context, pool common.Address, blockNumber uint64, tickSpacing, currentTick int) ([]model.TickRecord, bool, error) {
	if tickSpacing <= 0 {
		return nil, false, fmt.Errorf("tick spacing %d out of range", tickSpacing)
	}

	wordMin, wordMax := wordRange(currentTick, tickSpacing, f.cfg.WordRadius)
	fullMin, fullMax := wordRange(currentTick, tickSpacing, 0)
	complete := wordMin == fullMin && wordMax == fullMax

	records := make([]model.TickRecord, 0)
	for wordPos := wordMin; wordPos <= wordMax; wordPos++ {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		word, err := retry.DoWithData(func() (*uint256.Int, error) {
			return dex.FetchTickBitmap(ctx, f.chain, pool, wordPos, blockNumber)
		}, f.retryOptions(ctx)...)
		if err != nil {
			return nil, false, fmt.Errorf("bitmap word %d: %w", wordPos, err)
		}

		for _, bit := range setBits(word) {
			index := (int(wordPos)*256 + bit) * tickSpacing
			if index < tickmath.MinTick || index > tickmath.MaxTick {
				continue
			}
			data, err := retry.DoWithData(func() (dex.TickData, error) {
				return dex.FetchTick(ctx, f.chain, pool, int32(index), blockNumber)
			}, f.retryOptions(ctx)...)
			if err != nil {
				return nil, false, fmt.Errorf("tick %d: %w", index, err)
			}
			records = append(records, model.TickRecord{
				Index:          int32(index),
				LiquidityGross: model.FormatUint(data.LiquidityGross),
				LiquidityNet:   model.FormatSigned(data.LiquidityNet),
			})
		}
	}
	return records, complete, nil
}

// wordRange plans the bitmap walk: radius words on each side of the current
// tick's word, clamped to the words that can hold valid ticks. Radius zero
// means the whole valid range.
func wordRange(currentTick, tickSpacing, radius int) (int16, int16) {
	minWord := tick.Compress(tickmath.MinTick, tickSpacing) >> 8
	maxWord := tick.Compress(tickmath.MaxTick, tickSpacing) >> 8
	if radius <= 0 {
		return int16(minWord), int16(maxWord)
	}
	cur := tick.Compress(currentTick, tickSpacing) >> 8
	lo, hi := cur-radius, cur+radius
	if lo < minWord {
		lo = minWord
	}
	if hi > maxWord {
		hi = maxWord
	}
	return int16(lo), int16(hi)
}

// setBits lists the set bit positions of a word, ascending.
func setBits(word *uint256.Int) []int {
	bits := make([]int, 0, 8)
	w := new(uint256.Int).Set(word)
	for !w.IsZero() {
		lsb, err := fullmath.LeastSignificantBit(w)
		if err != nil {
			break
		}
		bits = append(bits, int(lsb))
		w.And(w, new(uint256.Int).SubUint64(w, 1))
	}
	return bits
}
