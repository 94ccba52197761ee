package fetch

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/patrickmn/go-cache"

	"swapScope/internal/dex"
	"swapScope/internal/tick"
)

// RemoteSource answers word and tick lookups straight from the chain, pinned
// to one block. Answers are cached for the lifetime of the source, so a swap
// revisiting a word costs one RPC call total.
type RemoteSource struct {
	fetcher *Fetcher
	pool    common.Address
	block   uint64
	answers *cache.Cache
}

var _ tick.WordSource = (*RemoteSource)(nil)

func (r *RemoteSource) BitmapWord(ctx context.Context, wordPos int16) (*uint256.Int, error) {
	key := fmt.Sprintf("word:%d", wordPos)
	if v, ok := r.answers.Get(key); ok {
		return v.(*uint256.Int), nil
	}
	word, err := retry.DoWithData(func() (*uint256.Int, error) {
		return dex.FetchTickBitmap(ctx, r.fetcher.chain, r.pool, wordPos, r.block)
	}, r.fetcher.retryOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	r.answers.Set(key, word, cache.NoExpiration)
	return word, nil
}

func (r *RemoteSource) GetTick(ctx context.Context, index int) (tick.Tick, error) {
	key := fmt.Sprintf("tick:%d", index)
	if v, ok := r.answers.Get(key); ok {
		return remoteTick(index, v.(dex.TickData))
	}
	data, err := retry.DoWithData(func() (dex.TickData, error) {
		return dex.FetchTick(ctx, r.fetcher.chain, r.pool, int32(index), r.block)
	}, r.fetcher.retryOptions(ctx)...)
	if err != nil {
		return tick.Tick{}, err
	}
	r.answers.Set(key, data, cache.NoExpiration)
	return remoteTick(index, data)
}

func remoteTick(index int, data dex.TickData) (tick.Tick, error) {
	if !data.Initialized {
		return tick.Tick{}, fmt.Errorf("tick %d: %w", index, tick.ErrNoTickData)
	}
	return tick.Tick{
		Index:          index,
		LiquidityGross: data.LiquidityGross,
		LiquidityNet:   data.LiquidityNet,
	}, nil
}

// RemoteIndex builds a tick provider that reads the pool lazily over RPC.
// Zero blockNumber resolves to latest once, up front, so every later lookup
// sees the same state. The resolved block is returned alongside the index.
func (f *Fetcher) RemoteIndex(ctx context.Context, pool common.Address, blockNumber uint64) (*tick.WordIndex, uint64, error) {
	if f.chain == nil {
		return nil, 0, fmt.Errorf("chain client is nil")
	}
	blockNumber, err := f.resolveBlock(ctx, blockNumber)
	if err != nil {
		return nil, 0, err
	}
	meta, err := f.PoolMeta(ctx, pool)
	if err != nil {
		return nil, 0, err
	}
	src := &RemoteSource{
		fetcher: f,
		pool:    pool,
		block:   blockNumber,
		answers: cache.New(cache.NoExpiration, 0),
	}
	idx, err := tick.NewWordIndex(int(meta.TickSpacing), src)
	if err != nil {
		return nil, 0, err
	}
	return idx, blockNumber, nil
}
