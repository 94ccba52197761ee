package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapScope/internal/chain"
)

// TickData is the slice of an on-chain tick record the simulator consumes.
// LiquidityNet is two's complement.
type TickData struct {
	LiquidityGross *uint256.Int
	LiquidityNet   *uint256.Int
	Initialized    bool
}

// FetchTickBitmap reads one 256-bit bitmap word at a block height. Bit i of
// the word marks compressed tick wordPos*256+i as initialized.
func FetchTickBitmap(ctx context.Context, chainClient *chain.Client, pool common.Address, wordPos int16, blockNumber uint64) (*uint256.Int, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callPoolMethod(ctx, chainClient, pool, poolABI, "tickBitmap", blockPointer(blockNumber), wordPos)
	if err != nil {
		return nil, err
	}
	raw, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("tickBitmap word %d: %w", wordPos, err)
	}
	word, err := uint256FromBig(raw)
	if err != nil {
		return nil, fmt.Errorf("tickBitmap word %d: %w", wordPos, err)
	}
	return word, nil
}

// FetchTick reads one tick record at a block height.
func FetchTick(ctx context.Context, chainClient *chain.Client, pool common.Address, tickIdx int32, blockNumber uint64) (TickData, error) {
	if chainClient == nil {
		return TickData{}, fmt.Errorf("chain client is nil")
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return TickData{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callPoolMethod(ctx, chainClient, pool, poolABI, "ticks", blockPointer(blockNumber), big.NewInt(int64(tickIdx)))
	if err != nil {
		return TickData{}, err
	}
	if len(values) < 8 {
		return TickData{}, fmt.Errorf("ticks %d: %d outputs", tickIdx, len(values))
	}

	grossBig, err := asBigInt(values[0])
	if err != nil {
		return TickData{}, fmt.Errorf("ticks %d gross: %w", tickIdx, err)
	}
	gross, err := uint256FromBig(grossBig)
	if err != nil {
		return TickData{}, fmt.Errorf("ticks %d gross: %w", tickIdx, err)
	}

	netBig, err := asBigInt(values[1])
	if err != nil {
		return TickData{}, fmt.Errorf("ticks %d net: %w", tickIdx, err)
	}
	net, err := uint256FromSignedBig(netBig)
	if err != nil {
		return TickData{}, fmt.Errorf("ticks %d net: %w", tickIdx, err)
	}

	initialized, _ := values[7].(bool)

	return TickData{
		LiquidityGross: gross,
		LiquidityNet:   net,
		Initialized:    initialized,
	}, nil
}

func uint256FromBig(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for unsigned field", v.String())
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("uint256 overflow: %s", v.String())
	}
	return z, nil
}

// uint256FromSignedBig maps a signed big.Int onto two's complement form.
func uint256FromSignedBig(v *big.Int) (*uint256.Int, error) {
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("int256 overflow: %s", v.String())
	}
	return z, nil
}
