package pool

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"swapScope/internal/swapmath"
	"swapScope/internal/tick"
	"swapScope/internal/tickmath"
)

var (
	ErrInvalidPoolState  = errors.New("invalid pool state")
	ErrInvalidPriceLimit = errors.New("price limit incompatible with direction")
	ErrZeroAmount        = errors.New("zero amount specified")
)

// State is the pool snapshot a simulation starts from: the slot0 price/tick,
// in-range liquidity and the fee/spacing parameters of the pool.
type State struct {
	SqrtPriceX96 *uint256.Int
	Tick         int
	Liquidity    *uint256.Int
	FeePips      uint32
	TickSpacing  int
}

// Pool simulates trades against one snapshot. The receiver is never mutated;
// every Swap call is independent, so one Pool may serve concurrent callers as
// long as its tick provider does.
type Pool struct {
	sqrtPriceX96 *uint256.Int
	tick         int
	liquidity    *uint256.Int
	feePips      uint32
	tickSpacing  int
	ticks        tick.Provider
}

// New validates the snapshot eagerly and copies the numeric state. The tick
// may lag one below the price's own tick, which is how a pool looks right
// after crossing downward, so price/tick consistency is not enforced beyond
// range checks.
func New(state State, ticks tick.Provider) (*Pool, error) {
	if ticks == nil {
		return nil, fmt.Errorf("%w: nil tick provider", ErrInvalidPoolState)
	}
	if state.SqrtPriceX96 == nil || state.Liquidity == nil {
		return nil, fmt.Errorf("%w: nil price or liquidity", ErrInvalidPoolState)
	}
	if state.SqrtPriceX96.Lt(tickmath.MinSqrtRatio) || !state.SqrtPriceX96.Lt(tickmath.MaxSqrtRatio) {
		return nil, fmt.Errorf("%w: sqrt price %s outside domain", ErrInvalidPoolState, state.SqrtPriceX96.Dec())
	}
	if state.Tick < tickmath.MinTick || state.Tick > tickmath.MaxTick {
		return nil, fmt.Errorf("%w: tick %d out of range", ErrInvalidPoolState, state.Tick)
	}
	if state.TickSpacing <= 0 {
		return nil, fmt.Errorf("%w: tick spacing %d", ErrInvalidPoolState, state.TickSpacing)
	}
	if state.FeePips >= swapmath.FeeDenominator {
		return nil, fmt.Errorf("%w: fee %d pips", ErrInvalidPoolState, state.FeePips)
	}
	if state.Liquidity.BitLen() > 128 {
		return nil, fmt.Errorf("%w: liquidity %s exceeds uint128", ErrInvalidPoolState, state.Liquidity.Dec())
	}
	return &Pool{
		sqrtPriceX96: state.SqrtPriceX96.Clone(),
		tick:         state.Tick,
		liquidity:    state.Liquidity.Clone(),
		feePips:      state.FeePips,
		tickSpacing:  state.TickSpacing,
		ticks:        ticks,
	}, nil
}

func (p *Pool) SqrtPriceX96() *uint256.Int { return p.sqrtPriceX96.Clone() }

func (p *Pool) Tick() int { return p.tick }

func (p *Pool) Liquidity() *uint256.Int { return p.liquidity.Clone() }

func (p *Pool) FeePips() uint32 { return p.feePips }

func (p *Pool) TickSpacing() int { return p.tickSpacing }
