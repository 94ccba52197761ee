package quote

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"swapScope/internal/model"
)

const DefaultLadderParallelism = 8

// LadderRequest describes a batch of quotes along one direction, one rung per
// amount. All rungs share the direction and price limit.
type LadderRequest struct {
	ZeroForOne        bool
	Amounts           []*uint256.Int
	SqrtPriceLimitX96 *uint256.Int
	Parallelism       int
}

// Ladder quotes every rung concurrently and returns results in rung order.
// Rungs are independent simulations against the same pinned state, so the
// outcome does not depend on scheduling. Any failing rung fails the ladder.
func (q *Quoter) Ladder(ctx context.Context, req LadderRequest) ([]*model.QuoteResult, error) {
	if len(req.Amounts) == 0 {
		return nil, fmt.Errorf("empty ladder")
	}

	parallelism := req.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultLadderParallelism
	}
	if parallelism > len(req.Amounts) {
		parallelism = len(req.Amounts)
	}

	workers, err := ants.NewPool(parallelism)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	q.logger.Info("computing quote ladder",
		zap.String("pool", q.address),
		zap.Uint64("block", q.block),
		zap.Int("rungs", len(req.Amounts)),
		zap.Int("parallelism", parallelism),
	)

	results := make([]*model.QuoteResult, len(req.Amounts))
	errs := make([]error, len(req.Amounts))
	var wg sync.WaitGroup
	for i, amount := range req.Amounts {
		i, amount := i, amount // per-iteration copies for the submitted closure (pre-1.22 loop semantics)
		wg.Add(1)
		submitErr := workers.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = q.Quote(ctx, Request{
				ZeroForOne:        req.ZeroForOne,
				AmountSpecified:   amount,
				SqrtPriceLimitX96: req.SqrtPriceLimitX96,
			})
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit rung: %w", submitErr)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("rung %s: %w", model.FormatSigned(req.Amounts[i]), err)
		}
	}
	return results, nil
}
