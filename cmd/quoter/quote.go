package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/config"
	"swapScope/internal/fetch"
	"swapScope/internal/model"
	"swapScope/internal/quote"
	"swapScope/internal/store"
	"swapScope/internal/store/postgres"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amount, err := parseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	limit, err := parsePriceLimit(cfg.PriceLimit)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quoter, cleanup, err := newQuoter(ctx, quoteSource{
		rpcURL:        cfg.RPCURL,
		pool:          cfg.Pool,
		block:         cfg.Block,
		snapshotFile:  cfg.SnapshotFile,
		pgDSN:         cfg.PGDSN,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("quote start",
		zap.String("pool", cfg.Pool),
		zap.Uint64("block", quoter.Block()),
		zap.Bool("zero_for_one", cfg.ZeroForOne),
		zap.String("amount", cfg.Amount),
	)

	res, err := quoter.Quote(ctx, quote.Request{
		ZeroForOne:        cfg.ZeroForOne,
		AmountSpecified:   amount,
		SqrtPriceLimitX96: limit,
	})
	if err != nil {
		return err
	}

	return printJSON(res)
}

// quoteSource names where pool state comes from: a snapshot file first, then
// Postgres, then live RPC.
type quoteSource struct {
	rpcURL        string
	pool          string
	block         uint64
	snapshotFile  string
	pgDSN         string
	retryAttempts uint
	retryDelay    time.Duration
}

// newQuoter builds the quoter for the resolved source. The cleanup must run
// only after the last quote, a live quoter keeps reading over RPC.
func newQuoter(ctx context.Context, src quoteSource, logger *zap.Logger) (*quote.Quoter, func(), error) {
	if !common.IsHexAddress(src.pool) {
		return nil, nil, fmt.Errorf("pool address %q is invalid", src.pool)
	}

	noop := func() {}

	if src.snapshotFile != "" {
		snap, ok, err := store.NewJsonlStore(src.snapshotFile).LoadLatest(ctx, 0, src.pool)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("no snapshot for pool %s in %s", src.pool, src.snapshotFile)
		}
		warnBlockMismatch(logger, src.block, snap.BlockNumber)
		q, err := quote.NewFromSnapshot(snap, logger)
		if err != nil {
			return nil, nil, err
		}
		return q, noop, nil
	}

	if src.pgDSN != "" {
		pg, err := postgres.NewStore(ctx, src.pgDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		snap, ok, err := pg.LoadLatest(ctx, 0, src.pool)
		pg.Close()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("no snapshot for pool %s in postgres", src.pool)
		}
		warnBlockMismatch(logger, src.block, snap.BlockNumber)
		q, err := quote.NewFromSnapshot(snap, logger)
		if err != nil {
			return nil, nil, err
		}
		return q, noop, nil
	}

	if src.rpcURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required without a stored snapshot")
	}
	chainClient, err := chain.NewClient(ctx, src.rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	fetcher := fetch.NewFetcher(fetch.Config{
		RetryAttempts: src.retryAttempts,
		RetryDelay:    src.retryDelay,
	}, chainClient, logger)
	q, err := quote.NewLive(ctx, fetcher, common.HexToAddress(src.pool), src.block, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}
	return q, func() { chainClient.Close() }, nil
}

func warnBlockMismatch(logger *zap.Logger, requested, stored uint64) {
	if requested != 0 && requested != stored {
		logger.Warn("stored snapshot is at a different block",
			zap.Uint64("requested", requested),
			zap.Uint64("stored", stored),
		)
	}
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, err := model.ParseSigned(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("amount must be nonzero")
	}
	return amount, nil
}

func parsePriceLimit(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	limit, err := model.ParseUint(s)
	if err != nil {
		return nil, fmt.Errorf("parse price limit: %w", err)
	}
	return limit, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
