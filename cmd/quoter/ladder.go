package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/config"
	"swapScope/internal/quote"
)

func runLadder(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLadder(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Amounts) == 0 {
		return fmt.Errorf("amounts list is required")
	}
	amounts := make([]*uint256.Int, 0, len(cfg.Amounts))
	for _, raw := range cfg.Amounts {
		amount, err := parseAmount(raw)
		if err != nil {
			return fmt.Errorf("amount %q: %w", raw, err)
		}
		amounts = append(amounts, amount)
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

	logger.Info("ladder start",
		zap.String("pool", cfg.Pool),
		zap.Uint64("block", quoter.Block()),
		zap.Bool("zero_for_one", cfg.ZeroForOne),
		zap.Int("rungs", len(amounts)),
		zap.Int("parallelism", cfg.Parallelism),
	)

	results, err := quoter.Ladder(ctx, quote.LadderRequest{
		ZeroForOne:        cfg.ZeroForOne,
		Amounts:           amounts,
		SqrtPriceLimitX96: limit,
		Parallelism:       cfg.Parallelism,
	})
	if err != nil {
		return err
	}

	return printJSON(results)
}
