package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/config"
	"swapScope/internal/fetch"
	"swapScope/internal/store"
	"swapScope/internal/store/postgres"
)

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("pool address %q is invalid", cfg.Pool)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	fetcher := fetch.NewFetcher(fetch.Config{
		WordRadius:    cfg.WordRadius,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, chainClient, logger)

	logger.Info("snapshot start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", cfg.Pool),
		zap.Uint64("block", cfg.Block),
		zap.Int("word_radius", cfg.WordRadius),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	snap, err := fetcher.Snapshot(ctx, common.HexToAddress(cfg.Pool), cfg.Block)
	if err != nil {
		return err
	}

	sink := store.NewJsonlStore(cfg.Out)
	if err := sink.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.SaveSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("save snapshot to postgres: %w", err)
		}
	}

	logger.Info("snapshot saved",
		zap.Uint64("block", snap.BlockNumber),
		zap.Int("ticks", len(snap.Ticks)),
		zap.Bool("complete", snap.Complete),
	)
	return nil
}
