package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Off-chain Uniswap V3 trade simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture pool state pinned at one block",
		RunE:  runSnapshot,
	}

	snapshotCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	snapshotCmd.Flags().String("pool", "", "V3 pool address")
	snapshotCmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	snapshotCmd.Flags().Int("word-radius", 0, "bitmap words kept each side of the current tick, 0 walks the whole range")
	snapshotCmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path")
	snapshotCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	snapshotCmd.Flags().Uint("retry-attempts", 5, "maximum RPC attempts per call")
	snapshotCmd.Flags().Duration("retry-delay", 200*time.Millisecond, "initial retry delay")
	snapshotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(snapshotCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Simulate one trade against a pool",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	quoteCmd.Flags().String("pool", "", "V3 pool address")
	quoteCmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	quoteCmd.Flags().String("snapshot-file", "", "quote against a stored snapshot instead of RPC")
	quoteCmd.Flags().String("pg-dsn", "", "quote against the latest snapshot in Postgres")
	quoteCmd.Flags().String("amount", "", "signed amount in base units: positive sells exactly that input, negative buys exactly that output")
	quoteCmd.Flags().Bool("zero-for-one", false, "sell token0 for token1")
	quoteCmd.Flags().String("price-limit", "", "optional sqrtPriceX96 the trade must not cross")
	quoteCmd.Flags().Uint("retry-attempts", 5, "maximum RPC attempts per call")
	quoteCmd.Flags().Duration("retry-delay", 200*time.Millisecond, "initial retry delay")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	ladderCmd := &cobra.Command{
		Use:   "ladder",
		Short: "Simulate a batch of trade sizes against a pool",
		RunE:  runLadder,
	}

	ladderCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	ladderCmd.Flags().String("pool", "", "V3 pool address")
	ladderCmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	ladderCmd.Flags().String("snapshot-file", "", "quote against a stored snapshot instead of RPC")
	ladderCmd.Flags().String("pg-dsn", "", "quote against the latest snapshot in Postgres")
	ladderCmd.Flags().StringSlice("amounts", nil, "signed amounts in base units (comma-separated)")
	ladderCmd.Flags().Bool("zero-for-one", false, "sell token0 for token1")
	ladderCmd.Flags().String("price-limit", "", "optional sqrtPriceX96 the trades must not cross")
	ladderCmd.Flags().Int("parallelism", 8, "concurrent rungs")
	ladderCmd.Flags().Uint("retry-attempts", 5, "maximum RPC attempts per call")
	ladderCmd.Flags().Duration("retry-delay", 200*time.Millisecond, "initial retry delay")
	ladderCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(ladderCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
