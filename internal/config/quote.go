package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command. A snapshot file or
// DSN switches the command to stored state; otherwise it quotes live over RPC.
type QuoteConfig struct {
	RPCURL        string
	Pool          string
	Block         uint64
	SnapshotFile  string
	PGDSN         string
	Amount        string
	ZeroForOne    bool
	PriceLimit    string
	RetryAttempts uint
	RetryDelay    time.Duration
	LogLevel      string
}

// LoadQuote merges config file, environment variables, and flags into
// QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"retry-attempts": uint(5),
		"retry-delay":    200 * time.Millisecond,
		"log-level":      "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		RPCURL:        v.GetString("rpc"),
		Pool:          v.GetString("pool"),
		Block:         v.GetUint64("block"),
		SnapshotFile:  v.GetString("snapshot-file"),
		PGDSN:         v.GetString("pg-dsn"),
		Amount:        v.GetString("amount"),
		ZeroForOne:    v.GetBool("zero-for-one"),
		PriceLimit:    v.GetString("price-limit"),
		RetryAttempts: v.GetUint("retry-attempts"),
		RetryDelay:    v.GetDuration("retry-delay"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// LadderConfig holds configuration for the ladder command.
type LadderConfig struct {
	RPCURL        string
	Pool          string
	Block         uint64
	SnapshotFile  string
	PGDSN         string
	Amounts       []string
	ZeroForOne    bool
	PriceLimit    string
	Parallelism   int
	RetryAttempts uint
	RetryDelay    time.Duration
	LogLevel      string
}

// LoadLadder merges config file, environment variables, and flags into
// LadderConfig.
func LoadLadder(cfgFile string, flags *pflag.FlagSet) (LadderConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"parallelism":    8,
		"retry-attempts": uint(5),
		"retry-delay":    200 * time.Millisecond,
		"log-level":      "info",
	})
	if err != nil {
		return LadderConfig{}, err
	}

	cfg := LadderConfig{
		RPCURL:        v.GetString("rpc"),
		Pool:          v.GetString("pool"),
		Block:         v.GetUint64("block"),
		SnapshotFile:  v.GetString("snapshot-file"),
		PGDSN:         v.GetString("pg-dsn"),
		Amounts:       getStringSlice(v, "amounts"),
		ZeroForOne:    v.GetBool("zero-for-one"),
		PriceLimit:    v.GetString("price-limit"),
		Parallelism:   v.GetInt("parallelism"),
		RetryAttempts: v.GetUint("retry-attempts"),
		RetryDelay:    v.GetDuration("retry-delay"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
