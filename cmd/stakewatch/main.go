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
		Use:          "stakewatch",
		Short:        "Staking pool yield and burn activity watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Read pool state and compute APR and TVL",
		RunE:  runPools,
	}

	poolsCmd.Flags().String("rpc", "", "chain RPC URL")
	poolsCmd.Flags().StringSlice("pool", nil, "pools as contract:version:pid (comma-separated)")
	poolsCmd.Flags().String("price-api", "https://api.dexscreener.com", "price discovery API base URL")
	poolsCmd.Flags().String("token-symbols", "", "token address->symbol map (comma-separated key=value)")
	poolsCmd.Flags().String("fallback-prices", "", "symbol->USD fallback price map (comma-separated key=value)")
	poolsCmd.Flags().Uint("stake-decimals", 18, "stake token decimals")
	poolsCmd.Flags().Uint("reward-decimals", 18, "reward token decimals")
	poolsCmd.Flags().String("user", "", "optional wallet to read per-pool stakes for")
	poolsCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for yield snapshots")
	poolsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCmd)

	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Classify controller logs into burn and routing activity",
		RunE:  runActivity,
	}

	activityCmd.Flags().String("rpc", "", "chain RPC URL")
	activityCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	activityCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	activityCmd.Flags().String("controller", "", "controller contract address")
	activityCmd.Flags().String("staking", "", "staking contract address")
	activityCmd.Flags().String("burn-address", "", "burn sink address")
	activityCmd.Flags().String("corn-token", "", "CORN token address")
	activityCmd.Flags().String("lp-token", "", "LP token address")
	activityCmd.Flags().String("source", "", "optional source address filter")
	activityCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	activityCmd.Flags().Int("max-records", 10000, "record cap per aggregation pass")
	activityCmd.Flags().String("out", "./data/activity.jsonl", "output JSONL path")
	activityCmd.Flags().String("errors", "./data/classify_errors.jsonl", "classification errors JSONL path")
	activityCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	activityCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	activityCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	activityCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	activityCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	activityCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(activityCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll pools and activity on a fixed interval",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "chain RPC URL")
	watchCmd.Flags().StringSlice("pool", nil, "pools as contract:version:pid (comma-separated)")
	watchCmd.Flags().String("controller", "", "controller contract address")
	watchCmd.Flags().String("staking", "", "staking contract address")
	watchCmd.Flags().String("burn-address", "", "burn sink address")
	watchCmd.Flags().String("corn-token", "", "CORN token address")
	watchCmd.Flags().String("lp-token", "", "LP token address")
	watchCmd.Flags().String("source", "", "optional source address filter")
	watchCmd.Flags().Uint64("lookback-blocks", 20000, "blocks behind head on first cycle")
	watchCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	watchCmd.Flags().Int("max-records", 10000, "record cap per aggregation pass")
	watchCmd.Flags().String("price-api", "https://api.dexscreener.com", "price discovery API base URL")
	watchCmd.Flags().String("token-symbols", "", "token address->symbol map (comma-separated key=value)")
	watchCmd.Flags().String("fallback-prices", "", "symbol->USD fallback price map (comma-separated key=value)")
	watchCmd.Flags().Uint("stake-decimals", 18, "stake token decimals")
	watchCmd.Flags().Uint("reward-decimals", 18, "reward token decimals")
	watchCmd.Flags().String("history-api", "", "optional transfer history API base URL")
	watchCmd.Flags().String("history-wallet", "", "wallet address for transfer history")
	watchCmd.Flags().Int("history-max-records", 1000, "record cap for the history walk")
	watchCmd.Flags().Duration("interval", 30*time.Second, "poll interval")
	watchCmd.Flags().Duration("cycle-timeout", 0, "per-cycle deadline, 0 means the interval")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

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
