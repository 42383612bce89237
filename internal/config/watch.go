package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// WatchConfig holds configuration for the watch command. It combines
// the pool reader, activity aggregation, and optional history inputs
// behind one polling loop.
type WatchConfig struct {
	RPCURL         string
	Pools          []PoolSpec
	Addresses      AddressBook
	SourceFilter   string
	LookbackBlocks uint64
	BatchSize      uint64
	MaxRecords     int

	PriceAPIURL    string
	Symbols        map[string]string
	FallbackPrices map[string]float64
	StakeDecimals  uint8
	RewardDecimals uint8

	HistoryAPIURL     string
	HistoryWallet     string
	HistoryMaxRecords int

	Interval     time.Duration
	CycleTimeout time.Duration

	MaxRetries   int
	RetryBackoff time.Duration
	PGDSN        string
	LogLevel     string
}

// LoadWatch merges config file, environment variables, and flags into
// WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return WatchConfig{}, err
	}

	v.SetDefault("price-api", "https://api.dexscreener.com")
	v.SetDefault("stake-decimals", 18)
	v.SetDefault("reward-decimals", 18)
	v.SetDefault("lookback-blocks", uint64(20000))
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-records", 10000)
	v.SetDefault("history-max-records", 1000)
	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	specs, err := ParsePoolSpecs(getStringSlice(v, "pool"))
	if err != nil {
		return WatchConfig{}, err
	}
	if len(specs) == 0 {
		return WatchConfig{}, fmt.Errorf("at least one --pool contract:version:pid is required")
	}

	cfg := WatchConfig{
		RPCURL:         v.GetString("rpc"),
		Pools:          specs,
		Addresses:      addressBook(v),
		SourceFilter:   v.GetString("source"),
		LookbackBlocks: v.GetUint64("lookback-blocks"),
		BatchSize:      v.GetUint64("batch-size"),
		MaxRecords:     v.GetInt("max-records"),

		PriceAPIURL:    v.GetString("price-api"),
		Symbols:        lowerKeys(getStringMap(v, "token-symbols")),
		FallbackPrices: getFloatMap(v, "fallback-prices"),
		StakeDecimals:  uint8(v.GetUint("stake-decimals")),
		RewardDecimals: uint8(v.GetUint("reward-decimals")),

		HistoryAPIURL:     v.GetString("history-api"),
		HistoryWallet:     v.GetString("history-wallet"),
		HistoryMaxRecords: v.GetInt("history-max-records"),

		Interval:     v.GetDuration("interval"),
		CycleTimeout: v.GetDuration("cycle-timeout"),

		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		PGDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
