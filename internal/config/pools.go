package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// PoolsConfig holds configuration for the pools command.
type PoolsConfig struct {
	RPCURL         string
	Pools          []PoolSpec
	PriceAPIURL    string
	Symbols        map[string]string
	FallbackPrices map[string]float64
	StakeDecimals  uint8
	RewardDecimals uint8
	User           string
	PGDSN          string
	LogLevel       string
}

// LoadPools merges config file, environment variables, and flags into
// PoolsConfig.
func LoadPools(cfgFile string, flags *pflag.FlagSet) (PoolsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PoolsConfig{}, err
	}

	v.SetDefault("price-api", "https://api.dexscreener.com")
	v.SetDefault("stake-decimals", 18)
	v.SetDefault("reward-decimals", 18)
	v.SetDefault("log-level", "info")

	specs, err := ParsePoolSpecs(getStringSlice(v, "pool"))
	if err != nil {
		return PoolsConfig{}, err
	}
	if len(specs) == 0 {
		return PoolsConfig{}, fmt.Errorf("at least one --pool contract:version:pid is required")
	}

	cfg := PoolsConfig{
		RPCURL:         v.GetString("rpc"),
		Pools:          specs,
		PriceAPIURL:    v.GetString("price-api"),
		Symbols:        lowerKeys(getStringMap(v, "token-symbols")),
		FallbackPrices: getFloatMap(v, "fallback-prices"),
		StakeDecimals:  uint8(v.GetUint("stake-decimals")),
		RewardDecimals: uint8(v.GetUint("reward-decimals")),
		User:           v.GetString("user"),
		PGDSN:          v.GetString("pg-dsn"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
