package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ActivityConfig holds configuration for the activity command.
type ActivityConfig struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Addresses         AddressBook
	SourceFilter      string
	BatchSize         uint64
	MaxRecords        int
	Out               string
	Errors            string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	PGDSN             string
	LogLevel          string
}

// LoadActivity merges config file, environment variables, and flags
// into ActivityConfig.
func LoadActivity(cfgFile string, flags *pflag.FlagSet) (ActivityConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ActivityConfig{}, err
	}

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-records", 10000)
	v.SetDefault("out", "./data/activity.jsonl")
	v.SetDefault("errors", "./data/classify_errors.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	cfg := ActivityConfig{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Addresses:         addressBook(v),
		SourceFilter:      v.GetString("source"),
		BatchSize:         v.GetUint64("batch-size"),
		MaxRecords:        v.GetInt("max-records"),
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
