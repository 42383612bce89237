package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AddressBook names the on-chain contracts the classifier and readers
// need. All values are hex addresses.
type AddressBook struct {
	Controller string
	Staking    string
	Burn       string
	CornToken  string
	LPToken    string
}

// PoolSpec identifies one staking pool: contract address, protocol
// version, and pool id, parsed from "0xADDR:2:0" notation.
type PoolSpec struct {
	Contract string
	Version  int
	PoolID   uint64
}

// ParsePoolSpec parses one contract:version:pid entry.
func ParsePoolSpec(input string) (PoolSpec, error) {
	parts := strings.Split(strings.TrimSpace(input), ":")
	if len(parts) != 3 {
		return PoolSpec{}, fmt.Errorf("pool spec %q: want contract:version:pid", input)
	}

	contract := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(contract, "0x") {
		return PoolSpec{}, fmt.Errorf("pool spec %q: contract must be a hex address", input)
	}

	versionText := strings.TrimPrefix(strings.TrimSpace(parts[1]), "v")
	version, err := strconv.Atoi(versionText)
	if err != nil {
		return PoolSpec{}, fmt.Errorf("pool spec %q: bad version: %w", input, err)
	}

	pid, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return PoolSpec{}, fmt.Errorf("pool spec %q: bad pool id: %w", input, err)
	}

	return PoolSpec{Contract: contract, Version: version, PoolID: pid}, nil
}

// ParsePoolSpecs parses a list of contract:version:pid entries.
func ParsePoolSpecs(inputs []string) ([]PoolSpec, error) {
	specs := make([]PoolSpec, 0, len(inputs))
	for _, input := range inputs {
		spec, err := ParsePoolSpec(input)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// newViper builds the merged flag/env/file view shared by every
// command loader.
func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func addressBook(v *viper.Viper) AddressBook {
	return AddressBook{
		Controller: v.GetString("controller"),
		Staking:    v.GetString("staking"),
		Burn:       v.GetString("burn-address"),
		CornToken:  v.GetString("corn-token"),
		LPToken:    v.GetString("lp-token"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, item := range typed {
			out[k] = fmt.Sprintf("%v", item)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// getFloatMap reads a symbol=price map; entries that do not parse as
// floats are dropped.
func getFloatMap(v *viper.Viper, key string) map[string]float64 {
	raw := getStringMap(v, key)
	out := make(map[string]float64, len(raw))
	for k, text := range raw {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			continue
		}
		out[k] = value
	}
	return out
}

// lowerKeys normalizes address-keyed maps so lookups are
// case-insensitive.
func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
