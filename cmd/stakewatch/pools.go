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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakewatch/internal/chain"
	"stakewatch/internal/config"
	"stakewatch/internal/model"
	"stakewatch/internal/price"
	"stakewatch/internal/staking"
	"stakewatch/internal/storage/postgres"
	"stakewatch/internal/yield"
)

// poolReader pairs a configured pool spec with its versioned reader.
type poolReader struct {
	spec   config.PoolSpec
	reader *staking.Reader
}

// poolReport is the stdout shape for one pool, with the optional
// per-wallet stake attached.
type poolReport struct {
	model.PoolYield
	UserStake *userStakeReport `json:"user_stake,omitempty"`
}

type userStakeReport struct {
	Amount     string `json:"amount"`
	RewardDebt string `json:"reward_debt"`
	LockEnd    uint64 `json:"lock_end,omitempty"`
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPools(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	priceClient := price.NewClient(price.Config{
		BaseURL:  cfg.PriceAPIURL,
		Symbols:  cfg.Symbols,
		Fallback: cfg.FallbackPrices,
	}, logger)

	readers, err := buildReaders(chainClient, cfg.Pools)
	if err != nil {
		return err
	}

	logger.Info("pools start",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("pools", len(readers)),
		zap.String("price_api", cfg.PriceAPIURL),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	var user *common.Address
	if cfg.User != "" {
		if !common.IsHexAddress(cfg.User) {
			return fmt.Errorf("user %q is not a hex address", cfg.User)
		}
		addr := common.HexToAddress(cfg.User)
		user = &addr
	}

	pools := make([]model.PoolYield, 0, len(readers))
	reports := make([]poolReport, 0, len(readers))
	for _, pr := range readers {
		poolYield, err := readPoolYield(ctx, pr, priceClient, cfg.StakeDecimals, cfg.RewardDecimals)
		if err != nil {
			return fmt.Errorf("pool %s v%d pid %d: %w", pr.spec.Contract, pr.spec.Version, pr.spec.PoolID, err)
		}
		logger.Info("pool read",
			zap.Uint64("pid", poolYield.PoolID),
			zap.Int("version", poolYield.Version),
			zap.String("label", poolYield.State.Label),
			zap.Bool("paused", poolYield.State.Paused),
			zap.Float64("apr_percent", poolYield.Yield.APRPercent),
			zap.Float64("tvl_usd", poolYield.Yield.TVLUSD),
		)

		report := poolReport{PoolYield: poolYield}
		if user != nil {
			stake, err := pr.reader.UserStake(ctx, pr.spec.PoolID, *user)
			if err != nil {
				return fmt.Errorf("user stake pid %d: %w", pr.spec.PoolID, err)
			}
			report.UserStake = &userStakeReport{
				Amount:     yield.FormatAmount(stake.Amount, cfg.StakeDecimals),
				RewardDebt: yield.FormatAmount(stake.RewardDebt, cfg.RewardDecimals),
				LockEnd:    stake.LockEnd,
			}
		}

		pools = append(pools, poolYield)
		reports = append(reports, report)
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			return fmt.Errorf("get chain id: %w", err)
		}
		if err := store.UpsertPoolYields(ctx, chainID.Uint64(), time.Now().UTC(), pools); err != nil {
			return fmt.Errorf("persist yield snapshots: %w", err)
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}

func buildReaders(chainClient *chain.Client, specs []config.PoolSpec) ([]poolReader, error) {
	readers := make([]poolReader, 0, len(specs))
	for _, spec := range specs {
		if !common.IsHexAddress(spec.Contract) {
			return nil, fmt.Errorf("pool contract %q is not a hex address", spec.Contract)
		}
		schema, err := staking.SchemaForVersion(spec.Version)
		if err != nil {
			return nil, err
		}
		reader, err := staking.NewReader(chainClient, common.HexToAddress(spec.Contract), schema)
		if err != nil {
			return nil, err
		}
		readers = append(readers, poolReader{spec: spec, reader: reader})
	}
	return readers, nil
}

func readPoolYield(ctx context.Context, pr poolReader, prices *price.Client, stakeDecimals, rewardDecimals uint8) (model.PoolYield, error) {
	state, err := pr.reader.PoolState(ctx, pr.spec.PoolID)
	if err != nil {
		return model.PoolYield{}, err
	}

	stakePrice := prices.TokenPriceUSD(ctx, state.StakeToken)
	rewardPrice := prices.TokenPriceUSD(ctx, state.RewardToken)

	econ := staking.Economics(state, stakePrice, rewardPrice, stakeDecimals, rewardDecimals)
	return model.PoolYield{
		PoolID:  pr.spec.PoolID,
		Version: pr.spec.Version,
		State:   state,
		Yield:   yield.Compute(econ),
	}, nil
}
