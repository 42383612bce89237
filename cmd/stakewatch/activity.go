package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakewatch/internal/activity"
	"stakewatch/internal/chain"
	"stakewatch/internal/config"
	"stakewatch/internal/model"
	"stakewatch/internal/storage"
	"stakewatch/internal/storage/postgres"
	"stakewatch/internal/yield"
)

func runActivity(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadActivity(cfgFile, cmd.Flags())
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

	addrs, sources, err := parseAddressBook(cfg.Addresses, logger)
	if err != nil {
		return err
	}
	sourceFilter, err := parseSourceFilter(cfg.SourceFilter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	classifier, err := activity.NewClassifier(addrs, logger)
	if err != nil {
		return err
	}

	ingestor := activity.NewIngestor(activity.IngestConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Sources:           sources,
		Topic0:            classifier.Topics(),
		BatchSize:         cfg.BatchSize,
		MaxRecords:        cfg.MaxRecords,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, logger)

	logger.Info("activity start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("sources", len(sources)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("max_records", cfg.MaxRecords),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	ingested, err := ingestor.Run(ctx)
	if err != nil {
		return err
	}

	metrics, records, summary := activity.Aggregate(ingested.Logs, classifier, sourceFilter, logger)

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutActivityBatch(records); err != nil {
		return err
	}

	if len(summary.Errors) > 0 && cfg.Errors != "" {
		if err := writeClassifyErrors(cfg.Errors, summary.Errors); err != nil {
			return err
		}
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
		if err := store.UpsertActivity(ctx, chainID.Uint64(), records); err != nil {
			return fmt.Errorf("persist activity: %w", err)
		}
		if err := store.RefreshTotals(ctx, chainID.Uint64()); err != nil {
			return fmt.Errorf("refresh totals: %w", err)
		}
	}

	logger.Info("activity complete",
		zap.Int("logs", summary.Total),
		zap.Int("classified", summary.Classified),
		zap.Int("dropped", summary.Dropped),
		zap.Int("failed", summary.Failed),
		zap.Bool("partial", ingested.Partial),
		zap.String("lp_burned", yield.FormatAmount(metrics.LPBurned, activity.ScaleDecimals)),
		zap.String("corn_burned", yield.FormatAmount(metrics.CornBurned, activity.ScaleDecimals)),
		zap.String("routed_to_staking", yield.FormatAmount(metrics.RoutedToStaking, activity.ScaleDecimals)),
		zap.String("buyback", yield.FormatAmount(metrics.Buyback, activity.ScaleDecimals)),
	)

	return nil
}

// parseAddressBook validates the configured contract addresses and
// derives the log sources to filter on. Controller and staking are
// required; the token and burn addresses only narrow what the transfer
// decoder can classify.
func parseAddressBook(book config.AddressBook, logger *zap.Logger) (activity.Addresses, []common.Address, error) {
	var addrs activity.Addresses

	required := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"controller", book.Controller, &addrs.Controller},
		{"staking", book.Staking, &addrs.Staking},
	}
	for _, field := range required {
		if !common.IsHexAddress(field.value) {
			return activity.Addresses{}, nil, fmt.Errorf("%s address %q is invalid", field.name, field.value)
		}
		*field.dst = common.HexToAddress(field.value)
	}

	optional := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"burn-address", book.Burn, &addrs.Burn},
		{"corn-token", book.CornToken, &addrs.CornToken},
		{"lp-token", book.LPToken, &addrs.LPToken},
	}
	for _, field := range optional {
		if field.value == "" {
			logger.Warn("address not configured, related transfers will be dropped", zap.String("flag", field.name))
			continue
		}
		if !common.IsHexAddress(field.value) {
			return activity.Addresses{}, nil, fmt.Errorf("%s address %q is invalid", field.name, field.value)
		}
		*field.dst = common.HexToAddress(field.value)
	}

	sources := []common.Address{addrs.Controller}
	if addrs.CornToken != (common.Address{}) {
		sources = append(sources, addrs.CornToken)
	}
	if addrs.LPToken != (common.Address{}) {
		sources = append(sources, addrs.LPToken)
	}

	return addrs, sources, nil
}

func writeClassifyErrors(path string, decodeErrors []model.DecodeError) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create errors dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open errors file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, decodeError := range decodeErrors {
		if err := encoder.Encode(decodeError); err != nil {
			return fmt.Errorf("write classify error: %w", err)
		}
	}
	return writer.Flush()
}

func parseSourceFilter(input string) (*common.Address, error) {
	if input == "" {
		return nil, nil
	}
	if !common.IsHexAddress(input) {
		return nil, fmt.Errorf("source filter %q is not a hex address", input)
	}
	addr := common.HexToAddress(input)
	return &addr, nil
}
