package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakewatch/internal/activity"
	"stakewatch/internal/chain"
	"stakewatch/internal/config"
	"stakewatch/internal/history"
	"stakewatch/internal/price"
	"stakewatch/internal/storage/postgres"
	"stakewatch/internal/watch"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	chainIDValue := chainID.Uint64()

	readers, err := buildReaders(chainClient, cfg.Pools)
	if err != nil {
		return err
	}

	classifier, err := activity.NewClassifier(addrs, logger)
	if err != nil {
		return err
	}

	priceClient := price.NewClient(price.Config{
		BaseURL:  cfg.PriceAPIURL,
		Symbols:  cfg.Symbols,
		Fallback: cfg.FallbackPrices,
	}, logger)

	var historyClient *history.Client
	if cfg.HistoryAPIURL != "" && cfg.HistoryWallet != "" {
		historyClient, err = history.NewClient(history.Config{
			BaseURL:    cfg.HistoryAPIURL,
			MaxRecords: cfg.HistoryMaxRecords,
		}, logger)
		if err != nil {
			return err
		}
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
	}

	stateName := fmt.Sprintf("watch:%d", chainIDValue)

	poll := func(ctx context.Context) (watch.Snapshot, error) {
		var snap watch.Snapshot

		for _, pr := range readers {
			poolYield, err := readPoolYield(ctx, pr, priceClient, cfg.StakeDecimals, cfg.RewardDecimals)
			if err != nil {
				return snap, fmt.Errorf("pool pid %d: %w", pr.spec.PoolID, err)
			}
			snap.Pools = append(snap.Pools, poolYield)
		}

		latest, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return snap, fmt.Errorf("get latest block: %w", err)
		}

		from := uint64(0)
		if latest > cfg.LookbackBlocks {
			from = latest - cfg.LookbackBlocks
		}
		if store != nil {
			last, ok, err := store.LoadState(ctx, stateName)
			if err != nil {
				return snap, fmt.Errorf("load state: %w", err)
			}
			if ok && last >= from {
				from = last + 1
			}
		}

		ingestor := activity.NewIngestor(activity.IngestConfig{
			FromBlock:    from,
			ToBlock:      latest,
			Sources:      sources,
			Topic0:       classifier.Topics(),
			BatchSize:    cfg.BatchSize,
			MaxRecords:   cfg.MaxRecords,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, chainClient, logger)

		ingested, err := ingestor.Run(ctx)
		if err != nil {
			return snap, err
		}

		metrics, records, summary := activity.Aggregate(ingested.Logs, classifier, sourceFilter, logger)
		snap.Metrics = metrics
		snap.Records = records
		snap.Partial = ingested.Partial

		logger.Debug("cycle aggregated",
			zap.Uint64("from", from),
			zap.Uint64("to", latest),
			zap.Int("classified", summary.Classified),
			zap.Int("dropped", summary.Dropped),
			zap.Int("failed", summary.Failed),
		)

		if historyClient != nil {
			transfers, err := historyClient.Transfers(ctx, cfg.HistoryWallet)
			if err != nil {
				logger.Warn("history walk failed", zap.Error(err))
				snap.Partial = true
			} else {
				snap.Transfers = transfers.Transfers
				snap.Partial = snap.Partial || transfers.Partial
			}
		}

		if store != nil {
			if err := store.UpsertActivity(ctx, chainIDValue, records); err != nil {
				return snap, fmt.Errorf("persist activity: %w", err)
			}
			if err := store.RefreshTotals(ctx, chainIDValue); err != nil {
				return snap, fmt.Errorf("refresh totals: %w", err)
			}
			if err := store.UpsertPoolYields(ctx, chainIDValue, time.Now().UTC(), snap.Pools); err != nil {
				return snap, fmt.Errorf("persist yield snapshots: %w", err)
			}
			if err := store.SaveState(ctx, stateName, latest); err != nil {
				return snap, fmt.Errorf("save state: %w", err)
			}
		}

		return snap, nil
	}

	watcher, err := watch.New(watch.Config{
		Interval:     cfg.Interval,
		CycleTimeout: cfg.CycleTimeout,
	}, poll, logger)
	if err != nil {
		return err
	}

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainIDValue),
		zap.Int("pools", len(readers)),
		zap.Duration("interval", cfg.Interval),
		zap.Uint64("lookback_blocks", cfg.LookbackBlocks),
		zap.Bool("history_enabled", historyClient != nil),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
