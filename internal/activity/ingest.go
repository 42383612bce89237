package activity

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"stakewatch/internal/model"
)

// logSource is the chain read surface ingestion needs. *chain.Client
// satisfies it; tests substitute a fake.
type logSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// IngestConfig holds runtime settings for log ingestion.
type IngestConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Sources           []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	MaxRecords        int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// IngestResult is the collected log set for one aggregation pass.
// Partial is set when a batch had to be skipped after retries or the
// record cap cut the range short, so callers can surface a
// "data may be incomplete" signal instead of treating the totals as
// authoritative.
type IngestResult struct {
	Logs    []model.LogRecord
	Partial bool
}

// Ingestor pulls raw logs from the chain in bounded batches.
type Ingestor struct {
	cfg        IngestConfig
	source     logSource
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewIngestor builds an Ingestor with its dependencies.
func NewIngestor(cfg IngestConfig, source logSource, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		cfg:        cfg,
		source:     source,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run fetches logs over the configured range, batch by batch, stopping
// at the record cap.
func (r *Ingestor) Run(ctx context.Context) (IngestResult, error) {
	result := IngestResult{}

	if r.source == nil {
		return result, fmt.Errorf("log source is nil")
	}
	if r.cfg.BatchSize == 0 {
		return result, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Sources) == 0 {
		return result, fmt.Errorf("at least one source address is required")
	}
	if r.cfg.MaxRecords <= 0 {
		return result, fmt.Errorf("max records cap must be greater than zero")
	}

	chainID, err := r.source.GetChainID(ctx)
	if err != nil {
		return result, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return result, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return result, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return result, err
		}
		if ok && cp.ChainID != chainIDValue {
			r.logger.Warn("checkpoint belongs to another chain, ignoring",
				zap.Uint64("checkpoint_chain_id", cp.ChainID),
				zap.Uint64("chain_id", chainIDValue),
			)
		} else if ok && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to fetch", zap.Uint64("from", from), zap.Uint64("to", to))
		return result, nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	// Once anything in a batch is skipped, the checkpoint must not
	// move past it: a resume would otherwise lose the gap for good.
	stalled := false

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			// Skip the batch and keep going with partial data.
			result.Partial = true
			stalled = true
			r.logger.Warn("batch skipped after retries",
				zap.Error(err),
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
			)
			continue
		}

		for _, log := range logs {
			if r.isDuplicate(log) {
				continue
			}
			if len(result.Logs) >= r.cfg.MaxRecords {
				result.Partial = true
				r.logger.Warn("record cap reached",
					zap.Int("max_records", r.cfg.MaxRecords),
					zap.Uint64("at_block", log.BlockNumber),
				)
				return result, nil
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				// The secondary per-block lookup is as transient as the
				// log fetch itself; drop the log, keep the pass alive.
				result.Partial = true
				stalled = true
				r.logger.Warn("log skipped, block timestamp unavailable",
					zap.Error(err),
					zap.Uint64("block_number", log.BlockNumber),
					zap.String("tx_hash", log.TxHash.Hex()),
				)
				continue
			}
			result.Logs = append(result.Logs, buildLogRecord(chainIDValue, log, ts))
		}

		if r.checkpoint != nil && !stalled {
			if err := r.checkpoint.Save(chainIDValue, blockRange.To); err != nil {
				return result, err
			}
		}

		r.logger.Debug("batch complete", zap.Int("logs", len(result.Logs)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return result, nil
}

func (r *Ingestor) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.source.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Sources, r.cfg.Topic0)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Ingestor) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.source.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Ingestor) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

func buildLogRecord(chainID uint64, log types.Log, timestamp uint64) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
	}
}
