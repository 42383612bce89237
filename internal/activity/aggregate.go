package activity

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakewatch/internal/model"
)

// Summary reports what happened during one aggregation pass. Errors
// holds one entry per failed classification so callers can sink them
// for later inspection.
type Summary struct {
	Total      int
	Classified int
	Dropped    int
	Failed     int
	Errors     []model.DecodeError
}

// Aggregate classifies every log independently, folds the resulting
// records into per-kind totals, and returns the records ordered most
// recent first. Totals are always rebuilt from scratch; there is no
// incremental update path to drift.
func Aggregate(logs []model.LogRecord, classifier *Classifier, sourceFilter *common.Address, logger *zap.Logger) (model.ActivityMetrics, []model.ActivityRecord, Summary) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := model.NewActivityMetrics()
	records := make([]model.ActivityRecord, 0, len(logs))
	summary := Summary{Total: len(logs)}

	for _, log := range logs {
		record, err := classifier.Classify(log, sourceFilter)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, decodeErrorFromLog(log, err))
			logger.Warn("classify log",
				zap.Error(err),
				zap.String("tx_hash", log.TxHash),
				zap.Uint64("log_index", log.LogIndex),
			)
			continue
		}
		if record == nil {
			summary.Dropped++
			continue
		}

		metrics.Apply(*record)
		records = append(records, *record)
		summary.Classified++
	}

	// Most recent first; stable so same-timestamp records keep their
	// encounter order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt > records[j].OccurredAt
	})

	return metrics, records, summary
}

func decodeErrorFromLog(log model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0]
	}
	return model.DecodeError{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		Topic0:      topic0,
		Error:       err.Error(),
	}
}
