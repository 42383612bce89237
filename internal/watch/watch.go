package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"stakewatch/internal/history"
	"stakewatch/internal/model"
)

// Snapshot is one complete poll result. Every cycle produces a full
// snapshot that replaces the previous one wholesale.
type Snapshot struct {
	Pools     []model.PoolYield      `json:"pools"`
	Metrics   model.ActivityMetrics  `json:"metrics"`
	Records   []model.ActivityRecord `json:"records"`
	Transfers []history.Transfer     `json:"transfers,omitempty"`
	Partial   bool                   `json:"partial"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// PollFunc gathers one snapshot. It must respect the cycle context.
type PollFunc func(ctx context.Context) (Snapshot, error)

// Config controls the polling cadence.
type Config struct {
	Interval     time.Duration
	CycleTimeout time.Duration
}

// Watcher polls at a fixed interval and keeps the latest snapshot. A
// cycle that overruns its deadline has its result discarded so a stale
// late arrival can never overwrite a fresher snapshot.
type Watcher struct {
	poll         PollFunc
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *zap.Logger

	mu     sync.RWMutex
	latest *Snapshot
}

// New builds a watcher.
func New(cfg Config, poll PollFunc, logger *zap.Logger) (*Watcher, error) {
	if poll == nil {
		return nil, fmt.Errorf("poll func is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cycleTimeout := cfg.CycleTimeout
	if cycleTimeout <= 0 || cycleTimeout > cfg.Interval {
		cycleTimeout = cfg.Interval
	}

	return &Watcher{
		poll:         poll,
		interval:     cfg.Interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}, nil
}

// Run polls immediately and then on every tick until the context ends.
func (w *Watcher) Run(ctx context.Context) error {
	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// Latest returns a copy of the most recent snapshot, if any.
func (w *Watcher) Latest() (Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return Snapshot{}, false
	}
	return *w.latest, true
}

func (w *Watcher) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, w.cycleTimeout)
	defer cancel()

	started := time.Now()
	snapshot, err := w.poll(cycleCtx)
	if err != nil {
		w.logger.Warn("poll cycle failed, keeping previous snapshot", zap.Error(err))
		return
	}
	if cycleCtx.Err() != nil {
		w.logger.Warn("poll cycle overran its deadline, discarding result",
			zap.Duration("elapsed", time.Since(started)))
		return
	}

	snapshot.UpdatedAt = time.Now()
	w.mu.Lock()
	w.latest = &snapshot
	w.mu.Unlock()

	w.logger.Info("snapshot updated",
		zap.Int("pools", len(snapshot.Pools)),
		zap.Int("records", len(snapshot.Records)),
		zap.Bool("partial", snapshot.Partial),
		zap.Duration("elapsed", time.Since(started)))
}
