package watch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stakewatch/internal/model"
)

func snapshotWith(pools int) Snapshot {
	out := Snapshot{Metrics: model.NewActivityMetrics()}
	for i := 0; i < pools; i++ {
		out.Pools = append(out.Pools, model.PoolYield{PoolID: uint64(i)})
	}
	return out
}

func TestLatestEmptyBeforeFirstCycle(t *testing.T) {
	w, err := New(Config{Interval: time.Second}, func(ctx context.Context) (Snapshot, error) {
		return Snapshot{}, nil
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if _, ok := w.Latest(); ok {
		t.Fatalf("no snapshot should exist before the first cycle")
	}
}

func TestCycleReplacesSnapshotWholesale(t *testing.T) {
	var cycle int
	w, err := New(Config{Interval: time.Second}, func(ctx context.Context) (Snapshot, error) {
		cycle++
		return snapshotWith(cycle), nil
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	w.runCycle(context.Background())
	w.runCycle(context.Background())

	snap, ok := w.Latest()
	if !ok {
		t.Fatalf("expected a snapshot")
	}
	if len(snap.Pools) != 2 {
		t.Fatalf("second cycle must replace the first, got %d pools", len(snap.Pools))
	}
	if snap.UpdatedAt.IsZero() {
		t.Fatalf("snapshot must be stamped")
	}
}

func TestFailedCycleKeepsPreviousSnapshot(t *testing.T) {
	var cycle int
	w, err := New(Config{Interval: time.Second}, func(ctx context.Context) (Snapshot, error) {
		cycle++
		if cycle > 1 {
			return Snapshot{}, fmt.Errorf("rpc down")
		}
		return snapshotWith(3), nil
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	w.runCycle(context.Background())
	w.runCycle(context.Background())

	snap, ok := w.Latest()
	if !ok || len(snap.Pools) != 3 {
		t.Fatalf("failed cycle must not clobber the last good snapshot: %+v", snap)
	}
}

func TestOverrunCycleResultDiscarded(t *testing.T) {
	w, err := New(Config{Interval: time.Second, CycleTimeout: 10 * time.Millisecond}, func(ctx context.Context) (Snapshot, error) {
		<-ctx.Done()
		// Late arrival after the deadline.
		return snapshotWith(9), nil
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	w.runCycle(context.Background())

	if _, ok := w.Latest(); ok {
		t.Fatalf("a result arriving after the cycle deadline must be discarded")
	}
}

func TestRunPollsOnTicks(t *testing.T) {
	cycles := make(chan struct{}, 16)
	w, err := New(Config{Interval: 5 * time.Millisecond}, func(ctx context.Context) (Snapshot, error) {
		cycles <- struct{}{}
		return snapshotWith(1), nil
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-cycles:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for cycle %d", i+1)
		}
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
