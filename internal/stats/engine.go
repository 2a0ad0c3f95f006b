package stats

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"spendlog/internal/core"
)

// Engine dispatches Compute onto at most Workers concurrent goroutines.
type Engine struct {
	sem     *semaphore.Weighted
	workers int64
}

// NewEngine creates an engine bounded to workers concurrent computations.
// A non-positive value falls back to GOMAXPROCS.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{sem: semaphore.NewWeighted(int64(workers)), workers: int64(workers)}
}

// Workers returns the concurrency bound.
func (e *Engine) Workers() int { return int(e.workers) }

// Compute runs the statistics pass on a worker goroutine.
// If ctx is done first it returns ctx.Err(); the worker finishes on its own
// private copy of records and its result is discarded.
func (e *Engine) Compute(ctx context.Context, records []core.Expense, threshold float64) (core.Statistics, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return core.Statistics{}, fmt.Errorf("acquire stats worker: %w", err)
	}

	snapshot := make([]core.Expense, len(records))
	copy(snapshot, records)

	done := make(chan core.Statistics, 1)
	go func() {
		defer e.sem.Release(1)
		done <- Compute(snapshot, threshold)
	}()

	select {
	case st := <-done:
		return st, nil
	case <-ctx.Done():
		return core.Statistics{}, ctx.Err()
	}
}
