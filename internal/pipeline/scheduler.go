// Package pipeline implements the resumable multi-pass batch loop: a
// scheduler that fans pending items out to a worker, and an orchestrator
// that merges results, persists snapshots, and retries stragglers across
// passes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slopscope/slopscope/internal/domain"
)

// Worker computes the sub-results for one item. Implementations must be
// total with respect to remote failures: a failed call is returned as an
// error-shaped sub-result inside the record, never as control flow. Workers
// read shared state (the prior record) but never write it.
type Worker interface {
	Process(ctx context.Context, item domain.Item, prior *domain.Record) *domain.Record
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, item domain.Item, prior *domain.Record) *domain.Record

// Process implements the Worker interface.
func (f WorkerFunc) Process(ctx context.Context, item domain.Item, prior *domain.Record) *domain.Record {
	return f(ctx, item, prior)
}

// Task pairs a pending item with its prior record, if any. The prior record
// is read-only during a pass; merging happens after the full join.
type Task struct {
	Item  domain.Item
	Prior *domain.Record
}

// Scheduler runs one pass: one goroutine per pending item, full-barrier
// join before returning. The in-flight call bound lives in the llm client's
// semaphore, not here, so an item whose sub-calls run concurrently is still
// charged per call against the global limit.
type Scheduler struct {
	worker Worker
	logger *slog.Logger
}

// NewScheduler builds a scheduler around a worker.
func NewScheduler(worker Worker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{worker: worker, logger: logger.With("component", "scheduler")}
}

// RunPass processes every task and returns one update per task, in task
// order. A worker panic is logged and yields a nil update, which leaves the
// item pending for the next pass; it never cancels sibling tasks.
func (s *Scheduler) RunPass(ctx context.Context, tasks []Task) []*domain.Record {
	updates := make([]*domain.Record, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("worker panic; item stays pending",
						"item_id", task.Item.ID,
						"panic", fmt.Sprint(r),
					)
					updates[i] = nil
				}
			}()
			updates[i] = s.worker.Process(ctx, task.Item, task.Prior)
			s.logger.Info("completed item", "item_id", task.Item.ID)
		}(i, task)
	}
	wg.Wait()

	return updates
}
