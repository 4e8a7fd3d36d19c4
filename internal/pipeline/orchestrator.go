package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/store"
)

// Config bounds an orchestrated run. MaxPasses is required: without a pass
// budget a persistently failing endpoint would retry forever.
type Config struct {
	MaxPasses int
	Backoff   time.Duration
}

// Validate rejects configurations that would loop unbounded.
func (c Config) Validate() error {
	if c.MaxPasses < 1 {
		return fmt.Errorf("max passes must be >= 1, got %d", c.MaxPasses)
	}
	if c.Backoff < 0 {
		return fmt.Errorf("backoff must be >= 0, got %s", c.Backoff)
	}
	return nil
}

// Orchestrator drives the pass loop over one item collection: compute the
// pending set, run a pass, merge every update, write the snapshot, and
// either stop or back off and sweep again. It is the only goroutine that
// mutates the store or touches the output file.
type Orchestrator struct {
	items     []domain.Item
	byID      map[int]domain.Item
	store     *store.Store
	scheduler *Scheduler
	complete  store.CompletionPredicate
	output    string
	cfg       Config
	logger    *slog.Logger
}

// NewOrchestrator wires a run. The store should already be loaded from any
// prior snapshot of the output path.
func NewOrchestrator(
	items []domain.Item,
	st *store.Store,
	worker Worker,
	complete store.CompletionPredicate,
	output string,
	cfg Config,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[int]domain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	return &Orchestrator{
		items:     items,
		byID:      byID,
		store:     st,
		scheduler: NewScheduler(worker, logger),
		complete:  complete,
		output:    output,
		cfg:       cfg,
		logger:    logger.With("component", "orchestrator"),
	}, nil
}

// Run executes passes until every item is complete or the pass budget is
// exhausted. If nothing is pending at the start, the run is a no-op and the
// output file is left untouched. Otherwise every pass ends with a snapshot
// write, and so does the run, so an interruption never loses more than the
// pass in flight.
func (o *Orchestrator) Run(ctx context.Context) error {
	pending := o.pending()
	if len(pending) == 0 {
		o.logger.Info("all items already complete; nothing to do",
			"items", len(o.items))
		return nil
	}

	pass := 0
	for len(pending) > 0 {
		pass++
		o.logger.Info("starting pass",
			"pass", pass,
			"pending", len(pending),
			"items", len(o.items),
		)

		updates := o.scheduler.RunPass(ctx, pending)
		for _, update := range updates {
			if update == nil {
				continue
			}
			item, ok := o.byID[update.ID]
			if !ok {
				continue
			}
			o.store.Merge(item, update)
		}

		if err := store.WriteSnapshot(o.output, o.items, o.store); err != nil {
			return fmt.Errorf("pass %d: %w", pass, err)
		}

		pending = o.pending()
		if len(pending) == 0 {
			break
		}
		if pass >= o.cfg.MaxPasses {
			o.logger.Warn("pass budget exhausted with items still pending",
				"passes", pass,
				"pending", len(pending),
			)
			break
		}
		if err := o.sleep(ctx); err != nil {
			return err
		}
	}

	if err := store.WriteSnapshot(o.output, o.items, o.store); err != nil {
		return fmt.Errorf("final write: %w", err)
	}
	o.logger.Info("run finished", "passes", pass, "pending", len(pending))
	return nil
}

// pending returns the tasks failing the completion predicate, in item order.
func (o *Orchestrator) pending() []Task {
	var tasks []Task
	for _, item := range o.items {
		rec := o.store.Get(item.ID)
		if !o.complete(rec, item) {
			tasks = append(tasks, Task{Item: item, Prior: rec})
		}
	}
	return tasks
}

func (o *Orchestrator) sleep(ctx context.Context) error {
	if o.cfg.Backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.cfg.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
