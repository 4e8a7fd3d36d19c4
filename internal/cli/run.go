package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/slopscope/slopscope/internal/config"
	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/llm"
	"github.com/slopscope/slopscope/internal/pipeline"
	"github.com/slopscope/slopscope/internal/source"
	"github.com/slopscope/slopscope/internal/store"
)

// bindRunFlags registers the flags shared by every remote command.
func bindRunFlags(cmd *cobra.Command, s *config.Settings) {
	cmd.Flags().StringVarP(&s.InputPath, "input", "i", s.InputPath, "input file")
	cmd.Flags().StringVarP(&s.OutputPath, "output", "o", s.OutputPath, "output snapshot file")
	cmd.Flags().IntVarP(&s.Concurrency, "concurrency", "c", s.Concurrency,
		"maximum simultaneously in-flight remote calls")
	cmd.Flags().IntVar(&s.MaxPasses, "max-passes", s.MaxPasses,
		"maximum retry passes over incomplete items")
	cmd.Flags().DurationVar(&s.Backoff, "backoff", s.Backoff,
		"sleep between retry passes")
	cmd.Flags().DurationVar(&s.RequestTimeout, "request-timeout", s.RequestTimeout,
		"per-request timeout")
	cmd.Flags().Float64Var(&s.RatePerSecond, "rate", s.RatePerSecond,
		"request rate limit per second (0 disables)")
}

// newLLMClient assembles the shared remote caller for a run. The concurrency
// semaphore lives inside the client, so the in-flight bound holds across all
// worker goroutines.
func newLLMClient(s *config.Settings, adapter llm.ProviderAdapter) (*llm.Client, error) {
	timeout := s.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return llm.NewClient(llm.ClientConfig{
		Adapter:       adapter,
		HTTPClient:    &http.Client{Timeout: timeout},
		MaxConcurrent: int64(s.Concurrency),
		RatePerSecond: s.RatePerSecond,
		Logger:        slog.Default(),
	})
}

// loadItems loads the input collection for a run and attaches control
// stories when a control file was given.
func loadItems(s *config.Settings, mode config.Mode) ([]domain.Item, error) {
	var (
		items []domain.Item
		err   error
	)
	if mode == config.ModeGenerate {
		items, err = source.LoadPrompts(s.InputPath)
	} else {
		items, err = source.LoadStories(s.InputPath)
	}
	if err != nil {
		return nil, err
	}

	if s.ControlPath != "" {
		controls, err := source.LoadControls(s.ControlPath)
		if err != nil {
			return nil, err
		}
		source.ApplyControls(items, controls)
	}
	return items, nil
}

// runPipeline loads the prior snapshot and drives the pass loop.
func runPipeline(
	ctx context.Context,
	s *config.Settings,
	items []domain.Item,
	worker pipeline.Worker,
	complete store.CompletionPredicate,
) error {
	st, err := store.Load(s.OutputPath)
	if err != nil {
		return err
	}

	orch, err := pipeline.NewOrchestrator(items, st, worker, complete, s.OutputPath,
		pipeline.Config{MaxPasses: s.MaxPasses, Backoff: s.Backoff}, slog.Default())
	if err != nil {
		return err
	}
	return orch.Run(ctx)
}
