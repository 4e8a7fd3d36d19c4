// Package cli wires the batch commands: judge, detect, generate, and stats.
// Each remote command follows the same shape: validate settings, load items
// and the prior snapshot, then hand everything to the pass orchestrator.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "slopscope",
	Short: "Batch evaluation of generated prose: judge quality, detect AI-ness, summarize",
	Long: `slopscope runs resumable batch jobs over JSONL story collections.

Every remote command (judge, detect, generate) can be interrupted and rerun:
completed items are read back from the output file and skipped, failed items
are retried across passes, and the output always preserves input order.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the CLI with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
