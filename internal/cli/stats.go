package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slopscope/slopscope/internal/stats"
	"github.com/slopscope/slopscope/internal/store"
)

var (
	statsDetectionsPath string
	statsQualityPath    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize detection and quality snapshots",
	Long: `Stats reads finished snapshot files and prints per-variant means
with standard errors, prediction label breakdowns, and weakest-point quality
scores. It performs no remote calls.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if statsDetectionsPath == "" && statsQualityPath == "" {
			return fmt.Errorf("provide --detections and/or --quality")
		}

		var (
			det  *stats.DetectionSummary
			qual *stats.QualitySummary
		)
		if statsDetectionsPath != "" {
			records, err := store.ReadAll(statsDetectionsPath)
			if err != nil {
				return err
			}
			det = stats.SummarizeDetections(records)
		}
		if statsQualityPath != "" {
			records, err := store.ReadAll(statsQualityPath)
			if err != nil {
				return err
			}
			qual = stats.SummarizeQuality(records)
		}

		stats.WriteReport(cmd.OutOrStdout(), det, qual)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDetectionsPath, "detections", "",
		"detection snapshot file")
	statsCmd.Flags().StringVar(&statsQualityPath, "quality", "",
		"quality snapshot file")
	rootCmd.AddCommand(statsCmd)
}
