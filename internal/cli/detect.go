package cli

import (
	"github.com/spf13/cobra"

	"github.com/slopscope/slopscope/internal/config"
	"github.com/slopscope/slopscope/internal/detector"
	"github.com/slopscope/slopscope/internal/llm/providers"
	"github.com/slopscope/slopscope/internal/store"
)

var detectSettings config.Settings

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Classify stories with the Pangram AI-text detection API",
	Long: `Detect submits each story variant to the Pangram detection API and
records the full response, including fraction_ai and the prediction labels.
Reruns skip stories whose detections already completed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := detectSettings.Validate(config.ModeDetect); err != nil {
			return err
		}

		items, err := loadItems(&detectSettings, config.ModeDetect)
		if err != nil {
			return err
		}

		adapter, err := providers.NewPangramAdapter(providers.Config{
			Endpoint: detectSettings.PangramURL,
			APIKey:   detectSettings.PangramKey,
		})
		if err != nil {
			return err
		}
		client, err := newLLMClient(&detectSettings, adapter)
		if err != nil {
			return err
		}

		return runPipeline(cmd.Context(), &detectSettings, items,
			detector.NewWorker(detector.NewClient(client)), store.DetectComplete)
	},
}

func init() {
	detectSettings = config.Default(config.ModeDetect)
	bindRunFlags(detectCmd, &detectSettings)
	detectCmd.Flags().StringVar(&detectSettings.ControlPath, "control", "",
		"control story file (adds control_pangram sub-results)")
	detectCmd.Flags().StringVar(&detectSettings.PangramURL, "pangram-url", "",
		"Pangram API endpoint override")
	rootCmd.AddCommand(detectCmd)
}
