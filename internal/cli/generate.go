package cli

import (
	"github.com/spf13/cobra"

	"github.com/slopscope/slopscope/internal/config"
	"github.com/slopscope/slopscope/internal/generator"
	"github.com/slopscope/slopscope/internal/llm/providers"
	"github.com/slopscope/slopscope/internal/store"
)

var generateSettings config.Settings

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate short stories from a writing prompt list",
	Long: `Generate writes one ~800 word story per prompt line. Generation is
resumable: prompts that already have a story in the output are skipped, and
failed prompts are retried on later passes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := generateSettings.Validate(config.ModeGenerate); err != nil {
			return err
		}

		items, err := loadItems(&generateSettings, config.ModeGenerate)
		if err != nil {
			return err
		}

		adapter, err := providers.NewOpenRouterAdapter(providers.Config{
			Endpoint: generateSettings.OpenRouterBaseURL,
			APIKey:   generateSettings.OpenRouterKey,
		})
		if err != nil {
			return err
		}
		client, err := newLLMClient(&generateSettings, adapter)
		if err != nil {
			return err
		}

		gen := generator.NewGenerator(client, generateSettings.Model)
		return runPipeline(cmd.Context(), &generateSettings, items,
			generator.NewWorker(gen), store.GenerateComplete)
	},
}

func init() {
	generateSettings = config.Default(config.ModeGenerate)
	bindRunFlags(generateCmd, &generateSettings)
	generateCmd.Flags().StringVarP(&generateSettings.Model, "model", "m",
		generateSettings.Model, "generation model")
	generateCmd.Flags().StringVar(&generateSettings.OpenRouterBaseURL, "base-url", "",
		"OpenRouter-compatible API base URL")
	rootCmd.AddCommand(generateCmd)
}
