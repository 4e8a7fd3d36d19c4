package cli

import (
	"github.com/spf13/cobra"

	"github.com/slopscope/slopscope/internal/config"
	"github.com/slopscope/slopscope/internal/judge"
	"github.com/slopscope/slopscope/internal/llm/providers"
	"github.com/slopscope/slopscope/internal/store"
)

var (
	judgeSettings    config.Settings
	judgeMaxTokens   int
	judgeTemperature float64
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Score stories with an LLM literary judge",
	Long: `Judge scores each story on coherence, style, and general quality
(1-10) with an LLM critic. Pair inputs evaluate both variants; a control
file adds a third. Reruns skip stories already fully scored.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := judgeSettings.Validate(config.ModeJudge); err != nil {
			return err
		}

		items, err := loadItems(&judgeSettings, config.ModeJudge)
		if err != nil {
			return err
		}

		adapter, err := providers.NewOpenRouterAdapter(providers.Config{
			Endpoint: judgeSettings.OpenRouterBaseURL,
			APIKey:   judgeSettings.OpenRouterKey,
		})
		if err != nil {
			return err
		}
		client, err := newLLMClient(&judgeSettings, adapter)
		if err != nil {
			return err
		}

		evaluator := judge.NewEvaluator(client, judgeSettings.Model, judgeMaxTokens, judgeTemperature)
		return runPipeline(cmd.Context(), &judgeSettings, items,
			judge.NewWorker(evaluator), store.JudgeComplete)
	},
}

func init() {
	judgeSettings = config.Default(config.ModeJudge)
	bindRunFlags(judgeCmd, &judgeSettings)
	judgeCmd.Flags().StringVar(&judgeSettings.ControlPath, "control", "",
		"control story file (adds control_eval sub-results)")
	judgeCmd.Flags().StringVarP(&judgeSettings.Model, "model", "m", judgeSettings.Model,
		"judge model")
	judgeCmd.Flags().StringVar(&judgeSettings.OpenRouterBaseURL, "base-url", "",
		"OpenRouter-compatible API base URL")
	judgeCmd.Flags().IntVar(&judgeMaxTokens, "max-tokens", 900,
		"judge completion token limit")
	judgeCmd.Flags().Float64Var(&judgeTemperature, "temperature", 0.2,
		"judge sampling temperature")
	rootCmd.AddCommand(judgeCmd)
}
