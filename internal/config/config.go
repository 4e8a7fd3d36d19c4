// Package config holds the run settings shared by the batch commands and
// their per-mode defaults. Credentials come from the environment; everything
// else has a flag with a sensible default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Mode names a batch command; defaults and credential requirements differ
// per mode.
type Mode string

const (
	// ModeJudge scores stories with an LLM judge.
	ModeJudge Mode = "judge"

	// ModeDetect classifies stories with the detection API.
	ModeDetect Mode = "detect"

	// ModeGenerate writes stories from prompts.
	ModeGenerate Mode = "generate"
)

// Environment variables holding credentials.
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvPangramKey    = "PANGRAM_API_KEY"
)

// Validation errors surfaced at startup.
var (
	// ErrMissingCredential indicates a required API key is absent.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMissingPath indicates a required file path flag is empty.
	ErrMissingPath = errors.New("missing path")
)

// Settings is the full configuration surface for one run.
type Settings struct {
	InputPath   string
	OutputPath  string
	ControlPath string

	Model             string
	OpenRouterBaseURL string
	OpenRouterKey     string
	PangramURL        string
	PangramKey        string

	Concurrency    int
	MaxPasses      int
	Backoff        time.Duration
	RequestTimeout time.Duration
	RatePerSecond  float64
}

// Default returns the per-mode defaults: detection runs narrow against a
// heavily rate-limited endpoint, judging wider, generation widest.
func Default(mode Mode) Settings {
	s := Settings{
		Model:          "anthropic/claude-opus-4.5",
		MaxPasses:      5,
		Backoff:        2 * time.Second,
		RequestTimeout: 60 * time.Second,
		OpenRouterKey:  os.Getenv(EnvOpenRouterKey),
		PangramKey:     os.Getenv(EnvPangramKey),
	}
	switch mode {
	case ModeDetect:
		s.Concurrency = 8
	case ModeGenerate:
		s.Concurrency = 100
		s.Model = "mistralai/mistral-large-2512"
	default:
		s.Concurrency = 32
	}
	return s
}

// Validate checks the settings for the given mode. A missing credential or
// input path is a fatal startup error; the output file may be absent (a
// first run starts from an empty store).
func (s *Settings) Validate(mode Mode) error {
	if s.InputPath == "" {
		return fmt.Errorf("%w: input file", ErrMissingPath)
	}
	if s.OutputPath == "" {
		return fmt.Errorf("%w: output file", ErrMissingPath)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", s.Concurrency)
	}
	if s.MaxPasses < 1 {
		return fmt.Errorf("max passes must be >= 1, got %d", s.MaxPasses)
	}
	if s.Backoff < 0 {
		return fmt.Errorf("backoff must be >= 0, got %s", s.Backoff)
	}

	switch mode {
	case ModeJudge, ModeGenerate:
		if s.OpenRouterKey == "" {
			return fmt.Errorf("%w: set %s", ErrMissingCredential, EnvOpenRouterKey)
		}
	case ModeDetect:
		if s.PangramKey == "" {
			return fmt.Errorf("%w: set %s", ErrMissingCredential, EnvPangramKey)
		}
	}
	return nil
}
