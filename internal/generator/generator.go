// Package generator writes short stories from prompts through a
// chat-completions client. Generation runs on the same resumable pipeline
// as judging and detection, so an interrupted run picks up at the prompts
// that still lack a story.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/llm"
)

const (
	systemPrompt = "You are a fiction writer. Write a standalone short story based on the prompt. " +
		"Keep it self-contained, with clear scenes and concrete details. " +
		"Do not include a title, headings, or meta commentary."

	targetWords = 800
	minWords    = 750
	maxWords    = 850
	maxTokens   = 1500
	temperature = 0.9
)

func buildUserPrompt(prompt string) string {
	return fmt.Sprintf(
		"Prompt: %s\n\nWrite a short story of about %d words (aim for %d-%d words).",
		prompt, targetWords, minWords, maxWords,
	)
}

// Generator produces one story per prompt.
type Generator struct {
	client *llm.Client
	model  string
}

// NewGenerator builds a Generator for the given model.
func NewGenerator(client *llm.Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Generate writes one story.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Do(ctx, &llm.Request{
		Operation:   llm.OpGenerate,
		Model:       g.model,
		System:      systemPrompt,
		User:        buildUserPrompt(prompt),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Worker generates stories for prompt items; a failed call is recorded as a
// story_error sub-result and retried on the next pass.
type Worker struct {
	generator *Generator
}

// NewWorker builds a generation worker.
func NewWorker(generator *Generator) *Worker {
	return &Worker{generator: generator}
}

// Process generates the story for one prompt item.
func (w *Worker) Process(ctx context.Context, item domain.Item, _ *domain.Record) *domain.Record {
	rec := domain.NewPlaceholder(item)
	story, err := w.generator.Generate(ctx, item.Prompt)
	if err != nil {
		rec.StoryError = err.Error()
		return rec
	}
	rec.Story = story
	return rec
}
