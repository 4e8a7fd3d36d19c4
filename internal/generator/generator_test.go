package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/llm"
)

func TestGenerator_Generate(t *testing.T) {
	var gotReq *llm.Request
	handler := llm.HandlerFunc(func(_ context.Context, req *llm.Request) (*llm.Response, error) {
		gotReq = req
		return &llm.Response{Content: "  Once there was a lighthouse.  \n"}, nil
	})
	gen := NewGenerator(llm.NewClientWithHandler(handler), "mistral-large")

	story, err := gen.Generate(context.Background(), "a lighthouse keeper's last shift")
	require.NoError(t, err)
	assert.Equal(t, "Once there was a lighthouse.", story)

	require.NotNil(t, gotReq)
	assert.Equal(t, llm.OpGenerate, gotReq.Operation)
	assert.Equal(t, "mistral-large", gotReq.Model)
	assert.True(t, strings.Contains(gotReq.User, "a lighthouse keeper's last shift"))
	assert.True(t, strings.Contains(gotReq.User, "800"), "the word target belongs in the prompt")
}

func TestWorker_SetsStoryOnSuccess(t *testing.T) {
	handler := llm.HandlerFunc(func(_ context.Context, _ *llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: "story body"}, nil
	})
	worker := NewWorker(NewGenerator(llm.NewClientWithHandler(handler), "m"))

	promptID := 7
	item := domain.Item{ID: 7, Kind: domain.KindPrompt, PromptID: &promptID, Prompt: "p"}
	rec := worker.Process(context.Background(), item, nil)

	assert.Equal(t, "story body", rec.Story)
	assert.Empty(t, rec.StoryError)
}

func TestWorker_RecordsErrorOnFailure(t *testing.T) {
	handler := llm.HandlerFunc(func(_ context.Context, _ *llm.Request) (*llm.Response, error) {
		return nil, errors.New("model overloaded")
	})
	worker := NewWorker(NewGenerator(llm.NewClientWithHandler(handler), "m"))

	promptID := 7
	item := domain.Item{ID: 7, Kind: domain.KindPrompt, PromptID: &promptID, Prompt: "p"}
	rec := worker.Process(context.Background(), item, nil)

	assert.Empty(t, rec.Story)
	assert.Contains(t, rec.StoryError, "model overloaded")
}
