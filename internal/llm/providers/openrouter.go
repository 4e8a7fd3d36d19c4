// Package providers implements the vendor-specific HTTP adapters behind the
// llm package: OpenRouter's chat-completions API for judging and generation,
// and the Pangram detection API for AI-text classification.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/slopscope/slopscope/internal/llm"
)

// Provider names used in errors and logs.
const (
	ProviderOpenRouter = "openrouter"
	ProviderPangram    = "pangram"
)

// Config holds adapter-level settings shared by both vendors.
type Config struct {
	Endpoint string
	APIKey   string
	Headers  map[string]string
}

// OpenRouterAdapter implements llm.ProviderAdapter for OpenRouter's
// OpenAI-compatible chat/completions API.
type OpenRouterAdapter struct {
	config Config
}

// NewOpenRouterAdapter creates an OpenRouter adapter with the production
// endpoint as default. A missing API key is a construction error so runs
// fail before any work starts.
func NewOpenRouterAdapter(cfg Config) (*OpenRouterAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set OPENROUTER_API_KEY", llm.ErrMissingAPIKey)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterAdapter{config: cfg}, nil
}

// Name returns the provider name.
func (a *OpenRouterAdapter) Name() string {
	return ProviderOpenRouter
}

// Build constructs the chat/completions request with system and user
// messages, bearer authentication, and per-request sampling parameters.
func (a *OpenRouterAdapter) Build(ctx context.Context, req *llm.Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/chat/completions", a.config.Endpoint)

	messages := []map[string]any{}
	if req.System != "" {
		messages = append(messages, map[string]any{
			"role":    "system",
			"content": req.System,
		})
	}
	messages = append(messages, map[string]any{
		"role":    "user",
		"content": req.User,
	})

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.config.APIKey))
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts the first choice's message content and usage metrics from
// an OpenAI-format response body.
func (a *OpenRouterAdapter) Parse(httpResp *http.Response) (*llm.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseOpenRouterError(httpResp.StatusCode, body)
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w from %s", llm.ErrEmptyResponse, ProviderOpenRouter)
	}

	return &llm.Response{
		Content:    resp.Choices[0].Message.Content,
		StatusCode: httpResp.StatusCode,
		Usage: llm.Usage{
			PromptTokens:     int64(resp.Usage.PromptTokens),
			CompletionTokens: int64(resp.Usage.CompletionTokens),
			TotalTokens:      int64(resp.Usage.TotalTokens),
		},
		RawBody: body,
	}, nil
}

// parseOpenRouterError converts the OpenAI-style error envelope to a typed
// ProviderError, falling back to the raw body when the envelope is absent.
func parseOpenRouterError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		code := fmt.Sprintf("%v", errResp.Error.Code)
		if errResp.Error.Code == nil {
			code = errResp.Error.Type
		}
		return &llm.ProviderError{
			Provider:   ProviderOpenRouter,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       code,
			Type:       llm.ClassifyErrorType(statusCode, code),
		}
	}

	return &llm.ProviderError{
		Provider:   ProviderOpenRouter,
		StatusCode: statusCode,
		Message:    string(body),
		Type:       llm.ClassifyErrorType(statusCode, ""),
	}
}
