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

// PangramAdapter implements llm.ProviderAdapter for the Pangram AI-text
// detection API. One POST per text; the full response object is preserved
// so snapshots round-trip whatever fields the API reports.
type PangramAdapter struct {
	config Config
}

// NewPangramAdapter creates a Pangram adapter with the production endpoint
// as default. A missing API key is a construction error.
func NewPangramAdapter(cfg Config) (*PangramAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set PANGRAM_API_KEY", llm.ErrMissingAPIKey)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://text.api.pangram.com/v3"
	}
	return &PangramAdapter{config: cfg}, nil
}

// Name returns the provider name.
func (a *PangramAdapter) Name() string {
	return ProviderPangram
}

// Build constructs the detection request with the x-api-key header.
func (a *PangramAdapter) Build(ctx context.Context, req *llm.Request) (*http.Request, error) {
	body := map[string]any{
		"text":                  req.Text,
		"public_dashboard_link": false,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse decodes the full detection response into Raw.
func (a *PangramAdapter) Parse(httpResp *http.Response) (*llm.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parsePangramError(httpResp.StatusCode, body)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &llm.Response{
		Raw:        raw,
		StatusCode: httpResp.StatusCode,
		RawBody:    body,
	}, nil
}

func parsePangramError(statusCode int, body []byte) error {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	message := string(body)
	code := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			message = errResp.Message
		} else if errResp.Error != "" {
			message = errResp.Error
		}
		code = errResp.Error
	}

	return &llm.ProviderError{
		Provider:   ProviderPangram,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
		Type:       llm.ClassifyErrorType(statusCode, code),
	}
}
