// Package llm provides the HTTP caller shared by every remote worker: a
// provider-agnostic request/response pair, a composable middleware chain,
// and the core handler that performs one HTTP exchange per call.
//
// There is deliberately no in-call retry. A call gets exactly one attempt;
// failed items are retried by the pass orchestrator on the next sweep, which
// keeps failure handling in one place.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Operation identifies what a request is for, used by logging and by
// adapters that shape payloads per use.
type Operation string

const (
	// OpJudge asks a chat model to score a story.
	OpJudge Operation = "judge"

	// OpGenerate asks a chat model to write a story.
	OpGenerate Operation = "generate"

	// OpDetect submits text to an AI-text detection endpoint.
	OpDetect Operation = "detect"
)

// Request is the normalized payload handed to a provider adapter.
type Request struct {
	Operation   Operation
	Model       string
	System      string
	User        string
	Text        string // detection payload; unused by chat providers
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	TraceID     string
}

// Usage captures per-call accounting reported by the provider.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	LatencyMs        int64
}

// Response is the normalized result of one provider call.
type Response struct {
	Content    string         // chat completion text
	Raw        map[string]any // full JSON object for detection responses
	StatusCode int
	Usage      Usage
	RawBody    []byte
}

// ProviderAdapter abstracts provider-specific HTTP communication: building
// the outbound request and parsing the vendor response into a Response.
type ProviderAdapter interface {
	Build(ctx context.Context, req *Request) (*http.Request, error)
	Parse(httpResp *http.Response) (*Response, error)
	Name() string
}

// Handler processes requests through the composable middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. Middleware
// executes in the order provided, first middleware outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that performs the actual HTTP
// exchange through the given adapter.
func NewHTTPHandler(client *http.Client, adapter ProviderAdapter) Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpHandler{client: client, adapter: adapter}
}

type httpHandler struct {
	client  *http.Client
	adapter ProviderAdapter
}

func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := h.adapter.Build(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	resp, err := h.adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}

	resp.Usage.LatencyMs = latency.Milliseconds()
	return resp, nil
}
