package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig assembles a Client. Adapter and MaxConcurrent are required;
// the rate limiter is optional and disabled when RatePerSecond is zero.
type ClientConfig struct {
	Adapter       ProviderAdapter
	HTTPClient    *http.Client
	MaxConcurrent int64
	RatePerSecond float64
	RateBurst     int
	Logger        *slog.Logger
}

// Client is the single RemoteCaller shared by all workers in a run. Because
// the concurrency slot pool lives inside the client's middleware chain, the
// in-flight bound holds across every goroutine that calls through it.
type Client struct {
	handler Handler
}

// NewClient builds a client with the standard middleware chain:
// logging, optional rate smoothing, concurrency bound, HTTP core.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("client config: adapter is required")
	}
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("client config: max concurrent must be >= 1, got %d", cfg.MaxConcurrent)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	middlewares := []Middleware{
		LoggingMiddleware(cfg.Logger),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		middlewares = append(middlewares, RateLimitMiddleware(
			rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)))
	}
	middlewares = append(middlewares, ConcurrencyLimitMiddleware(cfg.MaxConcurrent))

	return &Client{
		handler: Chain(NewHTTPHandler(httpClient, cfg.Adapter), middlewares...),
	}, nil
}

// NewClientWithHandler wraps an arbitrary handler; used by tests to inject
// fakes behind the client API.
func NewClientWithHandler(h Handler) *Client {
	return &Client{handler: h}
}

// Do performs one provider call through the middleware chain.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.handler.Handle(ctx, req)
}
