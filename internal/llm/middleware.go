package llm

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ConcurrencyLimitMiddleware bounds the number of simultaneously in-flight
// provider calls with a counting semaphore. Every call through the chain
// counts one slot, so sibling calls issued concurrently for one item are
// each charged against the global bound.
func ConcurrencyLimitMiddleware(maxInFlight int64) Middleware {
	sem := semaphore.NewWeighted(maxInFlight)
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("acquire concurrency slot: %w", err)
			}
			defer sem.Release(1)
			return next.Handle(ctx, req)
		})
	}
}

// RateLimitMiddleware smooths outbound calls through a token bucket. It
// blocks rather than fails: a run that outpaces the bucket slows down
// instead of burning a pass on rate-limit errors.
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
			return next.Handle(ctx, req)
		})
	}
}
