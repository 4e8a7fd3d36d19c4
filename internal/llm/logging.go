package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LoggingMiddleware logs the request lifecycle: one line at start, one at
// completion with latency and classified error type. Prompts and story text
// are never logged; snapshots already carry the payloads.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm")

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			requestID := req.TraceID
			if requestID == "" {
				requestID = uuid.New().String()
			}

			logger.DebugContext(ctx, "provider call started",
				"request_id", requestID,
				"operation", req.Operation,
				"model", req.Model,
			)

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.WarnContext(ctx, "provider call failed",
					"request_id", requestID,
					"operation", req.Operation,
					"model", req.Model,
					"duration_ms", elapsed.Milliseconds(),
					"error_type", Classify(err),
					"error", err,
				)
				return nil, err
			}

			logger.DebugContext(ctx, "provider call completed",
				"request_id", requestID,
				"operation", req.Operation,
				"model", req.Model,
				"duration_ms", elapsed.Milliseconds(),
				"prompt_tokens", resp.Usage.PromptTokens,
				"completion_tokens", resp.Usage.CompletionTokens,
			)
			return resp, nil
		})
	}
}
