package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes provider failures. The pipeline does not branch on
// retryability within a call, but the classification drives logging and
// gives the error strings recorded in snapshots stable vocabulary.
type ErrorType string

const (
	// ErrorTypeTimeout indicates request timeout or deadline exceeded.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates the provider rejected the call for rate.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeProvider indicates the provider service is failing.
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeValidation indicates the provider rejected the payload.
	ErrorTypeValidation ErrorType = "validation_failed"

	// ErrorTypeAuth indicates authentication failed.
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypePermission indicates insufficient permissions.
	ErrorTypePermission ErrorType = "permission_denied"

	// ErrorTypeQuota indicates account quota exceeded.
	ErrorTypeQuota ErrorType = "quota_exceeded"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Sentinel errors for client construction and response handling.
var (
	// ErrMissingAPIKey indicates a required credential was not configured.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("empty provider response")
)

// ProviderError captures a structured error response from a provider,
// including the HTTP status and the provider's own error code when present.
type ProviderError struct {
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	Code       string    `json:"code"`
	Type       ErrorType `json:"type"`
}

// Error returns the formatted provider error with status code context.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// ClassifyErrorType maps a provider error code and HTTP status to an
// ErrorType, preferring the code when it names a known condition.
func ClassifyErrorType(statusCode int, errorCode string) ErrorType {
	lowerCode := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit"):
		return ErrorTypeRateLimit
	case strings.Contains(lowerCode, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthorized"):
		return ErrorTypeAuth
	case strings.Contains(lowerCode, "permission") || strings.Contains(lowerCode, "forbidden"):
		return ErrorTypePermission
	case strings.Contains(lowerCode, "quota"):
		return ErrorTypeQuota
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusUnauthorized:
		return ErrorTypeAuth
	case http.StatusForbidden:
		return ErrorTypePermission
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case http.StatusBadRequest:
		return ErrorTypeValidation
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrorTypeProvider
	default:
		if statusCode >= 500 {
			return ErrorTypeProvider
		}
		return ErrorTypeUnknown
	}
}

// Classify extracts the ErrorType from an error chain, defaulting to
// unknown for non-provider failures.
func Classify(err error) ErrorType {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type
	}
	return ErrorTypeUnknown
}
