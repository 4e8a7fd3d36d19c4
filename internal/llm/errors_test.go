package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyErrorType(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		want       ErrorType
	}{
		{"code rate limit wins over status", http.StatusOK, "rate_limit_exceeded", ErrorTypeRateLimit},
		{"code timeout", http.StatusOK, "request_timeout", ErrorTypeTimeout},
		{"code auth", http.StatusOK, "invalid_authorization", ErrorTypeAuth},
		{"code permission", http.StatusOK, "permission_denied", ErrorTypePermission},
		{"code quota", http.StatusOK, "quota_exhausted", ErrorTypeQuota},
		{"status 429", http.StatusTooManyRequests, "", ErrorTypeRateLimit},
		{"status 401", http.StatusUnauthorized, "", ErrorTypeAuth},
		{"status 403", http.StatusForbidden, "", ErrorTypePermission},
		{"status 408", http.StatusRequestTimeout, "", ErrorTypeTimeout},
		{"status 504", http.StatusGatewayTimeout, "", ErrorTypeTimeout},
		{"status 400", http.StatusBadRequest, "", ErrorTypeValidation},
		{"status 500", http.StatusInternalServerError, "", ErrorTypeProvider},
		{"status 503", http.StatusServiceUnavailable, "", ErrorTypeProvider},
		{"status 599", 599, "", ErrorTypeProvider},
		{"unclassified", http.StatusOK, "", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyErrorType(tt.statusCode, tt.errorCode))
		})
	}
}

func TestClassify(t *testing.T) {
	provErr := &ProviderError{
		Provider:   "openrouter",
		StatusCode: http.StatusTooManyRequests,
		Message:    "slow down",
		Type:       ErrorTypeRateLimit,
	}

	assert.Equal(t, ErrorTypeRateLimit, Classify(provErr))
	assert.Equal(t, ErrorTypeRateLimit, Classify(fmt.Errorf("call failed: %w", provErr)))
	assert.Equal(t, ErrorTypeUnknown, Classify(errors.New("socket closed")))
	assert.Equal(t, ErrorTypeUnknown, Classify(nil))
}

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{Provider: "pangram", StatusCode: 503, Message: "down"}
	assert.Equal(t, "pangram error (status 503): down", err.Error())
}
