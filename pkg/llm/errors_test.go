package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestError_Error_IncludesContext(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
		Model:      "gpt-4o-mini",
		Endpoint:   "https://api.openai.com/v1",
		Cause:      errors.New("upstream unavailable"),
	}

	result := err.Error()
	assert.Contains(t, result, "HTTP 503")
	assert.Contains(t, result, "model=gpt-4o-mini")
	assert.Contains(t, result, "endpoint=api.openai.com")
	assert.Contains(t, result, "upstream unavailable")
	assert.False(t, strings.Contains(result, "/v1"), "endpoint should be reduced to its host: %s", result)
}

func TestError_Error_MinimalContext(t *testing.T) {
	err := &Error{Type: ErrorTypeAuth, Message: "authentication failed"}
	assert.Equal(t, "auth authentication failed", err.Error())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		input         error
		wantType      ErrorType
		wantStatus    int
		wantRetryable bool
	}{
		{
			name:       "openai api error 401",
			input:      &openai.APIError{HTTPStatusCode: 401, Message: "Incorrect API key provided"},
			wantType:   ErrorTypeAuth,
			wantStatus: 401,
		},
		{
			name:          "openai api error 429",
			input:         &openai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached"},
			wantType:      ErrorTypeRateLimit,
			wantStatus:    429,
			wantRetryable: true,
		},
		{
			name:          "wrapped deadline",
			input:         fmt.Errorf("post: %w", context.DeadlineExceeded),
			wantType:      ErrorTypeTimeout,
			wantRetryable: true,
		},
		{
			name:     "anthropic auth message",
			input:    errors.New("anthropic api error type: authentication_error, message: invalid x-api-key"),
			wantType: ErrorTypeAuth,
		},
		{
			name:     "model missing",
			input:    errors.New("The model `gpt-9` does not exist"),
			wantType: ErrorTypeModel,
		},
		{
			name:       "endpoint 404",
			input:      errors.New("error, status code: 404, message: page missing"),
			wantType:   ErrorTypeEndpoint,
			wantStatus: 404,
		},
		{
			name:          "connection refused",
			input:         errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "server error",
			input:         errors.New("error, status code: 502, message: bad gateway"),
			wantType:      ErrorTypeEndpoint,
			wantStatus:    502,
			wantRetryable: true,
		},
		{
			name:          "open circuit",
			input:         fmt.Errorf("%w: 5 consecutive failures, last 2s ago", ErrCircuitOpen),
			wantType:      ErrorTypeUnavailable,
			wantRetryable: true,
		},
		{
			name:     "unknown",
			input:    errors.New("something odd"),
			wantType: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.input)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantRetryable, got.Retryable)
			assert.True(t, errors.Is(got, tt.input) || errors.Unwrap(got) == tt.input)
		})
	}
}

func TestClassifyError_NilAndPassthrough(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	original := NewError(ErrorTypeResponse, "no choices in response", false, nil)
	wrapped := fmt.Errorf("resolve: %w", original)
	assert.Same(t, original, ClassifyError(wrapped))
	assert.Equal(t, ErrorTypeResponse, GetErrorType(wrapped))
	assert.False(t, IsRetryable(wrapped))
}
