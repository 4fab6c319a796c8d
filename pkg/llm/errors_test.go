package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
		status    int
	}{
		{name: "auth", err: errors.New("error, status code: 401, message: invalid api key"), wantType: ErrorTypeAuth, status: 401},
		{name: "model missing", err: errors.New("model gpt-9 does not exist"), wantType: ErrorTypeModel},
		{name: "endpoint 404", err: errors.New("status code: 404"), wantType: ErrorTypeEndpoint, status: 404},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), wantType: ErrorTypeEndpoint, retryable: true},
		{name: "rate limited", err: errors.New("status code: 429, rate limit reached"), wantType: ErrorTypeRateLimit, retryable: true, status: 429},
		{name: "gemini quota", err: errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), wantType: ErrorTypeRateLimit, retryable: true, status: 429},
		{name: "server", err: errors.New("status code: 503"), wantType: ErrorTypeServer, retryable: true, status: 503},
		{name: "anthropic overloaded", err: errors.New("anthropic api error type: overloaded_error"), wantType: ErrorTypeServer, retryable: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), wantType: ErrorTypeTimeout, retryable: true},
		{name: "canceled", err: context.Canceled, wantType: ErrorTypeCanceled},
		{name: "unknown", err: errors.New("something odd"), wantType: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	original := NewError(ErrorTypeServer, "boom", true, nil)
	wrapped := fmt.Errorf("outer: %w", original)

	assert.Same(t, original, ClassifyError(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.Nil(t, ClassifyError(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	e := &Error{Type: ErrorTypeRateLimit, Message: "rate limited", StatusCode: 429, Provider: "openai", Cause: errors.New("slow down")}
	assert.Equal(t, "openai rate_limit HTTP 429 rate limited: slow down", e.Error())
}
