package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeRateLimit, 429, "rate limit exceeded")
	assert.Equal(t, "rate_limit error (code 429): rate limit exceeded", err.Error())

	err = New(ErrorTypeNetwork, 0, "dial failed: %s", "connection refused")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusInternalServerError, ErrorTypeServerError},
		{http.StatusServiceUnavailable, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromStatusCode(tt.status), "status %d", tt.status)
	}
}

func TestIsType(t *testing.T) {
	rateLimited := New(ErrorTypeRateLimit, 429, "slow down")

	assert.True(t, IsType(rateLimited, ErrorTypeRateLimit))
	assert.False(t, IsType(rateLimited, ErrorTypeAuth))
	assert.False(t, IsType(nil, ErrorTypeRateLimit))
	assert.False(t, IsType(fmt.Errorf("plain error"), ErrorTypeRateLimit))

	// Wrapped errors still match
	wrapped := fmt.Errorf("fetch failed: %w", rateLimited)
	assert.True(t, IsType(wrapped, ErrorTypeRateLimit))
	assert.True(t, IsRateLimit(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeParsing))
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(400))
}
