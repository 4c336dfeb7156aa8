package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := withRetry(context.Background(), isExternalRetryable, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	result, err := withRetry(context.Background(), isExternalRetryable, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("upstream 429 rate limited")
		}
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), isExternalRetryable, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("validation failed: bad query")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), isExternalRetryable, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("request timeout")
	})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)
	assert.Contains(t, err.Error(), "timeout")
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, isExternalRetryable, func(ctx context.Context) (string, error) {
		return "", errors.New("network unreachable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsExternalRetryable(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"HTTP 429 Too Many Requests", true},
		{"service unavailable (503)", true},
		{"dial tcp: i/o timeout", true},
		{"network is unreachable", true},
		{"read: ECONNRESET", true},
		{"invalid query", false},
		{"unauthorized", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isExternalRetryable(errors.New(tt.message)), tt.message)
	}
}
