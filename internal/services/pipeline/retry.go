package pipeline

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Retry policy for collaborator calls
const (
	maxAttempts     = 4
	baseDelayMillis = 600
)

// externalTransientFragments mark retryable errors from the web collaborators
var externalTransientFragments = []string{"429", "503", "timeout", "network", "econn"}

// withRetry runs a collaborator task up to maxAttempts times. Delay grows
// linearly with the attempt index plus jitter. Non-retryable errors and
// exhaustion return the last error.
func withRetry[T any](ctx context.Context, isRetryable func(error) bool, task func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := task(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == maxAttempts {
			break
		}

		base := baseDelayMillis * attempt
		jitterCap := int(0.4 * float64(base))
		if jitterCap < 200 {
			jitterCap = 200
		}
		delay := time.Duration(base+rand.Intn(jitterCap)) * time.Millisecond

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// isExternalRetryable classifies web-search and web-fetch errors by message
func isExternalRetryable(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	for _, fragment := range externalTransientFragments {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}
