package reasoner

import (
	"context"
	"time"

	"github.com/joeunion/pidog/internal/logging"
)

// RetryingReasoner wraps an ExternalReasoner with exponential backoff on
// failure, matching the teacher's Gemini client retry loop.
type RetryingReasoner struct {
	inner      ExternalReasoner
	maxRetries int
}

// NewRetryingReasoner wraps inner with the default retry budget.
func NewRetryingReasoner(inner ExternalReasoner) *RetryingReasoner {
	return &RetryingReasoner{inner: inner, maxRetries: DefaultMaxRetries}
}

// Think retries failures with 1s, 2s, 4s, ... backoff, giving up after
// maxRetries retries (maxRetries+1 calls in all) or when ctx is done.
func (r *RetryingReasoner) Think(ctx context.Context, systemPrompt, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			logging.Get(logging.CategoryReasoner).Warn("Think: retry attempt %d after %v (prev err: %v)", attempt, backoff, lastErr)
		}

		resp, err := r.inner.Think(ctx, systemPrompt, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
