package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/legalmt/hct/internal/errs"
)

// baseBackoff is the initial retry delay; spec.md §4.1 defines the
// retry delay as base·2^(attempt-1).
const baseBackoff = 500 * time.Millisecond

// withBackoff runs fn up to maxRetries+1 times, retrying only on an
// error wrapping errs.TransientLLMError. It returns the last error once
// attempts are exhausted, or nil on the first success. A maxRetries of
// 0 means fn runs exactly once.
func withBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, errs.TransientLLMError) {
			return lastErr
		}
		if attempt == maxRetries {
			break
		}
		delay := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
