package llm

import (
	"errors"
	"fmt"
	"time"
)

// ProviderError wraps a failed embedding or chat call. It aborts the current
// sync or chat step but never corrupts already-persisted state, so the
// operation is safe to re-run.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RateLimitError reports a 429 from the provider together with the backoff
// the provider suggested. Callers may retry after RetryAfter, bounded by a
// small retry count.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider %s: rate limited, retry after %s", e.Provider, e.RetryAfter)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError, and if
// so returns the suggested backoff.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
