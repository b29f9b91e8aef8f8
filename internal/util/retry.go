package util

import (
	"context"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// RetryPolicy bounds an exponential backoff retry loop.
type RetryPolicy struct {
	MaxAttempts int // total attempts including the first; <= 1 disables retries
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy makes up to 4 attempts starting at 500ms, capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, Initial: 500 * time.Millisecond, Max: 8 * time.Second, Multiplier: 2}
}

// Retry calls fn until it succeeds, returns an error retryable rejects, the
// attempts run out or ctx is done. onRetry, if set, is called before each
// pause. The last error from fn is returned.
func Retry(
	ctx context.Context,
	p RetryPolicy,
	retryable func(error) bool,
	onRetry func(attempt int, err error, pause time.Duration),
	fn func(ctx context.Context) error,
) error {
	bo := gax.Backoff{Initial: p.Initial, Max: p.Max, Multiplier: p.Multiplier}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if attempt >= p.MaxAttempts || !retryable(err) {
			return err
		}

		pause := bo.Pause()
		if onRetry != nil {
			onRetry(attempt, err, pause)
		}

		if serr := gax.Sleep(ctx, pause); serr != nil {
			return err
		}
	}
}
