package model

import (
	"context"
	"time"

	"github.com/hupe1980/agentgraph/internal/util"
	"github.com/hupe1980/agentgraph/logging"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64

	// Retryable classifies errors. Defaults to IsTransient.
	Retryable func(error) bool

	Logger logging.Logger
}

type retryModel struct {
	inner Model
	opts  RetryOptions
}

// WithRetry wraps m so failed calls are retried with exponential backoff.
// A call is only retried while nothing has been forwarded to the caller; an
// error after the first chunk surfaces as is.
func WithRetry(m Model, optFns ...func(o *RetryOptions)) Model {
	p := util.DefaultRetryPolicy()
	opts := RetryOptions{
		MaxAttempts: p.MaxAttempts,
		Initial:     p.Initial,
		Max:         p.Max,
		Multiplier:  p.Multiplier,
		Retryable:   IsTransient,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &retryModel{inner: m, opts: opts}
}

func (r *retryModel) Info() Info { return r.inner.Info() }

func (r *retryModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		forwarded := false

		policy := util.RetryPolicy{
			MaxAttempts: r.opts.MaxAttempts,
			Initial:     r.opts.Initial,
			Max:         r.opts.Max,
			Multiplier:  r.opts.Multiplier,
		}

		retryable := func(err error) bool { return !forwarded && r.opts.Retryable(err) }

		onRetry := func(attempt int, err error, pause time.Duration) {
			r.opts.Logger.Warn("model.call.retry",
				"model", r.inner.Info().Name,
				"attempt", attempt,
				"pause", pause,
				"error", err.Error(),
			)
		}

		err := util.Retry(ctx, policy, retryable, onRetry, func(ctx context.Context) error {
			respCh, innerErr := r.inner.Generate(ctx, req)

			for respCh != nil || innerErr != nil {
				select {
				case resp, ok := <-respCh:
					if !ok {
						respCh = nil
						continue
					}

					forwarded = true

					select {
					case out <- resp:
					case <-ctx.Done():
						return ctx.Err()
					}
				case err, ok := <-innerErr:
					if !ok {
						innerErr = nil
						continue
					}

					if err != nil {
						if respCh != nil {
							// drain so the producer goroutine can exit
							go func(ch <-chan Response) {
								for range ch {
								}
							}(respCh)
						}

						return err
					}
				}
			}

			return nil
		})
		if err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}
