package backoff

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Result reports how a retry loop ended.
type Result[T any] struct {
	Value     T
	Attempts  int
	LastError error
}

type options struct {
	retryIf func(error) bool
	onRetry func(attempt int, err error, wait time.Duration)
}

// Option customises Retry.
type Option func(*options)

// RetryIf stops the loop early when fn returns false for an error.
// The error is then returned as is.
func RetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// OnRetry is called after a failed attempt that will be retried.
func OnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Retry calls fn until it succeeds, maxAttempts is reached, or ctx is done.
// fn receives the 1-indexed attempt number. When every attempt fails the
// returned error wraps ErrExhausted and Result.LastError holds the last failure.
func Retry[T any](ctx context.Context, policy Policy, maxAttempts int, fn func(attempt int) (T, error), opts ...Option) (Result[T], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result Result[T]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		if err := ctx.Err(); err != nil {
			return result, err
		}

		value, err := fn(attempt)
		if err == nil {
			result.Value = value
			result.LastError = nil
			return result, nil
		}
		result.LastError = err

		if o.retryIf != nil && !o.retryIf(err) {
			return result, err
		}
		if attempt == maxAttempts {
			break
		}

		wait := policy.Delay(attempt)
		if o.onRetry != nil {
			o.onRetry(attempt, err, wait)
		}
		if err := Sleep(ctx, wait); err != nil {
			return result, err
		}
	}

	return result, errors.Join(ErrExhausted, result.LastError)
}
