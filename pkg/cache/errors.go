package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork marks failures talking to a remote backend. It is always
// wrapped in a [RetryableError].
var ErrNetwork = errors.New("cache backend unreachable")

// RetryableError marks a transient failure that [RetryWithBackoff] retries.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so it is retried. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or anything it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// networkErr classifies a backend error. Context errors pass through
// unchanged so cancellation is never retried.
func networkErr(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
}

// Retry policy of [RetryWithBackoff]. Backoff doubles after every failed
// attempt.
var (
	Attempts = 3
	Backoff  = 200 * time.Millisecond
)

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// retryable, or runs out of attempts. It returns ctx.Err() if ctx ends while
// waiting.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := Backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= Attempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
