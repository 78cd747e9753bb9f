package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a failed round trip to Redis, whether for the shared
// cache or the viewer's pub/sub channel.
var ErrNetwork = errors.New("redis unreachable")

// RetryableError marks a failure worth another attempt, such as a Redis
// PING while the server is still starting.
type RetryableError struct{ Err error }

// Retryable wraps err in a [RetryableError]; nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err or anything it wraps is a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff interval; tests shorten it.
var retryDelay = 200 * time.Millisecond

// RetryWithBackoff calls fn up to three times, doubling the pause between
// attempts. A nil or non-retryable error ends the loop at once; a cancelled
// ctx ends it during a pause.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
