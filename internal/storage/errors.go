package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks failures worth retrying: timeouts, dropped
	// connections, lock contention.
	ErrTransient = errors.New("transient store error")
)

// RetryPolicy bounds how Retry re-runs a failing call.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry is used for reads and idempotent writes.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// Retry calls fn until it succeeds, fails with a non-transient error, the
// attempts are exhausted or ctx is done. The wait doubles after each try.
//
// Only pass operations that are reads or confirmed idempotent writes.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := policy.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, ErrTransient) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
