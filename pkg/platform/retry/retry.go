// Package retry runs an operation with bounded attempts and a backoff between them.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear waits attempt × step: 1s, 2s, 3s for step=1s.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Exponential waits initial × multiplier^(attempt-1), capped at maxDelay,
// with ±25% jitter.
func Exponential(initial, maxDelay time.Duration, multiplier float64) Backoff {
	return func(attempt int) time.Duration {
		delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
		if maxDelay > 0 && delay > float64(maxDelay) {
			delay = float64(maxDelay)
		}
		delay += delay * 0.25 * (rand.Float64()*2 - 1)
		return time.Duration(delay)
	}
}

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, next time.Duration)
}

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops immediately. nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var permanentErr *PermanentError
	return errors.As(err, &permanentErr)
}

// Result describes a finished retry loop.
type Result struct {
	Attempts int
	Duration time.Duration
	Err      error
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. The returned error is unwrapped from PermanentError.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) Result {
	start := time.Now()
	maxAttempts := max(p.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempt - 1, Duration: time.Since(start), Err: err}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return Result{Attempts: attempt, Duration: time.Since(start)}
		}
		lastErr = err

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return Result{Attempts: attempt, Duration: time.Since(start), Err: permanent.Err}
		}

		if attempt == maxAttempts || p.Backoff == nil {
			continue
		}
		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Attempts: attempt, Duration: time.Since(start), Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return Result{Attempts: maxAttempts, Duration: time.Since(start), Err: lastErr}
}
