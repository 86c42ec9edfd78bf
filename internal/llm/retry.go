package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// BackoffPolicy defines the parameters for exponential backoff between
// retried LLM calls.
type BackoffPolicy struct {
	InitialMs   float64
	MaxMs       float64
	Factor      float64
	Jitter      float64 // randomization factor, 0.0 to 1.0
	MaxAttempts int
}

// DefaultBackoff mirrors the retry behaviour used for all providers:
// 3 attempts, waits growing from 1s toward 10s.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		InitialMs:   1000,
		MaxMs:       10000,
		Factor:      2,
		Jitter:      0.1,
		MaxAttempts: 3,
	}
}

// ComputeBackoff calculates the wait before retry number attempt (1-indexed):
// base = initialMs * factor^(attempt-1), plus up to base*jitter of random slack,
// clamped to maxMs.
func ComputeBackoff(policy BackoffPolicy, attempt int) time.Duration {
	return computeBackoffWithRand(policy, attempt, rand.Float64())
}

func computeBackoffWithRand(policy BackoffPolicy, attempt int, randomValue float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := policy.InitialMs * math.Pow(policy.Factor, exp)
	total := math.Min(policy.MaxMs, base+base*policy.Jitter*randomValue)
	return time.Duration(math.Round(total)) * time.Millisecond
}

// PermanentError marks an error that must surface immediately instead of
// being retried (invalid API key, bad request, missing model).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so WithRetry will not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsRetryable reports whether an error is worth another attempt.
// Network failures, timeouts, rate limits and 5xx responses retry;
// anything wrapped in PermanentError does not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"500", "502", "503", "504",
		"timeout", "deadline exceeded",
		"connection reset", "connection refused", "eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WithRetry runs fn with exponential backoff until it succeeds, returns a
// non-retryable error, or attempts are exhausted.
func WithRetry[T any](ctx context.Context, policy BackoffPolicy, label string, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(attempt)
		if err == nil {
			return value, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt < policy.MaxAttempts {
			wait := ComputeBackoff(policy, attempt)
			log.Printf("[LLM] %s: retry %d/%d in %v: %v", label, attempt, policy.MaxAttempts, wait, err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("%s: all %d attempts failed: %w", label, policy.MaxAttempts, lastErr)
}
