package resilience

import (
	"context"
	"math"
	"strings"
	"time"
)

// RetryPolicy configures Retry. It is pure configuration and carries no
// mutable state; the same policy may be shared across operations.
type RetryPolicy struct {
	// MaxRetries is the total number of invocations attempted.
	MaxRetries int

	// InitialDelay is the wait before the first retry. Subsequent delays
	// grow by Factor per attempt, capped at MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64

	// RetryableErrors, when non-empty, is an allow-list of substrings.
	// A failure whose message matches none of them is returned
	// immediately without consuming a retry attempt.
	RetryableErrors []string

	// OnRetry, if set, is called before each wait with the failure, the
	// attempt number (starting at 1), and the computed delay.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the policy used when callers have no
// specific requirements: 3 attempts, 100ms initial delay doubling up to
// 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Factor:       2,
	}
}

// Retry invokes op until it succeeds, the allow-list rejects the error,
// the context is canceled, or MaxRetries invocations have failed. The
// final failure is returned unwrapped.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}
	if policy.Factor <= 0 {
		policy.Factor = 2
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		// An error outside the allow-list is not a transient failure;
		// it does not consume a retry attempt.
		if len(policy.RetryableErrors) > 0 && !matchesAny(err, policy.RetryableErrors) {
			return zero, err
		}

		if attempt == policy.MaxRetries-1 {
			break
		}

		delay := backoffDelay(policy, attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

// backoffDelay computes min(InitialDelay * Factor^attempt, MaxDelay)
// where attempt is zero-based.
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	d := time.Duration(float64(policy.InitialDelay) * math.Pow(policy.Factor, float64(attempt)))
	if policy.MaxDelay > 0 && d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	return d
}

func matchesAny(err error, patterns []string) bool {
	msg := err.Error()
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
