package resilience

import (
	"context"
	"fmt"
	"time"
)

type outcome[T any] struct {
	value T
	err   error
}

// WithTimeout races op against a timer. If the timer wins, a timeout
// error is returned whose details carry the configured timeout; the
// still-running op keeps its buffered result slot so its eventual
// return settles without leaking a goroutine, and the value is
// discarded. op itself is not interrupted.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, msg string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(ctx)
		done <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		if msg == "" {
			msg = fmt.Sprintf("operation timed out after %v", timeout)
		}
		return zero, NewTimeout(msg, timeout)
	}
}
