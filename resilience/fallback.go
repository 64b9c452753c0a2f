package resilience

import (
	"context"

	"github.com/charmbracelet/log"
)

// WithFallback runs op and returns its value, or the fallback value if
// op fails. The failure is handed to logFn, or logged as a warning when
// logFn is nil. WithFallback never returns an error.
func WithFallback[T any](ctx context.Context, fallback T, op func(context.Context) (T, error), logFn func(error)) T {
	v, err := op(ctx)
	if err == nil {
		return v
	}
	if logFn != nil {
		logFn(err)
	} else {
		log.Warn("operation failed, using fallback", "error", err)
	}
	return fallback
}
