package resilience

import (
	"context"
	"errors"
	"testing"
)

func TestWithFallback(t *testing.T) {
	t.Run("returns operation value on success", func(t *testing.T) {
		v := WithFallback(context.Background(), "fallback", func(context.Context) (string, error) {
			return "real", nil
		}, nil)
		if v != "real" {
			t.Errorf("value = %q, want %q", v, "real")
		}
	})

	t.Run("returns fallback and logs on failure", func(t *testing.T) {
		var logged error
		v := WithFallback(context.Background(), 42, func(context.Context) (int, error) {
			return 0, errors.New("read failed")
		}, func(err error) { logged = err })

		if v != 42 {
			t.Errorf("value = %d, want fallback 42", v)
		}
		if logged == nil || logged.Error() != "read failed" {
			t.Errorf("logged = %v, want the failure", logged)
		}
	})
}
