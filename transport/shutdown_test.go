package transport

import (
	"context"
	"testing"
	"time"
)

func TestShutdownManager(t *testing.T) {
	t.Run("tracks in-flight requests", func(t *testing.T) {
		sm := NewShutdownManager(DefaultShutdownConfig())

		if !sm.TrackRequest() {
			t.Fatal("expected request to be accepted")
		}
		if sm.InFlightRequests() != 1 {
			t.Errorf("in-flight = %d, want 1", sm.InFlightRequests())
		}
		sm.CompleteRequest()
		if sm.InFlightRequests() != 0 {
			t.Errorf("in-flight = %d, want 0", sm.InFlightRequests())
		}
	})

	t.Run("rejects new requests while draining", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: 100 * time.Millisecond})

		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		if !sm.IsDraining() {
			t.Error("expected manager to be draining")
		}
		if sm.TrackRequest() {
			t.Error("expected request to be rejected while draining")
		}
	})

	t.Run("waits for in-flight requests to complete", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: time.Second})
		sm.TrackRequest()

		go func() {
			time.Sleep(100 * time.Millisecond)
			sm.CompleteRequest()
		}()

		start := time.Now()
		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		if time.Since(start) < 100*time.Millisecond {
			t.Error("Shutdown returned before the in-flight request completed")
		}

		select {
		case <-sm.Done():
		default:
			t.Error("Done channel not closed after shutdown")
		}
	})

	t.Run("times out on stuck requests", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: 100 * time.Millisecond})
		sm.TrackRequest()

		var completedErr error
		completed := false
		sm.config.OnShutdownComplete = func(err error) {
			completed = true
			completedErr = err
		}

		if err := sm.Shutdown(context.Background()); err == nil {
			t.Fatal("expected timeout error with a stuck request")
		}
		if !completed || completedErr == nil {
			t.Error("OnShutdownComplete not invoked with the timeout error")
		}
	})

	t.Run("honors drain delay", func(t *testing.T) {
		var drainStarted bool
		sm := NewShutdownManager(ShutdownConfig{
			Timeout:      time.Second,
			DrainDelay:   50 * time.Millisecond,
			OnDrainStart: func() { drainStarted = true },
		})

		start := time.Now()
		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		if time.Since(start) < 50*time.Millisecond {
			t.Error("Shutdown returned before the drain delay elapsed")
		}
		if !drainStarted {
			t.Error("OnDrainStart not invoked")
		}
	})
}
