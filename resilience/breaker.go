package resilience

import (
	"context"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the conventional lowercase state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerOptions configures CircuitBreaker.
type BreakerOptions struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold int

	// ResetTimeout is the cooldown after which an open breaker allows a
	// single trial call.
	ResetTimeout time.Duration

	// OnStateChange, if set, is called on every transition.
	OnStateChange func(State)
}

type breaker struct {
	mu sync.Mutex

	state        State
	failureCount int
	lastFailure  time.Time

	opts BreakerOptions
	now  func() time.Time
}

// CircuitBreaker wraps op in a new callable owning its own breaker
// state. The wrapper is safe for concurrent use; while the breaker is
// open, calls are rejected with a network error without invoking op.
// After ResetTimeout one trial call is let through: success closes the
// breaker, failure re-opens it.
func CircuitBreaker[T any](op func(context.Context) (T, error), opts BreakerOptions) func(context.Context) (T, error) {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 30 * time.Second
	}
	b := &breaker{opts: opts, now: time.Now}

	return func(ctx context.Context) (T, error) {
		var zero T

		if err := b.before(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		b.after(err)
		if err != nil {
			return zero, err
		}
		return v, nil
	}
}

// before decides whether the call may proceed, transitioning open →
// half-open when the cooldown has elapsed.
func (b *breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) > b.opts.ResetTimeout {
			b.transition(StateHalfOpen)
			return nil
		}
		return NewNetwork("Circuit breaker is open", nil)
	case StateHalfOpen:
		// A trial call is already in flight; reject until it settles.
		return NewNetwork("Circuit breaker is open", nil)
	default:
		return nil
	}
}

func (b *breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		b.failureCount = 0
		return
	}

	b.lastFailure = b.now()
	if b.state == StateHalfOpen {
		b.transition(StateOpen)
		return
	}
	b.failureCount++
	if b.failureCount >= b.opts.FailureThreshold && b.state == StateClosed {
		b.transition(StateOpen)
	}
}

// transition must be called with b.mu held.
func (b *breaker) transition(to State) {
	b.state = to
	if b.opts.OnStateChange != nil {
		b.opts.OnStateChange(to)
	}
}
