package guard

import (
	"sync"
	"time"
)

// Breaker is a circuit breaker with two implicit states: closed (calls
// allowed) and open (calls blocked until openUntil). The open state clears
// lazily on the next CanRun check once the cool-down has elapsed; there is no
// background timer. A Breaker is reusable indefinitely.
type Breaker struct {
	mu         sync.Mutex
	failMax    int
	resetAfter time.Duration
	failures   int
	openUntil  time.Time
	now        func() time.Time
	onOpen     func(failures int, until time.Time)
}

// BreakerOption configures Breaker.
type BreakerOption func(*Breaker)

// WithClock overrides the breaker's time source.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithOnOpen registers a callback fired on every closed-to-open transition.
func WithOnOpen(fn func(failures int, until time.Time)) BreakerOption {
	return func(b *Breaker) {
		b.onOpen = fn
	}
}

// NewBreaker creates a breaker that opens after failMax consecutive failures
// and stays open for resetAfter.
func NewBreaker(failMax int, resetAfter time.Duration, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		failMax:    failMax,
		resetAfter: resetAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CanRun reports whether the gate is open for calls.
func (b *Breaker) CanRun() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.openUntil)
}

// Record updates breaker state with a call outcome. Any success resets the
// consecutive failure count to zero. A failure that reaches failMax opens the
// gate; openUntil only ever moves forward.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		return
	}

	b.failures++
	if b.failures < b.failMax {
		return
	}

	until := b.now().Add(b.resetAfter)
	if until.After(b.openUntil) {
		b.openUntil = until
	}
	if b.onOpen != nil {
		b.onOpen(b.failures, b.openUntil)
	}
}

// State returns the current consecutive failure count and the open deadline.
func (b *Breaker) State() (failures int, openUntil time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures, b.openUntil
}
