// Package guard wraps fallible operations with per-attempt timeouts, bounded
// retry with exponential backoff, and an optional circuit breaker.
package guard

import (
	"context"
	"errors"
	"time"

	"ArbPilot/pkg/logger"
)

// ErrCircuitOpen is returned when the attached breaker's gate is closed.
// It does not consume a retry slot and does not touch breaker state.
var ErrCircuitOpen = errors.New("guard: circuit open")

// Guard retries an operation up to MaxRetries total attempts. Between failed
// attempts it sleeps baseBackoff * 2^attempt. Caller cancellation propagates
// immediately and is never counted against the breaker.
type Guard struct {
	name        string
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	breaker     *Breaker
	logger      *logger.Logger
	onRetry     func(attempt int)
}

// Option configures Guard.
type Option func(*Guard)

// WithBreaker attaches a circuit breaker.
func WithBreaker(b *Breaker) Option {
	return func(g *Guard) {
		g.breaker = b
	}
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithName labels the guard in log records.
func WithName(name string) Option {
	return func(g *Guard) {
		g.name = name
	}
}

// WithOnRetry registers a callback fired before each backoff sleep.
func WithOnRetry(fn func(attempt int)) Option {
	return func(g *Guard) {
		g.onRetry = fn
	}
}

// New creates a Guard.
func New(timeout time.Duration, maxRetries int, baseBackoff time.Duration, opts ...Option) *Guard {
	g := &Guard{
		name:        "guard",
		timeout:     timeout,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxRetries < 1 {
		g.maxRetries = 1
	}
	return g
}

// Breaker returns the attached breaker, or nil.
func (g *Guard) Breaker() *Breaker {
	return g.breaker
}

// Do runs op under the guard's retry, timeout and breaker policy and returns
// its result.
func Do[T any](ctx context.Context, g *Guard, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		if g.breaker != nil && !g.breaker.CanRun() {
			return zero, ErrCircuitOpen
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		v, err := op(attemptCtx)
		cancel()

		if err == nil {
			if g.breaker != nil {
				g.breaker.Record(true)
			}
			return v, nil
		}

		// Caller-initiated abort is not a failure for breaker purposes.
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if g.breaker != nil {
			g.breaker.Record(false)
		}
		lastErr = err

		if attempt == g.maxRetries-1 {
			break
		}

		if g.onRetry != nil {
			g.onRetry(attempt + 1)
		}

		backoff := g.baseBackoff << attempt
		g.logger.Debug("guarded operation failed, backing off",
			logger.String("guard", g.name),
			logger.Int("attempt", attempt+1),
			logger.Duration("backoff", backoff),
			logger.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
