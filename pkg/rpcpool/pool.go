// Package rpcpool maintains a fixed set of equivalent upstream endpoints and
// performs liveness-checked random selection with failover.
package rpcpool

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"ArbPilot/pkg/logger"
)

var (
	// ErrNoEndpoints is returned at construction when the configured
	// endpoint list is empty. It is fatal, not retriable.
	ErrNoEndpoints = errors.New("rpcpool: no endpoints configured")

	// ErrExhausted is returned when every selection attempt failed.
	ErrExhausted = errors.New("rpcpool: all endpoints exhausted")
)

// Endpoint is an upstream handle the pool can liveness-probe.
type Endpoint interface {
	Ping(ctx context.Context) error
	URL() string
}

// Option configures Pool.
type Option[E Endpoint] func(*Pool[E])

// WithProbeTimeout bounds a single liveness probe.
func WithProbeTimeout[E Endpoint](d time.Duration) Option[E] {
	return func(p *Pool[E]) {
		p.probeTimeout = d
	}
}

// WithRetryDelay sets the fixed delay between failed WithEndpoint attempts.
func WithRetryDelay[E Endpoint](d time.Duration) Option[E] {
	return func(p *Pool[E]) {
		p.retryDelay = d
	}
}

// WithProbeJitter sets the fixed wait between failed selection probes.
func WithProbeJitter[E Endpoint](d time.Duration) Option[E] {
	return func(p *Pool[E]) {
		p.probeJitter = d
	}
}

// WithPoolLogger attaches a logger.
func WithPoolLogger[E Endpoint](l *logger.Logger) Option[E] {
	return func(p *Pool[E]) {
		p.logger = l
	}
}

// Pool holds an immutable ordered set of endpoints, fixed at construction.
// Selection re-rolls a fresh uniform random candidate on every retry, so a
// known-bad endpoint may be probed again before a good one is tried. That
// imprecision is accepted; see the pool notes in DESIGN.md.
type Pool[E Endpoint] struct {
	endpoints    []E
	probeTimeout time.Duration
	probeJitter  time.Duration
	retryDelay   time.Duration
	logger       *logger.Logger
}

// New creates a Pool from a non-empty endpoint list.
func New[E Endpoint](endpoints []E, opts ...Option[E]) (*Pool[E], error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	p := &Pool[E]{
		endpoints:    endpoints,
		probeTimeout: time.Second,
		probeJitter:  100 * time.Millisecond,
		retryDelay:   200 * time.Millisecond,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Size returns the number of configured endpoints.
func (p *Pool[E]) Size() int {
	return len(p.endpoints)
}

// Choose picks a random live endpoint. It probes up to Size() random
// candidates and returns ErrExhausted when none passes.
func (p *Pool[E]) Choose(ctx context.Context) (E, error) {
	var zero E
	for i := 0; i < len(p.endpoints); i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		ep := p.endpoints[rand.Intn(len(p.endpoints))]
		err := p.probe(ctx, ep)
		if err == nil {
			return ep, nil
		}

		p.logger.Debug("endpoint probe failed",
			logger.String("endpoint", ep.URL()),
			logger.Error(err))

		if i < len(p.endpoints)-1 {
			if err := sleep(ctx, p.probeJitter); err != nil {
				return zero, err
			}
		}
	}
	return zero, ErrExhausted
}

// WithEndpoint selects a live endpoint and runs fn against it. On failure it
// re-selects (not necessarily a different endpoint) and retries, up to Size()
// total attempts with a fixed inter-attempt delay, then propagates the last
// error.
func (p *Pool[E]) WithEndpoint(ctx context.Context, fn func(ctx context.Context, ep E) error) error {
	var lastErr error
	for i := 0; i < len(p.endpoints); i++ {
		ep, err := p.Choose(ctx)
		if err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err = fn(ctx, ep)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		p.logger.Warn("endpoint call failed, failing over",
			logger.String("endpoint", ep.URL()),
			logger.Int("attempt", i+1),
			logger.Error(err))

		if i < len(p.endpoints)-1 {
			if err := sleep(ctx, p.retryDelay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// probe runs the liveness check in its own goroutine under a deadline so a
// stuck transport call cannot stall the caller's loop.
func (p *Pool[E]) probe(ctx context.Context, ep E) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- ep.Ping(probeCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-probeCtx.Done():
		return probeCtx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
