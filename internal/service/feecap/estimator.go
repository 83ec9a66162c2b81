// Package feecap computes a safety-margined fee ceiling from recent block
// history. The median over the last blocks is used instead of the mean so a
// single-block spike cannot drag the ceiling up.
package feecap

import (
	"context"
	"fmt"
	"sort"

	"ArbPilot/pkg/rpcpool"
)

// DefaultMultiplier is the safety margin applied on top of the median.
const DefaultMultiplier = 1.20

// defaultBlocks is how many recent blocks feed the median.
const defaultBlocks = 5

// Endpoint is an upstream handle the estimator can read chain data from.
type Endpoint interface {
	rpcpool.Endpoint
	BlockNumber(ctx context.Context) (uint64, error)
	BaseFee(ctx context.Context, height uint64) (uint64, error)
}

// Option configures Estimator.
type Option[E Endpoint] func(*Estimator[E])

// WithMultiplier overrides the safety margin.
func WithMultiplier[E Endpoint](m float64) Option[E] {
	return func(e *Estimator[E]) {
		e.multiplier = m
	}
}

// WithBlocks overrides the number of sampled blocks.
func WithBlocks[E Endpoint](n int) Option[E] {
	return func(e *Estimator[E]) {
		e.blocks = n
	}
}

// Estimator derives a fee cap via the endpoint pool. Callers that need retry
// or circuit protection wrap EstimateCap in a guard.
type Estimator[E Endpoint] struct {
	pool       *rpcpool.Pool[E]
	multiplier float64
	blocks     int
}

// New creates an Estimator on top of the pool.
func New[E Endpoint](pool *rpcpool.Pool[E], opts ...Option[E]) *Estimator[E] {
	e := &Estimator[E]{
		pool:       pool,
		multiplier: DefaultMultiplier,
		blocks:     defaultBlocks,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateCap fetches the head height, samples the base fee of the most
// recent blocks (head, head-1, ...), and returns median * multiplier as an
// integer fee cap in wei.
func (e *Estimator[E]) EstimateCap(ctx context.Context) (uint64, error) {
	var capWei uint64
	err := e.pool.WithEndpoint(ctx, func(ctx context.Context, ep E) error {
		head, err := ep.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("block number: %w", err)
		}

		fees := make([]uint64, 0, e.blocks)
		for i := 0; i < e.blocks; i++ {
			offset := uint64(i)
			if offset > head {
				break // young chain, fewer blocks than the sample window
			}
			fee, err := ep.BaseFee(ctx, head-offset)
			if err != nil {
				return fmt.Errorf("base fee at %d: %w", head-offset, err)
			}
			fees = append(fees, fee)
		}
		if len(fees) == 0 {
			return fmt.Errorf("no base fee samples at head %d", head)
		}

		capWei = uint64(median(fees) * e.multiplier)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return capWei, nil
}

func median(values []uint64) float64 {
	sorted := make([]uint64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}
