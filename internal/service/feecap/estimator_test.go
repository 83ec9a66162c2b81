package feecap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ArbPilot/pkg/rpcpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	head    uint64
	fees    map[uint64]uint64
	healthy bool
	calls   int
}

func (f *fakeChain) Ping(ctx context.Context) error {
	if !f.healthy {
		return errors.New("down")
	}
	return nil
}

func (f *fakeChain) URL() string { return "http://fake" }

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	f.calls++
	return f.head, nil
}

func (f *fakeChain) BaseFee(ctx context.Context, height uint64) (uint64, error) {
	fee, ok := f.fees[height]
	if !ok {
		return 0, fmt.Errorf("unknown block %d", height)
	}
	return fee, nil
}

func newChainPool(t *testing.T, chains ...*fakeChain) *rpcpool.Pool[*fakeChain] {
	t.Helper()
	p, err := rpcpool.New(chains,
		rpcpool.WithProbeTimeout[*fakeChain](100*time.Millisecond),
		rpcpool.WithProbeJitter[*fakeChain](0),
		rpcpool.WithRetryDelay[*fakeChain](0),
	)
	require.NoError(t, err)
	return p
}

func TestEstimateCapMedianTimesMultiplier(t *testing.T) {
	chain := &fakeChain{
		head:    100,
		healthy: true,
		fees: map[uint64]uint64{
			100: 30_000_000_000,
			99:  10_000_000_000,
			98:  500_000_000_000, // spike, must not move the median
			97:  20_000_000_000,
			96:  25_000_000_000,
		},
	}
	e := New(newChainPool(t, chain))

	capWei, err := e.EstimateCap(context.Background())
	require.NoError(t, err)
	// median of {10,20,25,30,500} gwei is 25 gwei; * 1.20 = 30 gwei.
	assert.Equal(t, uint64(30_000_000_000), capWei)
}

func TestEstimateCapCustomMultiplier(t *testing.T) {
	chain := &fakeChain{
		head:    10,
		healthy: true,
		fees:    map[uint64]uint64{10: 100, 9: 100, 8: 100, 7: 100, 6: 100},
	}
	e := New(newChainPool(t, chain), WithMultiplier[*fakeChain](1.5))

	capWei, err := e.EstimateCap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), capWei)
}

func TestEstimateCapYoungChain(t *testing.T) {
	// Head at 1: only blocks 1 and 0 exist, the window shrinks.
	chain := &fakeChain{
		head:    1,
		healthy: true,
		fees:    map[uint64]uint64{1: 40, 0: 20},
	}
	e := New(newChainPool(t, chain))

	capWei, err := e.EstimateCap(context.Background())
	require.NoError(t, err)
	// median of {20,40} = 30; * 1.2 = 36.
	assert.Equal(t, uint64(36), capWei)
}

func TestEstimateCapPropagatesExhaustion(t *testing.T) {
	chain := &fakeChain{head: 100, healthy: false}
	e := New(newChainPool(t, chain))

	_, err := e.EstimateCap(context.Background())
	assert.ErrorIs(t, err, rpcpool.ErrExhausted)
}

func TestEstimateCapFailsOnMissingBlock(t *testing.T) {
	chain := &fakeChain{
		head:    100,
		healthy: true,
		fees:    map[uint64]uint64{100: 10}, // 99.. missing
	}
	e := New(newChainPool(t, chain))

	_, err := e.EstimateCap(context.Background())
	assert.ErrorContains(t, err, "base fee at 99")
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]uint64{5, 1, 3, 2, 4}))
	assert.Equal(t, 2.5, median([]uint64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, median([]uint64{7}))
}
