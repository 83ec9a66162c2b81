package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRetriesExactlyMaxRetries(t *testing.T) {
	g := New(time.Second, 3, time.Millisecond)

	boom := errors.New("boom")
	attempts := 0
	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		attempts++
		return 0, boom
	})

	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, boom, "the final underlying error must propagate")
}

func TestDoBackoffDoubles(t *testing.T) {
	base := 20 * time.Millisecond
	g := New(time.Second, 3, base)

	var stamps []time.Time
	_, _ = Do(context.Background(), g, func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("nope")
	})

	require.Len(t, stamps, 3)
	// Sleeps are base*1 then base*2 between the three attempts.
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), base)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*base)
}

func TestDoReturnsResultOnSuccess(t *testing.T) {
	g := New(time.Second, 3, time.Millisecond)

	attempts := 0
	v, err := Do(context.Background(), g, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, attempts)
}

func TestDoOnRetryFiresBetweenAttempts(t *testing.T) {
	retries := 0
	g := New(time.Second, 3, time.Millisecond, WithOnRetry(func(int) { retries++ }))

	_, _ = Do(context.Background(), g, func(ctx context.Context) (int, error) {
		return 0, errors.New("nope")
	})

	assert.Equal(t, 2, retries, "one callback per backoff, none after the final attempt")
}

func TestDoCircuitOpenFailsFast(t *testing.T) {
	b := NewBreaker(1, time.Hour)
	b.Record(false) // open the gate

	g := New(time.Second, 3, time.Millisecond, WithBreaker(b))

	attempts := 0
	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		attempts++
		return 0, nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, attempts, "open circuit must not run the operation")

	failures, _ := b.State()
	assert.Equal(t, 1, failures, "fast-fail must not touch breaker state")
}

func TestDoRecordsBreakerOutcomes(t *testing.T) {
	b := NewBreaker(10, time.Hour)
	g := New(time.Second, 2, time.Millisecond, WithBreaker(b))

	_, _ = Do(context.Background(), g, func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	})
	failures, _ := b.State()
	assert.Equal(t, 2, failures)

	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	failures, _ = b.State()
	assert.Equal(t, 0, failures, "success resets the failure streak")
}

func TestDoAttemptTimeoutCountsAsFailure(t *testing.T) {
	b := NewBreaker(10, time.Hour)
	g := New(10*time.Millisecond, 2, time.Millisecond, WithBreaker(b))

	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	failures, _ := b.State()
	assert.Equal(t, 2, failures)
}

func TestDoCancellationBypassesRetryAndBreaker(t *testing.T) {
	b := NewBreaker(10, time.Hour)
	g := New(time.Second, 5, 50*time.Millisecond, WithBreaker(b))

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := Do(ctx, g, func(opCtx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, opCtx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "cancellation must not be retried")
	failures, _ := b.State()
	assert.Equal(t, 0, failures, "cancellation is not a failure for breaker purposes")
}
