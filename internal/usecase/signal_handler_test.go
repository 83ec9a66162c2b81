package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ArbPilot/internal/domain/models"
	"ArbPilot/internal/service/strategy"
	"ArbPilot/internal/service/validator"
	"ArbPilot/pkg/guard"
	"ArbPilot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.Nop()
}

type fakeEstimator struct {
	capWei   uint64
	err      error
	failures int // fail this many times before succeeding
	calls    int
}

func (f *fakeEstimator) EstimateCap(ctx context.Context) (uint64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if f.calls <= f.failures {
		return 0, errors.New("upstream hiccup")
	}
	return f.capWei, nil
}

type capturePublisher struct {
	mu      sync.Mutex
	intents []*models.ExecutionIntent
	err     error
}

func (p *capturePublisher) Publish(ctx context.Context, intent *models.ExecutionIntent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.intents = append(p.intents, intent)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func signalEntry(payload map[string]string) *models.SignalEntry {
	return &models.SignalEntry{
		ID:      "1700000000000-0",
		Stream:  "signals:arb",
		Payload: payload,
	}
}

func goodPayload() map[string]string {
	return map[string]string{
		"profit_usd":        "150",
		"mev_vulnerability": "0.9",
		"gas_cost_usd":      "2",
		"time_sensitivity":  "0.3",
		"amount_in":         "1000",
		"amount_out":        "1010",
		"spread_bps":        "30",
		"legs":              `[{"dex":"uniswap","slippage":0.001},{"dex":"sushi","slippage":0.002}]`,
	}
}

func newHandler(est FeeCapEstimator, pub *capturePublisher) *SignalHandler {
	g := guard.New(time.Second, 3, time.Millisecond)
	return NewSignalHandler(
		est,
		g,
		validator.New(validator.DefaultThresholds()),
		strategy.New(strategy.DefaultThresholds()),
		pub,
		nil,
		newNopMetrics(),
		testLogger(),
	)
}

func TestHandlePublishesIntent(t *testing.T) {
	est := &fakeEstimator{capWei: 30_000_000_000}
	pub := &capturePublisher{}
	h := newHandler(est, pub)

	require.NoError(t, h.Handle(context.Background(), signalEntry(goodPayload())))
	require.Len(t, pub.intents, 1)

	intent := pub.intents[0]
	assert.Equal(t, "signals:arb", intent.Stream)
	assert.Equal(t, uint64(30_000_000_000), intent.FeeCapWei)
	assert.Equal(t, models.StrategyProtected, intent.Decision.Strategy, "mev 0.9 routes protected")
	assert.True(t, intent.Validation.OK)
}

func TestHandleGuardRetriesEstimator(t *testing.T) {
	est := &fakeEstimator{capWei: 100, failures: 2}
	pub := &capturePublisher{}
	h := newHandler(est, pub)

	require.NoError(t, h.Handle(context.Background(), signalEntry(goodPayload())))
	assert.Equal(t, 3, est.calls, "two failures then a success under the guard")
	require.Len(t, pub.intents, 1)
	assert.Equal(t, uint64(100), pub.intents[0].FeeCapWei)
}

func TestHandleRejectedTradeStillPublishes(t *testing.T) {
	est := &fakeEstimator{capWei: 100}
	pub := &capturePublisher{}
	h := newHandler(est, pub)

	payload := goodPayload()
	payload["spread_bps"] = "10" // below the 23 bps gate

	require.NoError(t, h.Handle(context.Background(), signalEntry(payload)))
	require.Len(t, pub.intents, 1)
	assert.False(t, pub.intents[0].Validation.OK)
	assert.Contains(t, pub.intents[0].Validation.Reason, "spread")
}

func TestHandleFailsOnUndecodableEntry(t *testing.T) {
	est := &fakeEstimator{capWei: 100}
	pub := &capturePublisher{}
	h := newHandler(est, pub)

	err := h.Handle(context.Background(), signalEntry(map[string]string{"spread_bps": "30"}))
	assert.ErrorContains(t, err, "amount_in")
	assert.Empty(t, pub.intents)
	assert.Zero(t, est.calls, "no upstream call for a broken entry")
}

func TestHandleFailsWhenEstimatorExhausted(t *testing.T) {
	est := &fakeEstimator{err: errors.New("all endpoints down")}
	pub := &capturePublisher{}
	h := newHandler(est, pub)

	err := h.Handle(context.Background(), signalEntry(goodPayload()))
	assert.ErrorContains(t, err, "fee cap")
	assert.Empty(t, pub.intents)
}

func TestHandleFailsWhenPublishFails(t *testing.T) {
	est := &fakeEstimator{capWei: 100}
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	h := newHandler(est, pub)

	err := h.Handle(context.Background(), signalEntry(goodPayload()))
	assert.ErrorContains(t, err, "publish intent")
}

func TestDecodeEntryLegs(t *testing.T) {
	sig, sim, err := decodeEntry(signalEntry(goodPayload()))
	require.NoError(t, err)

	assert.Equal(t, 150.0, sig.ProfitUsd)
	assert.Equal(t, 0.9, sig.MevVulnerability)
	require.Len(t, sim.Legs, 2)
	assert.Equal(t, "uniswap", sim.Legs[0].Dex)
	assert.Equal(t, 0.002, sim.Legs[1].Slippage)
}

func TestDecodeEntryBadLegsJSON(t *testing.T) {
	payload := goodPayload()
	payload["legs"] = "{not json"
	_, _, err := decodeEntry(signalEntry(payload))
	assert.ErrorContains(t, err, "parse legs")
}
