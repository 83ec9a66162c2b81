package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ArbPilot/internal/domain/models"
	drepo "ArbPilot/internal/domain/repository"
	"ArbPilot/internal/service/strategy"
	"ArbPilot/internal/service/validator"
	"ArbPilot/pkg/guard"
	"ArbPilot/pkg/logger"
)

// FeeCapEstimator yields a conservative fee ceiling for the next submission.
type FeeCapEstimator interface {
	EstimateCap(ctx context.Context) (uint64, error)
}

// SignalHandler turns one stream entry into an execution intent: fee cap via
// the guard, strategy decision, trade validation, then publish.
type SignalHandler struct {
	estimator FeeCapEstimator
	guard     *guard.Guard
	validator *validator.Validator
	router    *strategy.Router
	intents   drepo.IntentPublisher
	journal   drepo.DecisionJournal // optional
	metrics   drepo.Metrics
	logger    *logger.Logger
}

// NewSignalHandler creates a SignalHandler. journal may be nil.
func NewSignalHandler(
	estimator FeeCapEstimator,
	g *guard.Guard,
	v *validator.Validator,
	router *strategy.Router,
	intents drepo.IntentPublisher,
	journal drepo.DecisionJournal,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *SignalHandler {
	return &SignalHandler{
		estimator: estimator,
		guard:     g,
		validator: v,
		router:    router,
		intents:   intents,
		journal:   journal,
		metrics:   metrics,
		logger:    lgr,
	}
}

// Handle processes a single signal entry. Any returned error is isolated by
// the supervisor to this entry; it never takes down the loop.
func (h *SignalHandler) Handle(ctx context.Context, entry *models.SignalEntry) error {
	sig, sim, err := decodeEntry(entry)
	if err != nil {
		return fmt.Errorf("decode entry %s: %w", entry.ID, err)
	}

	feeCap, err := guard.Do(ctx, h.guard, func(ctx context.Context) (uint64, error) {
		return h.estimator.EstimateCap(ctx)
	})
	if err != nil {
		return fmt.Errorf("fee cap: %w", err)
	}
	h.metrics.RecordFeeCap(feeCap)

	decision := h.router.Decide(sig)
	h.metrics.RecordDecision(string(decision.Strategy))

	result := h.validator.Validate(sim)
	h.metrics.RecordValidation(result.OK)
	if !result.OK {
		h.logger.Debug("trade rejected",
			logger.String("stream", entry.Stream),
			logger.String("entry", entry.ID),
			logger.String("reason", result.Reason))
	}

	intent := &models.ExecutionIntent{
		Stream:     entry.Stream,
		EntryID:    entry.ID,
		Decision:   decision,
		Validation: result,
		FeeCapWei:  feeCap,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.intents.Publish(ctx, intent); err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}

	if h.journal != nil {
		if err := h.journal.Record(ctx, intent, sig); err != nil {
			h.metrics.RecordError("journal")
			h.logger.Warn("journal write failed",
				logger.String("entry", entry.ID),
				logger.Error(err))
		}
	}

	return nil
}

// decodeEntry maps a stream entry's flat payload to the routing signal and
// trade simulation. Route legs travel as a JSON array under "legs".
func decodeEntry(entry *models.SignalEntry) (models.RoutingSignal, *models.TradeSimulation, error) {
	sig := models.RoutingSignal{
		ProfitUsd:        payloadFloat(entry.Payload, "profit_usd"),
		RiskScore:        payloadFloat(entry.Payload, "risk_score"),
		MevVulnerability: payloadFloat(entry.Payload, "mev_vulnerability"),
		GasCostUsd:       payloadFloat(entry.Payload, "gas_cost_usd"),
		TradeSizeUsd:     payloadFloat(entry.Payload, "trade_size_usd"),
		TimeSensitivity:  payloadFloat(entry.Payload, "time_sensitivity"),
		ComplexityScore:  payloadFloat(entry.Payload, "complexity_score"),
	}

	sim := &models.TradeSimulation{
		AmountIn:   payloadFloat(entry.Payload, "amount_in"),
		AmountOut:  payloadFloat(entry.Payload, "amount_out"),
		GasCostUsd: payloadFloat(entry.Payload, "gas_cost_usd"),
		SpreadBps:  payloadFloat(entry.Payload, "spread_bps"),
	}
	if sim.AmountIn <= 0 {
		return sig, nil, fmt.Errorf("missing or invalid amount_in")
	}

	if raw, ok := entry.Payload["legs"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &sim.Legs); err != nil {
			return sig, nil, fmt.Errorf("parse legs: %w", err)
		}
	}

	return sig, sim, nil
}

func payloadFloat(payload map[string]string, key string) float64 {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
