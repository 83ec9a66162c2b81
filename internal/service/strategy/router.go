// Package strategy selects an execution strategy for a routing signal via a
// fixed, ordered decision list. The rule order is the tie-break contract:
// first matching rule wins.
package strategy

import (
	"fmt"
	"sync"

	"ArbPilot/internal/domain/models"
)

// Thresholds are the router's decision limits.
type Thresholds struct {
	HighMev             float64
	FlashLoanProfit     float64
	HighTimeSensitivity float64
}

// DefaultThresholds returns the production limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighMev:             0.7,
		FlashLoanProfit:     1000,
		HighTimeSensitivity: 0.8,
	}
}

// Record is one routed signal with its decision.
type Record struct {
	Signal   models.RoutingSignal   `json:"signal"`
	Decision models.RoutingDecision `json:"decision"`
}

// StrategyStats aggregates routing history for one strategy.
type StrategyStats struct {
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Stats is the aggregate view over the routing history.
type Stats struct {
	Total      int                                `json:"total"`
	Strategies map[models.Strategy]StrategyStats `json:"strategies"`
}

type rule struct {
	match  func(sig models.RoutingSignal) bool
	decide func(sig models.RoutingSignal) models.RoutingDecision
}

// Router maps a signal's risk/profit attributes to a strategy selection.
// Every decision is appended to an in-memory history used for aggregate
// statistics only. The history grows without bound for the process lifetime.
type Router struct {
	rules []rule

	mu      sync.Mutex
	history []Record
}

// New creates a Router with the given thresholds.
func New(t Thresholds) *Router {
	return &Router{
		rules: []rule{
			{
				// High MEV exposure overrides everything else.
				match: func(sig models.RoutingSignal) bool {
					return sig.MevVulnerability > t.HighMev
				},
				decide: func(sig models.RoutingSignal) models.RoutingDecision {
					return models.RoutingDecision{
						Strategy:   models.StrategyProtected,
						Confidence: 0.9,
						Reasoning: fmt.Sprintf("mev vulnerability %.2f above %.2f, routing through private relay",
							sig.MevVulnerability, t.HighMev),
						Fallback: models.StrategyStandard,
					}
				},
			},
			{
				// Large profit attracts searchers even at low measured MEV.
				match: func(sig models.RoutingSignal) bool {
					return sig.ProfitUsd > t.FlashLoanProfit
				},
				decide: func(sig models.RoutingSignal) models.RoutingDecision {
					return models.RoutingDecision{
						Strategy:   models.StrategyProtected,
						Confidence: 0.8,
						Reasoning: fmt.Sprintf("profit $%.2f above flash-loan threshold $%.2f",
							sig.ProfitUsd, t.FlashLoanProfit),
						Fallback: models.StrategyStandard,
					}
				},
			},
			{
				match: func(sig models.RoutingSignal) bool {
					return sig.GasCostUsd > sig.ProfitUsd*0.5
				},
				decide: func(sig models.RoutingSignal) models.RoutingDecision {
					return models.RoutingDecision{
						Strategy:   models.StrategyGasOptimized,
						Confidence: 0.8,
						Reasoning: fmt.Sprintf("gas $%.2f exceeds half of profit $%.2f",
							sig.GasCostUsd, sig.ProfitUsd),
						Fallback: models.StrategyProtected,
					}
				},
			},
			{
				match: func(sig models.RoutingSignal) bool {
					return sig.TimeSensitivity > t.HighTimeSensitivity
				},
				decide: func(sig models.RoutingSignal) models.RoutingDecision {
					return models.RoutingDecision{
						Strategy:   models.StrategyFastLane,
						Confidence: 0.7,
						Reasoning: fmt.Sprintf("time sensitivity %.2f above %.2f",
							sig.TimeSensitivity, t.HighTimeSensitivity),
						Fallback: models.StrategyProtected,
					}
				},
			},
			{
				match: func(sig models.RoutingSignal) bool { return true },
				decide: func(sig models.RoutingSignal) models.RoutingDecision {
					return models.RoutingDecision{
						Strategy:   models.StrategyStandard,
						Confidence: 0.6,
						Reasoning:  "no special handling required",
						Fallback:   models.StrategyProtected,
					}
				},
			},
		},
	}
}

// Decide selects a strategy for the signal and appends the pair to the
// routing history.
func (r *Router) Decide(sig models.RoutingSignal) models.RoutingDecision {
	var decision models.RoutingDecision
	for _, rule := range r.rules {
		if rule.match(sig) {
			decision = rule.decide(sig)
			break
		}
	}

	r.mu.Lock()
	r.history = append(r.history, Record{Signal: sig, Decision: decision})
	r.mu.Unlock()

	return decision
}

// History returns a copy of the routing history.
func (r *Router) History() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.history))
	copy(out, r.history)
	return out
}

// Stats aggregates the routing history: per-strategy counts and mean
// confidence.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[models.Strategy]int)
	confSums := make(map[models.Strategy]float64)
	for _, rec := range r.history {
		counts[rec.Decision.Strategy]++
		confSums[rec.Decision.Strategy] += rec.Decision.Confidence
	}

	stats := Stats{
		Total:      len(r.history),
		Strategies: make(map[models.Strategy]StrategyStats, len(counts)),
	}
	for s, n := range counts {
		stats.Strategies[s] = StrategyStats{
			Count:          n,
			MeanConfidence: confSums[s] / float64(n),
		}
	}
	return stats
}
