package models

import "time"

// RouteLeg is a single hop of a simulated trade route.
type RouteLeg struct {
	Dex       string  `json:"dex"`
	TokenIn   string  `json:"token_in"`
	TokenOut  string  `json:"token_out"`
	AmountIn  float64 `json:"amount_in"`
	AmountOut float64 `json:"amount_out"`
	Slippage  float64 `json:"slippage"` // fraction, 0.005 == 0.5%
}

// TradeSimulation is an externally produced simulation of a candidate trade.
// Consumed read-only by the validator.
type TradeSimulation struct {
	AmountIn   float64    `json:"amount_in"`
	AmountOut  float64    `json:"amount_out"`
	GasCostUsd float64    `json:"gas_cost_usd"`
	SpreadBps  float64    `json:"spread_bps"`
	Legs       []RouteLeg `json:"legs"`
}

// ValidationResult is a normal negative-or-positive outcome, not an error.
// Reason is populated only on rejection and names the first violated gate.
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ExecutionIntent is the tuple handed to the downstream executor. Whether and
// how a transaction is actually submitted is out of this process's hands.
type ExecutionIntent struct {
	Stream     string           `json:"stream"`
	EntryID    string           `json:"entry_id"`
	Decision   RoutingDecision  `json:"decision"`
	Validation ValidationResult `json:"validation"`
	FeeCapWei  uint64           `json:"fee_cap_wei"`
	CreatedAt  time.Time        `json:"created_at"`
}
