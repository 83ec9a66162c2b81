package models

// SignalEntry is one record read from an append-only signal stream.
// Immutable once read.
type SignalEntry struct {
	ID      string            `json:"id"`
	Stream  string            `json:"stream"`
	Payload map[string]string `json:"payload"`
}

// Strategy identifies an execution strategy.
type Strategy string

const (
	// StrategyProtected routes through a private relay to avoid MEV exposure.
	StrategyProtected Strategy = "mev_protected"
	// StrategyGasOptimized trades speed for lower gas spend.
	StrategyGasOptimized Strategy = "gas_optimized"
	// StrategyFastLane prioritizes inclusion latency.
	StrategyFastLane Strategy = "fast_lane"
	// StrategyStandard is the default public-mempool path.
	StrategyStandard Strategy = "standard"
)

// RoutingSignal carries the risk/profit attributes of a candidate trade.
type RoutingSignal struct {
	ProfitUsd        float64 `json:"profit_usd"`
	RiskScore        float64 `json:"risk_score"`
	MevVulnerability float64 `json:"mev_vulnerability"`
	GasCostUsd       float64 `json:"gas_cost_usd"`
	TradeSizeUsd     float64 `json:"trade_size_usd"`
	TimeSensitivity  float64 `json:"time_sensitivity"`
	ComplexityScore  float64 `json:"complexity_score"`
}

// RoutingDecision is the outcome of strategy selection.
type RoutingDecision struct {
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Fallback   Strategy `json:"fallback,omitempty"`
}
