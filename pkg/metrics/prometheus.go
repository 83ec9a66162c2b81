package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	entriesProcessed *prometheus.CounterVec
	entriesFailed    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	decisionsTotal   *prometheus.CounterVec
	validationsTotal *prometheus.CounterVec
	breakerOpens     prometheus.Counter
	feeCapWei        prometheus.Gauge
	entryDuration    *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		entriesProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbpilot_entries_processed_total",
				Help: "Total number of stream entries processed successfully",
			},
			[]string{"stream"},
		),
		entriesFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbpilot_entries_failed_total",
				Help: "Total number of stream entries whose handler failed",
			},
			[]string{"stream"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbpilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbpilot_strategy_decisions_total",
				Help: "Total routing decisions per selected strategy",
			},
			[]string{"strategy"},
		),
		validationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbpilot_trade_validations_total",
				Help: "Total trade validations by outcome",
			},
			[]string{"result"},
		),
		breakerOpens: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "arbpilot_breaker_open_total",
				Help: "Total circuit breaker open transitions",
			},
		),
		feeCapWei: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbpilot_fee_cap_wei",
				Help: "Most recently estimated fee cap in wei",
			},
		),
		entryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbpilot_entry_duration_seconds",
				Help:    "Duration of end-to-end entry handling in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stream"},
		),
	}
}

// RecordProcessed records a successfully handled stream entry.
func (r *Recorder) RecordProcessed(stream string) {
	r.entriesProcessed.WithLabelValues(stream).Inc()
}

// RecordFailed records a stream entry whose handler failed.
func (r *Recorder) RecordFailed(stream string) {
	r.entriesFailed.WithLabelValues(stream).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordDecision records a routing decision for a strategy.
func (r *Recorder) RecordDecision(strategy string) {
	r.decisionsTotal.WithLabelValues(strategy).Inc()
}

// RecordValidation records a trade validation outcome.
func (r *Recorder) RecordValidation(ok bool) {
	result := "rejected"
	if ok {
		result = "passed"
	}
	r.validationsTotal.WithLabelValues(result).Inc()
}

// RecordBreakerOpen records a circuit breaker open transition.
func (r *Recorder) RecordBreakerOpen() {
	r.breakerOpens.Inc()
}

// RecordFeeCap records the latest estimated fee cap.
func (r *Recorder) RecordFeeCap(capWei uint64) {
	r.feeCapWei.Set(float64(capWei))
}

// RecordEntryDuration records entry handling latency in seconds.
func (r *Recorder) RecordEntryDuration(stream string, seconds float64) {
	r.entryDuration.WithLabelValues(stream).Observe(seconds)
}
