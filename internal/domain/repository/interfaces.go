package repository

import (
	"context"
	"time"

	"ArbPilot/internal/domain/models"
)

// CursorLiveTail is the sentinel cursor meaning "only entries arriving after
// start are visible".
const CursorLiveTail = "$"

// StreamSource reads entries from an append-only, per-key ordered log.
// Re-reading the same id range is idempotent from the source's perspective.
type StreamSource interface {
	// ReadAfter returns up to count entries with id greater than afterID,
	// blocking at most block. A nil slice means no new entries.
	ReadAfter(ctx context.Context, stream, afterID string, count int64, block time.Duration) ([]models.SignalEntry, error)
}

// CursorStore tracks the last successfully processed entry id per stream.
// The default implementation is in-memory and loses its position on restart;
// a durable store can be swapped in without touching the polling logic.
type CursorStore interface {
	Get(stream string) string
	Advance(stream, id string)
}

// IntentPublisher hands execution intents to the downstream executor.
type IntentPublisher interface {
	Publish(ctx context.Context, intent *models.ExecutionIntent) error
	Close() error
}

// DecisionJournal records handled signals for offline analysis. Journal
// failures must never fail the entry that produced them.
type DecisionJournal interface {
	Record(ctx context.Context, intent *models.ExecutionIntent, sig models.RoutingSignal) error
}

// Metrics is the telemetry sink for the pipeline.
type Metrics interface {
	RecordProcessed(stream string)
	RecordFailed(stream string)
	RecordError(kind string)
	RecordDecision(strategy string)
	RecordValidation(ok bool)
	RecordBreakerOpen()
	RecordFeeCap(capWei uint64)
	RecordEntryDuration(stream string, seconds float64)
}
