package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ArbPilot/internal/domain/models"
	drepo "ArbPilot/internal/domain/repository"
	"ArbPilot/pkg/logger"
)

// EntryHandler processes one stream entry.
type EntryHandler interface {
	Handle(ctx context.Context, entry *models.SignalEntry) error
}

// Supervisor drives the signal-consumption loop. It polls every configured
// stream in fixed order, dispatches entries in ascending id order, and
// advances a stream's cursor only after its handler succeeds. Failures are
// isolated: a failing entry stops only its own stream's batch, the loop moves
// on to the next stream, and the entry is retried on the next poll because
// the cursor did not move.
type Supervisor struct {
	streams   []string
	source    drepo.StreamSource
	cursors   drepo.CursorStore
	handler   EntryHandler
	metrics   drepo.Metrics
	logger    *logger.Logger
	pollCount int64
	pollBlock time.Duration
}

// NewSupervisor creates a Supervisor over the configured streams.
func NewSupervisor(
	streams []string,
	source drepo.StreamSource,
	cursors drepo.CursorStore,
	handler EntryHandler,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	pollCount int64,
	pollBlock time.Duration,
) *Supervisor {
	return &Supervisor{
		streams:   streams,
		source:    source,
		cursors:   cursors,
		handler:   handler,
		metrics:   metrics,
		logger:    lgr,
		pollCount: pollCount,
		pollBlock: pollBlock,
	}
}

// Run loops until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		logger.Strings("streams", s.streams),
		logger.Int64("poll_count", s.pollCount),
		logger.Duration("poll_block", s.pollBlock))

	for {
		for _, stream := range s.streams {
			if err := ctx.Err(); err != nil {
				s.logger.Info("supervisor stopped")
				return err
			}
			s.pollStream(ctx, stream)
		}
	}
}

// pollStream reads and dispatches one batch for a single stream. All errors
// are contained here; nothing propagates past the per-stream boundary.
func (s *Supervisor) pollStream(ctx context.Context, stream string) {
	cursor := s.cursors.Get(stream)

	entries, err := s.source.ReadAfter(ctx, stream, cursor, s.pollCount, s.pollBlock)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		s.metrics.RecordError("poll")
		s.logger.Warn("stream poll failed",
			logger.String("stream", stream),
			logger.Error(err))
		// Pace the loop so a dead source does not spin it hot.
		select {
		case <-time.After(s.pollBlock):
		case <-ctx.Done():
		}
		return
	}

	for i := range entries {
		entry := &entries[i]

		start := time.Now()
		err := s.handleEntry(ctx, entry)
		s.metrics.RecordEntryDuration(stream, time.Since(start).Seconds())

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.metrics.RecordFailed(stream)
			s.logger.Error("entry handling failed",
				logger.String("stream", stream),
				logger.String("entry", entry.ID),
				logger.Error(err))
			// Cursor stays put so this entry and everything after it is
			// re-read on the next poll. Move on to the next stream.
			return
		}

		s.cursors.Advance(stream, entry.ID)
		s.metrics.RecordProcessed(stream)
	}
}

// handleEntry confines handler panics to the entry that caused them.
func (s *Supervisor) handleEntry(ctx context.Context, entry *models.SignalEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler.Handle(ctx, entry)
}
