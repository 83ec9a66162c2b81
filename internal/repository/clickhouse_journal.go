package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ArbPilot/internal/domain/models"
)

// JournalSchema returns the idempotent DDL for the decision journal.
func JournalSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3),
			stream String,
			entry_id String,
			strategy String,
			confidence Float64,
			fallback String,
			valid UInt8,
			reject_reason String,
			fee_cap_wei UInt64,
			profit_usd Float64,
			risk_score Float64,
			mev_vulnerability Float64,
			gas_cost_usd Float64,
			time_sensitivity Float64
		) ENGINE=MergeTree ORDER BY (stream, ts)`, database, table),
	}
}

// ClickHouseJournal records every handled signal's decision for offline
// analysis. It sits outside the hot path's failure domain: the handler logs
// and counts journal errors but never fails an entry over them.
type ClickHouseJournal struct {
	db    *sql.DB
	table string
}

// NewClickHouseJournal creates a journal writing to database.table.
func NewClickHouseJournal(db *sql.DB, table string) *ClickHouseJournal {
	return &ClickHouseJournal{db: db, table: table}
}

// Record inserts one decision row.
func (j *ClickHouseJournal) Record(ctx context.Context, intent *models.ExecutionIntent, sig models.RoutingSignal) error {
	valid := uint8(0)
	if intent.Validation.OK {
		valid = 1
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(ts, stream, entry_id, strategy, confidence, fallback, valid, reject_reason,
		 fee_cap_wei, profit_usd, risk_score, mev_vulnerability, gas_cost_usd, time_sensitivity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, j.table)

	_, err := j.db.ExecContext(ctx, query,
		intent.CreatedAt.UTC().Format("2006-01-02 15:04:05.000"),
		intent.Stream,
		intent.EntryID,
		string(intent.Decision.Strategy),
		intent.Decision.Confidence,
		string(intent.Decision.Fallback),
		valid,
		intent.Validation.Reason,
		intent.FeeCapWei,
		sig.ProfitUsd,
		sig.RiskScore,
		sig.MevVulnerability,
		sig.GasCostUsd,
		sig.TimeSensitivity,
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}
