// CLAUDE:SUMMARY SQLite ledger of verification runs: outcome, failed step, tx reference, artifact paths.
// Package runlog persists verification run outcomes to a SQLite ledger so
// repeated runs against the same target can be compared and the latest
// verdict queried without re-reading artifacts.
package runlog

import (
	"context"
	"database/sql"
	"time"
)

// Schema for the verification_runs table. Pass to dbopen.WithSchema or
// apply via Store.Init.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	failed_step TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	tx_ref TEXT NOT NULL DEFAULT '',
	screenshot TEXT NOT NULL DEFAULT '',
	snapshot TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_verification_runs_started ON verification_runs(started_at);
`

// Run outcomes. A run that reached either terminal indicator verifies; only
// failing before a terminal state is recorded as failed.
const (
	OutcomeTrace    = "trace"
	OutcomeAppError = "app_error"
	OutcomeFailed   = "failed"
)

// Run is one ledger row.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	FailedStep string
	Error      string
	TxRef      string
	Screenshot string
	Snapshot   string
}

// Store persists runs to a SQLite table.
type Store struct {
	db *sql.DB
}

// NewStore creates a run ledger backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the verification_runs table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Record inserts a run and returns its id.
func (s *Store) Record(ctx context.Context, r *Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_runs
			(started_at, finished_at, outcome, failed_step, error, tx_ref, screenshot, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
		r.Outcome, r.FailedStep, r.Error, r.TxRef, r.Screenshot, r.Snapshot,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Last returns the most recently started run, or nil if the ledger is empty.
func (s *Store) Last(ctx context.Context) (*Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// List returns up to limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, failed_step, error, tx_ref, screenshot, snapshot
		FROM verification_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome,
			&r.FailedStep, &r.Error, &r.TxRef, &r.Screenshot, &r.Snapshot); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
