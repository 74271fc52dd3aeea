package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/promptforge/promptforge/internal/pipeline"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Store persists runs and their stage events.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for run persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRun inserts the run record in running state.
func (s *Store) CreateRun(ctx context.Context, runID, input string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs(run_id, created_at, status, input, output, error)
		VALUES(?, ?, ?, ?, NULL, NULL)`,
		runID, createdAt, StatusRunning, input); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// StageCompleted records one completed stage. It implements pipeline.Sink.
func (s *Store) StageCompleted(ctx context.Context, ev pipeline.StageEvent) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO stage_events(run_id, seq, ts, stage, phase, output)
		VALUES(?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Seq, ev.At.Format(time.RFC3339), ev.Stage, string(ev.Phase), ev.Output); err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// FinishRun marks the run done with its output.
func (s *Store) FinishRun(ctx context.Context, runID, output string) error {
	return s.closeRun(ctx, runID, StatusDone, output, "")
}

// FailRun marks the run failed with the error message.
func (s *Store) FailRun(ctx context.Context, runID, errMsg string) error {
	return s.closeRun(ctx, runID, StatusFailed, "", errMsg)
}

func (s *Store) closeRun(ctx context.Context, runID, status, output, errMsg string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE runs SET status=?, output=?, error=? WHERE run_id=?`,
		status, nullableString(output), nullableString(errMsg), runID); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RunRecord is one row of run history.
type RunRecord struct {
	ID        string
	CreatedAt string
	Status    string
	Input     string
	Error     string
	Stages    int
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.run_id, r.created_at, r.status, r.input, COALESCE(r.error, ''),
		(SELECT COUNT(*) FROM stage_events e WHERE e.run_id = r.run_id)
		FROM runs r ORDER BY r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Status, &r.Input, &r.Error, &r.Stages); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
