package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RecordStepRun inserts a step run. ID and StartedAt are filled in when empty.
func (s *SQLiteStore) RecordStepRun(ctx context.Context, sr *StepRun) error {
	if s.db == nil {
		return errNotOpened
	}
	if sr.ID == "" {
		sr.ID = generateID()
	}
	if sr.StartedAt.IsZero() {
		sr.StartedAt = time.Now().UTC()
	}

	s.logger.Debug("recording step run",
		slog.String("run_id", sr.RunID),
		slog.String("step", sr.Step),
		slog.String("status", string(sr.Status)))

	var completedAt sql.NullTime
	if sr.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *sr.CompletedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_runs (id, run_id, step, status, rows_affected, error, started_at, completed_at, execution_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ID, sr.RunID, sr.Step, string(sr.Status), sr.Rows, nullString(sr.Error),
		sr.StartedAt, completedAt, sr.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record step run: %w", err)
	}
	return nil
}

// UpdateStepRun sets the final status of a step run and derives its
// execution time from started_at.
func (s *SQLiteStore) UpdateStepRun(ctx context.Context, id string, status StepRunStatus, rows int64, errMsg string) error {
	if s.db == nil {
		return errNotOpened
	}

	var startedAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT started_at FROM step_runs WHERE id = ?`, id).Scan(&startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("step run not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get step run: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE step_runs SET status = ?, rows_affected = ?, error = ?, completed_at = ?, execution_ms = ? WHERE id = ?`,
		string(status), rows, nullString(errMsg), now, now.Sub(startedAt).Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update step run: %w", err)
	}
	return nil
}

// GetStepRunsForRun returns the step runs of a run in the order they started.
func (s *SQLiteStore) GetStepRunsForRun(ctx context.Context, runID string) ([]*StepRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, step, status, rows_affected, error, started_at, completed_at, execution_ms
		FROM step_runs WHERE run_id = ? ORDER BY started_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*StepRun
	for rows.Next() {
		sr := &StepRun{}
		var status string
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Step, &status, &sr.Rows, &errMsg,
			&sr.StartedAt, &completedAt, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan step run: %w", err)
		}
		sr.Status = StepRunStatus(status)
		sr.Error = errMsg.String
		if completedAt.Valid {
			sr.CompletedAt = &completedAt.Time
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get step runs: %w", err)
	}
	return out, nil
}
