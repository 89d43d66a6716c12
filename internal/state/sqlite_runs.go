package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CreateRun creates a new pipeline run in the running state.
func (s *SQLiteStore) CreateRun(ctx context.Context, env string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &Run{
		ID:          generateID(),
		Environment: env,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, environment, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return errNotOpened
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, environment, status, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&run.ID, &run.Environment, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}
