// Package state records pipeline runs and step runs in SQLite so that past
// runs can be listed and inspected.
package state

import (
	"context"

	"github.com/leapstack-labs/sparkify/pkg/core"
)

// Type aliases for the run types defined in pkg/core.
type (
	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.Run.
	Run = core.Run

	// StepRunStatus is an alias for core.StepRunStatus.
	StepRunStatus = core.StepRunStatus

	// StepRun is an alias for core.StepRun.
	StepRun = core.StepRun
)

// Re-exported status constants.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed

	StepRunStatusPending = core.StepRunStatusPending
	StepRunStatusRunning = core.StepRunStatusRunning
	StepRunStatusSuccess = core.StepRunStatusSuccess
	StepRunStatusFailed  = core.StepRunStatusFailed
	StepRunStatusSkipped = core.StepRunStatusSkipped
)

// Store persists runs and step runs.
type Store interface {
	CreateRun(ctx context.Context, env string) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	RecordStepRun(ctx context.Context, sr *StepRun) error
	UpdateStepRun(ctx context.Context, id string, status StepRunStatus, rows int64, errMsg string) error
	GetStepRunsForRun(ctx context.Context, runID string) ([]*StepRun, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
