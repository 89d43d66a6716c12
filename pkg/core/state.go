package core

import "time"

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a pipeline execution session.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StepRunStatus represents the status of an individual step execution.
type StepRunStatus string

// Step run status constants.
const (
	StepRunStatusPending StepRunStatus = "pending"
	StepRunStatusRunning StepRunStatus = "running"
	StepRunStatusSuccess StepRunStatus = "success"
	StepRunStatusFailed  StepRunStatus = "failed"
	StepRunStatusSkipped StepRunStatus = "skipped"
)

// StepRun represents one step's execution within a run.
type StepRun struct {
	ID          string
	RunID       string
	Step        string
	Status      StepRunStatus
	Rows        int64
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	ExecutionMS int64
}
