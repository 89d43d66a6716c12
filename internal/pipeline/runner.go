package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sparkify/internal/dag"
	"github.com/leapstack-labs/sparkify/internal/state"
	"github.com/leapstack-labs/sparkify/pkg/core"
)

// Runner executes a pipeline and records the outcome.
type Runner struct {
	pipeline *Pipeline
	store    state.Store
	logger   *slog.Logger
}

// NewRunner creates a runner. If logger is nil, a discard logger is used.
func NewRunner(p *Pipeline, store state.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{pipeline: p, store: store, logger: logger}
}

// Run executes every step in dependency order.
func (r *Runner) Run(ctx context.Context, env string) (*core.Run, error) {
	r.logger.Info("starting run", "environment", env)
	return r.execute(ctx, env, r.pipeline.graph)
}

// RunSelected executes only the named steps, plus their downstream
// dependents when downstream is true. Upstream steps are assumed to have
// produced their output in an earlier run.
func (r *Runner) RunSelected(ctx context.Context, env string, steps []string, downstream bool) (*core.Run, error) {
	selected, err := r.pipeline.Select(steps, downstream)
	if err != nil {
		return nil, err
	}
	r.logger.Info("starting selected run", "environment", env, "steps", selected, "include_downstream", downstream)
	return r.execute(ctx, env, r.pipeline.graph.Subgraph(selected))
}

func (r *Runner) execute(ctx context.Context, env string, graph *dag.Graph[Step]) (*core.Run, error) {
	run, err := r.store.CreateRun(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	r.logger.Debug("created run", "run_id", run.ID)

	sorted, err := graph.TopologicalSort()
	if err != nil {
		_ = r.store.CompleteRun(ctx, run.ID, core.RunStatusFailed, fmt.Sprintf("dependency sort failed: %v", err))
		return r.reload(ctx, run), err
	}

	runErr := r.executeSteps(ctx, run.ID, sorted)

	// the run outcome is recorded even when ctx was canceled mid-step
	recordCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		r.logger.Error("run failed", "run_id", run.ID, "error", runErr.Error())
		_ = r.store.CompleteRun(recordCtx, run.ID, core.RunStatusFailed, runErr.Error())
	} else {
		r.logger.Info("run completed", "run_id", run.ID)
		_ = r.store.CompleteRun(recordCtx, run.ID, core.RunStatusCompleted, "")
	}

	return r.reload(recordCtx, run), runErr
}

func (r *Runner) executeSteps(ctx context.Context, runID string, sorted []*dag.Node[Step]) error {
	recordCtx := context.WithoutCancel(ctx)

	for i, node := range sorted {
		step := node.Data

		sr := &core.StepRun{RunID: runID, Step: step.Name(), Status: core.StepRunStatusRunning}
		if err := r.store.RecordStepRun(recordCtx, sr); err != nil {
			return fmt.Errorf("failed to record step %s: %w", step.Name(), err)
		}

		r.logger.Info("running step", "step", step.Name())
		start := time.Now()
		rows, err := step.Run(ctx)
		if err == nil {
			err = ctx.Err()
		}

		if err != nil {
			r.logger.Debug("step failed", "step", step.Name(), "error", err)
			_ = r.store.UpdateStepRun(recordCtx, sr.ID, core.StepRunStatusFailed, rows, err.Error())
			r.skipRemaining(recordCtx, runID, step.Name(), sorted[i+1:])
			return fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		r.logger.Info("step succeeded", "step", step.Name(), "rows", rows, "duration", time.Since(start))
		_ = r.store.UpdateStepRun(recordCtx, sr.ID, core.StepRunStatusSuccess, rows, "")
	}
	return nil
}

func (r *Runner) skipRemaining(ctx context.Context, runID, failed string, remaining []*dag.Node[Step]) {
	for _, node := range remaining {
		now := time.Now().UTC()
		_ = r.store.RecordStepRun(ctx, &core.StepRun{
			RunID:       runID,
			Step:        node.ID,
			Status:      core.StepRunStatusSkipped,
			Error:       fmt.Sprintf("skipped: upstream step %s failed", failed),
			StartedAt:   now,
			CompletedAt: &now,
		})
		r.logger.Info("step skipped", "step", node.ID, "failed_step", failed)
	}
}

func (r *Runner) reload(ctx context.Context, run *core.Run) *core.Run {
	if fresh, err := r.store.GetRun(ctx, run.ID); err == nil {
		return fresh
	}
	return run
}
