// Package commands implements the sparkify subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sparkify/internal/cli/config"
	"github.com/leapstack-labs/sparkify/internal/etl"
	"github.com/leapstack-labs/sparkify/internal/pipeline"
	"github.com/leapstack-labs/sparkify/internal/quality"
	"github.com/leapstack-labs/sparkify/internal/state"
	"github.com/leapstack-labs/sparkify/internal/storage"
	"github.com/leapstack-labs/sparkify/pkg/adapter"
	"github.com/leapstack-labs/sparkify/pkg/core"
	"github.com/spf13/cobra"
)

// loadContext returns the config and logger the root command stored in the
// command context.
func loadContext(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, nil, errors.New("configuration not loaded")
	}
	return cfg, config.GetLogger(cmd.Context()), nil
}

// openTarget connects to the configured target. File databases get their
// parent directory created first.
func openTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	t := cfg.Target
	if (t.Type == "duckdb" || t.Type == "sqlite") && t.Database != "" && t.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(t.Database), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return adapter.Open(ctx, t.AdapterConfig(), logger)
}

// openState opens and migrates the run-state database.
func openState(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(ctx, cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return store, nil
}

// newJob creates the transform job. The job's SQL is written for DuckDB.
func newJob(engine adapter.Adapter, cfg *config.Config, logger *slog.Logger) (*etl.Job, error) {
	if engine.DialectName() != "duckdb" {
		return nil, fmt.Errorf("etl requires a duckdb target, got %s", engine.DialectName())
	}
	if err := cfg.ValidateETL(); err != nil {
		return nil, err
	}
	return etl.NewJob(engine, etl.Config{
		Input:       cfg.ETL.Input,
		Output:      cfg.ETL.Output,
		MaxParallel: cfg.ETL.MaxParallel,
		Storage: storage.Options{
			Region:   cfg.ETL.S3Region,
			Endpoint: cfg.ETL.S3Endpoint,
		},
	}, logger)
}

// newPipeline wires the job and the quality check over one adapter.
func newPipeline(engine adapter.Adapter, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	job, err := newJob(engine, cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.Sparkify(job, quality.NewChecker(engine, logger), cfg.Quality.Tables)
}

// executePipeline runs the selected steps (all of them when selected is
// empty) and prints the step table.
func executePipeline(cmd *cobra.Command, selected []string, downstream bool) error {
	cfg, logger, err := loadContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	engine, err := openTarget(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	store, err := openState(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := newPipeline(engine, cfg, logger)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(p, store, logger)
	var (
		run    *core.Run
		runErr error
	)
	if len(selected) == 0 {
		run, runErr = runner.Run(ctx, cfg.Environment)
	} else {
		run, runErr = runner.RunSelected(ctx, cfg.Environment, selected, downstream)
	}
	if run == nil {
		return runErr
	}

	steps, err := store.GetStepRunsForRun(context.WithoutCancel(ctx), run.ID)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Run %s: %s\n", run.ID, run.Status)
	renderStepRuns(w, steps)
	return runErr
}

func renderStepRuns(w io.Writer, steps []*core.StepRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Status", "Rows", "Duration", "Error"})
	for _, s := range steps {
		t.AppendRow(table.Row{
			s.Step,
			s.Status,
			s.Rows,
			(time.Duration(s.ExecutionMS) * time.Millisecond).String(),
			s.Error,
		})
	}
	t.Render()
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
