// Package etl builds the sparkify lake tables.
//
// Raw song and event-log JSON is staged into DuckDB, the dimension and fact
// tables are materialized with CREATE OR REPLACE TABLE, and every table is
// exported as Parquet under the output location. Exports overwrite whatever
// was there before.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/leapstack-labs/sparkify/internal/storage"
	"github.com/leapstack-labs/sparkify/pkg/core"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxParallel bounds concurrent table exports when Config leaves it unset.
const DefaultMaxParallel = 4

// Engine executes SQL against the compute database.
type Engine interface {
	Exec(ctx context.Context, sql string) error
	Count(ctx context.Context, sql string) (int64, error)
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)
}

// SchemaError reports a materialized table whose columns differ from the
// table's declared columns.
type SchemaError struct {
	Table string
	Got   []string
	Want  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s has columns %v, want %v", e.Table, e.Got, e.Want)
}

// Config locates the job's input and output.
type Config struct {
	Input       string
	Output      string
	MaxParallel int
	Storage     storage.Options
}

// Job runs the song and log transforms.
type Job struct {
	engine Engine
	cfg    Config
	input  storage.Store
	output storage.Store
	logger *slog.Logger

	songsStaged bool
}

// TableResult reports one materialized table.
type TableResult struct {
	Table       string
	Rows        int64
	Destination string
}

// NewJob creates a job. Stores for the input and output locations are chosen
// from their schemes.
func NewJob(engine Engine, cfg Config, logger *slog.Logger) (*Job, error) {
	if cfg.Input == "" {
		return nil, errors.New("etl input location is required")
	}
	if cfg.Output == "" {
		return nil, errors.New("etl output location is required")
	}

	in, err := storage.ForLocation(cfg.Input, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	out, err := storage.ForLocation(cfg.Output, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	return NewJobWithStores(engine, cfg, in, out, logger), nil
}

// NewJobWithStores creates a job over explicit stores.
func NewJobWithStores(engine Engine, cfg Config, in, out storage.Store, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	return &Job{
		engine: engine,
		cfg:    cfg,
		input:  in,
		output: out,
		logger: logger,
	}
}

// SongDataPattern is the glob matching song records under the input location.
func (j *Job) SongDataPattern() string {
	return storage.Join(j.cfg.Input, "song_data", "*", "*", "*", "*.json")
}

// LogDataPattern is the glob matching event log records under the input location.
func (j *Job) LogDataPattern() string {
	return storage.Join(j.cfg.Input, "log_data", "*.json")
}

// Run processes song data, then log data.
func (j *Job) Run(ctx context.Context) ([]TableResult, error) {
	songs, err := j.ProcessSongData(ctx)
	if err != nil {
		return songs, err
	}
	logs, err := j.ProcessLogData(ctx)
	return append(songs, logs...), err
}

// ProcessSongData stages song records and writes the songs and artists tables.
func (j *Job) ProcessSongData(ctx context.Context) ([]TableResult, error) {
	if err := j.stageSongs(ctx); err != nil {
		return nil, err
	}
	return j.build(ctx, SongTables)
}

// ProcessLogData stages event logs and writes the users, time and songplays
// tables. Song records are staged first if this job has not done so already.
func (j *Job) ProcessLogData(ctx context.Context) ([]TableResult, error) {
	if !j.songsStaged {
		if err := j.stageSongs(ctx); err != nil {
			return nil, err
		}
	}

	pattern := j.LogDataPattern()
	if err := j.requireInput(ctx, "log data", pattern); err != nil {
		return nil, err
	}

	j.logger.Info("staging log data", slog.String("pattern", pattern))
	if err := j.engine.Exec(ctx, stageLogsSQL(pattern)); err != nil {
		return nil, fmt.Errorf("failed to stage log data: %w", err)
	}
	return j.build(ctx, LogTables)
}

func (j *Job) stageSongs(ctx context.Context) error {
	pattern := j.SongDataPattern()
	if err := j.requireInput(ctx, "song data", pattern); err != nil {
		return err
	}

	j.logger.Info("staging song data", slog.String("pattern", pattern))
	if err := j.engine.Exec(ctx, stageSongsSQL(pattern)); err != nil {
		return fmt.Errorf("failed to stage song data: %w", err)
	}
	j.songsStaged = true
	return nil
}

func (j *Job) requireInput(ctx context.Context, what, pattern string) error {
	files, err := j.input.List(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", what, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s found matching %s", what, pattern)
	}
	j.logger.Debug("found input files", slog.String("input", what), slog.Int("files", len(files)))
	return nil
}

// build materializes tables in order, then exports them concurrently.
// Nothing is exported unless every table has its declared columns.
func (j *Job) build(ctx context.Context, tables []Table) ([]TableResult, error) {
	results := make([]TableResult, len(tables))
	for i, t := range tables {
		if err := j.engine.Exec(ctx, materializeSQL(t)); err != nil {
			return nil, fmt.Errorf("failed to build table %s: %w", t.Name, err)
		}
		if err := j.verifyColumns(ctx, t); err != nil {
			return nil, err
		}
		rows, err := j.engine.Count(ctx, "SELECT COUNT(*) FROM "+t.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to count table %s: %w", t.Name, err)
		}
		results[i] = TableResult{Table: t.Name, Rows: rows, Destination: storage.Join(j.cfg.Output, t.Name)}
		j.logger.Info("built table", slog.String("table", t.Name), slog.Int64("rows", rows))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.MaxParallel)
	for i, t := range tables {
		dest := results[i].Destination
		g.Go(func() error {
			return j.export(gctx, t, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (j *Job) verifyColumns(ctx context.Context, t Table) error {
	meta, err := j.engine.GetTableMetadata(ctx, t.Name)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", t.Name, err)
	}
	got := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		got[i] = c.Name
	}
	if !slices.Equal(got, t.Columns) {
		return &SchemaError{Table: t.Name, Got: got, Want: t.Columns}
	}
	return nil
}

func (j *Job) export(ctx context.Context, t Table, dest string) error {
	start := time.Now()
	if err := j.output.RemoveAll(ctx, dest); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dest, err)
	}
	if err := j.engine.Exec(ctx, exportSQL(t, dest)); err != nil {
		return fmt.Errorf("failed to export table %s: %w", t.Name, err)
	}
	j.logger.Info("exported table",
		slog.String("table", t.Name),
		slog.String("destination", dest),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// TotalRows sums the row counts of results.
func TotalRows(results []TableResult) int64 {
	var total int64
	for _, r := range results {
		total += r.Rows
	}
	return total
}
