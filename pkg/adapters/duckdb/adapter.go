// Package duckdb provides a DuckDB database adapter for sparkify.
//
// DuckDB is the compute engine of the ETL job: it reads the raw JSON with
// read_json, materializes the normalized tables, and writes partitioned
// Parquet with COPY ... TO.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB and applies extensions,
// secrets and settings from cfg.Params.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", dsnPath(path))
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	return nil
}

// dsnPath maps ":memory:" to the empty DSN the driver uses for in-memory databases.
func dsnPath(path string) string {
	if path == ":memory:" {
		return ""
	}
	return path
}

// applyParams installs and loads extensions, creates secrets and applies settings.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for i, secret := range p.Secrets {
		a.Logger.Debug("creating duckdb secret", slog.String("type", secret.Type), slog.String("provider", secret.Provider))
		if err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create secret %d (%s): %w", i, secret.Type, err)
		}
	}

	for _, key := range sortedKeys(p.Settings) {
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", key, escapeLiteral(p.Settings[key]))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}

	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "main", adapter.QuestionPlaceholder)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
