// Package adapter provides the database adapter contract for sparkify.
//
// An adapter hides a database/sql driver behind a small interface. The ETL job
// runs its SQL through Exec and checks each materialized table's columns with
// GetTableMetadata; the data quality check and the check command use Count and
// GetTableMetadata against whichever target is configured.
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves in init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/sparkify/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., CREATE, COPY).
	Exec(ctx context.Context, sql string) error

	// Count executes a query whose first column of the first row is an integer.
	// It returns core.ErrNoResult when the query yields no row or a NULL value.
	Count(ctx context.Context, sql string) (int64, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// DialectName returns the SQL dialect name for this adapter (e.g., "duckdb", "postgres").
	DialectName() string
}
