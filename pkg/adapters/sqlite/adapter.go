// Package sqlite provides a SQLite database adapter for sparkify, backed by
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
	"github.com/leapstack-labs/sparkify/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return "sqlite"
}

// Connect opens the database file at cfg.Path (":memory:" when empty).
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: ping: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata reads column information with pragma_table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, name := adapter.ParseQualifiedName(table, "main")

	rows, err := a.DB.QueryContext(ctx,
		`SELECT name, type, "notnull", pk, cid FROM pragma_table_info(?, ?) ORDER BY cid`, name, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var notNull, pk int
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &pk, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position++
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	rowCount, err := a.Count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"."%s"`, schema, name)) //nolint:gosec // names come from pragma lookup
	if err != nil {
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     name,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
