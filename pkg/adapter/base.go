package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sparkify/pkg/core"
)

// errNotConnected is returned by every operation attempted before Connect.
var errNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec and Count implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return errNotConnected
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Count runs sqlStr and reads the first column of the first row as an integer.
// A missing row, a result without columns, or a NULL value yields core.ErrNoResult.
func (b *BaseSQLAdapter) Count(ctx context.Context, sqlStr string) (int64, error) {
	if b.DB == nil {
		return 0, errNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to read query result: %w", err)
		}
		return 0, core.ErrNoResult
	}

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read result columns: %w", err)
	}
	if len(cols) == 0 {
		return 0, core.ErrNoResult
	}

	dest := make([]any, len(cols))
	var count sql.NullInt64
	dest[0] = &count
	for i := 1; i < len(dest); i++ {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}
	if !count.Valid {
		return 0, core.ErrNoResult
	}

	return count.Int64, nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if the reference is unqualified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// QuestionPlaceholder formats bind parameters as "?" (DuckDB, MySQL, SQLite, Snowflake).
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder formats bind parameters as "$N" (PostgreSQL, Redshift).
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata
// over information_schema.columns.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table, defaultSchema string, placeholder func(int) string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	//nolint:gosec // Placeholders are produced by QuestionPlaceholder/DollarPlaceholder
	query := fmt.Sprintf(`
		SELECT 
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns 
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", schema, tableName) //nolint:gosec // Table names are from metadata
	rowCount, err := b.Count(ctx, countQuery)
	if err != nil {
		// Non-fatal, metadata is still useful without a row count
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}
