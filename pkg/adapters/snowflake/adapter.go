// Package snowflake provides a Snowflake database adapter for sparkify.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
	sf "github.com/snowflakedb/gosnowflake"
)

// Adapter implements the adapter.Adapter interface for Snowflake.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Snowflake adapter instance.
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
	return "snowflake"
}

// Connect establishes a connection to Snowflake.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := buildSnowflakeDSN(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to snowflake",
		slog.String("account", cfg.Account),
		slog.String("database", cfg.Database),
		slog.String("warehouse", cfg.Warehouse))

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping snowflake: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildSnowflakeDSN renders the connection settings with the driver's own DSN builder.
func buildSnowflakeDSN(cfg adapter.Config) (string, error) {
	sfCfg := &sf.Config{
		Account:   cfg.Account,
		User:      cfg.Username,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	}
	dsn, err := sf.DSN(sfCfg)
	if err != nil {
		return "", fmt.Errorf("invalid snowflake config: %w", err)
	}
	return dsn, nil
}

// GetTableMetadata retrieves metadata for a specified table. Snowflake stores
// unquoted identifiers in upper case, so lookups are upper-cased.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	schema := a.Cfg.Schema
	if schema == "" {
		schema = "PUBLIC"
	}
	return a.GetTableMetadataCommon(ctx, strings.ToUpper(table), strings.ToUpper(schema), adapter.QuestionPlaceholder)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
