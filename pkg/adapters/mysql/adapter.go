// Package mysql provides a MySQL database adapter for sparkify.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

const defaultPort = 3306

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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
	return "mysql"
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildMySQLDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN. Options are passed through as
// connection parameters.
func buildMySQLDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if len(cfg.Options) > 0 {
		mc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

// GetTableMetadata retrieves metadata for a specified table. Unqualified
// names resolve against the connected database.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Cfg.Database, adapter.QuestionPlaceholder)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
