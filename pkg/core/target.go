package core

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, redshift, mysql, sqlite, snowflake

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Snowflake-specific
	Account   string `koanf:"account"`
	Warehouse string `koanf:"warehouse"`
	Role      string `koanf:"role"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, secrets, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the target into the connection settings an adapter expects.
func (t *TargetConfig) AdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:      t.Type,
		Path:      t.Database,
		Host:      t.Host,
		Port:      t.Port,
		Database:  t.Database,
		Username:  t.User,
		Password:  t.Password,
		Schema:    t.Schema,
		Account:   t.Account,
		Warehouse: t.Warehouse,
		Role:      t.Role,
		Options:   t.Options,
		Params:    t.Params,
	}
}
