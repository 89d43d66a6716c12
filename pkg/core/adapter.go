package core

import "errors"

// ErrNoResult is returned by a count query that produced no rows, or a row
// whose first column is NULL.
var ErrNoResult = errors.New("no result returned")

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type      string
	Path      string
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	Schema    string
	Account   string
	Warehouse string
	Role      string
	Options   map[string]string
	Params    map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema    string
	Name      string
	Columns   []Column
	RowCount  int64
	SizeBytes int64
}
