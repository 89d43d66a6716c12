// Package sqlite provides a SQLite database adapter for sparkify.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sparkify/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		adapter.Defaults{Schema: "main"})
}
