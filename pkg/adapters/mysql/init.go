// Package mysql provides a MySQL database adapter for sparkify.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sparkify/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		adapter.Defaults{Port: 3306})
}
