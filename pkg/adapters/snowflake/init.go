// Package snowflake provides a Snowflake database adapter for sparkify.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sparkify/pkg/adapters/snowflake"
package snowflake

import (
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

func init() {
	adapter.Register("snowflake", func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		adapter.Defaults{Schema: "PUBLIC"})
}
