// Package postgres provides a PostgreSQL database adapter for sparkify.
//
// This file registers the postgres type and its redshift alias with the adapter
// registry. Import this package with a blank identifier to register them:
//
//	import _ "github.com/leapstack-labs/sparkify/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/sparkify/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		adapter.Defaults{Port: defaultPort, Schema: "public"})
	adapter.RegisterAlias("redshift", "postgres", adapter.Defaults{Port: 5439, Schema: "public"})
}
