// Package main provides the sparkify CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sparkify/internal/cli"

	// Register the warehouse adapters a target can name.
	_ "github.com/leapstack-labs/sparkify/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sparkify/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/sparkify/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sparkify/pkg/adapters/snowflake"
	_ "github.com/leapstack-labs/sparkify/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
