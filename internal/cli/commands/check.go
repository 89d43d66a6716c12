package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sparkify/internal/quality"
	"github.com/leapstack-labs/sparkify/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the row-count data quality check",
		Long: `Run SELECT COUNT(*) against each table on the configured target, in order.
The check stops at the first table that is empty or returns no result and
exits non-zero. Each checked table's column count is read from the target's
information schema.`,
		Example: `  # Check the tables listed under quality.tables
  sparkify check

  # Check specific tables on the prod target
  sparkify check --tables songs,users --env prod`,
		RunE: runCheck,
	}

	cmd.Flags().StringSlice("tables", nil, "Tables to check (default: quality.tables)")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadContext(cmd)
	if err != nil {
		return err
	}

	a, err := openTarget(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, checkErr := quality.NewChecker(a, logger).Check(cmd.Context(), cfg.Quality.Tables)

	w := cmd.OutOrStdout()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows", "Columns", "Result"})
	for _, r := range report.Results {
		result := "ok"
		if !r.Passed {
			result = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Table, r.Count, columnCount(cmd.Context(), a, r.Table, logger), result})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "Data quality: %s\n", report.Status)

	return checkErr
}

// columnCount reads a checked table's column count from the target, or "-"
// when the target cannot describe it.
func columnCount(ctx context.Context, a adapter.Adapter, tableName string, logger *slog.Logger) string {
	meta, err := a.GetTableMetadata(ctx, tableName)
	if err != nil {
		logger.Debug("no column metadata", slog.String("table", tableName), slog.String("error", err.Error()))
		return "-"
	}
	return strconv.Itoa(len(meta.Columns))
}
