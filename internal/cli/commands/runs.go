package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show pipeline run history",
		Long: `List recent pipeline runs, newest first. With a run ID, show the steps
of that run instead.`,
		Example: `  # Show the last 20 runs
  sparkify runs --limit 20

  # Show the steps of one run
  sparkify runs 3f2c9a4e-0b7d-4c61-9f1e-5d2a8c7b6e10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadContext(cmd)
			if err != nil {
				return err
			}
			store, err := openState(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				steps, err := store.GetStepRunsForRun(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "Run %s (%s): %s\n", run.ID, run.Environment, run.Status)
				renderStepRuns(w, steps)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(w, "No runs recorded")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Environment", "Status", "Started", "Duration", "Error"})
			for _, r := range runs {
				duration := "-"
				if r.CompletedAt != nil {
					duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
				}
				t.AppendRow(table.Row{r.ID, r.Environment, r.Status, r.StartedAt.Local().Format(time.DateTime), duration, r.Error})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")

	return cmd
}
