package commands

import (
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Select     string
	Downstream bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline or selected steps",
		Long: `Execute the pipeline steps in dependency order:

  process_song_data -> process_log_data -> data_quality

By default every step runs. Use --select to run specific steps and
--downstream to also run the steps that depend on them. When a step fails
the remaining steps are recorded as skipped.`,
		Example: `  # Run the whole pipeline
  sparkify run

  # Re-run the log transform and everything after it
  sparkify run --select process_log_data --downstream`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executePipeline(cmd, splitList(opts.Select), opts.Downstream)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Comma-separated list of steps to run")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", false, "Include downstream steps when using --select")
	cmd.Flags().String("input", "", "Location of song_data and log_data")
	cmd.Flags().String("output", "", "Location the lake tables are written to")
	cmd.Flags().StringSlice("tables", nil, "Tables the data quality step validates")

	return cmd
}
