package commands

import (
	"github.com/leapstack-labs/sparkify/internal/pipeline"
	"github.com/spf13/cobra"
)

// ETLOptions holds options for the etl command.
type ETLOptions struct {
	SongsOnly bool
	LogsOnly  bool
}

// NewETLCommand creates the etl command.
func NewETLCommand() *cobra.Command {
	opts := &ETLOptions{}

	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Build the lake tables from raw song and log data",
		Long: `Read song_data and log_data JSON under the input location, build the
songs, artists, users, time and songplays tables and write them as Parquet
under the output location. Existing output for each table is replaced.

Input and output may be local directories or s3:// prefixes.`,
		Example: `  # Build every table
  sparkify etl --input s3://udacity-dend --output s3://sparkify-lake

  # Rebuild only songs and artists
  sparkify etl --songs-only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executePipeline(cmd, etlSteps(opts), false)
		},
	}

	cmd.Flags().String("input", "", "Location of song_data and log_data")
	cmd.Flags().String("output", "", "Location the lake tables are written to")
	cmd.Flags().Int("max-parallel", 0, "Maximum concurrent table exports")
	cmd.Flags().BoolVar(&opts.SongsOnly, "songs-only", false, "Only process song data")
	cmd.Flags().BoolVar(&opts.LogsOnly, "logs-only", false, "Only process log data")
	cmd.MarkFlagsMutuallyExclusive("songs-only", "logs-only")

	return cmd
}

func etlSteps(opts *ETLOptions) []string {
	switch {
	case opts.SongsOnly:
		return []string{pipeline.StepProcessSongData}
	case opts.LogsOnly:
		return []string{pipeline.StepProcessLogData}
	default:
		return []string{pipeline.StepProcessSongData, pipeline.StepProcessLogData}
	}
}
