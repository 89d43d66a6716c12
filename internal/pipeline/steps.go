package pipeline

import (
	"context"

	"github.com/leapstack-labs/sparkify/internal/etl"
	"github.com/leapstack-labs/sparkify/internal/quality"
)

// Step names of the sparkify pipeline.
const (
	StepProcessSongData = "process_song_data"
	StepProcessLogData  = "process_log_data"
	StepDataQuality     = "data_quality"
)

// SongDataStep builds the songs and artists tables.
func SongDataStep(job *etl.Job) Step {
	return NewStep(StepProcessSongData, func(ctx context.Context) (int64, error) {
		results, err := job.ProcessSongData(ctx)
		return etl.TotalRows(results), err
	})
}

// LogDataStep builds the users, time and songplays tables.
func LogDataStep(job *etl.Job) Step {
	return NewStep(StepProcessLogData, func(ctx context.Context) (int64, error) {
		results, err := job.ProcessLogData(ctx)
		return etl.TotalRows(results), err
	})
}

// QualityStep runs the row-count check over tables. Its row count is the sum
// of the counts of the tables that passed.
func QualityStep(checker *quality.Checker, tables []string) Step {
	return NewStep(StepDataQuality, func(ctx context.Context) (int64, error) {
		report, err := checker.Check(ctx, tables)
		var rows int64
		for _, r := range report.Results {
			if r.Passed {
				rows += r.Count
			}
		}
		return rows, err
	})
}

// Sparkify builds the standard pipeline:
// process_song_data -> process_log_data -> data_quality.
func Sparkify(job *etl.Job, checker *quality.Checker, tables []string) (*Pipeline, error) {
	p := New()
	if err := p.Add(SongDataStep(job)); err != nil {
		return nil, err
	}
	if err := p.Add(LogDataStep(job), StepProcessSongData); err != nil {
		return nil, err
	}
	if err := p.Add(QualityStep(checker, tables), StepProcessLogData); err != nil {
		return nil, err
	}
	return p, nil
}
