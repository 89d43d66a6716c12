package quality

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/sparkify/internal/testutil"
	"github.com/leapstack-labs/sparkify/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countResult is what the fake returns for a single query.
type countResult struct {
	count int64
	err   error
}

// fakeCounter answers count queries from a fixed table and records every query.
type fakeCounter struct {
	results map[string]countResult
	queries []string
}

func (f *fakeCounter) Count(_ context.Context, query string) (int64, error) {
	f.queries = append(f.queries, query)
	r, ok := f.results[query]
	if !ok {
		return 0, errors.New("unexpected query: " + query)
	}
	return r.count, r.err
}

func counts(m map[string]countResult) *fakeCounter {
	results := make(map[string]countResult, len(m))
	for table, r := range m {
		results[CountQuery(table)] = r
	}
	return &fakeCounter{results: results}
}

func TestChecker_Check(t *testing.T) {
	errConn := errors.New("relation \"missing_table\" does not exist")

	tests := []struct {
		name        string
		tables      []string
		results     map[string]countResult
		wantStatus  Status
		wantErr     error
		wantErrMsg  string
		wantQueried []string
		wantInfo    []string
		wantFailed  string
	}{
		{
			name:   "all tables have rows",
			tables: []string{"songs", "artists"},
			results: map[string]countResult{
				"songs":   {count: 5},
				"artists": {count: 5},
			},
			wantStatus:  StatusPassed,
			wantQueried: []string{"SELECT COUNT(*) FROM songs", "SELECT COUNT(*) FROM artists"},
			wantInfo: []string{
				"Data quality on table songs check passed with 5 records",
				"Data quality on table artists check passed with 5 records",
			},
		},
		{
			name:   "zero rows fails fast",
			tables: []string{"songs", "users"},
			results: map[string]countResult{
				"songs": {count: 0},
				"users": {count: 96},
			},
			wantStatus:  StatusFailed,
			wantErr:     ErrZeroRows,
			wantErrMsg:  "Data quality check failed. songs contained 0 rows",
			wantQueried: []string{"SELECT COUNT(*) FROM songs"},
			wantFailed:  "songs",
		},
		{
			name:   "no result",
			tables: []string{"time"},
			results: map[string]countResult{
				"time": {err: core.ErrNoResult},
			},
			wantStatus:  StatusFailed,
			wantErr:     ErrNoResults,
			wantErrMsg:  "Data quality check failed. time returned no results",
			wantQueried: []string{"SELECT COUNT(*) FROM time"},
			wantFailed:  "time",
		},
		{
			name:   "failure after passing tables",
			tables: []string{"songs", "artists", "songplays", "users"},
			results: map[string]countResult{
				"songs":     {count: 71},
				"artists":   {count: 69},
				"songplays": {count: 0},
			},
			wantStatus: StatusFailed,
			wantErr:    ErrZeroRows,
			wantErrMsg: "Data quality check failed. songplays contained 0 rows",
			wantQueried: []string{
				"SELECT COUNT(*) FROM songs",
				"SELECT COUNT(*) FROM artists",
				"SELECT COUNT(*) FROM songplays",
			},
			wantInfo: []string{
				"Data quality on table songs check passed with 71 records",
				"Data quality on table artists check passed with 69 records",
			},
			wantFailed: "songplays",
		},
		{
			name:   "negative count treated as empty",
			tables: []string{"users"},
			results: map[string]countResult{
				"users": {count: -1},
			},
			wantStatus:  StatusFailed,
			wantErr:     ErrZeroRows,
			wantErrMsg:  "Data quality check failed. users contained 0 rows",
			wantQueried: []string{"SELECT COUNT(*) FROM users"},
			wantFailed:  "users",
		},
		{
			name:   "store error propagates unchanged",
			tables: []string{"missing_table"},
			results: map[string]countResult{
				"missing_table": {err: errConn},
			},
			wantStatus:  StatusFailed,
			wantErr:     errConn,
			wantErrMsg:  errConn.Error(),
			wantQueried: []string{"SELECT COUNT(*) FROM missing_table"},
			wantFailed:  "missing_table",
		},
		{
			name:       "empty table list is a no-op",
			tables:     nil,
			wantStatus: StatusPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := counts(tt.results)
			logger, rec := testutil.NewRecordingLogger()

			report, err := NewChecker(counter, logger).Check(context.Background(), tt.tables)
			require.NotNil(t, report)

			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, tt.wantQueried, counter.queries)
			assert.Equal(t, tt.wantInfo, rec.Messages(slog.LevelInfo))
			assert.Equal(t, tt.wantFailed, report.FailedTable)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, report.Passed())
				return
			}

			require.Error(t, err)
			assert.False(t, report.Passed())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.EqualError(t, err, tt.wantErrMsg)
		})
	}
}

func TestChecker_StoreErrorIsNotWrapped(t *testing.T) {
	errConn := errors.New("connection refused")
	counter := counts(map[string]countResult{"songs": {err: errConn}})

	_, err := NewChecker(counter, nil).Check(context.Background(), []string{"songs"})

	assert.Same(t, errConn, err)
	var checkErr *CheckError
	assert.False(t, errors.As(err, &checkErr))
}

func TestChecker_CheckErrorCarriesTable(t *testing.T) {
	counter := counts(map[string]countResult{"artists": {count: 0}})

	_, err := NewChecker(counter, nil).Check(context.Background(), []string{"artists"})

	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, "artists", checkErr.Table)
	assert.ErrorIs(t, checkErr, ErrZeroRows)
	assert.NotErrorIs(t, checkErr, ErrNoResults)
}

func TestChecker_LogAttrs(t *testing.T) {
	counter := counts(map[string]countResult{"songplays": {count: 6820}})
	logger, rec := testutil.NewRecordingLogger()

	_, err := NewChecker(counter, logger).Check(context.Background(), []string{"songplays"})
	require.NoError(t, err)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "songplays", entries[0].Attrs["table"])
	assert.Equal(t, int64(6820), entries[0].Attrs["count"])
}

func TestChecker_Report(t *testing.T) {
	counter := counts(map[string]countResult{
		"songs": {count: 3},
		"users": {count: 0},
	})

	report, err := NewChecker(counter, testutil.NewTestLogger(t)).Check(context.Background(), []string{"songs", "users"})
	require.Error(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, TableResult{Table: "songs", Count: 3, Passed: true}, report.Results[0])
	assert.Equal(t, "users", report.Results[1].Table)
	assert.False(t, report.Results[1].Passed)
	assert.ErrorIs(t, report.Results[1].Err, ErrZeroRows)
}

func TestChecker_IsRepeatable(t *testing.T) {
	counter := counts(map[string]countResult{"songs": {count: 1}})
	checker := NewChecker(counter, nil)

	for range 2 {
		report, err := checker.Check(context.Background(), []string{"songs"})
		require.NoError(t, err)
		assert.Equal(t, StatusPassed, report.Status)
	}
	assert.Len(t, counter.queries, 2)
}

func TestChecker_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecker(ctxCounter{}, nil).Check(ctx, []string{"songs"})
	assert.ErrorIs(t, err, context.Canceled)
}

type ctxCounter struct{}

func (ctxCounter) Count(ctx context.Context, _ string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return 1, nil
}
