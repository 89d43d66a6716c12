package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/sparkify/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(context.Background(), ":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(context.Background(), ":memory:"))
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sparkify", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(context.Background(), path))
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate())

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"runs", "step_runs"} {
		rows, err := store.DB().Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s should exist", table)
		_ = rows.Close()
	}

	// migrating twice is a no-op
	assert.NoError(t, store.Migrate())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun(ctx, "dev")
	assert.ErrorIs(t, err, errNotOpened)
	_, err = store.GetRun(ctx, "x")
	assert.ErrorIs(t, err, errNotOpened)
	assert.ErrorIs(t, store.CompleteRun(ctx, "x", RunStatusCompleted, ""), errNotOpened)
	_, err = store.ListRuns(ctx, 10)
	assert.ErrorIs(t, err, errNotOpened)
	assert.ErrorIs(t, store.RecordStepRun(ctx, &StepRun{}), errNotOpened)
	assert.ErrorIs(t, store.UpdateStepRun(ctx, "x", StepRunStatusSuccess, 0, ""), errNotOpened)
	_, err = store.GetStepRunsForRun(ctx, "x")
	assert.ErrorIs(t, err, errNotOpened)
	assert.ErrorIs(t, store.Migrate(), errNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		status     RunStatus
		errMsg     string
		wantStatus RunStatus
	}{
		{name: "completed run", status: RunStatusCompleted, wantStatus: RunStatusCompleted},
		{name: "failed run", status: RunStatusFailed, errMsg: "Data quality check failed. songs contained 0 rows", wantStatus: RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupTestStore(t)

			run, err := store.CreateRun(ctx, "dev")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, RunStatusRunning, run.Status)

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, "dev", got.Environment)
			assert.Nil(t, got.CompletedAt)

			require.NoError(t, store.CompleteRun(ctx, run.ID, tt.status, tt.errMsg))

			got, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.errMsg, got.Error)
			require.NotNil(t, got.CompletedAt)
			assert.False(t, got.CompletedAt.Before(got.StartedAt))
		})
	}
}

func TestSQLiteStore_RunNotFound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.GetRun(ctx, "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	err = store.CompleteRun(ctx, "nonexistent", RunStatusCompleted, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	var ids []string
	for range 3 {
		run, err := store.CreateRun(ctx, "prod")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID, "newest run first")
	assert.Equal(t, ids[1], runs[1].ID)

	runs, err = store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSQLiteStore_StepRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	run, err := store.CreateRun(ctx, "dev")
	require.NoError(t, err)

	songs := &StepRun{RunID: run.ID, Step: "process_song_data", Status: StepRunStatusRunning}
	require.NoError(t, store.RecordStepRun(ctx, songs))
	assert.NotEmpty(t, songs.ID)
	assert.False(t, songs.StartedAt.IsZero())

	require.NoError(t, store.UpdateStepRun(ctx, songs.ID, StepRunStatusSuccess, 140, ""))

	quality := &StepRun{RunID: run.ID, Step: "data_quality", Status: StepRunStatusSkipped, StartedAt: time.Now().UTC().Add(time.Second)}
	require.NoError(t, store.RecordStepRun(ctx, quality))

	steps, err := store.GetStepRunsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "process_song_data", steps[0].Step)
	assert.Equal(t, StepRunStatusSuccess, steps[0].Status)
	assert.Equal(t, int64(140), steps[0].Rows)
	require.NotNil(t, steps[0].CompletedAt)
	assert.GreaterOrEqual(t, steps[0].ExecutionMS, int64(0))

	assert.Equal(t, "data_quality", steps[1].Step)
	assert.Equal(t, StepRunStatusSkipped, steps[1].Status)
	assert.Nil(t, steps[1].CompletedAt)
}

func TestSQLiteStore_StepRunErrors(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	err := store.UpdateStepRun(ctx, "missing", StepRunStatusFailed, 0, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step run not found")

	err = store.RecordStepRun(ctx, &StepRun{RunID: "no-such-run", Step: "data_quality", Status: StepRunStatusRunning})
	assert.Error(t, err, "foreign key should reject unknown run")

	run, err := store.CreateRun(ctx, "dev")
	require.NoError(t, err)
	failed := &StepRun{RunID: run.ID, Step: "data_quality", Status: StepRunStatusRunning}
	require.NoError(t, store.RecordStepRun(ctx, failed))
	require.NoError(t, store.UpdateStepRun(ctx, failed.ID, StepRunStatusFailed, 0, "Data quality check failed. users contained 0 rows"))

	steps, err := store.GetStepRunsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "Data quality check failed. users contained 0 rows", steps[0].Error)
}
