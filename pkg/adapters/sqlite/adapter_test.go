package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sparkify/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdapter(t *testing.T, path string) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: path}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	for _, path := range []string{"", ":memory:", filepath.Join(t.TempDir(), "sparkify.db")} {
		adp := setupAdapter(t, path)
		assert.NotNil(t, adp.DB)
		assert.Equal(t, "sqlite", adp.DialectName())
	}
}

func TestAdapter_CountAndMetadata(t *testing.T) {
	ctx := context.Background()
	adp := setupAdapter(t, ":memory:")

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE time (
		start_time TIMESTAMP PRIMARY KEY,
		hour INTEGER NOT NULL,
		day INTEGER,
		weekday INTEGER
	)`))

	count, err := adp.Count(ctx, "SELECT COUNT(*) FROM time")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, adp.Exec(ctx, `INSERT INTO time VALUES ('2018-11-15 00:30:26', 0, 15, 4), ('2018-11-15 00:41:21', 0, 15, 4)`))

	meta, err := adp.GetTableMetadata(ctx, "time")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 4)

	assert.Equal(t, "start_time", meta.Columns[0].Name)
	assert.Equal(t, 1, meta.Columns[0].Position)
	assert.True(t, meta.Columns[0].PrimaryKey)
	assert.False(t, meta.Columns[1].Nullable)
	assert.True(t, meta.Columns[2].Nullable)
	assert.Equal(t, "INTEGER", meta.Columns[3].Type)

	_, err = adp.Count(ctx, "SELECT MAX(hour) FROM time WHERE hour > 23")
	assert.ErrorIs(t, err, core.ErrNoResult)
}

func TestAdapter_GetTableMetadata_Missing(t *testing.T) {
	adp := setupAdapter(t, ":memory:")
	_, err := adp.GetTableMetadata(context.Background(), "songplays")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.GetTableMetadata(context.Background(), "songs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
	assert.NoError(t, adp.Close())
}
