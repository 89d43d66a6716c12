package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sparkify/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		adp := connect(t, core.AdapterConfig{Path: ":memory:"})
		assert.NotNil(t, adp.DB)
		assert.Equal(t, "duckdb", adp.DialectName())
	})

	t.Run("file-based compute database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sparkify.duckdb")
		connect(t, core.AdapterConfig{Path: path})
		assert.FileExists(t, path)
	})
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "count",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Count(ctx, "SELECT COUNT(*) FROM songs")
				return err
			},
		},
		{
			name: "metadata",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "songs")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.EqualError(t, err, "database connection not established")
		})
	}
}

func TestAdapter_Count(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE users (user_id VARCHAR, level VARCHAR)`))

	count, err := adp.Count(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, adp.Exec(ctx, `INSERT INTO users VALUES ('10', 'free'), ('26', 'paid'), ('80', 'paid')`))

	count, err = adp.Count(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = adp.Count(ctx, "SELECT COUNT(*) FROM users WHERE 1 = 0 GROUP BY level")
	assert.ErrorIs(t, err, core.ErrNoResult)

	_, err = adp.Count(ctx, "SELECT NULL::BIGINT")
	assert.ErrorIs(t, err, core.ErrNoResult)

	_, err = adp.Count(ctx, "SELECT COUNT(*) FROM missing_table")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNoResult)
}

func TestAdapter_MaterializedTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TRAAAAW128F429D538.json"), []byte(
		`{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`,
	), 0o600))

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE song_staging AS SELECT * FROM read_json('`+filepath.Join(dir, "*.json")+`', format = 'newline_delimited')`))
	require.NoError(t, adp.Exec(ctx, `CREATE OR REPLACE TABLE songs AS SELECT DISTINCT song_id, title, artist_id, year, duration FROM song_staging`))

	meta, err := adp.GetTableMetadata(ctx, "songs")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(1), meta.RowCount)

	names := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"song_id", "title", "artist_id", "year", "duration"}, names)

	_, err = adp.GetTableMetadata(ctx, "main.artists")
	assert.EqualError(t, err, "table main.artists not found")
}

func TestConnect_WithSettings(t *testing.T) {
	adp := connect(t, core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"extensions": []any{"json"},
			"settings":   map[string]any{"threads": 2},
		},
	})

	threads, err := adp.Count(context.Background(), "SELECT current_setting('threads')::BIGINT")
	require.NoError(t, err)
	assert.Equal(t, int64(2), threads)

	loaded, err := adp.Count(context.Background(), "SELECT COUNT(*) FROM duckdb_extensions() WHERE loaded AND extension_name = 'json'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded)
}

func TestConnect_InvalidParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"extensions": map[string]any{"not": "a list"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duckdb params")
	assert.Nil(t, adp.DB)
}
