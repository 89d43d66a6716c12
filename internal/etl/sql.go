package etl

import (
	"fmt"
	"strings"
)

// Staging tables hold the raw records read from the input location.
const (
	songStaging = "song_staging"
	logStaging  = "log_staging"
)

// songColumns is the explicit read schema for song records.
var songColumns = []column{
	{"artist_id", "VARCHAR"},
	{"artist_latitude", "DOUBLE"},
	{"artist_location", "VARCHAR"},
	{"artist_longitude", "DOUBLE"},
	{"artist_name", "VARCHAR"},
	{"duration", "DOUBLE"},
	{"num_songs", "BIGINT"},
	{"song_id", "VARCHAR"},
	{"title", "VARCHAR"},
	{"year", "INTEGER"},
}

// logColumns is the explicit read schema for event log records.
var logColumns = []column{
	{"artist", "VARCHAR"},
	{"auth", "VARCHAR"},
	{"firstName", "VARCHAR"},
	{"gender", "VARCHAR"},
	{"itemInSession", "BIGINT"},
	{"lastName", "VARCHAR"},
	{"length", "DOUBLE"},
	{"level", "VARCHAR"},
	{"location", "VARCHAR"},
	{"method", "VARCHAR"},
	{"page", "VARCHAR"},
	{"registration", "DOUBLE"},
	{"sessionId", "BIGINT"},
	{"song", "VARCHAR"},
	{"status", "BIGINT"},
	{"ts", "BIGINT"},
	{"userAgent", "VARCHAR"},
	{"userId", "VARCHAR"},
}

type column struct {
	name string
	typ  string
}

// Table describes one output table: how it is derived, the columns it must
// end up with, and how it is partitioned on export.
type Table struct {
	Name        string
	Select      string
	Columns     []string
	PartitionBy []string
}

// SongTables are derived from the song staging table.
var SongTables = []Table{
	{
		Name: "songs",
		Select: `SELECT DISTINCT song_id, title, artist_id, year, duration
FROM ` + songStaging,
		Columns:     []string{"song_id", "title", "artist_id", "year", "duration"},
		PartitionBy: []string{"year", "artist_id"},
	},
	{
		Name: "artists",
		Select: `SELECT DISTINCT
    artist_id,
    artist_name AS name,
    artist_location AS location,
    artist_latitude AS latitude,
    artist_longitude AS longitude
FROM ` + songStaging,
		Columns: []string{"artist_id", "name", "location", "latitude", "longitude"},
	},
}

// LogTables are derived from the log staging table; songplays also reads
// the song staging table.
var LogTables = []Table{
	{
		Name: "users",
		Select: `SELECT DISTINCT
    userId AS user_id,
    firstName AS first_name,
    lastName AS last_name,
    gender,
    level
FROM ` + logStaging,
		Columns: []string{"user_id", "first_name", "last_name", "gender", "level"},
	},
	{
		Name: "time",
		Select: `SELECT DISTINCT
    start_time,
    hour(start_time) AS hour,
    day(start_time) AS day,
    weekofyear(start_time) AS week,
    month(start_time) AS month,
    year(start_time) AS year,
    dayofweek(start_time) AS weekday
FROM ` + logStaging + `
WHERE start_time IS NOT NULL`,
		Columns:     []string{"start_time", "hour", "day", "week", "month", "year", "weekday"},
		PartitionBy: []string{"year", "month"},
	},
	{
		Name: "songplays",
		Select: `SELECT
    row_number() OVER (ORDER BY l.start_time, l.sessionId, l.itemInSession) - 1 AS songplay_id,
    l.start_time,
    l.userId AS user_id,
    l.level,
    s.song_id,
    s.artist_id,
    l.sessionId AS session_id,
    l.location,
    l.userAgent AS user_agent,
    year(l.start_time) AS year,
    month(l.start_time) AS month
FROM ` + logStaging + ` l
JOIN ` + songStaging + ` s ON l.artist = s.artist_name AND l.song = s.title`,
		Columns: []string{
			"songplay_id", "start_time", "user_id", "level", "song_id", "artist_id",
			"session_id", "location", "user_agent", "year", "month",
		},
		PartitionBy: []string{"year", "month"},
	},
}

// TableNames returns the names of every output table, songs first.
func TableNames() []string {
	names := make([]string, 0, len(SongTables)+len(LogTables))
	for _, t := range SongTables {
		names = append(names, t.Name)
	}
	for _, t := range LogTables {
		names = append(names, t.Name)
	}
	return names
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func columnsStruct(cols []column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s: '%s'", c.name, c.typ)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func readJSON(pattern string, cols []column) string {
	return fmt.Sprintf("read_json(%s, format = 'auto', columns = %s)", quoteLiteral(pattern), columnsStruct(cols))
}

func stageSongsSQL(pattern string) string {
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS\nSELECT * FROM %s", songStaging, readJSON(pattern, songColumns))
}

// stageLogsSQL keeps only song plays and converts the epoch-millisecond ts
// into start_time.
func stageLogsSQL(pattern string) string {
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS\nSELECT *, epoch_ms(ts) AS start_time\nFROM %s\nWHERE page = 'NextSong'",
		logStaging, readJSON(pattern, logColumns))
}

func materializeSQL(t Table) string {
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS\n%s", t.Name, t.Select)
}

func exportSQL(t Table, dest string) string {
	opts := "FORMAT PARQUET"
	if len(t.PartitionBy) > 0 {
		opts += fmt.Sprintf(", PARTITION_BY (%s)", strings.Join(t.PartitionBy, ", "))
	} else {
		opts += ", PER_THREAD_OUTPUT TRUE"
	}
	return fmt.Sprintf("COPY (SELECT * FROM %s) TO %s (%s)", t.Name, quoteLiteral(dest), opts)
}
