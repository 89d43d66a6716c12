package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is a captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record it handles.
type LogRecorder struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewRecordingLogger returns a logger whose records can be inspected.
func NewRecordingLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
	return slog.New(rec), rec
}

// Enabled accepts every level.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+rec.NumAttrs())
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, LogEntry{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	return nil
}

// WithAttrs returns a handler sharing the same record buffer.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &LogRecorder{mu: r.mu, entries: r.entries, attrs: merged}
}

// WithGroup is a no-op; groups are flattened.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of the captured records.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), *r.entries...)
}

// Messages returns the messages of records at the given level.
func (r *LogRecorder) Messages(level slog.Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
