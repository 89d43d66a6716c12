package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Local is a Store over the local filesystem.
type Local struct{}

// NewLocal creates a local filesystem store.
func NewLocal() *Local {
	return &Local{}
}

// List expands pattern with filepath.Glob semantics.
func (l *Local) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// RemoveAll deletes prefix and everything below it, leaving its parent
// directory in place so prefix can be written again.
func (l *Local) RemoveAll(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(prefix); err != nil {
		return fmt.Errorf("failed to remove %s: %w", prefix, err)
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(prefix), err)
	}
	return nil
}

var _ Store = (*Local)(nil)
