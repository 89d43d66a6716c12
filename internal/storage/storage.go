// Package storage lists and clears the object locations the ETL job reads
// from and writes to. A location is either a local path or an s3:// URI.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const s3Scheme = "s3://"

// Store lists objects matching a glob pattern and removes everything under a
// prefix.
type Store interface {
	// List returns the locations matching pattern, in lexical order.
	List(ctx context.Context, pattern string) ([]string, error)

	// RemoveAll deletes every object under prefix so it can be rewritten.
	// A missing prefix is not an error.
	RemoveAll(ctx context.Context, prefix string) error
}

// Options configure the stores returned by ForLocation.
type Options struct {
	// Region is the AWS region used for s3:// locations. Empty falls back to
	// the SDK's shared config and environment.
	Region string
	// Endpoint overrides the S3 endpoint (MinIO and other compatible services).
	Endpoint string
}

// IsS3 reports whether location is an s3:// URI.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ForLocation returns the store that serves location.
func ForLocation(location string, opts Options) (Store, error) {
	if IsS3(location) {
		return NewS3(opts)
	}
	if strings.Contains(location, "://") {
		return nil, fmt.Errorf("unsupported storage location %q: expected a local path or s3:// URI", location)
	}
	return NewLocal(), nil
}

// Join appends path elements to a location, using forward slashes for s3://
// URIs and the OS separator for local paths.
func Join(location string, elem ...string) string {
	if IsS3(location) {
		bucket, key, _ := ParseS3URI(location)
		return s3Scheme + bucket + "/" + strings.TrimPrefix(path.Join(append([]string{key}, elem...)...), "/")
	}
	return filepath.Join(append([]string{location}, elem...)...)
}

// ParseS3URI splits s3://bucket/key into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri %q has no bucket", uri)
	}
	return bucket, key, nil
}
