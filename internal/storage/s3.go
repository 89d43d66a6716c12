package storage

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// maxDeleteKeys is the DeleteObjects per-request limit.
const maxDeleteKeys = 1000

// S3 is a Store over Amazon S3 and S3-compatible services.
type S3 struct {
	api s3iface.S3API
}

// NewS3 creates an S3 store from the SDK's default credential chain.
func NewS3(opts Options) (*S3, error) {
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3WithAPI(s3.New(sess)), nil
}

// NewS3WithAPI creates an S3 store over an existing client.
func NewS3WithAPI(api s3iface.S3API) *S3 {
	return &S3{api: api}
}

// List returns the s3:// URIs of objects whose keys match pattern. Matching
// uses path.Match, so "*" does not cross "/".
func (s *S3) List(ctx context.Context, pattern string) ([]string, error) {
	bucket, keyPattern, err := ParseS3URI(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(keyPattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var matches []string
	err = s.walk(ctx, bucket, literalPrefix(keyPattern), func(key string) {
		if ok, _ := path.Match(keyPattern, key); ok {
			matches = append(matches, s3Scheme+bucket+"/"+key)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// RemoveAll deletes every object under prefix, treating it as a directory.
func (s *S3) RemoveAll(ctx context.Context, prefix string) error {
	bucket, key, err := ParseS3URI(prefix)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("refusing to clear entire bucket %s", bucket)
	}
	key = strings.TrimSuffix(key, "/") + "/"

	var keys []string
	if err := s.walk(ctx, bucket, key, func(k string) { keys = append(keys, k) }); err != nil {
		return err
	}

	for start := 0; start < len(keys); start += maxDeleteKeys {
		end := min(start+maxDeleteKeys, len(keys))
		if err := s.deleteBatch(ctx, bucket, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3) walk(ctx context.Context, bucket, prefix string, fn func(key string)) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	err := s.api.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			fn(aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}
	return nil
}

func (s *S3) deleteBatch(ctx context.Context, bucket string, keys []string) error {
	objects := make([]*s3.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = &s3.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := s.api.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects in s3://%s: %w", bucket, err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("failed to delete %d objects in s3://%s, first %s: %s",
			len(out.Errors), bucket, aws.StringValue(first.Key), aws.StringValue(first.Message))
	}
	return nil
}

// literalPrefix returns the part of a glob before its first meta character.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

var _ Store = (*S3)(nil)
