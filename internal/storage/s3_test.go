package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves ListObjectsV2 pages from an in-memory key set and records deletes.
type fakeS3 struct {
	s3iface.S3API
	keys       []string
	pageSize   int
	listErr    error
	deleted    [][]string
	failDelete bool
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if f.listErr != nil {
		return f.listErr
	}
	var matched []*s3.Object
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			matched = append(matched, &s3.Object{Key: aws.String(k)})
		}
	}
	size := f.pageSize
	if size == 0 {
		size = 1000
	}
	for start := 0; start < len(matched) || start == 0; start += size {
		end := min(start+size, len(matched))
		last := end >= len(matched)
		if !fn(&s3.ListObjectsV2Output{Contents: matched[start:end]}, last) || last {
			break
		}
	}
	return nil
}

func (f *fakeS3) DeleteObjectsWithContext(_ aws.Context, in *s3.DeleteObjectsInput, _ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	batch := make([]string, len(in.Delete.Objects))
	for i, o := range in.Delete.Objects {
		batch[i] = aws.StringValue(o.Key)
	}
	f.deleted = append(f.deleted, batch)
	if f.failDelete {
		return &s3.DeleteObjectsOutput{Errors: []*s3.Error{{Key: in.Delete.Objects[0].Key, Message: aws.String("AccessDenied")}}}, nil
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func TestS3_List(t *testing.T) {
	api := &fakeS3{
		pageSize: 2,
		keys: []string{
			"log_data/2018/11/2018-11-01-events.json",
			"log_data/2018-11-01-events.json",
			"log_data/2018-11-02-events.json",
			"log_data/README.md",
			"song_data/A/A/A/TRAAAAW128F429D538.json",
		},
	}

	matches, err := NewS3WithAPI(api).List(context.Background(), "s3://udacity-dend/log_data/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://udacity-dend/log_data/2018-11-01-events.json",
		"s3://udacity-dend/log_data/2018-11-02-events.json",
	}, matches)

	matches, err = NewS3WithAPI(api).List(context.Background(), "s3://udacity-dend/song_data/*/*/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://udacity-dend/song_data/A/A/A/TRAAAAW128F429D538.json"}, matches)
}

func TestS3_ListErrors(t *testing.T) {
	api := &fakeS3{listErr: errors.New("NoSuchBucket")}

	_, err := NewS3WithAPI(api).List(context.Background(), "s3://missing/log_data/*.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list s3://missing/log_data/")

	_, err = NewS3WithAPI(&fakeS3{}).List(context.Background(), "/local/path")
	assert.Error(t, err)
}

func TestS3_RemoveAll(t *testing.T) {
	var keys []string
	for i := range 2500 {
		keys = append(keys, fmt.Sprintf("out/songplays/year=2018/month=11/data_%d.parquet", i))
	}
	keys = append(keys, "out/songplays_backup/keep.parquet", "out/songs/year=2018/data_0.parquet")
	api := &fakeS3{keys: keys}

	require.NoError(t, NewS3WithAPI(api).RemoveAll(context.Background(), "s3://sparkify-lake/out/songplays"))

	require.Len(t, api.deleted, 3)
	assert.Len(t, api.deleted[0], 1000)
	assert.Len(t, api.deleted[1], 1000)
	assert.Len(t, api.deleted[2], 500)
	for _, batch := range api.deleted {
		for _, k := range batch {
			assert.True(t, strings.HasPrefix(k, "out/songplays/"), k)
		}
	}
}

func TestS3_RemoveAllEmptyPrefix(t *testing.T) {
	api := &fakeS3{}
	require.NoError(t, NewS3WithAPI(api).RemoveAll(context.Background(), "s3://sparkify-lake/out/users"))
	assert.Empty(t, api.deleted)
}

func TestS3_RemoveAllRefusesBucketRoot(t *testing.T) {
	err := NewS3WithAPI(&fakeS3{}).RemoveAll(context.Background(), "s3://sparkify-lake/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to clear entire bucket")
}

func TestS3_RemoveAllReportsPartialFailure(t *testing.T) {
	api := &fakeS3{keys: []string{"out/users/data_0.parquet"}, failDelete: true}
	err := NewS3WithAPI(api).RemoveAll(context.Background(), "s3://sparkify-lake/out/users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "song_data/", literalPrefix("song_data/*/*/*/*.json"))
	assert.Equal(t, "log_data/2018-11-0", literalPrefix("log_data/2018-11-0?-events.json"))
	assert.Equal(t, "log_data/a.json", literalPrefix("log_data/a.json"))
}
