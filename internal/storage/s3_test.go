package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory bucket that pages listings by pageSize.
type fakeClient struct {
	objects  map[string][]byte
	pageSize int
	putErr   error
	lists    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string][]byte{}, pageSize: 2}
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lists++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := min(start+f.pageSize, len(keys))
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func newTestArchive(t *testing.T, client Client) *Archive {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	a, err := NewArchive(client, "grids", logger)
	require.NoError(t, err)
	return a
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
}

func TestNewArchive_RequiresBucket(t *testing.T) {
	_, err := NewArchive(newFakeClient(), "", slog.Default())
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	client := newFakeClient()
	a := newTestArchive(t, client)

	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"node_input.csv": "uuid,id\n",
		"line_input.csv": "uuid,id,node_a,node_b\n",
		"load_input.csv": "uuid,id,node\n",
		"notes.txt":      "ignored",
		".hidden.csv":    "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(src, "sub"), 0o755))

	keys, err := a.Upload(context.Background(), src, "/runs/2026-10/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"runs/2026-10/line_input.csv",
		"runs/2026-10/load_input.csv",
		"runs/2026-10/node_input.csv",
	}, keys)

	// Nested objects under the prefix are not part of the grid.
	client.objects["runs/2026-10/old/node_input.csv"] = []byte("stale")

	dst := filepath.Join(t.TempDir(), "copy")
	paths, err := a.Download(context.Background(), "runs/2026-10", dst)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Greater(t, client.lists, 1, "listing should follow continuation tokens")

	got, err := os.ReadFile(filepath.Join(dst, "node_input.csv"))
	require.NoError(t, err)
	assert.Equal(t, "uuid,id\n", string(got))
}

func TestDownload_EmptyPrefix(t *testing.T) {
	a := newTestArchive(t, newFakeClient())
	_, err := a.Download(context.Background(), "missing", t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyArchive)
}

func TestUpload_PropagatesErrors(t *testing.T) {
	client := newFakeClient()
	client.putErr = errors.New("access denied")
	a := newTestArchive(t, client)

	src := t.TempDir()
	writeFiles(t, src, map[string]string{"node_input.csv": "uuid\n"})

	_, err := a.Upload(context.Background(), src, "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	_, err = a.Upload(context.Background(), filepath.Join(src, "nope"), "p")
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a/b.csv", objectKey("a", "b.csv"))
	assert.Equal(t, "a/b/c.csv", objectKey("/a/b/", "c.csv"))
	assert.Equal(t, "b.csv", objectKey("", "b.csv"))
	assert.Equal(t, "a/", objectKey("a", ""))
}
