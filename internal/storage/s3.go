// Package storage archives grid directories in S3-compatible object stores.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/gridkit/internal/config"
)

// ErrNoBucket is returned when no bucket is configured.
var ErrNoBucket = errors.New("storage: no bucket configured")

// ErrEmptyArchive is returned by Download when the prefix holds no grid files.
var ErrEmptyArchive = errors.New("storage: no grid files under prefix")

const csvContentType = "text/csv"

// Client is the subset of the S3 API used by Archive. *s3.Client satisfies it.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Archive stores the CSV files of grid directories under key prefixes.
type Archive struct {
	client Client
	bucket string
	logger *slog.Logger
}

// NewArchive creates an Archive for bucket.
func NewArchive(client Client, bucket string, logger *slog.Logger) (*Archive, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	return &Archive{client: client, bucket: bucket, logger: logger}, nil
}

// Upload puts every CSV file directly inside dir under prefix/<name> and
// returns the keys written, sorted.
func (a *Archive) Upload(ctx context.Context, dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !isGridFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return keys, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		key := objectKey(prefix, e.Name())
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(csvContentType),
		})
		if err != nil {
			return keys, fmt.Errorf("uploading %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	a.logger.Info("grid uploaded", "bucket", a.bucket, "prefix", prefix, "files", len(keys))
	return keys, nil
}

// Download fetches every CSV object directly under prefix into dir, creating
// dir if needed, and returns the local paths written. Nested keys are
// ignored.
func (a *Archive) Download(ctx context.Context, prefix, dir string) ([]string, error) {
	keys, err := a.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrEmptyArchive, a.bucket, prefix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var paths []string
	for _, key := range keys {
		dst := filepath.Join(dir, path.Base(key))
		if err := a.fetch(ctx, key, dst); err != nil {
			return paths, err
		}
		paths = append(paths, dst)
	}
	a.logger.Info("grid downloaded", "bucket", a.bucket, "prefix", prefix, "files", len(paths))
	return paths, nil
}

func (a *Archive) fetch(ctx context.Context, key, dst string) error {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

// list returns the sorted grid file keys directly under prefix.
func (a *Archive) list(ctx context.Context, prefix string) ([]string, error) {
	base := objectKey(prefix, "")
	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(base),
	}
	var keys []string
	for {
		out, err := a.client.ListObjectsV2(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", a.bucket, base, err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			rest := strings.TrimPrefix(*obj.Key, base)
			if strings.Contains(rest, "/") || !isGridFile(rest) {
				continue
			}
			keys = append(keys, *obj.Key)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		in.ContinuationToken = out.NextContinuationToken
	}
	sort.Strings(keys)
	return keys, nil
}

// objectKey joins prefix and name with exactly one slash. An empty prefix
// addresses the bucket root.
func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func isGridFile(name string) bool {
	return strings.HasSuffix(name, ".csv") && !strings.HasPrefix(name, ".")
}
