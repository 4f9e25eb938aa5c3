package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the slice of the S3 client the fetcher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads s3://bucket/key objects.
type S3Fetcher struct {
	client   ObjectGetter
	maxBytes int64
}

// NewS3Fetcher loads the default AWS config for region, using the shared
// config profile when one is given.
func NewS3Fetcher(ctx context.Context, region, profile string, maxBytes int64) (*S3Fetcher, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3FetcherWithClient(s3.NewFromConfig(cfg), maxBytes), nil
}

// NewS3FetcherWithClient wraps an existing client.
func NewS3FetcherWithClient(client ObjectGetter, maxBytes int64) *S3Fetcher {
	return &S3Fetcher{client: client, maxBytes: limitOrDefault(maxBytes)}
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %s needs a bucket and an object key", ErrUnsupportedSource, uri)
	}
	return bucket, key, nil
}

// Fetch implements Fetcher.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string) (string, []byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return "", nil, fmt.Errorf("getting S3 object %s: %w", uri, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > f.maxBytes {
		return "", nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)
	}
	data, err := readLimited(out.Body, f.maxBytes)
	if err != nil {
		return "", nil, fmt.Errorf("reading S3 object %s: %w", uri, err)
	}
	return path.Base(key), data, nil
}
