package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://imports/2024/leads.xlsx", "imports", "2024/leads.xlsx", true},
		{"s3://imports/leads.csv", "imports", "leads.csv", true},
		{"s3://imports", "", "", false},
		{"s3://imports/dir/", "", "", false},
		{"s3:///leads.csv", "", "", false},
		{"https://imports/leads.csv", "", "", false},
	}
	for _, tt := range tests {
		b, k, err := ParseS3URI(tt.uri)
		if (err == nil) != tt.ok {
			t.Errorf("ParseS3URI(%q) err = %v, want ok=%v", tt.uri, err, tt.ok)
			continue
		}
		if b != tt.bucket || k != tt.key {
			t.Errorf("ParseS3URI(%q) = %q, %q, want %q, %q", tt.uri, b, k, tt.bucket, tt.key)
		}
	}
}

func TestS3Fetcher(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"imports/2024/leads.xlsx": []byte("PK\x03\x04data")}}
	f := NewS3FetcherWithClient(fake, 0)
	ctx := context.Background()

	name, data, err := f.Fetch(ctx, "s3://imports/2024/leads.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "leads.xlsx", name)
	assert.Equal(t, "PK\x03\x04data", string(data))
	assert.Equal(t, "imports", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "2024/leads.xlsx", aws.ToString(fake.input.Key))

	_, _, err = f.Fetch(ctx, "s3://imports/missing.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = NewS3FetcherWithClient(fake, 3).Fetch(ctx, "s3://imports/2024/leads.xlsx")
	assert.ErrorIs(t, err, ErrTooLarge)
}
