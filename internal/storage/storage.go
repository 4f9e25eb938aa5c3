// Package storage fetches spreadsheets from the places imports come from:
// the local filesystem, S3 and plain HTTP(S) URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignite/lead-intake/internal/pkg/logger"
)

// DefaultMaxBytes caps a fetched object when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

var (
	ErrNotFound          = errors.New("storage: object not found")
	ErrTooLarge          = errors.New("storage: object exceeds size limit")
	ErrUnsupportedSource = errors.New("storage: unsupported source")
)

// Fetcher loads a whole object into memory. name is the base file name the
// decoder uses for format detection.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (name string, data []byte, err error)
}

// Router dispatches on the URI scheme. A nil S3 or HTTP fetcher disables
// that scheme.
type Router struct {
	Local Fetcher
	S3    Fetcher
	HTTP  Fetcher
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, uri string) (string, []byte, error) {
	var f Fetcher
	switch scheme(uri) {
	case "s3":
		f = r.S3
	case "http", "https":
		f = r.HTTP
	case "", "file":
		f = r.Local
	}
	if f == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
	}

	name, data, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", nil, err
	}
	logger.Info("source fetched", "uri", uri, "name", name, "bytes", len(data))
	return name, data, nil
}

func scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

// LocalFetcher reads files from disk. When Root is set, paths resolve
// against it and may not escape it.
type LocalFetcher struct {
	Root     string
	MaxBytes int64
}

// Fetch implements Fetcher.
func (l *LocalFetcher) Fetch(ctx context.Context, uri string) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	p, err := l.resolve(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return "", nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return "", nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer f.Close()

	data, err := readLimited(f, limitOrDefault(l.MaxBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return filepath.Base(p), data, nil
}

func (l *LocalFetcher) resolve(p string) (string, error) {
	if l.Root == "" {
		return filepath.Clean(p), nil
	}
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", err
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrUnsupportedSource, p, l.Root)
	}
	return full, nil
}

func limitOrDefault(n int64) int64 {
	if n <= 0 {
		return DefaultMaxBytes
	}
	return n
}

// readLimited reads at most max bytes and fails with ErrTooLarge beyond that.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return data, nil
}
