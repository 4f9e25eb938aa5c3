package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/ignite/lead-intake/internal/pkg/httpretry"
)

// HTTPFetcher downloads spreadsheets over HTTP(S), retrying transient failures.
type HTTPFetcher struct {
	client   httpretry.HTTPDoer
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher with a retrying client. timeout bounds
// each attempt.
func NewHTTPFetcher(maxRetries int, timeout time.Duration, maxBytes int64, opts ...httpretry.Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := httpretry.NewRetryClient(&http.Client{Timeout: timeout}, maxRetries, opts...)
	return NewHTTPFetcherWithClient(client, maxBytes)
}

// NewHTTPFetcherWithClient wraps an existing client.
func NewHTTPFetcherWithClient(client httpretry.HTTPDoer, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{client: client, maxBytes: limitOrDefault(maxBytes)}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) (string, []byte, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("downloading %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, u.Redacted())
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", nil, fmt.Errorf("downloading %s: status %d", u.Redacted(), resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return "", nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", u.Redacted(), err)
	}
	return downloadName(resp, u), data, nil
}

// downloadName prefers the Content-Disposition filename over the URL path.
func downloadName(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		return base
	}
	return "download"
}
