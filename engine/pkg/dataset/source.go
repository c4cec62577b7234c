package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound indicates the referenced dataset does not exist at its URL.
var ErrNotFound = errors.New("dataset not found")

// Loader fetches and decodes a dataset by handle.
type Loader interface {
	Load(ctx context.Context, handle, url string) (*Dataset, error)
}

// HTTPLoader fetches CSV datasets over HTTP, retrying transient failures
// with exponential backoff. Model calls are never retried elsewhere in the
// service; dataset fetches are safe to retry because they happen before
// any quota is consumed by downstream failures.
type HTTPLoader struct {
	client  *http.Client
	log     *slog.Logger
	maxWait time.Duration
}

// NewHTTPLoader creates a loader with a bounded per-fetch retry budget.
func NewHTTPLoader(log *slog.Logger) *HTTPLoader {
	return &HTTPLoader{
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
		maxWait: 30 * time.Second,
	}
}

// Load fetches the CSV at url and decodes it under the given handle.
func (l *HTTPLoader) Load(ctx context.Context, handle, url string) (*Dataset, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("upstream returned %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = l.maxWait
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		l.log.Error("dataset fetch failed", "handle", handle, "url", url, "error", err)
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", handle, err)
	}

	ds, err := FromCSV(handle, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	l.log.Debug("dataset loaded", "handle", handle, "rows", ds.NumRows(), "columns", len(ds.Columns))
	return ds, nil
}

// FileLoader reads datasets from the local filesystem. Used in dev mode
// and tests; the url argument is treated as a path.
type FileLoader struct{}

// Load reads and decodes the CSV at path.
func (FileLoader) Load(_ context.Context, handle, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open dataset %s: %w", handle, err)
	}
	defer f.Close()
	return FromCSV(handle, f)
}
