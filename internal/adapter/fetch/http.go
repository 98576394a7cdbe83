// Package fetch retrieves encoded audio bytes over HTTP or from disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// DefaultMaxBytes caps a single asset at 256 MiB.
const DefaultMaxBytes int64 = 256 << 20

// ErrTooLarge is wrapped in a FetchError when an asset exceeds the size cap.
var ErrTooLarge = errors.New("asset exceeds size limit")

// HTTPFetcher downloads assets with net/http.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewHTTPFetcher creates a fetcher with the given request timeout and size cap.
// A non-positive maxBytes selects DefaultMaxBytes.
func NewHTTPFetcher(logger *slog.Logger, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch implements ports.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewFetchError(url, 0, fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewFetchError(url, resp.StatusCode, nil)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, domain.NewFetchError(url, resp.StatusCode, ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > f.maxBytes {
		return nil, domain.NewFetchError(url, resp.StatusCode, ErrTooLarge)
	}

	f.logger.Debug("asset fetched",
		slog.String("url", url),
		slog.Int("bytes", len(data)),
		slog.Duration("took", time.Since(start)))

	return data, nil
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)
