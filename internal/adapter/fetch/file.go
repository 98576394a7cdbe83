package fetch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// FileFetcher reads assets from the local filesystem.
type FileFetcher struct {
	maxBytes int64
}

// NewFileFetcher creates a file fetcher with a size cap.
func NewFileFetcher(maxBytes int64) *FileFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileFetcher{maxBytes: maxBytes}
}

// Fetch implements ports.Fetcher. The url may be a bare path or a file:// URL.
func (f *FileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := localPath(url)
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}
	if info.IsDir() {
		return nil, domain.NewFetchError(url, 0, fmt.Errorf("%s is a directory", path))
	}
	if info.Size() > f.maxBytes {
		return nil, domain.NewFetchError(url, 0, ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(file, f.maxBytes+1))
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

var _ ports.Fetcher = (*FileFetcher)(nil)
