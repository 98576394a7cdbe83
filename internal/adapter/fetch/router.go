package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// Router picks a fetcher by URL scheme: http(s) goes to the network,
// everything else to the filesystem.
type Router struct {
	http ports.Fetcher
	file ports.Fetcher
}

// NewRouter creates a router over the two fetchers.
func NewRouter(http, file ports.Fetcher) *Router {
	return &Router{http: http, file: file}
}

// New creates the standard router.
func New(logger *slog.Logger, timeout time.Duration, maxBytes int64) *Router {
	return NewRouter(
		NewHTTPFetcher(logger.With(slog.String("fetcher", "http")), timeout, maxBytes),
		NewFileFetcher(maxBytes),
	)
}

// Fetch implements ports.Fetcher.
func (r *Router) Fetch(ctx context.Context, url string) ([]byte, error) {
	if IsRemote(url) {
		return r.http.Fetch(ctx, url)
	}
	return r.file.Fetch(ctx, url)
}

// IsRemote reports whether url is fetched over the network.
func IsRemote(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func localPath(url string) string {
	if len(url) >= 7 && strings.EqualFold(url[:7], "file://") {
		return url[7:]
	}
	return url
}

var _ ports.Fetcher = (*Router)(nil)
