// Package service implements the waveform engine: asset loading, the playback
// clock, analysis, resource lifecycle and the render loop.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// AssetSource loads decoded assets by URL.
type AssetSource interface {
	Load(ctx context.Context, url string) (*domain.AudioAsset, error)
}

// flight is one shared fetch. It is cancelled once every waiter has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// AssetLoader fetches and decodes assets.
// Concurrent loads of the same URL share one fetch and decode.
type AssetLoader struct {
	logger   *slog.Logger
	fetcher  ports.Fetcher
	decoders ports.DecoderRegistry

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]*flight

	// cache is nil when caching is off
	cache *lru.Cache[string, *domain.AudioAsset]
}

// NewAssetLoader creates a loader. cacheSize > 0 keeps that many decoded
// assets in memory, evicting the least recently used.
func NewAssetLoader(
	logger *slog.Logger,
	fetcher ports.Fetcher,
	decoders ports.DecoderRegistry,
	cacheSize int,
) *AssetLoader {
	l := &AssetLoader{
		logger:   logger.With(slog.String("service", "loader")),
		fetcher:  fetcher,
		decoders: decoders,
		inflight: make(map[string]*flight),
	}
	if cacheSize > 0 {
		// New only fails for a non-positive size.
		l.cache, _ = lru.New[string, *domain.AudioAsset](cacheSize)
	}
	return l
}

// Load fetches and decodes url. A cancelled ctx returns ctx.Err() and the
// caller never sees the bytes.
func (l *AssetLoader) Load(ctx context.Context, url string) (*domain.AudioAsset, error) {
	if url == "" {
		return nil, domain.NewFetchError(url, 0, errors.New("empty url"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.cache != nil {
		if asset, ok := l.cache.Get(url); ok {
			l.logger.Debug("asset cache hit", slog.String("url", url))
			return asset, nil
		}
	}

	f := l.join(url)
	ch := l.group.DoChan(url, func() (interface{}, error) {
		return l.fetchAndDecode(f.ctx, url)
	})

	select {
	case res := <-ch:
		l.leave(url, f)
		if res.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, res.Err
		}
		asset := res.Val.(*domain.AudioAsset)
		if l.cache != nil {
			l.cache.Add(url, asset)
		}
		return asset, nil

	case <-ctx.Done():
		l.leave(url, f)
		l.logger.Debug("load cancelled", slog.String("url", url))
		return nil, ctx.Err()
	}
}

func (l *AssetLoader) fetchAndDecode(ctx context.Context, url string) (*domain.AudioAsset, error) {
	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.decoders.Decode(url, data)
}

// join registers a waiter on the shared flight for url, creating it if needed.
func (l *AssetLoader) join(url string) *flight {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.inflight[url]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &flight{ctx: ctx, cancel: cancel}
		l.inflight[url] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter. The last one out cancels the fetch and forgets the
// key so a later load starts fresh.
func (l *AssetLoader) leave(url string, f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.inflight[url] == f {
		delete(l.inflight, url)
		l.group.Forget(url)
	}
}

// Inflight returns the number of URLs with an active shared fetch.
func (l *AssetLoader) Inflight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

// Cached returns the number of decoded assets held in the cache.
func (l *AssetLoader) Cached() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

var _ AssetSource = (*AssetLoader)(nil)
