package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/decode"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/raster"
	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/logger"
	"github.com/tejashwikalptaru/wavesync/internal/testutil"
)

const testSampleRate = 44100

// fakeFetcher serves fixture bytes by URL. A gated URL blocks until its gate
// is closed or the context is cancelled.
type fakeFetcher struct {
	mu     sync.Mutex
	assets map[string][]byte
	gates  map[string]chan struct{}
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		assets: make(map[string][]byte),
		gates:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) add(url string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[url] = data
}

// gate makes url block and returns the function that releases it.
func (f *fakeFetcher) gate(url string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[url] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	data, ok := f.assets[url]
	gate := f.gates[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, domain.NewFetchError(url, 404, nil)
	}
	return data, nil
}

// harness wires the real services over a fake fetcher, the mock engine on a
// fake clock and an in-memory raster surface.
type harness struct {
	fetcher *fakeFetcher
	engine  *mock.Engine
	now     *testutil.FakeClock
	bus     *eventbus.SyncEventBus
	surface *raster.Surface

	svc       *WaveformService
	loader    *AssetLoader
	clock     *PlaybackClock
	lifecycle *LifecycleManager
	pipeline  *AnalysisPipeline
	scheduler *Scheduler
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	log := logger.NewTestLogger()
	now := testutil.NewFakeClock()

	engine := mock.NewEngine()
	engine.SetLogger(log)
	engine.SetClock(now.Now)
	require.NoError(t, engine.Initialize(testSampleRate))

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log)

	if cfg.Analysis.FFTSize == 0 {
		cfg.Analysis = analysis.DefaultConfig()
	}

	h := &harness{
		fetcher: newFakeFetcher(),
		engine:  engine,
		now:     now,
		bus:     bus,
		surface: raster.NewSurface(200, 80),
	}
	h.svc = NewWaveformService(log, h.fetcher, decode.Default(log), engine, bus, h.surface, cfg)
	h.loader = h.svc.loader
	h.clock = h.svc.clock
	h.lifecycle = h.svc.lifecycle
	h.pipeline = h.svc.pipeline
	h.scheduler = h.svc.scheduler

	t.Cleanup(func() {
		_ = h.svc.Shutdown()
		_ = bus.Close()
	})
	return h
}

// addSine registers a mono 440 Hz sine of the given length under url.
func (h *harness) addSine(t *testing.T, url string, seconds float64) {
	t.Helper()
	h.fetcher.add(url, testutil.SineWAV(t, testSampleRate, seconds, 440))
}

// recorder collects published events by type.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func record(bus *eventbus.SyncEventBus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}
