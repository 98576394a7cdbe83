package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// LifecycleManager owns the AnalysisGraph for the bound asset.
//
// At most one graph exists at a time. Each Bind supersedes the previous one:
// its load is cancelled and, if it completes anyway, its result is
// discarded. Ticks borrow the graph through WithGraph under a read lock;
// release takes the write lock, so no tick ever sees a released graph.
type LifecycleManager struct {
	// Dependencies (injected)
	logger   *slog.Logger
	loader   AssetSource
	engine   ports.AudioEngine
	clock    *PlaybackClock
	bus      ports.EventBus
	analysis analysis.Config

	// graphMu guards graph
	graphMu sync.RWMutex
	graph   *AnalysisGraph

	// bindMu guards generation and cancel
	bindMu     sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	// stageMu serializes releasing the old graph with arming the clock, so a
	// newer Bind or Unbind always runs its release after an older stage.
	// Event handlers published from release must not Bind or Unbind.
	stageMu sync.Mutex

	live atomic.Int64
}

// NewLifecycleManager creates a manager with nothing bound.
func NewLifecycleManager(
	logger *slog.Logger,
	loader AssetSource,
	engine ports.AudioEngine,
	clock *PlaybackClock,
	bus ports.EventBus,
	cfg analysis.Config,
) *LifecycleManager {
	return &LifecycleManager{
		logger:   logger.With(slog.String("service", "lifecycle")),
		loader:   loader,
		engine:   engine,
		clock:    clock,
		bus:      bus,
		analysis: cfg,
	}
}

// Bind replaces the bound asset with url. It returns domain.ErrStaleAsset
// if another Bind or Unbind superseded it before it completed, and the
// context error if ctx was cancelled.
func (m *LifecycleManager) Bind(ctx context.Context, url string) (Token, error) {
	m.bindMu.Lock()
	m.generation++
	gen := m.generation
	if m.cancel != nil {
		m.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.bindMu.Unlock()
	defer m.finishBind(gen, cancel)

	if !m.stage(gen, url) {
		return NoToken, domain.ErrStaleAsset
	}

	m.logger.Debug("binding asset", slog.String("url", url), slog.Uint64("generation", gen))
	m.bus.Publish(domain.NewAssetLoadingEvent(url))

	asset, err := m.loader.Load(loadCtx, url)
	if err != nil {
		m.clock.CancelLoad(gen)
		if !m.isCurrent(gen) {
			return NoToken, domain.ErrStaleAsset
		}
		return NoToken, err
	}
	if !m.isCurrent(gen) {
		m.logger.Debug("discarding superseded asset", slog.String("url", url))
		m.clock.CancelLoad(gen)
		return NoToken, domain.ErrStaleAsset
	}

	analyzer, err := analysis.NewAnalyzer(m.analysis)
	if err != nil {
		m.clock.CancelLoad(gen)
		return NoToken, err
	}

	handle, err := m.engine.Load(asset.Buffer)
	if err != nil {
		m.clock.CancelLoad(gen)
		return NoToken, domain.NewPlaybackAbortedError(err)
	}

	token := Token(gen)
	if !m.install(gen, newAnalysisGraph(token, asset, handle, analyzer)) {
		if err := m.engine.Unload(handle); err != nil {
			m.logger.Warn("failed to unload superseded source", slog.Any("error", err))
		}
		m.clock.CancelLoad(gen)
		return NoToken, domain.ErrStaleAsset
	}

	m.bus.Publish(domain.NewAssetLoadedEvent(asset))
	m.clock.Attach(gen, handle, url, asset.Duration())

	m.logger.Info("asset bound",
		slog.String("url", url),
		slog.Duration("duration", asset.Duration()),
		slog.Int("sample_rate", asset.Buffer.SampleRate),
		slog.Int("channels", asset.Buffer.NumChannels()))
	return token, nil
}

// stage releases the bound graph and arms the clock for gen. It reports
// false, touching nothing, when gen was superseded before it got its turn.
func (m *LifecycleManager) stage(gen uint64, url string) bool {
	m.stageMu.Lock()
	defer m.stageMu.Unlock()

	if !m.isCurrent(gen) {
		return false
	}
	keepIntent := m.clock.PlayQueued()
	m.release()
	m.clock.BeginLoad(gen, url, keepIntent)
	return true
}

// finishBind drops the load context once the bind is over.
func (m *LifecycleManager) finishBind(gen uint64, cancel context.CancelFunc) {
	cancel()
	m.bindMu.Lock()
	defer m.bindMu.Unlock()
	if m.generation == gen {
		m.cancel = nil
	}
}

func (m *LifecycleManager) isCurrent(gen uint64) bool {
	m.bindMu.Lock()
	defer m.bindMu.Unlock()
	return m.generation == gen
}

// install publishes g as the bound graph if gen is still current.
func (m *LifecycleManager) install(gen uint64, g *AnalysisGraph) bool {
	m.bindMu.Lock()
	defer m.bindMu.Unlock()
	if m.generation != gen {
		return false
	}

	m.graphMu.Lock()
	m.graph = g
	m.graphMu.Unlock()
	m.live.Add(1)
	return true
}

// Unbind cancels any load in flight and releases the bound graph.
// Calling it with nothing bound is a no-op.
func (m *LifecycleManager) Unbind() error {
	m.bindMu.Lock()
	m.generation++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.bindMu.Unlock()

	m.stageMu.Lock()
	defer m.stageMu.Unlock()
	m.release()
	return nil
}

// release tears down the current graph, if any.
func (m *LifecycleManager) release() {
	m.graphMu.Lock()
	g := m.graph
	m.graph = nil
	m.graphMu.Unlock()

	m.clock.Detach()
	if g == nil {
		return
	}

	url := g.URL()
	if err := m.engine.Unload(g.Handle); err != nil && !errors.Is(err, domain.ErrNotInitialized) {
		m.logger.Warn("failed to unload source", slog.Int64("handle", int64(g.Handle)), slog.Any("error", err))
	}
	g.release()
	m.live.Add(-1)

	m.logger.Debug("asset released", slog.String("url", url))
	m.bus.Publish(domain.NewAssetReleasedEvent(url))
}

// WithGraph runs fn with the bound graph if token still identifies it.
// Otherwise it returns domain.ErrStaleAsset without calling fn. The graph
// must not be retained after fn returns.
func (m *LifecycleManager) WithGraph(token Token, fn func(g *AnalysisGraph) error) error {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	if m.graph == nil || m.graph.Token != token {
		return domain.ErrStaleAsset
	}
	return fn(m.graph)
}

// Current returns the bound token.
func (m *LifecycleManager) Current() (Token, bool) {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	if m.graph == nil {
		return NoToken, false
	}
	return m.graph.Token, true
}

// CurrentURL returns the URL of the bound asset, or "".
func (m *LifecycleManager) CurrentURL() string {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	if m.graph == nil {
		return ""
	}
	return m.graph.URL()
}

// LiveGraphs returns the number of graphs not yet released.
func (m *LifecycleManager) LiveGraphs() int {
	return int(m.live.Load())
}
