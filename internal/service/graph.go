package service

import (
	"sync"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Token identifies one successful bind. Ticks carry it so work for a
// replaced asset is recognised and dropped.
type Token uint64

// NoToken is never issued.
const NoToken Token = 0

// AnalysisGraph is everything allocated for one bound asset: the engine
// source, the analyzer with its smoothing state and the envelope cache.
// It is created by a successful bind and released exactly once.
type AnalysisGraph struct {
	Token  Token
	Asset  *domain.AudioAsset
	Handle domain.TrackHandle

	// mu guards the analysis state below; ticks and direct frame requests
	// may use the graph at the same time.
	mu        sync.Mutex
	analyzer  *analysis.Analyzer
	last      map[domain.AnalysisMode]domain.FeatureFrame
	pending   chan spectrumResult
	envelopes map[int][]domain.Peak
	released  bool
}

type spectrumResult struct {
	mags []float64
	err  error
}

func newAnalysisGraph(token Token, asset *domain.AudioAsset, handle domain.TrackHandle, analyzer *analysis.Analyzer) *AnalysisGraph {
	return &AnalysisGraph{
		Token:     token,
		Asset:     asset,
		Handle:    handle,
		analyzer:  analyzer,
		last:      make(map[domain.AnalysisMode]domain.FeatureFrame),
		envelopes: make(map[int][]domain.Peak),
	}
}

// URL returns the bound asset's URL.
func (g *AnalysisGraph) URL() string {
	if g.Asset == nil {
		return ""
	}
	return g.Asset.URL
}

// Envelope returns the per-column min/max of the whole buffer, cached per width.
func (g *AnalysisGraph) Envelope(columns int) []domain.Peak {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil
	}
	if peaks, ok := g.envelopes[columns]; ok {
		return peaks
	}
	peaks := analysis.Envelope(g.Asset.Buffer.Mono(), columns)
	g.envelopes[columns] = peaks
	return peaks
}

// Released reports whether the graph has been torn down.
func (g *AnalysisGraph) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// release drops the analyzer state, caches and the buffer reference.
func (g *AnalysisGraph) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return
	}
	g.released = true
	g.analyzer.Reset()
	g.last = nil
	g.pending = nil
	g.envelopes = nil
	g.Asset = &domain.AudioAsset{URL: g.Asset.URL}
}
