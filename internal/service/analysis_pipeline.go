package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// AnalysisPipeline turns the samples around the playback position into
// feature frames.
//
// With a zero budget every transform runs inline. With a positive budget
// the spectral transform runs on a worker goroutine over a private copy of
// the samples; when a result misses the budget the previous frame is
// returned instead, so a tick never waits longer than the budget. The late
// result becomes the previous frame on the next tick.
type AnalysisPipeline struct {
	logger    *slog.Logger
	lifecycle *LifecycleManager
	clock     *PlaybackClock
	budget    time.Duration

	workers sync.WaitGroup

	mu      sync.Mutex
	late    uint64
	skipped uint64
}

// NewAnalysisPipeline creates a pipeline reading from the lifecycle's bound graph.
func NewAnalysisPipeline(
	logger *slog.Logger,
	lifecycle *LifecycleManager,
	clock *PlaybackClock,
	budget time.Duration,
) *AnalysisPipeline {
	return &AnalysisPipeline{
		logger:    logger.With(slog.String("service", "analysis")),
		lifecycle: lifecycle,
		clock:     clock,
		budget:    budget,
	}
}

// NextFrame returns a frame for the currently bound asset at the clock's position.
func (p *AnalysisPipeline) NextFrame(mode domain.AnalysisMode, frameSize int) (domain.FeatureFrame, error) {
	token, ok := p.lifecycle.Current()
	if !ok {
		return domain.FeatureFrame{}, domain.ErrNoAssetBound
	}

	var frame domain.FeatureFrame
	err := p.lifecycle.WithGraph(token, func(g *AnalysisGraph) error {
		var err error
		frame, err = p.Frame(g, p.clock.GetState().CurrentTime, mode, frameSize)
		return err
	})
	return frame, err
}

// Frame computes a frame from g ending at position. The caller must hold the
// graph (see LifecycleManager.WithGraph).
func (p *AnalysisPipeline) Frame(g *AnalysisGraph, position time.Duration, mode domain.AnalysisMode, frameSize int) (domain.FeatureFrame, error) {
	if frameSize <= 0 {
		return domain.FeatureFrame{}, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}
	if mode == domain.FrequencyDomain && !analysis.IsPowerOfTwo(frameSize) {
		return domain.FeatureFrame{}, fmt.Errorf("frequency frame size must be a power of two, got %d", frameSize)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return domain.FeatureFrame{}, domain.ErrStaleAsset
	}

	samples := windowAt(g.Asset.Buffer, position, frameSize)

	if mode == domain.TimeDomain {
		frame := domain.FeatureFrame{Kind: domain.TimeDomain, Values: analysis.TimeDomain(samples)}
		g.last[domain.TimeDomain] = frame
		return frame, nil
	}

	if p.budget <= 0 {
		values, err := g.analyzer.ByteFrequency(samples)
		if err != nil {
			return domain.FeatureFrame{}, err
		}
		frame := domain.FeatureFrame{Kind: domain.FrequencyDomain, Values: values}
		g.last[domain.FrequencyDomain] = frame
		return frame, nil
	}

	return p.frequencyWithBudget(g, samples)
}

// frequencyWithBudget runs the transform off the calling goroutine. Caller holds g.mu.
func (p *AnalysisPipeline) frequencyWithBudget(g *AnalysisGraph, samples []float32) (domain.FeatureFrame, error) {
	previous := g.last[domain.FrequencyDomain]
	if previous.Values == nil {
		previous = domain.FeatureFrame{Kind: domain.FrequencyDomain, Values: make([]uint8, len(samples)/2)}
	}

	if g.pending != nil {
		select {
		case r := <-g.pending:
			// Finished after its deadline: it is still the newest spectrum.
			g.pending = nil
			p.count(&p.late)
			if r.err == nil {
				previous = domain.FeatureFrame{
					Kind:   domain.FrequencyDomain,
					Values: g.analyzer.Quantize(g.analyzer.Smooth(r.mags)),
				}
				g.last[domain.FrequencyDomain] = previous
			}
		default:
			// Still running: don't pile up another transform.
			p.count(&p.skipped)
			return previous, nil
		}
	}

	window := g.analyzer.Window(len(samples))
	result := make(chan spectrumResult, 1)
	g.pending = result

	p.workers.Add(1)
	go func() {
		defer p.workers.Done()
		mags, err := analysis.Spectrum(window, samples)
		result <- spectrumResult{mags: mags, err: err}
	}()

	timer := time.NewTimer(p.budget)
	defer timer.Stop()

	select {
	case r := <-result:
		g.pending = nil
		if r.err != nil {
			return domain.FeatureFrame{}, r.err
		}
		frame := domain.FeatureFrame{
			Kind:   domain.FrequencyDomain,
			Values: g.analyzer.Quantize(g.analyzer.Smooth(r.mags)),
		}
		g.last[domain.FrequencyDomain] = frame
		return frame, nil
	case <-timer.C:
		p.logger.Debug("analysis missed its budget", slog.Duration("budget", p.budget))
		return previous, nil
	}
}

func (p *AnalysisPipeline) count(n *uint64) {
	p.mu.Lock()
	*n++
	p.mu.Unlock()
}

// Stats returns how many results arrived late and how many ticks skipped
// a transform because one was still running.
func (p *AnalysisPipeline) Stats() (late, skipped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.late, p.skipped
}

// Close waits for worker goroutines to finish.
func (p *AnalysisPipeline) Close() {
	p.workers.Wait()
}

// windowAt copies the frameSize mono samples ending at position. Positions
// near the start are zero-padded at the front.
func windowAt(buf *domain.PCMBuffer, position time.Duration, frameSize int) []float32 {
	out := make([]float32, frameSize)
	mono := buf.Mono()
	end := buf.FrameAt(position)
	start := end - frameSize
	if start < 0 {
		copy(out[-start:], mono[:end])
		return out
	}
	copy(out, mono[start:end])
	return out
}
