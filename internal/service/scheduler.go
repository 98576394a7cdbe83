package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

// DefaultFrameRate is the render loop rate in frames per second.
const DefaultFrameRate = 60

// transitions lists the scheduler states reachable from each state.
// Idle and Loading are reachable from everywhere.
var transitions = map[domain.SchedulerState][]domain.SchedulerState{
	domain.StateLoading: {domain.StateReady},
	domain.StateReady:   {domain.StatePlaying},
	domain.StatePlaying: {domain.StatePaused, domain.StateEnded},
	domain.StatePaused:  {domain.StatePlaying},
	domain.StateEnded:   {domain.StatePlaying, domain.StatePaused},
}

// CanTransition reports whether the scheduler may move from one state to another.
func CanTransition(from, to domain.SchedulerState) bool {
	if to == domain.StateIdle || to == domain.StateLoading {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Scheduler drives the render loop: one tick per frame polls the clock,
// pulls a frame from the pipeline, runs the strategy for the current mode
// and presents the result.
//
// A single ticker goroutine runs while playing. Ticks that carry the token
// of an asset that is no longer bound are dropped.
type Scheduler struct {
	// Dependencies (injected)
	logger    *slog.Logger
	lifecycle *LifecycleManager
	clock     *PlaybackClock
	pipeline  *AnalysisPipeline
	bus       ports.EventBus
	surface   ports.RenderSurface

	// Configuration
	frameSize int
	interval  time.Duration
	options   render.Options

	// State
	state   domain.SchedulerState
	mode    domain.VisualizationMode
	token   Token
	frames  uint64
	dropped uint64

	// Concurrency control
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	loopWg  sync.WaitGroup
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Mode      domain.VisualizationMode
	FrameSize int
	FrameRate int
	Options   render.Options
}

// NewScheduler creates an idle scheduler.
func NewScheduler(
	logger *slog.Logger,
	lifecycle *LifecycleManager,
	clock *PlaybackClock,
	pipeline *AnalysisPipeline,
	bus ports.EventBus,
	surface ports.RenderSurface,
	cfg SchedulerConfig,
) *Scheduler {
	rate := cfg.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	mode := cfg.Mode
	if mode == "" {
		mode = domain.ModeClassic
	}
	return &Scheduler{
		logger:    logger.With(slog.String("service", "scheduler")),
		lifecycle: lifecycle,
		clock:     clock,
		pipeline:  pipeline,
		bus:       bus,
		surface:   surface,
		frameSize: cfg.FrameSize,
		interval:  time.Second / time.Duration(rate),
		options:   cfg.Options,
		state:     domain.StateIdle,
		mode:      mode,
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() domain.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the current visualization mode.
func (s *Scheduler) Mode() domain.VisualizationMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the render strategy. The next frame uses it.
func (s *Scheduler) SetMode(mode domain.VisualizationMode) {
	s.mu.Lock()
	changed := s.mode != mode
	s.mode = mode
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewModeChangedEvent(mode))
	}
}

// Stats returns the number of frames presented and ticks dropped as stale.
func (s *Scheduler) Stats() (frames, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.dropped
}

// setState moves to a new state if the transition is allowed and publishes
// the change. It reports whether the state is now to.
func (s *Scheduler) setState(to domain.SchedulerState) bool {
	s.mu.Lock()
	from := s.state
	if from == to {
		s.mu.Unlock()
		return true
	}
	if !CanTransition(from, to) {
		s.mu.Unlock()
		s.logger.Debug("ignoring state transition", slog.String("from", from.String()), slog.String("to", to.String()))
		return false
	}
	s.state = to
	s.mu.Unlock()

	s.logger.Debug("state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	s.bus.Publish(domain.NewStateChangedEvent(from, to))
	return true
}

// Loading enters the Loading state. Any running loop is halted and the
// previous token stops being drawn.
func (s *Scheduler) Loading() {
	s.halt()
	s.mu.Lock()
	s.token = NoToken
	s.mu.Unlock()
	s.setState(domain.StateLoading)
}

// Bound records a freshly bound asset and enters Ready, drawing a still frame.
func (s *Scheduler) Bound(token Token) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.setState(domain.StateReady)
	s.RenderStill()
}

// Start runs the ticker goroutine and enters Playing. It is a no-op while
// the loop is already running.
func (s *Scheduler) Start() {
	s.setState(domain.StatePlaying)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stop = stop
	s.loopWg.Add(1)
	s.mu.Unlock()

	go s.loop(stop)
}

func (s *Scheduler) loop(stop chan struct{}) {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.Tick() {
				continue
			}
			// Playback is over (paused, ended, stale or failed): leave the loop.
			s.mu.Lock()
			if s.stop == stop {
				s.running = false
			}
			s.mu.Unlock()
			return
		}
	}
}

// halt signals the loop to stop without waiting for it.
func (s *Scheduler) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stop)
		s.running = false
	}
}

// Stop halts the loop and waits for the goroutine to exit.
// It must not be called from an event handler running on the loop.
func (s *Scheduler) Stop() {
	s.halt()
	s.loopWg.Wait()
}

// Running reports whether the ticker goroutine is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pause halts the loop, enters Paused and draws a still frame.
func (s *Scheduler) Pause() {
	s.halt()
	s.setState(domain.StatePaused)
	s.RenderStill()
}

// Idle halts the loop and forgets the bound token.
func (s *Scheduler) Idle() {
	s.halt()
	s.mu.Lock()
	s.token = NoToken
	s.mu.Unlock()
	s.setState(domain.StateIdle)
}

// Tick draws one frame. It returns true while playback should continue.
func (s *Scheduler) Tick() bool {
	return s.draw(false)
}

// RenderStill draws one frame without expecting playback, so Ready, Paused
// and Ended show the current marker. Classic mode draws the static envelope.
func (s *Scheduler) RenderStill() {
	s.draw(true)
}

func (s *Scheduler) draw(still bool) bool {
	s.mu.Lock()
	token, mode := s.token, s.mode
	s.mu.Unlock()
	if token == NoToken {
		return false
	}

	var poll PollResult
	err := s.lifecycle.WithGraph(token, func(g *AnalysisGraph) error {
		var err error
		poll, err = s.clock.Poll()
		if err != nil {
			return domain.NewPlaybackAbortedError(err)
		}

		width, height := s.surface.Size()
		in := render.Input{
			Mode:    mode,
			Width:   width,
			Height:  height,
			State:   poll.State,
			Options: s.options,
		}

		if mode == domain.ModeClassic && (still || !poll.State.IsPlaying) {
			in.Static = true
			in.Peaks = g.Envelope(width)
		} else {
			in.Frame, err = s.pipeline.Frame(g, poll.State.CurrentTime, mode.AnalysisMode(), s.frameSize)
			if err != nil {
				return err
			}
		}

		s.surface.Present(render.Render(in))
		return nil
	})

	if errors.Is(err, domain.ErrStaleAsset) {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return false
	}
	if err != nil {
		s.Fail(err)
		return false
	}

	s.mu.Lock()
	s.frames++
	s.mu.Unlock()

	// Runs every frame; skip events nobody listens to.
	for _, e := range poll.Events {
		if s.bus.HasSubscribers(e.Type()) {
			s.bus.Publish(e)
		}
	}

	if poll.Ended {
		s.setState(domain.StateEnded)
		// Redraw so the marker sits at 0.
		s.RenderStill()
		return false
	}
	return poll.State.IsPlaying
}

// Fail handles a fatal error: ticks halt, the asset is released, the
// scheduler goes Idle and the error is published.
func (s *Scheduler) Fail(err error) {
	url := s.lifecycle.CurrentURL()
	s.logger.Error("render loop failed", slog.String("url", url), slog.Any("error", err))

	s.halt()
	if unbindErr := s.lifecycle.Unbind(); unbindErr != nil {
		s.logger.Warn("failed to unbind after error", slog.Any("error", unbindErr))
	}
	s.Idle()
	s.bus.Publish(domain.NewErrorEvent(url, err))
}
