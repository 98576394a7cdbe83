package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

// Config configures a WaveformService.
type Config struct {
	Analysis  analysis.Config
	Mode      domain.VisualizationMode
	FrameRate int
	// Budget bounds the frequency transform per tick. Zero computes inline.
	Budget    time.Duration
	BarCount  int
	CacheSize int
	Theme     *render.Theme
}

// WaveformService combines the loader, clock, pipeline, lifecycle manager and
// scheduler behind the operations a host UI needs.
type WaveformService struct {
	logger    *slog.Logger
	bus       ports.EventBus
	loader    *AssetLoader
	clock     *PlaybackClock
	lifecycle *LifecycleManager
	pipeline  *AnalysisPipeline
	scheduler *Scheduler
}

// NewWaveformService wires the engine components together.
func NewWaveformService(
	logger *slog.Logger,
	fetcher ports.Fetcher,
	decoders ports.DecoderRegistry,
	engine ports.AudioEngine,
	bus ports.EventBus,
	surface ports.RenderSurface,
	cfg Config,
) *WaveformService {
	loader := NewAssetLoader(logger, fetcher, decoders, cfg.CacheSize)
	clock := NewPlaybackClock(logger, engine, bus)
	lifecycle := NewLifecycleManager(logger, loader, engine, clock, bus, cfg.Analysis)
	pipeline := NewAnalysisPipeline(logger, lifecycle, clock, cfg.Budget)
	scheduler := NewScheduler(logger, lifecycle, clock, pipeline, bus, surface, SchedulerConfig{
		Mode:      cfg.Mode,
		FrameSize: cfg.Analysis.FFTSize,
		FrameRate: cfg.FrameRate,
		Options:   render.Options{Theme: cfg.Theme, BarCount: cfg.BarCount},
	})

	return &WaveformService{
		logger:    logger.With(slog.String("service", "waveform")),
		bus:       bus,
		loader:    loader,
		clock:     clock,
		lifecycle: lifecycle,
		pipeline:  pipeline,
		scheduler: scheduler,
	}
}

// Load binds url, replacing whatever was bound. A play request queued during
// the load starts playback once it completes. A load superseded by another
// Load or Stop returns domain.ErrStaleAsset and changes nothing.
func (s *WaveformService) Load(ctx context.Context, url string) error {
	s.scheduler.Loading()

	token, err := s.lifecycle.Bind(ctx, url)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStaleAsset):
		return err
	case ctx.Err() != nil:
		s.scheduler.Idle()
		return err
	default:
		s.logger.Error("failed to load asset", slog.String("url", url), slog.Any("error", err))
		s.scheduler.Idle()
		s.bus.Publish(domain.NewErrorEvent(url, err))
		return err
	}

	s.scheduler.Bound(token)
	if s.clock.GetState().IsPlaying {
		s.scheduler.Start()
	}
	return nil
}

// Play starts playback, or queues it while a load is in flight.
func (s *WaveformService) Play() error {
	if err := s.clock.Play(); err != nil {
		if errors.Is(err, domain.ErrPlaybackAborted) {
			s.scheduler.Fail(err)
		}
		return err
	}
	if s.clock.Loading() {
		return nil
	}
	s.scheduler.Start()
	return nil
}

// Pause pauses playback and leaves a still frame on the surface.
func (s *WaveformService) Pause() error {
	if err := s.clock.Pause(); err != nil {
		return err
	}
	s.scheduler.Pause()
	return nil
}

// TogglePlay pauses when playing and plays otherwise.
func (s *WaveformService) TogglePlay() error {
	if s.clock.GetState().IsPlaying || s.clock.PlayQueued() {
		return s.Pause()
	}
	return s.Play()
}

// Seek moves the playback position, clamped to the asset.
func (s *WaveformService) Seek(position time.Duration) error {
	if err := s.clock.Seek(position); err != nil {
		return err
	}
	s.afterSeek()
	return nil
}

// Skip moves the playback position by delta, clamped to the asset.
func (s *WaveformService) Skip(delta time.Duration) error {
	if err := s.clock.Skip(delta); err != nil {
		return err
	}
	s.afterSeek()
	return nil
}

func (s *WaveformService) afterSeek() {
	if s.clock.GetState().IsPlaying {
		return
	}
	if s.scheduler.State() == domain.StateEnded {
		s.scheduler.setState(domain.StatePaused)
	}
	s.scheduler.RenderStill()
}

// SetMode switches the visualization mode.
func (s *WaveformService) SetMode(mode domain.VisualizationMode) error {
	if _, err := domain.ParseVisualizationMode(string(mode)); err != nil {
		return err
	}
	s.scheduler.SetMode(mode)
	if !s.scheduler.Running() {
		s.scheduler.RenderStill()
	}
	return nil
}

// Mode returns the current visualization mode.
func (s *WaveformService) Mode() domain.VisualizationMode {
	return s.scheduler.Mode()
}

// SetVolume sets the output level (0.0 to 1.0).
func (s *WaveformService) SetVolume(volume float64) error {
	return s.clock.SetVolume(volume)
}

// SetMuted mutes or unmutes the output.
func (s *WaveformService) SetMuted(muted bool) error {
	return s.clock.SetMuted(muted)
}

// SetRate sets the playback speed.
func (s *WaveformService) SetRate(rate float64) error {
	return s.clock.SetRate(rate)
}

// State returns the playback state.
func (s *WaveformService) State() domain.PlaybackState {
	return s.clock.GetState()
}

// SchedulerState returns the render loop state.
func (s *WaveformService) SchedulerState() domain.SchedulerState {
	return s.scheduler.State()
}

// LiveGraphs returns the number of analysis graphs not yet released.
func (s *WaveformService) LiveGraphs() int {
	return s.lifecycle.LiveGraphs()
}

// Stop halts rendering, releases the bound asset and returns to Idle.
func (s *WaveformService) Stop() error {
	s.scheduler.Stop()
	if err := s.lifecycle.Unbind(); err != nil {
		return err
	}
	s.scheduler.Idle()
	return nil
}

// Shutdown stops the service and waits for analysis workers.
func (s *WaveformService) Shutdown() error {
	err := s.Stop()
	s.pipeline.Close()
	return err
}

// OnPlaybackChange subscribes to play/pause changes.
func (s *WaveformService) OnPlaybackChange(fn func(playing bool)) domain.SubscriptionID {
	return s.bus.Subscribe(domain.EventPlaybackChanged, func(e domain.Event) {
		if evt, ok := e.(domain.PlaybackChangedEvent); ok {
			fn(evt.IsPlaying)
		}
	})
}

// OnTimeUpdate subscribes to position updates.
func (s *WaveformService) OnTimeUpdate(fn func(current time.Duration)) domain.SubscriptionID {
	return s.bus.Subscribe(domain.EventTimeUpdate, func(e domain.Event) {
		if evt, ok := e.(domain.TimeUpdateEvent); ok {
			fn(evt.CurrentTime)
		}
	})
}

// OnDurationChange subscribes to duration changes.
func (s *WaveformService) OnDurationChange(fn func(duration time.Duration)) domain.SubscriptionID {
	return s.bus.Subscribe(domain.EventDurationChange, func(e domain.Event) {
		if evt, ok := e.(domain.DurationChangeEvent); ok {
			fn(evt.Duration)
		}
	})
}

// OnError subscribes to surfaced failures.
func (s *WaveformService) OnError(fn func(reason domain.ErrorReason, err error)) domain.SubscriptionID {
	return s.bus.Subscribe(domain.EventError, func(e domain.Event) {
		if evt, ok := e.(domain.ErrorEvent); ok {
			fn(evt.Reason, evt.Error)
		}
	})
}

// Unsubscribe removes a notification handler.
func (s *WaveformService) Unsubscribe(id domain.SubscriptionID) {
	s.bus.Unsubscribe(id)
}
