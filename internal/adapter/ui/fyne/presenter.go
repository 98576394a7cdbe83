// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to view updates
// - Translate UI commands to service method calls
//
// Loads run on their own goroutine so the UI thread never waits on the network.
// Thread-safety: All operations are thread-safe via sync.RWMutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	waveformService   *service.WaveformService
	preferenceService *service.PreferenceService

	// Event bus for subscriptions (exported for RecentWindow access)
	EventBus ports.EventBus

	// UI view
	view ports.WaveformView

	// Presentation state
	currentURL    string
	lastURL       string
	subscriptions []domain.SubscriptionID

	// Load lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	loadsWg sync.WaitGroup

	// Concurrency control
	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter.
func NewPresenter(
	logger *slog.Logger,
	waveformService *service.WaveformService,
	preferenceService *service.PreferenceService,
	eventBus ports.EventBus,
	view ports.WaveformView,
) *Presenter {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Presenter{
		logger:            logger,
		waveformService:   waveformService,
		preferenceService: preferenceService,
		EventBus:          eventBus,
		view:              view,
		ctx:               ctx,
		cancel:            cancel,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Asset events
		domain.EventAssetLoading:  p.onAssetLoading,
		domain.EventAssetLoaded:   p.onAssetLoaded,
		domain.EventAssetReleased: p.onAssetReleased,

		// Playback events
		domain.EventPlaybackChanged: p.onPlaybackChanged,
		domain.EventTimeUpdate:      p.onTimeUpdate,
		domain.EventDurationChange:  p.onDurationChange,

		// Output events
		domain.EventVolumeChanged: p.onVolumeChanged,
		domain.EventMuteToggled:   p.onMuteToggled,

		// Scheduler events
		domain.EventStateChanged: p.onStateChanged,
		domain.EventModeChanged:  p.onModeChanged,

		domain.EventError: p.onError,
	}

	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.EventBus.Subscribe(eventType, handler))
	}
}

// syncInitialState synchronizes the view with the current service state.
func (p *Presenter) syncInitialState() {
	state := p.waveformService.State()

	p.view.SetVolume(state.Volume)
	p.view.SetMuteState(state.Muted)
	p.view.SetMode(p.waveformService.Mode())
	p.view.SetPlayState(state.IsPlaying)
	p.view.SetStatus(p.waveformService.SchedulerState())
	p.view.SetDuration(state.Duration)
	if state.DurationKnown() {
		p.view.SetTime(state.CurrentTime, state.Duration)
	}
}

// Event handlers

func (p *Presenter) onAssetLoading(event domain.Event) {
	e, ok := event.(domain.AssetLoadingEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.currentURL = e.URL
	p.lastURL = e.URL
	p.mu.Unlock()

	p.view.SetTitle("Loading " + e.URL)
	p.view.SetDuration(domain.UnknownDuration)
}

func (p *Presenter) onAssetLoaded(event domain.Event) {
	e, ok := event.(domain.AssetLoadedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.currentURL = e.URL
	p.mu.Unlock()

	p.view.SetTitle(displayName(e.URL, e.Info))
	p.view.SetDuration(e.Duration)
}

func (p *Presenter) onAssetReleased(event domain.Event) {
	e, ok := event.(domain.AssetReleasedEvent)
	if !ok {
		return
	}

	// Only the asset on screen clears the view.
	p.mu.Lock()
	current := p.currentURL == e.URL
	if current {
		p.currentURL = ""
	}
	p.mu.Unlock()

	if current {
		p.view.SetTitle("")
		p.view.SetDuration(domain.UnknownDuration)
	}
}

func (p *Presenter) onPlaybackChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackChangedEvent)
	if !ok {
		return
	}
	p.view.SetPlayState(e.IsPlaying)
}

func (p *Presenter) onTimeUpdate(event domain.Event) {
	e, ok := event.(domain.TimeUpdateEvent)
	if !ok {
		return
	}
	p.view.SetTime(e.CurrentTime, e.Duration)
}

func (p *Presenter) onDurationChange(event domain.Event) {
	e, ok := event.(domain.DurationChangeEvent)
	if !ok {
		return
	}
	p.view.SetDuration(e.Duration)
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	p.view.SetVolume(e.Volume)
}

func (p *Presenter) onMuteToggled(event domain.Event) {
	e, ok := event.(domain.MuteToggledEvent)
	if !ok {
		return
	}
	p.view.SetMuteState(e.Muted)
}

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}
	p.view.SetStatus(e.To)
}

func (p *Presenter) onModeChanged(event domain.Event) {
	e, ok := event.(domain.ModeChangedEvent)
	if !ok {
		return
	}
	p.view.SetMode(e.Mode)
}

func (p *Presenter) onError(event domain.Event) {
	e, ok := event.(domain.ErrorEvent)
	if !ok {
		return
	}

	message := "unknown error"
	if e.Error != nil {
		message = e.Error.Error()
	}
	p.view.ShowError(e.Reason, message, e.Reason.Retryable())
}

func displayName(url string, info domain.AssetInfo) string {
	asset := domain.AudioAsset{URL: url, Info: info}
	return asset.DisplayName()
}

// UI Command handlers (called by UI)

// OnLoadRequested binds url in the background. Failures reach the view
// through the error event.
func (p *Presenter) OnLoadRequested(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}

	p.mu.Lock()
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	p.loadsWg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.loadsWg.Done()
		err := p.waveformService.Load(p.ctx, url)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrStaleAsset), errors.Is(err, context.Canceled):
			p.logger.Debug("load superseded", slog.String("url", url))
		default:
			p.logger.Warn("load failed", slog.String("url", url), slog.Any("error", err))
		}
	}()
}

// OnRetry reloads the last requested URL.
func (p *Presenter) OnRetry() {
	p.mu.RLock()
	url := p.lastURL
	p.mu.RUnlock()
	p.OnLoadRequested(url)
}

// OnPlayClicked toggles playback.
func (p *Presenter) OnPlayClicked() {
	if err := p.waveformService.TogglePlay(); err != nil {
		// Aborted playback is already reported through the error event.
		p.logger.Warn("play/pause failed", slog.Any("error", err))
	}
}

// OnStopClicked unbinds the asset and returns to idle.
func (p *Presenter) OnStopClicked() {
	if err := p.waveformService.Stop(); err != nil {
		p.logger.Error("stop failed", slog.Any("error", err))
	}
}

// OnSkipBackClicked jumps back by service.DefaultSkip.
func (p *Presenter) OnSkipBackClicked() {
	p.skip(-service.DefaultSkip)
}

// OnSkipForwardClicked jumps forward by service.DefaultSkip.
func (p *Presenter) OnSkipForwardClicked() {
	p.skip(service.DefaultSkip)
}

func (p *Presenter) skip(delta time.Duration) {
	if err := p.waveformService.Skip(delta); err != nil {
		p.logger.Debug("skip ignored", slog.Any("error", err))
	}
}

// OnSeekRequested seeks to a fraction of the duration in [0, 1].
// It does nothing while the duration is unknown.
func (p *Presenter) OnSeekRequested(fraction float64) {
	state := p.waveformService.State()
	if !state.DurationKnown() || state.Duration <= 0 {
		return
	}
	position := time.Duration(fraction * float64(state.Duration))
	if err := p.waveformService.Seek(position); err != nil {
		p.logger.Debug("seek ignored", slog.Any("error", err))
	}
}

// OnVolumeChanged handles volume slider changes (0.0 to 1.0).
func (p *Presenter) OnVolumeChanged(volume float64) {
	if err := p.waveformService.SetVolume(volume); err != nil {
		p.logger.Error("volume change failed", slog.Any("error", err))
	}
}

// OnMuteClicked toggles mute.
func (p *Presenter) OnMuteClicked() {
	state := p.waveformService.State()
	if err := p.waveformService.SetMuted(!state.Muted); err != nil {
		p.logger.Error("mute failed", slog.Any("error", err))
	}
}

// OnModeSelected switches the visualization mode.
func (p *Presenter) OnModeSelected(mode domain.VisualizationMode) {
	if err := p.waveformService.SetMode(mode); err != nil {
		p.logger.Error("mode change failed", slog.Any("error", err))
	}
}

// OnResetPreferences clears saved settings and history and applies the defaults.
func (p *Presenter) OnResetPreferences() {
	if err := p.preferenceService.ResetToDefaults(); err != nil {
		p.logger.Error("reset preferences failed", slog.Any("error", err))
		return
	}
	if err := p.preferenceService.Apply(p.waveformService); err != nil {
		p.logger.Error("apply preferences failed", slog.Any("error", err))
	}
}

// Recent returns the recently loaded assets, newest first.
func (p *Presenter) Recent() []domain.RecentAsset {
	return p.preferenceService.Recent()
}

// Shutdown cancels loads in flight and stops following the bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.cancel()
		p.mu.Unlock()
		p.loadsWg.Wait()

		p.mu.Lock()
		subs := p.subscriptions
		p.subscriptions = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.EventBus.Unsubscribe(id)
		}
	})
}
