package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// PreferenceService keeps user settings in step with the engine.
// It listens on the event bus and persists the mode, volume, mute state and
// loaded assets as they change. All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	history    ports.HistoryRepository
	bus        ports.EventBus

	// Cached preferences
	prefs domain.Preferences
	subs  []domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService loads the saved preferences and starts following the bus.
// fallbackMode is used when no mode has been saved.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	history ports.HistoryRepository,
	bus ports.EventBus,
	fallbackMode domain.VisualizationMode,
) *PreferenceService {
	s := &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		history:    history,
		bus:        bus,
		prefs:      defaultPreferences(fallbackMode),
	}

	if prefs, err := repository.Load(fallbackMode); err == nil {
		s.prefs = prefs
	} else {
		s.logger.Warn("failed to load preferences, using defaults", slog.Any("error", err))
	}

	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventModeChanged, s.onModeChanged),
		bus.Subscribe(domain.EventVolumeChanged, s.onVolumeChanged),
		bus.Subscribe(domain.EventMuteToggled, s.onMuteToggled),
		bus.Subscribe(domain.EventAssetLoaded, s.onAssetLoaded),
	}

	s.logger.Debug("preference service initialized",
		slog.String("mode", string(s.prefs.Mode)),
		slog.Float64("volume", s.prefs.Volume))
	return s
}

func defaultPreferences(mode domain.VisualizationMode) domain.Preferences {
	return domain.Preferences{Mode: mode, Volume: 1.0}
}

// Preferences returns the current settings.
func (s *PreferenceService) Preferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Recent returns the recently loaded assets, newest first.
func (s *PreferenceService) Recent() []domain.RecentAsset {
	recent, err := s.history.Recent()
	if err != nil {
		s.logger.Warn("failed to read history", slog.Any("error", err))
		return nil
	}
	return recent
}

// Apply pushes the saved output settings and mode onto svc.
func (s *PreferenceService) Apply(svc *WaveformService) error {
	prefs := s.Preferences()
	if err := svc.SetVolume(prefs.Volume); err != nil {
		return err
	}
	if err := svc.SetMuted(prefs.Muted); err != nil {
		return err
	}
	return svc.SetMode(prefs.Mode)
}

func (s *PreferenceService) onModeChanged(e domain.Event) {
	evt, ok := e.(domain.ModeChangedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Mode = evt.Mode
	s.mu.Unlock()

	if err := s.repository.SaveMode(evt.Mode); err != nil {
		s.logger.Warn("failed to save mode", slog.Any("error", err))
	}
}

func (s *PreferenceService) onVolumeChanged(e domain.Event) {
	evt, ok := e.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Volume = evt.Volume
	s.mu.Unlock()

	if err := s.repository.SaveVolume(evt.Volume); err != nil {
		s.logger.Warn("failed to save volume", slog.Any("error", err))
	}
}

func (s *PreferenceService) onMuteToggled(e domain.Event) {
	evt, ok := e.(domain.MuteToggledEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.Muted = evt.Muted
	s.mu.Unlock()

	if err := s.repository.SaveMuted(evt.Muted); err != nil {
		s.logger.Warn("failed to save mute state", slog.Any("error", err))
	}
}

func (s *PreferenceService) onAssetLoaded(e domain.Event) {
	evt, ok := e.(domain.AssetLoadedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	s.prefs.LastURL = evt.URL
	s.mu.Unlock()

	if err := s.repository.SaveLastURL(evt.URL); err != nil {
		s.logger.Warn("failed to save last url", slog.Any("error", err))
	}
	if err := s.history.Record(domain.RecentAsset{URL: evt.URL, Title: evt.Info.Title}); err != nil {
		s.logger.Warn("failed to record history", slog.Any("error", err))
	}
}

// ResetToDefaults clears saved preferences and history.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	mode := s.prefs.Mode
	s.prefs = defaultPreferences(mode)
	s.mu.Unlock()

	if err := s.repository.Clear(); err != nil {
		return err
	}
	return s.history.Clear()
}

// Shutdown stops following the bus.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

var _ interface {
	Preferences() domain.Preferences
	Recent() []domain.RecentAsset
	ResetToDefaults() error
	Shutdown() error
} = (*PreferenceService)(nil)
