package memory

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

const (
	keyMode    = "preferences.mode"
	keyVolume  = "preferences.volume"
	keyMuted   = "preferences.muted"
	keyLastURL = "preferences.last_url"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
// This provides a thin wrapper around Fyne's preferences system with proper error handling.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveMode persists the selected visualization mode.
func (r *PreferencesRepository) SaveMode(mode domain.VisualizationMode) error {
	if _, err := domain.ParseVisualizationMode(string(mode)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyMode, string(mode))
	return nil
}

// LoadMode retrieves the saved mode. A missing or unrecognised value yields fallback.
func (r *PreferencesRepository) LoadMode(fallback domain.VisualizationMode) (domain.VisualizationMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	saved := r.prefs.String(keyMode)
	if saved == "" {
		return fallback, nil
	}
	mode, err := domain.ParseVisualizationMode(saved)
	if err != nil {
		return fallback, nil
	}
	return mode, nil
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	volume := r.prefs.FloatWithFallback(keyVolume, 1.0)
	return volume, nil
}

// SaveMuted persists the mute state.
func (r *PreferencesRepository) SaveMuted(muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetBool(keyMuted, muted)
	return nil
}

// LoadMuted retrieves the saved mute state.
func (r *PreferencesRepository) LoadMuted() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.BoolWithFallback(keyMuted, false), nil
}

// SaveLastURL persists the most recently loaded asset URL.
func (r *PreferencesRepository) SaveLastURL(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyLastURL, url)
	return nil
}

// LoadLastURL retrieves the most recently loaded asset URL.
func (r *PreferencesRepository) LoadLastURL() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyLastURL), nil
}

// Load retrieves all preferences at once.
func (r *PreferencesRepository) Load(fallbackMode domain.VisualizationMode) (domain.Preferences, error) {
	mode, err := r.LoadMode(fallbackMode)
	if err != nil {
		return domain.Preferences{}, err
	}
	volume, err := r.LoadVolume()
	if err != nil {
		return domain.Preferences{}, err
	}
	muted, err := r.LoadMuted()
	if err != nil {
		return domain.Preferences{}, err
	}
	lastURL, err := r.LoadLastURL()
	if err != nil {
		return domain.Preferences{}, err
	}

	return domain.Preferences{Mode: mode, Volume: volume, Muted: muted, LastURL: lastURL}, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyMode)
	r.prefs.RemoveValue(keyVolume)
	r.prefs.RemoveValue(keyMuted)
	r.prefs.RemoveValue(keyLastURL)

	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
