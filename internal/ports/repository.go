// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// PreferencesRepository handles the persistence of user preferences.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveMode persists the selected visualization mode.
	SaveMode(mode domain.VisualizationMode) error

	// LoadMode retrieves the saved mode, or the given fallback when none is saved.
	LoadMode(fallback domain.VisualizationMode) (domain.VisualizationMode, error)

	// SaveVolume persists the volume level (0.0 to 1.0).
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// Returns 1.0 if no volume has been saved.
	LoadVolume() (float64, error)

	// SaveMuted persists the mute state.
	SaveMuted(muted bool) error

	// LoadMuted retrieves the saved mute state.
	LoadMuted() (bool, error)

	// SaveLastURL persists the most recently loaded asset URL.
	SaveLastURL(url string) error

	// LoadLastURL retrieves the most recently loaded asset URL ("" if none).
	LoadLastURL() (string, error)

	// Load retrieves all preferences at once.
	Load(fallbackMode domain.VisualizationMode) (domain.Preferences, error)

	// Clear removes all saved preferences.
	Clear() error
}

// HistoryRepository keeps the recently loaded assets, newest first.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// Record moves entry to the front of the list, dropping any older entry
	// for the same URL and trimming the list to its capacity.
	Record(entry domain.RecentAsset) error

	// Recent returns the saved entries, newest first.
	Recent() ([]domain.RecentAsset, error)

	// Clear removes all saved history.
	Clear() error
}
