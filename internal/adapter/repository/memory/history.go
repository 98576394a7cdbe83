// Package memory provides repository implementations backed by Fyne preferences.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// DefaultHistorySize is how many recent assets are kept.
const DefaultHistorySize = 10

const keyRecent = "history.recent"

// HistoryRepository implements ports.HistoryRepository using Fyne preferences.
//
// Fyne preferences automatically use OS-specific app data directories:
// - macOS: ~/Library/Preferences/com.wavesync.app.plist
// - Linux: ~/.config/wavesync/
// - Windows: %APPDATA%\wavesync\
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	prefs fyne.Preferences
	size  int
	mu    sync.RWMutex
}

// NewHistoryRepository creates a new history repository holding up to size entries.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewHistoryRepository(prefs fyne.Preferences, size int) *HistoryRepository {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &HistoryRepository{
		prefs: prefs,
		size:  size,
	}
}

// Record implements ports.HistoryRepository.
func (r *HistoryRepository) Record(entry domain.RecentAsset) error {
	if entry.URL == "" {
		return domain.NewValidationError("url", entry.URL, "must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load()
	if err != nil {
		// A corrupt list is replaced rather than blocking new entries.
		current = nil
	}

	updated := make([]domain.RecentAsset, 0, r.size)
	updated = append(updated, entry)
	for _, e := range current {
		if len(updated) == r.size {
			break
		}
		if e.URL != entry.URL {
			updated = append(updated, e)
		}
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	r.prefs.SetString(keyRecent, string(data))
	return nil
}

// Recent implements ports.HistoryRepository.
func (r *HistoryRepository) Recent() ([]domain.RecentAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load()
}

func (r *HistoryRepository) load() ([]domain.RecentAsset, error) {
	data := r.prefs.String(keyRecent)
	if data == "" {
		return []domain.RecentAsset{}, nil
	}

	var entries []domain.RecentAsset
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return entries, nil
}

// Clear removes all saved history data.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyRecent)
	return nil
}

// Verify interface implementation
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
