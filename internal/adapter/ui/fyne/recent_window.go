package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// RecentWindow lists recently loaded assets with a search filter.
// Double tapping an entry loads it again.
type RecentWindow struct {
	window      fyneapp.Window
	list        *widget.List
	searchEntry *widget.Entry

	// Data state
	data    []domain.RecentAsset // Filtered view (shown in the list)
	entries []domain.RecentAsset // Full history

	// Dependencies
	presenter     *Presenter
	subscriptions []domain.SubscriptionID

	// Lifecycle
	onWindowClosed func()
	isVisible      bool
}

// NewRecentWindow creates the window and loads the current history.
func NewRecentWindow(app fyneapp.App, presenter *Presenter) *RecentWindow {
	w := &RecentWindow{presenter: presenter}

	w.window = app.NewWindow("Recent")
	w.window.Resize(fyneapp.NewSize(420, 360))
	w.buildUI()

	w.subscriptions = append(w.subscriptions,
		presenter.EventBus.Subscribe(domain.EventAssetLoaded, w.onAssetLoaded),
	)

	w.window.SetOnClosed(func() {
		w.isVisible = false
		w.unsubscribeFromEvents()
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	w.reload()
	return w
}

// buildUI constructs the window layout.
func (w *RecentWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search...")
	w.searchEntry.OnChanged = w.filter

	w.list = widget.NewList(
		func() int {
			return len(w.data)
		},
		func() fyneapp.CanvasObject {
			return widgets.NewRecentLabel(w.presenter.OnLoadRequested)
		},
		func(i widget.ListItemID, obj fyneapp.CanvasObject) {
			label, ok := obj.(*widgets.RecentLabel)
			if !ok || i < 0 || i >= len(w.data) {
				return
			}
			label.SetEntry(w.data[i])
		},
	)

	w.window.SetContent(container.NewBorder(w.searchEntry, nil, nil, nil, w.list))
}

func (w *RecentWindow) unsubscribeFromEvents() {
	for _, sub := range w.subscriptions {
		w.presenter.EventBus.Unsubscribe(sub)
	}
	w.subscriptions = nil
}

// onAssetLoaded refreshes the list once the history has recorded the load.
func (w *RecentWindow) onAssetLoaded(domain.Event) {
	fyneapp.Do(w.reload)
}

// reload reads the history and re-applies the filter.
func (w *RecentWindow) reload() {
	w.entries = w.presenter.Recent()
	w.filter(w.searchEntry.Text)
}

// filter narrows the list to entries whose title or URL contains query.
func (w *RecentWindow) filter(query string) {
	w.data = filterRecent(w.entries, query)
	w.window.SetTitle(fmt.Sprintf("Recent (%d items)", len(w.data)))
	w.list.Refresh()
}

func filterRecent(entries []domain.RecentAsset, query string) []domain.RecentAsset {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entries
	}

	filtered := make([]domain.RecentAsset, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.URL), query) || strings.Contains(strings.ToLower(e.Title), query) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Show displays the window.
func (w *RecentWindow) Show() {
	w.isVisible = true
	w.window.Show()
}

// Close closes the window.
func (w *RecentWindow) Close() {
	w.isVisible = false
	w.unsubscribeFromEvents()
	w.window.Close()
}

// IsVisible returns whether the window is currently visible.
func (w *RecentWindow) IsVisible() bool {
	return w.isVisible
}

// SetOnWindowClosed sets a callback invoked when the window is closed.
func (w *RecentWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}
