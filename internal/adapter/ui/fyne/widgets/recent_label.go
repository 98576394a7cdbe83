package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// RecentLabel is a list cell for a recently loaded asset.
// Double tapping it reopens the asset.
type RecentLabel struct {
	widget.Label

	entry  domain.RecentAsset
	onOpen func(url string)
}

// NewRecentLabel creates a label that calls onOpen with its URL when double tapped.
func NewRecentLabel(onOpen func(url string)) *RecentLabel {
	label := &RecentLabel{onOpen: onOpen}
	label.Truncation = fyne.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// SetEntry binds the label to an asset.
func (l *RecentLabel) SetEntry(entry domain.RecentAsset) {
	l.entry = entry
	text := entry.Title
	if text == "" {
		text = entry.URL
	}
	l.SetText(text)
}

// Entry returns the bound asset.
func (l *RecentLabel) Entry() domain.RecentAsset {
	return l.entry
}

// DoubleTapped implements fyne.DoubleTappable.
func (l *RecentLabel) DoubleTapped(*fyne.PointEvent) {
	if l.onOpen != nil && l.entry.URL != "" {
		l.onOpen(l.entry.URL)
	}
}

var _ fyne.DoubleTappable = (*RecentLabel)(nil)
