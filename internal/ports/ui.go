// Package ports define the UI interface for view abstraction.
// This interface allows the presenter to update the UI without depending on Fyne directly.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// WaveformView is the passive view driven by the presenter.
//
// The presenter receives events from the event bus and calls these methods
// to update the UI accordingly.
//
// Thread-safety: implementations marshal onto the toolkit's UI thread themselves.
type WaveformView interface {
	// SetTitle updates the displayed asset name.
	SetTitle(title string)

	// SetPlayState updates the play/pause button state.
	SetPlayState(playing bool)

	// SetTime updates the position label and scrub slider.
	SetTime(current, duration time.Duration)

	// SetDuration updates the total time label. domain.UnknownDuration clears it.
	SetDuration(duration time.Duration)

	// SetVolume updates the volume slider (0.0 to 1.0).
	SetVolume(volume float64)

	// SetMuteState updates the mute button state.
	SetMuteState(muted bool)

	// SetMode updates the mode selector.
	SetMode(mode domain.VisualizationMode)

	// SetStatus shows the scheduler state ("loading", "ready" ...).
	SetStatus(state domain.SchedulerState)

	// ShowError displays a failure, offering retry when retryable is true.
	ShowError(reason domain.ErrorReason, message string, retryable bool)

	// Surface returns the raster target the scheduler draws into.
	Surface() RenderSurface
}
