// Package ports define interfaces for dependency inversion.
// These interfaces allow the engine core to remain independent of devices, networks and toolkits.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// AudioEngine is the interface for playback engines.
// This abstracts the output device and allows for testing with mocks.
//
// A source is loaded from an already-decoded PCM buffer; the engine owns its
// own clock and reports position, status and exhaustion for each source.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// Lifecycle methods

	// Initialize prepares the output at the given sample rate.
	//
	// Returns domain.ErrAlreadyInitialized if called twice.
	Initialize(sampleRate int) error

	// Shutdown releases all engine resources, including loaded sources.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Source methods

	// Load registers a decoded buffer as a playable source and returns its handle.
	// The source starts stopped at position 0.
	Load(buffer *domain.PCMBuffer) (domain.TrackHandle, error)

	// Unload releases a source. Unloading an unknown handle returns
	// domain.ErrInvalidTrackHandle.
	Unload(handle domain.TrackHandle) error

	// Loaded returns the number of sources currently held by the engine.
	Loaded() int

	// Playback control methods

	// Play starts or resumes playback. A source that ran to its end restarts from 0.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback, preserving the position.
	Pause(handle domain.TrackHandle) error

	// Seek sets the playback position. The position must be within [0, Duration].
	Seek(handle domain.TrackHandle, position time.Duration) error

	// State query methods

	// Status returns the current status. A source that ran to its end reports
	// domain.StatusStopped.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the current playback position within the source.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total length of the source.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Output control methods

	// SetVolume sets the output level from 0.0 (silent) to 1.0 (full volume).
	SetVolume(handle domain.TrackHandle, volume float64) error

	// SetRate sets the playback speed multiplier.
	SetRate(handle domain.TrackHandle, rate float64) error
}

// Rate bounds accepted by the playback clock.
const (
	MinPlaybackRate = 0.25
	MaxPlaybackRate = 4.0
)
