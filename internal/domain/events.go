// Package domain defines events for the event-driven architecture.
// Events are the notification surface between the engine and sibling UI.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Asset lifecycle events
	EventAssetLoading  EventType = "asset.loading"
	EventAssetLoaded   EventType = "asset.loaded"
	EventAssetReleased EventType = "asset.released"

	// Playback clock events
	EventPlaybackChanged EventType = "playback.changed"
	EventTimeUpdate      EventType = "playback.time"
	EventDurationChange  EventType = "playback.duration"
	EventPlaybackEnded   EventType = "playback.ended"

	// Output events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"
	EventRateChanged   EventType = "rate.changed"

	// Render loop events
	EventStateChanged EventType = "scheduler.state"
	EventModeChanged  EventType = "visualization.mode"

	// Error surface
	EventError EventType = "engine.error"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// AssetLoadingEvent is published when a bind starts fetching an asset.
type AssetLoadingEvent struct {
	baseEvent
	URL string
}

// Type returns the event type.
func (e AssetLoadingEvent) Type() EventType {
	return EventAssetLoading
}

// NewAssetLoadingEvent creates a new AssetLoadingEvent.
func NewAssetLoadingEvent(url string) AssetLoadingEvent {
	return AssetLoadingEvent{baseEvent: newBaseEvent(), URL: url}
}

// AssetLoadedEvent is published when an asset has been decoded and bound.
type AssetLoadedEvent struct {
	baseEvent
	URL        string
	Info       AssetInfo
	Duration   time.Duration
	SampleRate int
	Channels   int
}

// Type returns the event type.
func (e AssetLoadedEvent) Type() EventType {
	return EventAssetLoaded
}

// NewAssetLoadedEvent creates a new AssetLoadedEvent.
func NewAssetLoadedEvent(asset *AudioAsset) AssetLoadedEvent {
	return AssetLoadedEvent{
		baseEvent:  newBaseEvent(),
		URL:        asset.URL,
		Info:       asset.Info,
		Duration:   asset.Duration(),
		SampleRate: asset.Buffer.SampleRate,
		Channels:   asset.Buffer.NumChannels(),
	}
}

// AssetReleasedEvent is published after a bound asset's resources are released.
type AssetReleasedEvent struct {
	baseEvent
	URL string
}

// Type returns the event type.
func (e AssetReleasedEvent) Type() EventType {
	return EventAssetReleased
}

// NewAssetReleasedEvent creates a new AssetReleasedEvent.
func NewAssetReleasedEvent(url string) AssetReleasedEvent {
	return AssetReleasedEvent{baseEvent: newBaseEvent(), URL: url}
}

// PlaybackChangedEvent is published when playback starts or stops.
type PlaybackChangedEvent struct {
	baseEvent
	IsPlaying bool
}

// Type returns the event type.
func (e PlaybackChangedEvent) Type() EventType {
	return EventPlaybackChanged
}

// NewPlaybackChangedEvent creates a new PlaybackChangedEvent.
func NewPlaybackChangedEvent(isPlaying bool) PlaybackChangedEvent {
	return PlaybackChangedEvent{baseEvent: newBaseEvent(), IsPlaying: isPlaying}
}

// TimeUpdateEvent is published as the playback position advances or jumps.
type TimeUpdateEvent struct {
	baseEvent
	CurrentTime time.Duration
	Duration    time.Duration
}

// Type returns the event type.
func (e TimeUpdateEvent) Type() EventType {
	return EventTimeUpdate
}

// NewTimeUpdateEvent creates a new TimeUpdateEvent.
func NewTimeUpdateEvent(current, duration time.Duration) TimeUpdateEvent {
	return TimeUpdateEvent{baseEvent: newBaseEvent(), CurrentTime: current, Duration: duration}
}

// DurationChangeEvent is published when the duration becomes known or is reset.
type DurationChangeEvent struct {
	baseEvent
	Duration time.Duration
}

// Type returns the event type.
func (e DurationChangeEvent) Type() EventType {
	return EventDurationChange
}

// NewDurationChangeEvent creates a new DurationChangeEvent.
func NewDurationChangeEvent(duration time.Duration) DurationChangeEvent {
	return DurationChangeEvent{baseEvent: newBaseEvent(), Duration: duration}
}

// PlaybackEndedEvent is published when content is exhausted.
type PlaybackEndedEvent struct {
	baseEvent
	URL string
}

// Type returns the event type.
func (e PlaybackEndedEvent) Type() EventType {
	return EventPlaybackEnded
}

// NewPlaybackEndedEvent creates a new PlaybackEndedEvent.
func NewPlaybackEndedEvent(url string) PlaybackEndedEvent {
	return PlaybackEndedEvent{baseEvent: newBaseEvent(), URL: url}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Volume: volume}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{baseEvent: newBaseEvent(), Muted: muted}
}

// RateChangedEvent is published when the playback rate changes.
type RateChangedEvent struct {
	baseEvent
	Rate float64
}

// Type returns the event type.
func (e RateChangedEvent) Type() EventType {
	return EventRateChanged
}

// NewRateChangedEvent creates a new RateChangedEvent.
func NewRateChangedEvent(rate float64) RateChangedEvent {
	return RateChangedEvent{baseEvent: newBaseEvent(), Rate: rate}
}

// StateChangedEvent is published on every scheduler state transition.
type StateChangedEvent struct {
	baseEvent
	From SchedulerState
	To   SchedulerState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(from, to SchedulerState) StateChangedEvent {
	return StateChangedEvent{baseEvent: newBaseEvent(), From: from, To: to}
}

// ModeChangedEvent is published when the visualization mode changes.
type ModeChangedEvent struct {
	baseEvent
	Mode VisualizationMode
}

// Type returns the event type.
func (e ModeChangedEvent) Type() EventType {
	return EventModeChanged
}

// NewModeChangedEvent creates a new ModeChangedEvent.
func NewModeChangedEvent(mode VisualizationMode) ModeChangedEvent {
	return ModeChangedEvent{baseEvent: newBaseEvent(), Mode: mode}
}

// ErrorEvent is published for every surfaced failure, after resources have
// been released.
type ErrorEvent struct {
	baseEvent
	URL    string
	Reason ErrorReason
	Error  error
}

// Type returns the event type.
func (e ErrorEvent) Type() EventType {
	return EventError
}

// NewErrorEvent creates a new ErrorEvent.
func NewErrorEvent(url string, err error) ErrorEvent {
	return ErrorEvent{
		baseEvent: newBaseEvent(),
		URL:       url,
		Reason:    ClassifyError(err),
		Error:     err,
	}
}
