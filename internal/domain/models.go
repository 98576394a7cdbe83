// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the WaveSync engine.
package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// UnknownDuration marks a duration that is not known yet (asset still loading).
const UnknownDuration time.Duration = -1

// PCMBuffer holds decoded audio as de-interleaved float samples in [-1, 1].
type PCMBuffer struct {
	// SampleRate is the native sample rate in Hz
	SampleRate int

	// Channels holds one sample slice per channel, all of equal length
	Channels [][]float32

	monoOnce sync.Once
	mono     []float32
}

// NewPCMBuffer creates a buffer with the given channel data.
func NewPCMBuffer(sampleRate int, channels [][]float32) *PCMBuffer {
	return &PCMBuffer{SampleRate: sampleRate, Channels: channels}
}

// NumChannels returns the number of channels.
func (b *PCMBuffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.Channels)
}

// Frames returns the number of sample frames per channel.
func (b *PCMBuffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b *PCMBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Mono returns the channel average. The result is computed once and cached,
// so callers must not modify it.
func (b *PCMBuffer) Mono() []float32 {
	if b == nil || len(b.Channels) == 0 {
		return nil
	}
	if len(b.Channels) == 1 {
		return b.Channels[0]
	}

	b.monoOnce.Do(func() {
		n := b.Frames()
		mono := make([]float32, n)
		scale := 1 / float32(len(b.Channels))
		for _, ch := range b.Channels {
			for i := 0; i < n; i++ {
				mono[i] += ch[i] * scale
			}
		}
		b.mono = mono
	})
	return b.mono
}

// Interleaved returns the samples interleaved frame by frame (L R L R ...).
func (b *PCMBuffer) Interleaved() []float32 {
	n := b.Frames()
	c := b.NumChannels()
	out := make([]float32, n*c)
	for ch, samples := range b.Channels {
		for i := 0; i < n; i++ {
			out[i*c+ch] = samples[i]
		}
	}
	return out
}

// FrameAt converts a playback position to a sample frame index, clamped to the buffer.
func (b *PCMBuffer) FrameAt(position time.Duration) int {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	frame := int(position.Seconds() * float64(b.SampleRate))
	if frame < 0 {
		return 0
	}
	if n := b.Frames(); frame > n {
		return n
	}
	return frame
}

// AssetInfo carries descriptive metadata read from the asset's tags.
type AssetInfo struct {
	Title  string
	Artist string
	Album  string

	// Format is the container format (wav, mp3, ogg, aiff)
	Format string

	// Size is the encoded size in bytes
	Size int64
}

// AudioAsset is a decoded audio asset identified by its URL.
// An asset is replaced wholesale whenever the URL changes.
type AudioAsset struct {
	URL string

	// Format is the decoder that produced Buffer (wav, aiff, mp3, ogg)
	Format string

	Buffer *PCMBuffer
	Info   AssetInfo
}

// Duration returns the decoded length of the asset.
func (a *AudioAsset) Duration() time.Duration {
	if a == nil {
		return UnknownDuration
	}
	return a.Buffer.Duration()
}

// DisplayName returns the title if tagged, otherwise the URL.
func (a *AudioAsset) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Info.Title == "" {
		return a.URL
	}
	if a.Info.Artist == "" {
		return a.Info.Title
	}
	return a.Info.Artist + " - " + a.Info.Title
}

// PlaybackState is a snapshot of the playback clock.
// Invariant: 0 <= CurrentTime <= Duration once Duration is known.
type PlaybackState struct {
	IsPlaying   bool
	CurrentTime time.Duration

	// Duration is UnknownDuration until the asset finishes loading
	Duration time.Duration

	// Volume is the output level (0.0 to 1.0)
	Volume float64
	Muted  bool

	// Rate is the playback speed multiplier
	Rate float64
}

// DurationKnown reports whether the duration has been determined.
func (s PlaybackState) DurationKnown() bool {
	return s.Duration >= 0
}

// Progress returns CurrentTime/Duration in [0, 1]. The second return value is
// false when the duration is unknown or not positive.
func (s PlaybackState) Progress() (float64, bool) {
	if s.Duration <= 0 {
		return 0, false
	}
	p := float64(s.CurrentTime) / float64(s.Duration)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, true
}

// PlaybackStatus represents the engine-level status of a source.
type PlaybackStatus int

const (
	// StatusStopped indicates the source is stopped or exhausted
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackHandle represents a source loaded into the audio engine.
// This is an opaque identifier used by the audio engine to reference loaded buffers.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// AnalysisMode selects the kind of feature frame the analysis pipeline produces.
type AnalysisMode int

const (
	// TimeDomain frames hold per-sample peak magnitudes
	TimeDomain AnalysisMode = iota

	// FrequencyDomain frames hold spectral magnitude bins
	FrequencyDomain
)

// String returns the mode name.
func (m AnalysisMode) String() string {
	if m == FrequencyDomain {
		return "frequency"
	}
	return "time"
}

// TimeDomainZero is the time-domain byte for a zero-amplitude sample.
const TimeDomainZero uint8 = 128

// FeatureFrame is an ephemeral snapshot of values in [0, 255].
//
// Time-domain values keep the sample sign: round(128 + s*127) for samples s
// in [-1, 1], so silence is TimeDomainZero. Frequency-domain values are
// decibel magnitudes mapped linearly from the analyzer's [min, max] decibel
// range onto [0, 255].
type FeatureFrame struct {
	Kind   AnalysisMode
	Values []uint8
}

// Len returns the number of values in the frame.
func (f FeatureFrame) Len() int {
	return len(f.Values)
}

// Peak is the min/max amplitude of the samples covered by one pixel column.
type Peak struct {
	Min float32
	Max float32
}

// VisualizationMode selects the render strategy.
type VisualizationMode string

// Available visualization modes.
const (
	ModeClassic VisualizationMode = "classic"
	ModeBars    VisualizationMode = "bars"
	ModeLine    VisualizationMode = "line"
	ModeCircle  VisualizationMode = "circle"
)

// VisualizationModes returns all modes in display order.
func VisualizationModes() []VisualizationMode {
	return []VisualizationMode{ModeClassic, ModeBars, ModeLine, ModeCircle}
}

// AnalysisMode returns the feature frame kind the mode consumes.
func (m VisualizationMode) AnalysisMode() AnalysisMode {
	if m == ModeClassic {
		return TimeDomain
	}
	return FrequencyDomain
}

// Title returns the display name of the mode.
func (m VisualizationMode) Title() string {
	s := string(m)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseVisualizationMode converts a string into a VisualizationMode.
func ParseVisualizationMode(s string) (VisualizationMode, error) {
	mode := VisualizationMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range VisualizationModes() {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// SchedulerState is the render loop scheduler's lifecycle state.
type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
)

// String returns a human-readable representation of the scheduler state.
func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Preferences contain persisted user settings.
type Preferences struct {
	// Mode is the last selected visualization mode
	Mode VisualizationMode

	// Volume is the saved volume level (0.0 to 1.0)
	Volume float64

	Muted bool

	// LastURL is the most recently loaded asset
	LastURL string
}

// FormatTime renders a position as m:ss.
func FormatTime(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// RecentAsset is an entry in the recently loaded list.
type RecentAsset struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}
