package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// DefaultSkip is the step used by skip forward/back controls.
const DefaultSkip = 10 * time.Second

// PlaybackClock is the single source of truth for "where are we" in the
// bound asset. It drives the engine and turns its samples into a monotonic
// CurrentTime, detecting natural end of playback.
//
// All operations are thread-safe via sync.RWMutex. Events are always
// published after the lock is released.
type PlaybackClock struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	bus    ports.EventBus

	// Binding
	handle     domain.TrackHandle
	url        string
	generation uint64
	loading    bool
	pending    bool // play requested while loading

	// State
	current  time.Duration
	duration time.Duration
	playing  bool
	volume   float64
	muted    bool
	rate     float64

	mu sync.RWMutex
}

// NewPlaybackClock creates a clock with nothing bound.
func NewPlaybackClock(logger *slog.Logger, engine ports.AudioEngine, bus ports.EventBus) *PlaybackClock {
	return &PlaybackClock{
		logger:   logger.With(slog.String("service", "clock")),
		engine:   engine,
		bus:      bus,
		handle:   domain.InvalidTrackHandle,
		duration: domain.UnknownDuration,
		volume:   1.0,
		rate:     1.0,
	}
}

func (c *PlaybackClock) publish(events []domain.Event) {
	for _, e := range events {
		c.bus.Publish(e)
	}
}

// BeginLoad marks a load for generation as in flight. Position and duration
// reset; queuePlay carries a play intent over from a superseded load.
// Generations older than the last one seen are ignored and report false.
func (c *PlaybackClock) BeginLoad(generation uint64, url string, queuePlay bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation < c.generation {
		return false
	}
	c.generation = generation
	c.url = url
	c.loading = true
	c.pending = queuePlay
	c.current = 0
	c.duration = domain.UnknownDuration
	c.playing = false
	return true
}

// CancelLoad clears the in-flight load for generation, along with any queued intent.
func (c *PlaybackClock) CancelLoad(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation || !c.loading {
		return
	}
	c.loading = false
	c.pending = false
}

// Attach binds a loaded engine source. It is ignored (returning false) when
// generation is no longer the load in flight. A queued play intent starts
// playback; a failure to start is published as an error event.
func (c *PlaybackClock) Attach(generation uint64, handle domain.TrackHandle, url string, duration time.Duration) bool {
	c.mu.Lock()
	if !c.loading || c.generation != generation {
		c.mu.Unlock()
		c.logger.Debug("attach ignored for superseded load", slog.String("url", url))
		return false
	}

	c.handle = handle
	c.url = url
	c.loading = false
	c.current = 0
	c.duration = duration
	c.playing = false
	autoplay := c.pending
	c.pending = false
	c.applyOutputLocked()
	c.mu.Unlock()

	c.publish([]domain.Event{
		domain.NewDurationChangeEvent(duration),
		domain.NewTimeUpdateEvent(0, duration),
	})

	if autoplay {
		c.logger.Debug("starting queued playback", slog.String("url", url))
		// ErrNoAssetBound means a newer bind already detached this source.
		if err := c.Play(); err != nil && !errors.Is(err, domain.ErrNoAssetBound) {
			c.bus.Publish(domain.NewErrorEvent(url, err))
		}
	}
	return true
}

// applyOutputLocked pushes volume, mute and rate to the engine. Caller holds the lock.
func (c *PlaybackClock) applyOutputLocked() {
	if c.handle == domain.InvalidTrackHandle {
		return
	}
	if err := c.engine.SetVolume(c.handle, c.effectiveVolumeLocked()); err != nil {
		c.logger.Warn("failed to apply volume", slog.Any("error", err))
	}
	if err := c.engine.SetRate(c.handle, c.rate); err != nil {
		c.logger.Warn("failed to apply rate", slog.Any("error", err))
	}
}

func (c *PlaybackClock) effectiveVolumeLocked() float64 {
	if c.muted {
		return 0
	}
	return c.volume
}

// Detach forgets the bound source and any load in flight. It does not touch
// the engine; the lifecycle manager owns the handle. Returns whether anything
// was bound or loading.
func (c *PlaybackClock) Detach() bool {
	c.mu.Lock()
	had := c.handle != domain.InvalidTrackHandle || c.loading
	wasPlaying := c.playing

	c.handle = domain.InvalidTrackHandle
	c.url = ""
	c.loading = false
	c.pending = false
	c.current = 0
	c.duration = domain.UnknownDuration
	c.playing = false
	c.mu.Unlock()

	if wasPlaying {
		c.bus.Publish(domain.NewPlaybackChangedEvent(false))
	}
	return had
}

// Play starts or resumes playback. While a load is in flight the request is
// queued and nil is returned.
func (c *PlaybackClock) Play() error {
	c.mu.Lock()

	if c.handle == domain.InvalidTrackHandle {
		if c.loading {
			c.pending = true
			c.mu.Unlock()
			c.logger.Debug("play queued until load completes")
			return nil
		}
		c.mu.Unlock()
		return domain.ErrNoAssetBound
	}

	if c.playing {
		c.mu.Unlock()
		return nil
	}

	if err := c.engine.Play(c.handle); err != nil {
		c.mu.Unlock()
		c.logger.Debug("engine refused to play", slog.Any("error", err))
		return domain.NewPlaybackAbortedError(err)
	}
	c.playing = true
	c.mu.Unlock()

	c.bus.Publish(domain.NewPlaybackChangedEvent(true))
	return nil
}

// Pause pauses playback, or drops a queued play intent.
func (c *PlaybackClock) Pause() error {
	c.mu.Lock()

	if c.handle == domain.InvalidTrackHandle {
		c.pending = false
		c.mu.Unlock()
		return nil
	}

	if !c.playing {
		c.mu.Unlock()
		return nil
	}

	if err := c.engine.Pause(c.handle); err != nil {
		c.mu.Unlock()
		return err
	}
	if pos, err := c.engine.Position(c.handle); err == nil && pos > c.current {
		c.current = c.clampLocked(pos)
	}
	c.playing = false
	current, duration := c.current, c.duration
	c.mu.Unlock()

	c.publish([]domain.Event{
		domain.NewPlaybackChangedEvent(false),
		domain.NewTimeUpdateEvent(current, duration),
	})
	return nil
}

func (c *PlaybackClock) clampLocked(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if c.duration >= 0 && t > c.duration {
		return c.duration
	}
	return t
}

// Seek moves to target, clamped to [0, duration]. Out-of-range targets are
// logged and clamped, never returned as errors.
func (c *PlaybackClock) Seek(target time.Duration) error {
	c.mu.Lock()

	if c.handle == domain.InvalidTrackHandle {
		c.mu.Unlock()
		return domain.ErrNoAssetBound
	}

	clamped := c.clampLocked(target)
	if clamped != target {
		c.logger.Debug("seek clamped", slog.Any("error", domain.NewOutOfRangeError(target, c.duration)))
	}

	if err := c.engine.Seek(c.handle, clamped); err != nil {
		c.mu.Unlock()
		return err
	}
	c.current = clamped
	duration := c.duration
	c.mu.Unlock()

	c.bus.Publish(domain.NewTimeUpdateEvent(clamped, duration))
	return nil
}

// Skip seeks relative to the current position.
func (c *PlaybackClock) Skip(delta time.Duration) error {
	c.mu.RLock()
	target := c.current + delta
	c.mu.RUnlock()
	return c.Seek(target)
}

// Reset pauses and returns to the start.
func (c *PlaybackClock) Reset() error {
	if err := c.Pause(); err != nil {
		return err
	}
	return c.Seek(0)
}

// SetVolume sets the output level (0.0 to 1.0). It applies immediately when
// unmuted and is remembered across binds.
func (c *PlaybackClock) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	c.mu.Lock()
	c.volume = volume
	if c.handle != domain.InvalidTrackHandle && !c.muted {
		if err := c.engine.SetVolume(c.handle, volume); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()

	c.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// SetMuted silences or restores output without forgetting the volume.
func (c *PlaybackClock) SetMuted(muted bool) error {
	c.mu.Lock()
	if c.muted == muted {
		c.mu.Unlock()
		return nil
	}
	c.muted = muted
	if c.handle != domain.InvalidTrackHandle {
		if err := c.engine.SetVolume(c.handle, c.effectiveVolumeLocked()); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()

	c.bus.Publish(domain.NewMuteToggledEvent(muted))
	return nil
}

// SetRate sets the playback speed multiplier.
func (c *PlaybackClock) SetRate(rate float64) error {
	if rate < ports.MinPlaybackRate || rate > ports.MaxPlaybackRate {
		return domain.ErrInvalidRate
	}

	c.mu.Lock()
	c.rate = rate
	if c.handle != domain.InvalidTrackHandle {
		if err := c.engine.SetRate(c.handle, rate); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()

	c.bus.Publish(domain.NewRateChangedEvent(rate))
	return nil
}

// GetState returns a snapshot of the clock.
func (c *PlaybackClock) GetState() domain.PlaybackState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Loading reports whether a load is in flight.
func (c *PlaybackClock) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// PlayQueued reports whether a play intent is waiting on a load.
func (c *PlaybackClock) PlayQueued() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// PollResult is the outcome of one Poll.
type PollResult struct {
	State domain.PlaybackState

	// Ended is set on the poll that observed the natural end of playback
	Ended bool

	// Events must be published by the caller once it holds no locks
	Events []domain.Event
}

// Poll samples the engine once. CurrentTime only moves forward while
// playing; the end of the asset resets it to 0 and stops playback.
// Events are returned rather than published so callers can poll under
// their own locks.
func (c *PlaybackClock) Poll() (PollResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == domain.InvalidTrackHandle || !c.playing {
		return PollResult{State: c.snapshotLocked()}, nil
	}

	status, err := c.engine.Status(c.handle)
	if err != nil {
		return PollResult{State: c.snapshotLocked()}, err
	}
	pos, err := c.engine.Position(c.handle)
	if err != nil {
		return PollResult{State: c.snapshotLocked()}, err
	}

	if status == domain.StatusStopped {
		c.playing = false
		c.current = 0
		if err := c.engine.Seek(c.handle, 0); err != nil {
			c.logger.Warn("failed to rewind after end", slog.Any("error", err))
		}
		c.logger.Debug("playback ended", slog.String("url", c.url))
		return PollResult{
			State: c.snapshotLocked(),
			Ended: true,
			Events: []domain.Event{
				domain.NewPlaybackEndedEvent(c.url),
				domain.NewPlaybackChangedEvent(false),
				domain.NewTimeUpdateEvent(0, c.duration),
			},
		}, nil
	}

	var events []domain.Event
	if pos = c.clampLocked(pos); pos > c.current {
		c.current = pos
		events = append(events, domain.NewTimeUpdateEvent(c.current, c.duration))
	}
	return PollResult{State: c.snapshotLocked(), Events: events}, nil
}

func (c *PlaybackClock) snapshotLocked() domain.PlaybackState {
	return domain.PlaybackState{
		IsPlaying:   c.playing,
		CurrentTime: c.current,
		Duration:    c.duration,
		Volume:      c.volume,
		Muted:       c.muted,
		Rate:        c.rate,
	}
}

// Verify that PlaybackClock implements the expected interface patterns
var _ interface {
	Play() error
	Pause() error
	Seek(time.Duration) error
	Skip(time.Duration) error
	Reset() error
	SetVolume(float64) error
	SetMuted(bool) error
	SetRate(float64) error
	GetState() domain.PlaybackState
	Poll() (PollResult, error)
} = (*PlaybackClock)(nil)
