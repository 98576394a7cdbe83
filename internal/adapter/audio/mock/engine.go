// Package mock provides a mock implementation of the AudioEngine interface.
// This is used for testing services and headless rendering without an output device.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// Engine is a mock implementation of the AudioEngine interface.
// It advances each playing source on a virtual clock without producing sound.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger
	now    func() time.Time

	// Configuration
	initialized bool
	sampleRate  int

	// Track state
	tracks     map[domain.TrackHandle]*mockTrack
	nextHandle domain.TrackHandle
	mu         sync.Mutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       bool
	failPlay       bool
}

// mockTrack represents a loaded source in the mock engine.
type mockTrack struct {
	handle   domain.TrackHandle
	duration time.Duration

	// position is the settled position at anchor
	position time.Duration
	anchor   time.Time

	volume float64
	rate   float64
	status domain.PlaybackStatus
}

// settle folds the time elapsed since the anchor into the position.
// A source that reaches its end stops there.
func (t *mockTrack) settle(now time.Time) {
	if t.status == domain.StatusPlaying {
		elapsed := now.Sub(t.anchor)
		if elapsed > 0 {
			t.position += time.Duration(float64(elapsed) * t.rate)
		}
	}
	t.anchor = now

	if t.position >= t.duration {
		t.position = t.duration
		if t.status == domain.StatusPlaying {
			t.status = domain.StatusStopped
		}
	}
}

// NewEngine creates a new mock audio engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{
		now:        time.Now,
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		nextHandle: 1,
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetClock replaces the time source (for testing).
func (m *Engine) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	for _, t := range m.tracks {
		t.anchor = now()
	}
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading sources (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(sampleRate int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "mock initialization failed", nil)
	}

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.sampleRate = sampleRate

	return nil
}

// Shutdown shuts down the mock audio engine and drops every source.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)

	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Load registers a buffer and returns a handle. Only the duration is kept.
func (m *Engine) Load(buffer *domain.PCMBuffer) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	if m.failLoad {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", "mock load failed", nil)
	}

	if buffer == nil || buffer.Frames() == 0 {
		return domain.InvalidTrackHandle, domain.ErrEmptyBuffer
	}

	handle := m.nextHandle
	m.nextHandle++

	m.tracks[handle] = &mockTrack{
		handle:   handle,
		duration: buffer.Duration(),
		anchor:   m.now(),
		volume:   1.0,
		rate:     1.0,
		status:   domain.StatusStopped,
	}

	if m.logger != nil {
		m.logger.Debug("mock source loaded", slog.Int64("handle", int64(handle)), slog.Duration("duration", buffer.Duration()))
	}

	return handle, nil
}

// Unload releases a previously loaded source.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}

	delete(m.tracks, handle)
	return nil
}

// Loaded returns the number of currently loaded sources.
func (m *Engine) Loaded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}

// track returns the settled source for handle. Caller holds the lock.
func (m *Engine) track(handle domain.TrackHandle) (*mockTrack, error) {
	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	t, exists := m.tracks[handle]
	if !exists {
		return nil, domain.ErrInvalidTrackHandle
	}
	t.settle(m.now())
	return t, nil
}

// Play starts or resumes playback. A source at its end restarts from 0.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.failPlay {
		return domain.NewAudioEngineError("play", "mock playback failed", nil)
	}

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if t.position >= t.duration {
		t.position = 0
	}
	t.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if t.status == domain.StatusPlaying {
		t.status = domain.StatusPaused
	}
	return nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if position < 0 || position > t.duration {
		return domain.NewOutOfRangeError(position, t.duration)
	}

	t.position = position
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	return t.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return t.position, nil
}

// Duration returns the total source duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return t.duration, nil
}

// SetVolume sets the playback volume.
func (m *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	t.volume = volume
	return nil
}

// GetVolume returns the current volume (for testing).
func (m *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return t.volume, nil
}

// SetRate sets the playback speed. Elapsed time up to now is settled at the old rate.
func (m *Engine) SetRate(handle domain.TrackHandle, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if rate < ports.MinPlaybackRate || rate > ports.MaxPlaybackRate {
		return domain.ErrInvalidRate
	}

	t.rate = rate
	return nil
}

// GetRate returns the current playback speed (for testing).
func (m *Engine) GetRate(handle domain.TrackHandle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return t.rate, nil
}

// SimulateProgress advances a playing source by delta of media time (for testing).
// Running past the end stops the source at its duration.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(handle)
	if err != nil {
		return err
	}

	if t.status != domain.StatusPlaying {
		return fmt.Errorf("track is not playing")
	}

	t.position += delta
	t.settle(m.now())
	return nil
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
