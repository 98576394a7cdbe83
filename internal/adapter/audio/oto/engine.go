// Package oto plays decoded buffers on the default output device through ebitengine/oto.
//
// oto allows a single context per process, so the engine keeps it for the
// life of the program: Shutdown suspends it and a later Initialize resumes it.
package oto

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	oto3 "github.com/ebitengine/oto/v3"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// Engine implements ports.AudioEngine on an oto context.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	ctx         *oto3.Context
	sampleRate  int
	initialized bool

	tracks     map[domain.TrackHandle]*source
	nextHandle domain.TrackHandle
	mu         sync.Mutex
}

type source struct {
	player *oto3.Player
	stream *stream
	buffer *domain.PCMBuffer
	paused bool
}

// NewEngine creates a device engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:     logger.With(slog.String("engine", "oto")),
		tracks:     make(map[domain.TrackHandle]*source),
		nextHandle: 1,
	}
}

// Initialize opens (or resumes) the output device.
func (e *Engine) Initialize(sampleRate int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}

	if e.ctx != nil {
		if sampleRate != e.sampleRate {
			return domain.NewAudioEngineError("initialize",
				fmt.Sprintf("device already opened at %d Hz", e.sampleRate), nil)
		}
		if err := e.ctx.Resume(); err != nil {
			return domain.NewAudioEngineError("initialize", "resume device", err)
		}
		e.initialized = true
		return nil
	}

	ctx, ready, err := oto3.NewContext(&oto3.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: outputChannels,
		Format:       oto3.FormatFloat32LE,
	})
	if err != nil {
		return domain.NewAudioEngineError("initialize", "open device", err)
	}
	<-ready

	e.ctx = ctx
	e.sampleRate = sampleRate
	e.initialized = true

	e.logger.Info("output device ready", slog.Int("sample_rate", sampleRate))
	return nil
}

// Shutdown closes every player and suspends the device.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	for h, src := range e.tracks {
		e.closeSource(h, src)
	}
	e.tracks = make(map[domain.TrackHandle]*source)
	e.initialized = false

	if err := e.ctx.Suspend(); err != nil {
		return domain.NewAudioEngineError("shutdown", "suspend device", err)
	}
	return nil
}

// IsInitialized returns true if the device is open.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Load creates a paused player over the buffer.
func (e *Engine) Load(buffer *domain.PCMBuffer) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if buffer == nil || buffer.Frames() == 0 {
		return domain.InvalidTrackHandle, domain.ErrEmptyBuffer
	}

	st := newStream(buffer, e.sampleRate)
	handle := e.nextHandle
	e.nextHandle++
	e.tracks[handle] = &source{
		player: e.ctx.NewPlayer(st),
		stream: st,
		buffer: buffer,
	}

	e.logger.Debug("source loaded",
		slog.Int64("handle", int64(handle)),
		slog.Int("source_rate", buffer.SampleRate),
		slog.Duration("duration", buffer.Duration()))
	return handle, nil
}

// Unload stops and closes a player.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}
	e.closeSource(handle, src)
	delete(e.tracks, handle)
	return nil
}

func (e *Engine) closeSource(handle domain.TrackHandle, src *source) {
	src.player.Pause()
	if err := src.player.Close(); err != nil {
		e.logger.Warn("failed to close player", slog.Int64("handle", int64(handle)), slog.Any("error", err))
	}
}

// Loaded returns the number of open players.
func (e *Engine) Loaded() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracks)
}

func (e *Engine) source(handle domain.TrackHandle) (*source, error) {
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}
	src, ok := e.tracks[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return src, nil
}

// Play starts or resumes playback, rewinding a source that ran out.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}

	if src.stream.exhausted() && !src.player.IsPlaying() {
		if _, err := src.player.Seek(0, io.SeekStart); err != nil {
			return domain.NewAudioEngineError("play", "rewind", err)
		}
	}
	src.player.Play()
	src.paused = false

	if err := src.player.Err(); err != nil {
		return domain.NewAudioEngineError("play", "player failed", err)
	}
	return nil
}

// Pause pauses playback.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}
	if src.player.IsPlaying() {
		src.player.Pause()
		src.paused = true
	}
	return nil
}

// Seek moves the read cursor and drops audio already queued in the player.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}

	duration := src.buffer.Duration()
	if position < 0 || position > duration {
		return domain.NewOutOfRangeError(position, duration)
	}

	frame := src.buffer.FrameAt(position)
	if _, err := src.player.Seek(int64(frame)*frameBytes, io.SeekStart); err != nil {
		return domain.NewAudioEngineError("seek", "player seek", err)
	}
	return nil
}

// Status returns the playback status.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return domain.StatusStopped, err
	}

	switch {
	case src.player.IsPlaying():
		return domain.StatusPlaying, nil
	case src.paused:
		return domain.StatusPaused, nil
	default:
		return domain.StatusStopped, nil
	}
}

// Position returns the audible position: the read cursor minus what is still queued.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return 0, err
	}

	frame := src.stream.position(src.player.BufferedSize())
	return time.Duration(frame / float64(src.buffer.SampleRate) * float64(time.Second)), nil
}

// Duration returns the length of the source.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return 0, err
	}
	return src.buffer.Duration(), nil
}

// SetVolume sets the player volume.
func (e *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	src.player.SetVolume(volume)
	return nil
}

// SetRate changes the resampling step; pitch follows the rate.
func (e *Engine) SetRate(handle domain.TrackHandle, rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.source(handle)
	if err != nil {
		return err
	}
	if rate < ports.MinPlaybackRate || rate > ports.MaxPlaybackRate {
		return domain.ErrInvalidRate
	}
	src.stream.setRate(rate)
	return nil
}

var _ ports.AudioEngine = (*Engine)(nil)
