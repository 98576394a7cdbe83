package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/testutil"
)

func TestWaveformService_Load(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 3)

	var (
		mu        sync.Mutex
		durations []time.Duration
	)
	h.svc.OnDurationChange(func(d time.Duration) {
		mu.Lock()
		durations = append(durations, d)
		mu.Unlock()
	})

	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	assert.Equal(t, domain.StateReady, h.svc.SchedulerState())
	assert.Equal(t, 3*time.Second, h.svc.State().Duration)
	assert.Equal(t, 1, h.svc.LiveGraphs())

	mu.Lock()
	assert.Equal(t, []time.Duration{3 * time.Second}, durations)
	mu.Unlock()
}

func TestWaveformService_LoadFailure(t *testing.T) {
	h := newHarness(t, Config{})

	var (
		mu      sync.Mutex
		reasons []domain.ErrorReason
	)
	h.svc.OnError(func(reason domain.ErrorReason, err error) {
		mu.Lock()
		reasons = append(reasons, reason)
		mu.Unlock()
	})

	err := h.svc.Load(context.Background(), "missing.wav")
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
	assert.Zero(t, h.svc.LiveGraphs())

	mu.Lock()
	assert.Equal(t, []domain.ErrorReason{domain.ReasonFetch}, reasons)
	assert.True(t, reasons[0].Retryable())
	mu.Unlock()
}

func TestWaveformService_LoadCancelledIsSilent(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	release := h.fetcher.gate("a.wav")
	defer release()
	events := record(h.bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Load(ctx, "a.wav") }()
	require.Eventually(t, func() bool { return h.fetcher.Calls("a.wav") == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
	assert.Empty(t, events.ofType(domain.EventError))
}

func TestWaveformService_ReplacingLoad(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	h.addSine(t, "b.wav", 2)
	release := h.fetcher.gate("a.wav")
	defer release()

	done := make(chan error, 1)
	go func() { done <- h.svc.Load(context.Background(), "a.wav") }()
	require.Eventually(t, func() bool { return h.fetcher.Calls("a.wav") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, h.svc.Load(context.Background(), "b.wav"))
	assert.ErrorIs(t, <-done, domain.ErrStaleAsset)

	assert.Equal(t, domain.StateReady, h.svc.SchedulerState())
	assert.Equal(t, 2*time.Second, h.svc.State().Duration)
	assert.Equal(t, 1, h.svc.LiveGraphs())
	assert.Equal(t, 1, h.engine.Loaded())
}

func TestWaveformService_PlayPause(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 10)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	var (
		mu    sync.Mutex
		plays []bool
	)
	h.svc.OnPlaybackChange(func(playing bool) {
		mu.Lock()
		plays = append(plays, playing)
		mu.Unlock()
	})

	require.NoError(t, h.svc.Play())
	assert.Equal(t, domain.StatePlaying, h.svc.SchedulerState())
	assert.True(t, h.scheduler.Running())

	require.NoError(t, h.svc.TogglePlay())
	assert.Equal(t, domain.StatePaused, h.svc.SchedulerState())
	h.scheduler.Stop()
	assert.False(t, h.scheduler.Running())

	require.NoError(t, h.svc.TogglePlay())
	assert.Equal(t, domain.StatePlaying, h.svc.SchedulerState())

	require.NoError(t, h.svc.Stop())
	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
	assert.Zero(t, h.svc.LiveGraphs())

	mu.Lock()
	assert.Equal(t, []bool{true, false, true, false}, plays)
	mu.Unlock()
}

func TestWaveformService_PlayNothingBound(t *testing.T) {
	h := newHarness(t, Config{})
	assert.ErrorIs(t, h.svc.Play(), domain.ErrNoAssetBound)
	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
}

func TestWaveformService_PlayQueuedDuringLoad(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 10)
	release := h.fetcher.gate("a.wav")
	defer release()

	done := make(chan error, 1)
	go func() { done <- h.svc.Load(context.Background(), "a.wav") }()
	require.Eventually(t, h.clock.Loading, time.Second, time.Millisecond)

	require.NoError(t, h.svc.Play())
	assert.Equal(t, domain.StateLoading, h.svc.SchedulerState())
	assert.False(t, h.scheduler.Running())

	release()
	require.NoError(t, <-done)

	assert.True(t, h.svc.State().IsPlaying)
	assert.Equal(t, domain.StatePlaying, h.svc.SchedulerState())
	assert.True(t, h.scheduler.Running())

	require.NoError(t, h.svc.Stop())
}

func TestWaveformService_PlayFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	var (
		mu      sync.Mutex
		reasons []domain.ErrorReason
	)
	h.svc.OnError(func(reason domain.ErrorReason, err error) {
		mu.Lock()
		reasons = append(reasons, reason)
		mu.Unlock()
	})

	h.engine.SetFailPlay(true)
	assert.ErrorIs(t, h.svc.Play(), domain.ErrPlaybackAborted)

	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
	assert.Zero(t, h.svc.LiveGraphs())
	assert.Zero(t, h.engine.Loaded())

	mu.Lock()
	assert.Equal(t, []domain.ErrorReason{domain.ReasonPlaybackAborted}, reasons)
	mu.Unlock()
}

func TestWaveformService_SeekAndSkip(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 20)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	var (
		mu    sync.Mutex
		times []time.Duration
	)
	h.svc.OnTimeUpdate(func(d time.Duration) {
		mu.Lock()
		times = append(times, d)
		mu.Unlock()
	})
	before := h.surface.Frames()

	require.NoError(t, h.svc.Seek(30*time.Second))
	assert.Equal(t, 20*time.Second, h.svc.State().CurrentTime)

	require.NoError(t, h.svc.Skip(-DefaultSkip))
	assert.Equal(t, 10*time.Second, h.svc.State().CurrentTime)

	require.NoError(t, h.svc.Seek(-time.Second))
	assert.Zero(t, h.svc.State().CurrentTime)

	// Each seek while stopped redraws the marker.
	assert.Equal(t, before+3, h.surface.Frames())

	mu.Lock()
	assert.Equal(t, []time.Duration{20 * time.Second, 10 * time.Second, 0}, times)
	mu.Unlock()
}

func TestWaveformService_SeekAfterEnded(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	bindAndPlay(t, h, "a.wav")

	h.now.Advance(2 * time.Second)
	require.False(t, h.scheduler.Tick())
	require.Equal(t, domain.StateEnded, h.svc.SchedulerState())

	require.NoError(t, h.svc.Seek(500*time.Millisecond))
	assert.Equal(t, domain.StatePaused, h.svc.SchedulerState())
	assert.Equal(t, 500*time.Millisecond, h.svc.State().CurrentTime)
}

func TestWaveformService_SetMode(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))
	before := h.surface.Frames()

	for _, mode := range domain.VisualizationModes() {
		require.NoError(t, h.svc.SetMode(mode))
		assert.Equal(t, mode, h.svc.Mode())
	}
	assert.Equal(t, before+len(domain.VisualizationModes()), h.surface.Frames())

	assert.Error(t, h.svc.SetMode("spiral"))
	assert.Equal(t, domain.ModeCircle, h.svc.Mode())
}

func TestWaveformService_OutputSettings(t *testing.T) {
	h := newHarness(t, Config{})

	require.NoError(t, h.svc.SetVolume(0.25))
	require.NoError(t, h.svc.SetMuted(true))
	require.NoError(t, h.svc.SetRate(1.5))
	assert.ErrorIs(t, h.svc.SetVolume(-1), domain.ErrInvalidVolume)

	state := h.svc.State()
	assert.InDelta(t, 0.25, state.Volume, 1e-9)
	assert.True(t, state.Muted)
	assert.InDelta(t, 1.5, state.Rate, 1e-9)
}

func TestWaveformService_Unsubscribe(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)

	calls := 0
	id := h.svc.OnDurationChange(func(time.Duration) { calls++ })
	h.svc.Unsubscribe(id)

	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))
	assert.Zero(t, calls)
}

func TestWaveformService_Shutdown(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newHarness(t, Config{Budget: 50 * time.Millisecond, Mode: domain.ModeLine})
	h.addSine(t, "a.wav", 10)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))
	require.NoError(t, h.svc.Play())

	for i := 0; i < 5; i++ {
		h.now.Advance(20 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, h.svc.Shutdown())
	assert.Equal(t, domain.StateIdle, h.svc.SchedulerState())
	assert.Zero(t, h.svc.LiveGraphs())
	assert.False(t, h.scheduler.Running())
}
