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

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.SchedulerState
		want     bool
	}{
		{domain.StateIdle, domain.StateLoading, true},
		{domain.StateIdle, domain.StatePlaying, false},
		{domain.StateLoading, domain.StateReady, true},
		{domain.StateLoading, domain.StatePlaying, false},
		{domain.StateReady, domain.StatePlaying, true},
		{domain.StateReady, domain.StateEnded, false},
		{domain.StatePlaying, domain.StatePaused, true},
		{domain.StatePlaying, domain.StateEnded, true},
		{domain.StatePaused, domain.StatePlaying, true},
		{domain.StatePaused, domain.StateEnded, false},
		{domain.StateEnded, domain.StatePlaying, true},
		{domain.StateEnded, domain.StatePaused, true},
		{domain.StatePlaying, domain.StateIdle, true},
		{domain.StateEnded, domain.StateLoading, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

// bindAndPlay loads url through the service and starts the clock without
// the ticker goroutine, so tests drive ticks by hand.
func bindAndPlay(t *testing.T, h *harness, url string) {
	t.Helper()
	require.NoError(t, h.svc.Load(context.Background(), url))
	require.NoError(t, h.clock.Play())
	require.True(t, h.scheduler.setState(domain.StatePlaying))
}

func TestScheduler_LoadDrawsStillFrame(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	events := record(h.bus)

	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	assert.Equal(t, domain.StateReady, h.scheduler.State())
	assert.Equal(t, 1, h.surface.Frames())
	assert.False(t, h.scheduler.Running())

	var transitions []domain.SchedulerState
	for _, e := range events.ofType(domain.EventStateChanged) {
		transitions = append(transitions, e.(domain.StateChangedEvent).To)
	}
	assert.Equal(t, []domain.SchedulerState{domain.StateLoading, domain.StateReady}, transitions)
}

func TestScheduler_TickPresentsAndPublishes(t *testing.T) {
	h := newHarness(t, Config{Mode: domain.ModeBars})
	h.addSine(t, "a.wav", 5)
	bindAndPlay(t, h, "a.wav")
	events := record(h.bus)
	before := h.surface.Frames()

	for i := 1; i <= 3; i++ {
		h.now.Advance(100 * time.Millisecond)
		assert.True(t, h.scheduler.Tick())
	}

	assert.Equal(t, before+3, h.surface.Frames())
	updates := events.ofType(domain.EventTimeUpdate)
	require.Len(t, updates, 3)
	assert.Equal(t, 300*time.Millisecond, updates[2].(domain.TimeUpdateEvent).CurrentTime)

	frames, dropped := h.scheduler.Stats()
	assert.GreaterOrEqual(t, frames, uint64(3))
	assert.Zero(t, dropped)
}

func TestScheduler_EndedResetsToStart(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	bindAndPlay(t, h, "a.wav")
	events := record(h.bus)

	h.now.Advance(2 * time.Second)
	assert.False(t, h.scheduler.Tick())

	assert.Equal(t, domain.StateEnded, h.scheduler.State())
	state := h.clock.GetState()
	assert.False(t, state.IsPlaying)
	assert.Zero(t, state.CurrentTime)
	assert.Len(t, events.ofType(domain.EventPlaybackEnded), 1)

	// Playing again from Ended is allowed.
	require.NoError(t, h.clock.Play())
	assert.True(t, h.scheduler.setState(domain.StatePlaying))
}

func TestScheduler_StaleTickIsDropped(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	bindAndPlay(t, h, "a.wav")

	require.NoError(t, h.lifecycle.Unbind())
	before := h.surface.Frames()

	assert.False(t, h.scheduler.Tick())
	assert.Equal(t, before, h.surface.Frames())
	_, dropped := h.scheduler.Stats()
	assert.Equal(t, uint64(1), dropped)
}

func TestScheduler_EngineFailureGoesIdle(t *testing.T) {
	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	bindAndPlay(t, h, "a.wav")

	var (
		mu      sync.Mutex
		reasons []domain.ErrorReason
	)
	h.svc.OnError(func(reason domain.ErrorReason, _ error) {
		mu.Lock()
		reasons = append(reasons, reason)
		mu.Unlock()
	})

	// Pull the source out from under the clock.
	require.NoError(t, h.engine.Unload(h.clock.handle))
	assert.False(t, h.scheduler.Tick())

	assert.Equal(t, domain.StateIdle, h.scheduler.State())
	assert.Zero(t, h.lifecycle.LiveGraphs())
	mu.Lock()
	assert.Equal(t, []domain.ErrorReason{domain.ReasonPlaybackAborted}, reasons)
	mu.Unlock()
}

func TestScheduler_PlayThenUnbind(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newHarness(t, Config{Mode: domain.ModeBars, FrameRate: 240})
	h.addSine(t, "a.wav", 30)
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))
	require.NoError(t, h.svc.Play())
	require.True(t, h.scheduler.Running())

	// Let some ticks land while the clock moves.
	for i := 0; i < 10; i++ {
		h.now.Advance(50 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, h.lifecycle.Unbind())

	// The loop notices the stale token and leaves on its own.
	require.Eventually(t, func() bool { return !h.scheduler.Running() }, time.Second, time.Millisecond)
	h.scheduler.Stop()

	assert.Zero(t, h.lifecycle.LiveGraphs())
	assert.Zero(t, h.engine.Loaded())
}

func TestScheduler_SetMode(t *testing.T) {
	h := newHarness(t, Config{})
	events := record(h.bus)

	h.scheduler.SetMode(domain.ModeCircle)
	h.scheduler.SetMode(domain.ModeCircle)

	assert.Equal(t, domain.ModeCircle, h.scheduler.Mode())
	require.Len(t, events.ofType(domain.EventModeChanged), 1)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	h := newHarness(t, Config{})
	h.scheduler.Stop()
	h.scheduler.Stop()
	assert.False(t, h.scheduler.Running())
}
