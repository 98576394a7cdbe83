package service

import (
	"context"
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/logger"
)

func newTestPreferenceService(t *testing.T, prefs fyne.Preferences, bus *eventbus.SyncEventBus) *PreferenceService {
	t.Helper()
	service := NewPreferenceService(
		logger.NewTestLogger(),
		memory.NewPreferencesRepository(prefs),
		memory.NewHistoryRepository(prefs, memory.DefaultHistorySize),
		bus,
		domain.ModeClassic,
	)
	t.Cleanup(func() { _ = service.Shutdown() })
	return service
}

func TestPreferenceService_Defaults(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	service := newTestPreferenceService(t, app.Preferences(), eventbus.NewSyncEventBus())

	prefs := service.Preferences()
	assert.Equal(t, domain.ModeClassic, prefs.Mode)
	assert.Equal(t, 1.0, prefs.Volume)
	assert.False(t, prefs.Muted)
	assert.Empty(t, prefs.LastURL)
	assert.Empty(t, service.Recent())
}

func TestPreferenceService_FollowsEvents(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	bus := eventbus.NewSyncEventBus()

	service := newTestPreferenceService(t, app.Preferences(), bus)

	bus.Publish(domain.NewModeChangedEvent(domain.ModeCircle))
	bus.Publish(domain.NewVolumeChangedEvent(0.3))
	bus.Publish(domain.NewMuteToggledEvent(true))
	bus.Publish(domain.NewAssetLoadedEvent(&domain.AudioAsset{
		URL:    "https://cdn.example.com/a.wav",
		Buffer: domain.NewPCMBuffer(8000, [][]float32{make([]float32, 8000)}),
		Info:   domain.AssetInfo{Title: "First Light"},
	}))

	prefs := service.Preferences()
	assert.Equal(t, domain.ModeCircle, prefs.Mode)
	assert.Equal(t, 0.3, prefs.Volume)
	assert.True(t, prefs.Muted)
	assert.Equal(t, "https://cdn.example.com/a.wav", prefs.LastURL)

	assert.Equal(t, []domain.RecentAsset{{URL: "https://cdn.example.com/a.wav", Title: "First Light"}}, service.Recent())
}

func TestPreferenceService_Persistence(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	bus := eventbus.NewSyncEventBus()

	first := newTestPreferenceService(t, app.Preferences(), bus)
	bus.Publish(domain.NewModeChangedEvent(domain.ModeBars))
	bus.Publish(domain.NewVolumeChangedEvent(0.6))
	require.NoError(t, first.Shutdown())

	// After shutdown the first service no longer follows the bus.
	bus.Publish(domain.NewVolumeChangedEvent(0.1))
	assert.Equal(t, 0.6, first.Preferences().Volume)

	second := newTestPreferenceService(t, app.Preferences(), bus)
	prefs := second.Preferences()
	assert.Equal(t, domain.ModeBars, prefs.Mode)
	assert.Equal(t, 0.6, prefs.Volume)
}

func TestPreferenceService_Apply(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	h := newHarness(t, Config{})
	service := newTestPreferenceService(t, app.Preferences(), h.bus)

	require.NoError(t, h.svc.SetMode(domain.ModeLine))
	require.NoError(t, h.svc.SetVolume(0.4))
	require.NoError(t, h.svc.SetMuted(true))

	// A fresh engine picks the saved settings back up.
	fresh := newHarness(t, Config{})
	require.NoError(t, service.Apply(fresh.svc))

	assert.Equal(t, domain.ModeLine, fresh.svc.Mode())
	state := fresh.svc.State()
	assert.Equal(t, 0.4, state.Volume)
	assert.True(t, state.Muted)
}

func TestPreferenceService_RecordsLoads(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	h := newHarness(t, Config{})
	h.addSine(t, "a.wav", 1)
	h.addSine(t, "b.wav", 1)
	service := newTestPreferenceService(t, app.Preferences(), h.bus)

	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))
	require.NoError(t, h.svc.Load(context.Background(), "b.wav"))
	require.NoError(t, h.svc.Load(context.Background(), "a.wav"))

	recent := service.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "a.wav", recent[0].URL)
	assert.Equal(t, "b.wav", recent[1].URL)
	assert.Equal(t, "a.wav", service.Preferences().LastURL)
}

func TestPreferenceService_ResetToDefaults(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	bus := eventbus.NewSyncEventBus()

	service := newTestPreferenceService(t, app.Preferences(), bus)
	bus.Publish(domain.NewVolumeChangedEvent(0.2))
	bus.Publish(domain.NewMuteToggledEvent(true))

	require.NoError(t, service.ResetToDefaults())

	prefs := service.Preferences()
	assert.Equal(t, 1.0, prefs.Volume)
	assert.False(t, prefs.Muted)
	assert.Empty(t, service.Recent())
}

func TestPreferenceService_ConcurrentEvents(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	bus := eventbus.NewSyncEventBus()

	service := newTestPreferenceService(t, app.Preferences(), bus)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				bus.Publish(domain.NewVolumeChangedEvent(float64(i) / 20))
			} else {
				_ = service.Preferences()
			}
		}(i)
	}
	wg.Wait()

	volume := service.Preferences().Volume
	assert.GreaterOrEqual(t, volume, 0.0)
	assert.LessOrEqual(t, volume, 1.0)
}
