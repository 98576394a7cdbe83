// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/audio/oto"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/decode"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/fetch"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/wavesync/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/wavesync/internal/config"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/logger"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	fyneApp  fyne.App
	settings config.Config

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine

	// Repositories
	historyRepo     ports.HistoryRepository
	preferencesRepo ports.PreferencesRepository

	// Services
	waveformService   *service.WaveformService
	preferenceService *service.PreferenceService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	initialURL   string
	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Settings are the runtime settings, usually from config.Load
	Settings config.Config

	// InitialURL is loaded once the window is shown (optional)
	InitialURL string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:    "com.wavesync.app",
		AppName:  "WaveSync",
		Settings: config.Load(),
	}
}

// NewLogger builds the application logger from the runtime settings.
func NewLogger(settings config.Config) *slog.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(settings.LogLevel),
		Format: settings.LogFormat,
	})
}

// NewAudioEngine creates and initializes the playback engine: the sound card
// when settings.DeviceAudio is set, otherwise the silent wall-clock engine.
func NewAudioEngine(log *slog.Logger, settings config.Config) (ports.AudioEngine, error) {
	var engine ports.AudioEngine
	if settings.DeviceAudio {
		engine = oto.NewEngine(log)
	} else {
		m := mock.NewEngine()
		m.SetLogger(log.With(slog.String("engine", "clock")))
		engine = m
	}

	if err := engine.Initialize(settings.SampleRate); err != nil {
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	return engine, nil
}

// ServiceConfig maps the runtime settings onto the engine configuration.
func ServiceConfig(settings config.Config) service.Config {
	return service.Config{
		Analysis:  settings.Analysis(),
		Mode:      settings.Mode,
		FrameRate: settings.FrameRate,
		Budget:    settings.AnalysisBudget,
		BarCount:  settings.BarCount,
		CacheSize: settings.CacheSize,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	settings := cfg.Settings
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		settings:   settings,
		initialURL: cfg.InitialURL,
	}

	// Step 1: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 2: Create logger
	app.logger = NewLogger(settings)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("app_name", cfg.AppName),
		slog.Any("build", GetVersionInfo()))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus.SubscribeFiltered(domain.EventError, func(e domain.Event) bool {
		evt, ok := e.(domain.ErrorEvent)
		return ok && !evt.Reason.Retryable()
	}, app.logFatalAssetError)

	// Step 4: Create an audio engine
	engine, err := NewAudioEngine(app.logger, settings)
	if err != nil {
		return nil, err
	}
	app.audioEngine = engine

	// Step 5: Create repositories
	prefs := app.fyneApp.Preferences()
	app.historyRepo = memory.NewHistoryRepository(prefs, memory.DefaultHistorySize)
	app.preferencesRepo = memory.NewPreferencesRepository(prefs)

	// Step 6: Create UI (the waveform widget is the render surface)
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.logger.With(slog.String("component", "ui")), settings.Width, settings.Height)

	// Step 7: Create services (with dependency injection)
	app.waveformService = service.NewWaveformService(
		app.logger,
		fetch.New(app.logger, settings.FetchTimeout, settings.MaxAssetBytes),
		decode.Default(app.logger),
		app.audioEngine,
		app.eventBus,
		app.mainWindow.Surface(),
		ServiceConfig(settings),
	)

	app.preferenceService = service.NewPreferenceService(
		app.logger,
		app.preferencesRepo,
		app.historyRepo,
		app.eventBus,
		settings.Mode,
	)

	// Step 8: Load saved state
	if err := app.preferenceService.Apply(app.waveformService); err != nil {
		// Non-fatal - just log and continue
		app.logger.Warn("failed to apply saved preferences", slog.Any("error", err))
	}

	// Step 9: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.waveformService,
		app.preferenceService,
		app.eventBus,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	// Stop the render loop before the window goes away, whether closed via
	// the menu, the close button or Cmd+Q.
	app.mainWindow.SetOnBeforeClose(func() {
		if err := app.waveformService.Stop(); err != nil {
			app.logger.Warn("failed to stop on close", slog.Any("error", err))
		}
	})

	return app, nil
}

// logFatalAssetError records errors a retry cannot fix.
func (a *Application) logFatalAssetError(e domain.Event) {
	evt := e.(domain.ErrorEvent)
	a.logger.Warn("asset cannot be shown",
		slog.String("url", evt.URL),
		slog.String("reason", string(evt.Reason)),
		slog.Any("error", evt.Error))
}

// Run shows the window and blocks until it is closed.
func (a *Application) Run() error {
	a.logger.Info("WaveSync started")

	if a.initialURL != "" {
		a.presenter.OnLoadRequested(a.initialURL)
	}

	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		// Shutdown services (in reverse order of creation)
		if a.preferenceService != nil {
			if err := a.preferenceService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown preference service", slog.Any("error", err))
			}
		}

		if a.waveformService != nil {
			if err := a.waveformService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown waveform service", slog.Any("error", err))
				shutdownErr = err
			}
		}

		if a.audioEngine != nil {
			if err := a.audioEngine.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
				shutdownErr = err
			}
		}

		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}

		a.logger.Info("application shutdown complete")
	})
	return shutdownErr
}

// GetServices returns the application services.
func (a *Application) GetServices() (*service.WaveformService, *service.PreferenceService) {
	return a.waveformService, a.preferenceService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// GetMainWindow returns the main window.
func (a *Application) GetMainWindow() *fyneui.MainWindow {
	return a.mainWindow
}

// GetPresenter returns the presenter.
func (a *Application) GetPresenter() *fyneui.Presenter {
	return a.presenter
}
