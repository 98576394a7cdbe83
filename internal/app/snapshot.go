package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/decode"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/fetch"
	"github.com/tejashwikalptaru/wavesync/internal/adapter/raster"
	"github.com/tejashwikalptaru/wavesync/internal/config"
	"github.com/tejashwikalptaru/wavesync/internal/service"
)

// SnapshotRequest describes a headless render.
type SnapshotRequest struct {
	URL    string
	At     time.Duration // marker position; clamped to the asset
	Output string        // PNG path
}

// Snapshot loads an asset without a window or sound card, seeks to req.At
// and writes the frame the visualizer would show there as a PNG.
func Snapshot(ctx context.Context, log *slog.Logger, settings config.Config, req SnapshotRequest) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log.With(slog.String("component", "eventbus")))
	defer bus.Close()

	engine := mock.NewEngine()
	engine.SetLogger(log.With(slog.String("engine", "clock")))
	if err := engine.Initialize(settings.SampleRate); err != nil {
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	defer engine.Shutdown()

	surface := raster.NewSurface(settings.Width, settings.Height)
	svc := service.NewWaveformService(
		log,
		fetch.New(log, settings.FetchTimeout, settings.MaxAssetBytes),
		decode.Default(log),
		engine,
		bus,
		surface,
		ServiceConfig(settings),
	)
	defer svc.Shutdown()

	if err := svc.Load(ctx, req.URL); err != nil {
		return fmt.Errorf("load %s: %w", req.URL, err)
	}
	if err := svc.Seek(req.At); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	if err := surface.SavePNG(req.Output); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	log.Info("snapshot written",
		slog.String("url", req.URL),
		slog.String("mode", string(svc.Mode())),
		slog.Duration("at", svc.State().CurrentTime),
		slog.String("output", req.Output))
	return nil
}
