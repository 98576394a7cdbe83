// Package main is the production entry point for WaveSync.
//
// WaveSync loads an audio asset, plays it and keeps a live waveform in
// lockstep with playback. Settings come from WAVESYNC_* environment
// variables; flags override them.
//
// Build:
//
//	go build -o build/wavesync ./cmd
//
// Run:
//
//	./build/wavesync -url song.mp3 -mode bars
//	./build/wavesync -url song.wav -out frame.png -at 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/app"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

func main() {
	config := app.DefaultConfig()
	settings := &config.Settings

	var (
		mode    = flag.String("mode", string(settings.Mode), "visualization mode (classic, bars, line, circle)")
		output  = flag.String("out", "", "render a single frame to this PNG and exit")
		at      = flag.Duration("at", 0, "marker position for -out")
		version = flag.Bool("version", false, "print version and exit")
	)
	flag.StringVar(&config.InitialURL, "url", "", "audio file path or http(s) URL to load")
	flag.IntVar(&settings.Width, "width", settings.Width, "surface width in pixels")
	flag.IntVar(&settings.Height, "height", settings.Height, "surface height in pixels")
	flag.BoolVar(&settings.DeviceAudio, "device", settings.DeviceAudio, "play through the sound card")
	flag.Parse()

	if *version {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	parsed, err := domain.ParseVisualizationMode(*mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}
	settings.Mode = parsed

	if *output != "" {
		if err := snapshot(config, *output, *at); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		return
	}

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}

func snapshot(config app.Config, output string, at time.Duration) error {
	if config.InitialURL == "" {
		return fmt.Errorf("-out needs -url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Snapshot(ctx, app.NewLogger(config.Settings), config.Settings, app.SnapshotRequest{
		URL:    config.InitialURL,
		At:     at,
		Output: output,
	})
}
