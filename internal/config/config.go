// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Surface
	Width  int
	Height int
	Mode   domain.VisualizationMode

	// Analysis
	FFTSize        int
	Smoothing      float64
	AnalysisBudget time.Duration // zero computes inline
	BarCount       int
	FrameRate      int

	// Loading
	FetchTimeout  time.Duration
	MaxAssetBytes int64
	CacheSize     int // decoded assets kept in memory

	// Playback
	DeviceAudio bool // play through the sound card instead of the silent clock
	SampleRate  int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Width:  envInt("WAVESYNC_WIDTH", 900),
		Height: envInt("WAVESYNC_HEIGHT", 300),
		Mode:   domain.VisualizationMode(strings.ToLower(envStr("WAVESYNC_MODE", string(domain.ModeClassic)))),

		FFTSize:        envInt("WAVESYNC_FFT_SIZE", 2048),
		Smoothing:      envFloat("WAVESYNC_SMOOTHING", 0.8),
		AnalysisBudget: envDuration("WAVESYNC_ANALYSIS_BUDGET", 0),
		BarCount:       envInt("WAVESYNC_BAR_COUNT", 64),
		FrameRate:      envInt("WAVESYNC_FRAME_RATE", 60),

		FetchTimeout:  envDuration("WAVESYNC_FETCH_TIMEOUT", 30*time.Second),
		MaxAssetBytes: int64(envInt("WAVESYNC_MAX_ASSET_BYTES", 256<<20)),
		CacheSize:     envInt("WAVESYNC_CACHE_SIZE", 0),

		DeviceAudio: envBool("WAVESYNC_DEVICE_AUDIO", false),
		SampleRate:  envInt("WAVESYNC_SAMPLE_RATE", 44100),

		LogLevel:  envStr("WAVESYNC_LOG_LEVEL", "INFO"),
		LogFormat: envStr("WAVESYNC_LOG_FORMAT", "text"),
	}
}

// Analysis returns the analyzer settings.
func (c Config) Analysis() analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.FFTSize = c.FFTSize
	cfg.Smoothing = c.Smoothing
	return cfg
}

// Validate reports every setting that is out of range.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("surface size must be positive, got %dx%d", c.Width, c.Height))
	}
	if _, err := domain.ParseVisualizationMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if err := c.Analysis().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.AnalysisBudget < 0 {
		errs = append(errs, fmt.Errorf("analysis budget must not be negative, got %s", c.AnalysisBudget))
	}
	if c.BarCount <= 0 {
		errs = append(errs, fmt.Errorf("bar count must be positive, got %d", c.BarCount))
	}
	if c.FrameRate <= 0 || c.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("frame rate must be in [1, 240], got %d", c.FrameRate))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.MaxAssetBytes <= 0 {
		errs = append(errs, fmt.Errorf("max asset bytes must be positive, got %d", c.MaxAssetBytes))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache size must not be negative, got %d", c.CacheSize))
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample rate must be in [8000, 192000], got %d", c.SampleRate))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("250ms") or whole seconds ("30").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
