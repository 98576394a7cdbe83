package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Config holds analyser parameters. The defaults mirror a browser
// AnalyserNode so frames look the same as the web player's.
type Config struct {
	// FFTSize is the transform length; frequency frames have FFTSize/2 bins
	FFTSize int

	// Smoothing is the temporal smoothing time constant in [0, 1)
	Smoothing float64

	// MinDecibels maps to byte value 0
	MinDecibels float64

	// MaxDecibels maps to byte value 255
	MaxDecibels float64
}

// DefaultConfig returns fftSize 2048, smoothing 0.8 and a [-100, -30] dB range.
func DefaultConfig() Config {
	return Config{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !IsPowerOfTwo(c.FFTSize) || c.FFTSize < 32 || c.FFTSize > 32768 {
		return fmt.Errorf("fft size must be a power of two in [32, 32768], got %d", c.FFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in [0, 1), got %g", c.Smoothing)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels (%g) must be below max decibels (%g)", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Analyzer holds the per-graph analysis state: cached windows and the
// smoothed spectrum of the previous frame.
//
// An Analyzer is not safe for concurrent use. Spectrum is a free function so
// the transform itself can run off the owning goroutine.
type Analyzer struct {
	cfg      Config
	windows  map[int]*Hann
	previous []float64
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:     cfg,
		windows: make(map[int]*Hann),
	}, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Window returns the cached Hann window for the given size.
func (a *Analyzer) Window(size int) *Hann {
	w, ok := a.windows[size]
	if !ok {
		w = NewHann(size)
		a.windows[size] = w
	}
	return w
}

// Spectrum windows the samples and returns len(samples)/2 linear magnitudes,
// normalised by the transform length. It touches no shared state.
func Spectrum(window *Hann, samples []float32) ([]float64, error) {
	n := len(samples)
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("spectrum length must be a power of two, got %d", n)
	}

	windowed := make([]float64, n)
	if err := window.Apply(windowed, samples); err != nil {
		return nil, err
	}

	bins := fft.FFTReal(windowed)
	mags := make([]float64, n/2)
	for k := range mags {
		mags[k] = cmplx.Abs(bins[k]) / float64(n)
	}
	return mags, nil
}

// Smooth blends the magnitudes with the previous frame:
// prev = tau*prev + (1-tau)*mag. The state resets when the bin count changes.
func (a *Analyzer) Smooth(mags []float64) []float64 {
	if len(a.previous) != len(mags) {
		a.previous = make([]float64, len(mags))
	}

	tau := a.cfg.Smoothing
	out := make([]float64, len(mags))
	for k, m := range mags {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			m = 0
		}
		a.previous[k] = tau*a.previous[k] + (1-tau)*m
		out[k] = a.previous[k]
	}
	return out
}

// Quantize maps linear magnitudes to bytes through the decibel range.
func (a *Analyzer) Quantize(mags []float64) []uint8 {
	out := make([]uint8, len(mags))
	span := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k, m := range mags {
		if m <= 0 {
			continue
		}
		db := 20 * math.Log10(m)
		scaled := math.Floor((db - a.cfg.MinDecibels) * 255 / span)
		out[k] = clampByte(scaled)
	}
	return out
}

// ByteFrequency runs window, transform, smoothing and quantization inline.
func (a *Analyzer) ByteFrequency(samples []float32) ([]uint8, error) {
	mags, err := Spectrum(a.Window(len(samples)), samples)
	if err != nil {
		return nil, err
	}
	return a.Quantize(a.Smooth(mags)), nil
}

// Reset drops the smoothing history and cached windows.
func (a *Analyzer) Reset() {
	a.previous = nil
	clear(a.windows)
}

// TimeDomain converts samples to signed bytes centred on 128:
// round(128 + s*127), clipped. NaN samples read as silence.
func TimeDomain(samples []float32) []uint8 {
	out := make([]uint8, len(samples))
	for i, s := range samples {
		if math.IsNaN(float64(s)) {
			out[i] = domain.TimeDomainZero
			continue
		}
		out[i] = clampByte(math.Round(float64(domain.TimeDomainZero) + float64(s)*127))
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
