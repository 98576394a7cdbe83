// Package analysis turns sample windows into feature frames.
// Everything here is pure or owns only per-graph smoothing state; the
// service layer decides when and on which goroutine it runs.
package analysis

import (
	"fmt"
	"math"
)

// Hann is a periodic Hann window. Periodic windows are what spectral
// analysers use, the symmetric variant is for filter design.
type Hann struct {
	coefficients []float64
}

// NewHann creates a window of the given size.
func NewHann(size int) *Hann {
	h := &Hann{coefficients: make([]float64, size)}
	for i := range size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return h
}

// Size returns the window length.
func (h *Hann) Size() int {
	return len(h.coefficients)
}

// Apply writes the windowed samples into dst, which must have the window's length.
func (h *Hann) Apply(dst []float64, samples []float32) error {
	if len(samples) != len(h.coefficients) || len(dst) != len(h.coefficients) {
		return fmt.Errorf("window size %d does not match signal length %d", len(h.coefficients), len(samples))
	}
	for i, s := range samples {
		dst[i] = float64(s) * h.coefficients[i]
	}
	return nil
}
