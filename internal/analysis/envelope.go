package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Envelope computes the min/max peak of each pixel column over the whole buffer.
// Columns that cover no samples (more columns than samples) reuse the nearest sample.
func Envelope(samples []float32, columns int) []domain.Peak {
	if columns <= 0 {
		return nil
	}
	peaks := make([]domain.Peak, columns)
	n := len(samples)
	if n == 0 {
		return peaks
	}

	scratch := make([]float64, 0, n/columns+1)
	for c := range columns {
		start := c * n / columns
		end := (c + 1) * n / columns
		if end <= start {
			end = start + 1
		}
		if start >= n {
			start, end = n-1, n
		}

		scratch = scratch[:0]
		for _, s := range samples[start:end] {
			scratch = append(scratch, float64(s))
		}
		peaks[c] = domain.Peak{
			Min: float32(floats.Min(scratch)),
			Max: float32(floats.Max(scratch)),
		}
	}
	return peaks
}

// Average partitions values into parts equal ranges and returns the mean of each,
// in the same [0, 255] range as the input.
func Average(values []uint8, parts int) []float64 {
	if parts <= 0 {
		return nil
	}
	out := make([]float64, parts)
	n := len(values)
	if n == 0 {
		return out
	}

	scratch := make([]float64, 0, n/parts+1)
	for p := range parts {
		start := p * n / parts
		end := (p + 1) * n / parts
		if end <= start {
			end = start + 1
		}
		if start >= n {
			start, end = n-1, n
		}

		scratch = scratch[:0]
		for _, v := range values[start:end] {
			scratch = append(scratch, float64(v))
		}
		out[p] = stat.Mean(scratch, nil)
	}
	return out
}
