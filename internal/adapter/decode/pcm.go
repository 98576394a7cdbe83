package decode

import (
	"fmt"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// fullScale returns the magnitude of the most negative sample for a bit depth.
func fullScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}

// deinterleaveInts converts interleaved integer PCM into float channels.
// offset is subtracted before scaling (128 for unsigned 8-bit WAV, otherwise 0).
func deinterleaveInts(data []int, numChans, bitDepth, offset int) ([][]float32, error) {
	if numChans <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", numChans)
	}
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	frames := len(data) / numChans
	channels := make([][]float32, numChans)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			channels[ch][i] = float32(data[i*numChans+ch]-offset) / scale
		}
	}
	return channels, nil
}

// deinterleaveFloats splits interleaved float samples into channels.
func deinterleaveFloats(data []float32, numChans int) [][]float32 {
	frames := len(data) / numChans
	channels := make([][]float32, numChans)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			channels[ch][i] = data[i*numChans+ch]
		}
	}
	return channels
}

func newBuffer(sampleRate int, channels [][]float32) (*domain.PCMBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	buf := domain.NewPCMBuffer(sampleRate, channels)
	if buf.Frames() == 0 {
		return nil, domain.ErrEmptyBuffer
	}
	return buf, nil
}
