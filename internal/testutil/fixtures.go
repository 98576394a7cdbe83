package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV encodes de-interleaved float channels as a 16-bit PCM WAV file
// and returns its bytes.
func EncodeWAV(tb testing.TB, sampleRate int, channels [][]float32) []byte {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create fixture: %v", err)
	}

	numChans := len(channels)
	frames := 0
	if numChans > 0 {
		frames = len(channels[0])
	}

	data := make([]int, frames*numChans)
	for ch, samples := range channels {
		for i, s := range samples {
			v := math.Max(-1, math.Min(1, float64(s)))
			data[i*numChans+ch] = int(math.Round(v * 32767))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		tb.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		tb.Fatalf("finalise fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("close fixture: %v", err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture: %v", err)
	}
	return out
}

// Sine returns seconds of a mono sine wave.
func Sine(sampleRate int, seconds, freq, amp float64) []float32 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// SineWAV returns the bytes of a mono 16-bit sine WAV.
func SineWAV(tb testing.TB, sampleRate int, seconds, freq float64) []byte {
	tb.Helper()
	return EncodeWAV(tb, sampleRate, [][]float32{Sine(sampleRate, seconds, freq, 0.5)})
}

// SilentWAV returns the bytes of a mono 16-bit WAV of digital silence.
func SilentWAV(tb testing.TB, sampleRate int, seconds float64) []byte {
	tb.Helper()
	return EncodeWAV(tb, sampleRate, [][]float32{make([]float32, int(float64(sampleRate)*seconds))})
}
