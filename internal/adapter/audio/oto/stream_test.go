package oto

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

func decodeFrames(p []byte) [][2]float32 {
	out := make([][2]float32, len(p)/frameBytes)
	for i := range out {
		out[i][0] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*frameBytes:]))
		out[i][1] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*frameBytes+4:]))
	}
	return out
}

func TestStream_MonoIsDuplicated(t *testing.T) {
	buf := domain.NewPCMBuffer(100, [][]float32{{0.1, 0.2, 0.3, 0.4}})
	s := newStream(buf, 100)

	p := make([]byte, 16*frameBytes)
	n, err := s.Read(p)
	require.NoError(t, err)
	require.Equal(t, 4*frameBytes, n)

	frames := decodeFrames(p[:n])
	for i, want := range []float32{0.1, 0.2, 0.3, 0.4} {
		assert.InDelta(t, want, frames[i][0], 1e-6)
		assert.InDelta(t, want, frames[i][1], 1e-6)
	}

	_, err = s.Read(p)
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, s.exhausted())
}

func TestStream_UpsamplesCubic(t *testing.T) {
	buf := domain.NewPCMBuffer(50, [][]float32{{0, 1, 0}, {1, 0, 1}})
	s := newStream(buf, 100)

	p := make([]byte, 4*frameBytes)
	n, err := s.Read(p)
	require.NoError(t, err)

	frames := decodeFrames(p[:n])
	// Halfway between the first two frames, edges repeated.
	assert.InDelta(t, 0.5625, frames[1][0], 1e-6)
	assert.InDelta(t, 0.4375, frames[1][1], 1e-6)
	// Source frames are passed through exactly.
	assert.InDelta(t, 1.0, frames[2][0], 1e-6)
	assert.InDelta(t, 0.0, frames[2][1], 1e-6)
}

func TestCubic_HitsKnots(t *testing.T) {
	assert.InDelta(t, 0.3, cubic(0.1, 0.3, 0.7, 0.2, 0), 1e-6)
	assert.InDelta(t, 0.7, cubic(0.1, 0.3, 0.7, 0.2, 1), 1e-6)
	// A straight line stays straight.
	assert.InDelta(t, 1.5, cubic(0, 1, 2, 3, 0.5), 1e-6)
}

func TestStream_LowPassWhileDecimating(t *testing.T) {
	buf := domain.NewPCMBuffer(100, [][]float32{{1, 1, -1, -1, -1, -1, -1, -1}})
	s := newStream(buf, 100)
	s.setRate(2)

	p := make([]byte, 3*frameBytes)
	n, err := s.Read(p)
	require.NoError(t, err)

	frames := decodeFrames(p[:n])
	assert.InDelta(t, 1.0, frames[0][0], 1e-6)
	assert.InDelta(t, 0.0, frames[1][0], 1e-6)
	assert.InDelta(t, -0.5, frames[2][0], 1e-6)

	// A seek restarts the filter from the new position.
	_, err = s.Seek(2*frameBytes, io.SeekStart)
	require.NoError(t, err)
	n, err = s.Read(p[:frameBytes])
	require.NoError(t, err)
	assert.InDelta(t, -1.0, decodeFrames(p[:n])[0][0], 1e-6)

	// At normal speed samples pass unfiltered.
	s.setRate(1)
	_, _ = s.Seek(0, io.SeekStart)
	n, err = s.Read(p)
	require.NoError(t, err)
	frames = decodeFrames(p[:n])
	assert.InDelta(t, 1.0, frames[1][0], 1e-6)
	assert.InDelta(t, -1.0, frames[2][0], 1e-6)
}

func TestStream_SeekAndPosition(t *testing.T) {
	buf := domain.NewPCMBuffer(100, [][]float32{make([]float32, 100)})
	s := newStream(buf, 100)

	off, err := s.Seek(40*frameBytes, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(40*frameBytes), off)

	p := make([]byte, 10*frameBytes)
	_, _ = s.Read(p)
	assert.InDelta(t, 50, s.position(0), 1e-9)
	// Four frames still queued in the player are not audible yet.
	assert.InDelta(t, 46, s.position(4*frameBytes), 1e-9)

	_, _ = s.Seek(-5*frameBytes, io.SeekCurrent)
	assert.InDelta(t, 45, s.position(0), 1e-9)

	_, _ = s.Seek(-1000, io.SeekStart)
	assert.Zero(t, s.position(0))
}

func TestStream_RateScalesStep(t *testing.T) {
	buf := domain.NewPCMBuffer(100, [][]float32{make([]float32, 100)})
	s := newStream(buf, 100)
	s.setRate(2)

	p := make([]byte, 10*frameBytes)
	_, _ = s.Read(p)
	assert.InDelta(t, 20, s.position(0), 1e-9)
}
