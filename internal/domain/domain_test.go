package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason ErrorReason
		retry  bool
	}{
		{"fetch", NewFetchError("http://x/a.wav", 404, nil), ReasonFetch, true},
		{"wrapped fetch", fmt.Errorf("load: %w", NewFetchError("u", 0, errors.New("refused"))), ReasonFetch, true},
		{"decode", NewDecodeError("u", "wav", errors.New("bad header")), ReasonDecode, false},
		{"unsupported", NewUnsupportedFormatError("u", "flac"), ReasonUnsupportedFormat, false},
		{"aborted", NewPlaybackAbortedError(errors.New("device busy")), ReasonPlaybackAborted, true},
		{"other", errors.New("boom"), ReasonUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := ClassifyError(tt.err)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.retry, reason.Retryable())
		})
	}
}

func TestFetchError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewFetchError("http://example.com/a.mp3", 0, cause)

	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	withStatus := NewFetchError("http://example.com/a.mp3", 503, nil)
	assert.Contains(t, withStatus.Error(), "HTTP 503")
}

func TestOutOfRangeError(t *testing.T) {
	err := NewOutOfRangeError(12*time.Second, 10*time.Second)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var target *OutOfRangeError
	require.ErrorAs(t, fmt.Errorf("seek: %w", err), &target)
	assert.Equal(t, 12*time.Second, target.Requested)
}

func TestPlaybackState_Progress(t *testing.T) {
	_, ok := PlaybackState{Duration: UnknownDuration}.Progress()
	assert.False(t, ok)

	_, ok = PlaybackState{Duration: 0}.Progress()
	assert.False(t, ok)

	p, ok := PlaybackState{CurrentTime: 5 * time.Second, Duration: 10 * time.Second}.Progress()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, p, 1e-9)

	p, _ = PlaybackState{CurrentTime: 20 * time.Second, Duration: 10 * time.Second}.Progress()
	assert.InDelta(t, 1.0, p, 1e-9)
}

func TestPCMBuffer(t *testing.T) {
	buf := NewPCMBuffer(4, [][]float32{
		{1, 0.5, 0, -1},
		{0, 0.5, 1, -1},
	})

	assert.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, 4, buf.Frames())
	assert.Equal(t, time.Second, buf.Duration())
	assert.Equal(t, []float32{0.5, 0.5, 0.5, -1}, buf.Mono())
	assert.Equal(t, []float32{1, 0, 0.5, 0.5, 0, 1, -1, -1}, buf.Interleaved())

	assert.Equal(t, 2, buf.FrameAt(500*time.Millisecond))
	assert.Equal(t, 0, buf.FrameAt(-time.Second))
	assert.Equal(t, 4, buf.FrameAt(time.Minute))

	var empty *PCMBuffer
	assert.Equal(t, 0, empty.Frames())
	assert.Nil(t, empty.Mono())
}

func TestParseVisualizationMode(t *testing.T) {
	for _, m := range VisualizationModes() {
		parsed, err := ParseVisualizationMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	parsed, err := ParseVisualizationMode(" Bars ")
	require.NoError(t, err)
	assert.Equal(t, ModeBars, parsed)

	_, err = ParseVisualizationMode("spiral")
	assert.ErrorIs(t, err, ErrUnknownMode)

	assert.Equal(t, TimeDomain, ModeClassic.AnalysisMode())
	assert.Equal(t, FrequencyDomain, ModeCircle.AnalysisMode())
	assert.Equal(t, "Circle", ModeCircle.Title())
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00", FormatTime(0))
	assert.Equal(t, "0:00", FormatTime(UnknownDuration))
	assert.Equal(t, "1:05", FormatTime(65*time.Second))
	assert.Equal(t, "12:00", FormatTime(12*time.Minute+300*time.Millisecond))
}
