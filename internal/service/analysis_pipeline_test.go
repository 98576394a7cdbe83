package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/render"
	"github.com/tejashwikalptaru/wavesync/internal/testutil"
)

// barsAt binds a 10 s mono sine, seeks to position and returns the 64 bar
// magnitudes of the frequency frame there.
func barsAt(t *testing.T, position time.Duration) []float64 {
	t.Helper()
	h := newHarness(t, Config{})
	h.addSine(t, "tone.wav", 10)

	_, err := h.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)
	require.NoError(t, h.clock.Seek(position))

	frame, err := h.pipeline.NextFrame(domain.ModeBars.AnalysisMode(), 2048)
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyDomain, frame.Kind)
	require.Equal(t, 1024, frame.Len())

	return analysis.Average(frame.Values, render.DefaultBarCount)
}

func TestAnalysisPipeline_BarsAreDeterministic(t *testing.T) {
	first := barsAt(t, 5*time.Second)
	second := barsAt(t, 5*time.Second)

	require.Len(t, first, 64)
	for _, v := range first {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 255.0)
	}
	assert.Equal(t, first, second)

	// 440 Hz at 44.1 kHz with 2048 points lands in bin 20, inside the second bar.
	peak := 0
	for i, v := range first {
		if v > first[peak] {
			peak = i
		}
	}
	assert.Equal(t, 1, peak)
}

func TestAnalysisPipeline_TimeDomain(t *testing.T) {
	h := newHarness(t, Config{})
	h.fetcher.add("half.wav", testutil.EncodeWAV(t, 8000, [][]float32{constant(8000, 0.5)}))

	_, err := h.lifecycle.Bind(context.Background(), "half.wav")
	require.NoError(t, err)
	require.NoError(t, h.clock.Seek(500*time.Millisecond))

	frame, err := h.pipeline.NextFrame(domain.TimeDomain, 256)
	require.NoError(t, err)
	require.Equal(t, 256, frame.Len())
	for _, v := range frame.Values {
		assert.InDelta(t, 192, int(v), 1)
	}
}

func TestAnalysisPipeline_ZeroPadsNearStart(t *testing.T) {
	h := newHarness(t, Config{})
	h.fetcher.add("half.wav", testutil.EncodeWAV(t, 8000, [][]float32{constant(8000, 0.5)}))

	_, err := h.lifecycle.Bind(context.Background(), "half.wav")
	require.NoError(t, err)

	// 10 ms in: only the last 80 samples exist.
	require.NoError(t, h.clock.Seek(10*time.Millisecond))
	frame, err := h.pipeline.NextFrame(domain.TimeDomain, 256)
	require.NoError(t, err)
	assert.Equal(t, domain.TimeDomainZero, frame.Values[0])
	assert.Equal(t, domain.TimeDomainZero, frame.Values[175])
	assert.InDelta(t, 192, int(frame.Values[176]), 1)
	assert.InDelta(t, 192, int(frame.Values[255]), 1)
}

func TestAnalysisPipeline_SilenceIsFlat(t *testing.T) {
	h := newHarness(t, Config{})
	h.fetcher.add("silence.wav", testutil.SilentWAV(t, testSampleRate, 1))

	_, err := h.lifecycle.Bind(context.Background(), "silence.wav")
	require.NoError(t, err)

	frame, err := h.pipeline.NextFrame(domain.TimeDomain, 2048)
	require.NoError(t, err)
	for _, v := range frame.Values {
		assert.Equal(t, domain.TimeDomainZero, v)
	}

	frame, err = h.pipeline.NextFrame(domain.FrequencyDomain, 2048)
	require.NoError(t, err)
	for _, v := range frame.Values {
		assert.Zero(t, v)
	}
}

func TestAnalysisPipeline_Errors(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.pipeline.NextFrame(domain.TimeDomain, 256)
	assert.ErrorIs(t, err, domain.ErrNoAssetBound)

	h.addSine(t, "tone.wav", 1)
	_, err = h.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)

	_, err = h.pipeline.NextFrame(domain.TimeDomain, 0)
	assert.Error(t, err)
	_, err = h.pipeline.NextFrame(domain.FrequencyDomain, 1000)
	assert.Error(t, err)
}

func TestAnalysisPipeline_Budget(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newHarness(t, Config{Budget: time.Second})
	h.addSine(t, "tone.wav", 2)

	_, err := h.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)
	require.NoError(t, h.clock.Seek(time.Second))

	budgeted, err := h.pipeline.NextFrame(domain.FrequencyDomain, 2048)
	require.NoError(t, err)
	require.Equal(t, 1024, budgeted.Len())

	// A generous budget gives the same first frame as the inline path.
	inline := newHarness(t, Config{})
	inline.addSine(t, "tone.wav", 2)
	_, err = inline.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)
	require.NoError(t, inline.clock.Seek(time.Second))
	want, err := inline.pipeline.NextFrame(domain.FrequencyDomain, 2048)
	require.NoError(t, err)
	assert.Equal(t, want.Values, budgeted.Values)

	h.pipeline.Close()
	late, skipped := h.pipeline.Stats()
	assert.Zero(t, late)
	assert.Zero(t, skipped)
}

func TestAnalysisPipeline_MissedBudgetReturnsPreviousFrame(t *testing.T) {
	h := newHarness(t, Config{Budget: time.Nanosecond})
	h.addSine(t, "tone.wav", 2)

	_, err := h.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)

	// Whatever the worker manages, every frame is well formed.
	for i := 0; i < 10; i++ {
		frame, err := h.pipeline.NextFrame(domain.FrequencyDomain, 2048)
		require.NoError(t, err)
		assert.Equal(t, 1024, frame.Len())
	}
	h.pipeline.Close()
}

func TestAnalysisPipeline_LateResultBecomesPreviousFrame(t *testing.T) {
	h := newHarness(t, Config{Budget: time.Nanosecond})
	h.addSine(t, "tone.wav", 2)

	_, err := h.lifecycle.Bind(context.Background(), "tone.wav")
	require.NoError(t, err)
	require.NoError(t, h.clock.Seek(time.Second))

	// Every transform overruns a nanosecond, yet the spectrum still shows up.
	require.Eventually(t, func() bool {
		frame, err := h.pipeline.NextFrame(domain.FrequencyDomain, 2048)
		if err != nil {
			return false
		}
		late, _ := h.pipeline.Stats()
		return late > 0 && hasEnergy(frame)
	}, 2*time.Second, time.Millisecond)

	h.pipeline.Close()
}

func hasEnergy(frame domain.FeatureFrame) bool {
	for _, v := range frame.Values {
		if v > 0 {
			return true
		}
	}
	return false
}

func constant(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
