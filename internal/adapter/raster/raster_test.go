package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

func assertColorNear(t *testing.T, want, got color.RGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 2)
	assert.InDelta(t, want.G, got.G, 2)
	assert.InDelta(t, want.B, got.B, 2)
}

func fullBars() domain.FeatureFrame {
	values := make([]uint8, 128)
	for i := range values {
		values[i] = 255
	}
	return domain.FeatureFrame{Kind: domain.FrequencyDomain, Values: values}
}

func TestRasterize_BackgroundAndBars(t *testing.T) {
	theme := render.DefaultTheme()
	list := render.Render(render.Input{
		Mode:   domain.ModeBars,
		Width:  64,
		Height: 20,
		Frame:  fullBars(),
		Options: render.Options{
			BarCount: 8,
		},
	})

	img := Rasterize(list)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 20, img.Bounds().Dy())

	// Inside the first bar.
	assertColorNear(t, theme.Waveform, img.RGBAAt(2, 10))
	// In the gap after it.
	assertColorNear(t, theme.Background, img.RGBAAt(7, 10))
}

func TestRasterize_EmptyList(t *testing.T) {
	img := Rasterize(render.DrawList{})
	assert.Zero(t, img.Bounds().Dx())
}

func TestSurface_PresentAndSave(t *testing.T) {
	s := NewSurface(100, 40)
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 40, h)

	state := domain.PlaybackState{CurrentTime: 5 * time.Second, Duration: 10 * time.Second}
	s.Present(render.Render(render.Input{Mode: domain.ModeLine, Width: 100, Height: 40, State: state}))
	assert.Equal(t, 1, s.Frames())

	// The marker sits at half width.
	assertColorNear(t, render.DefaultTheme().Marker, s.Image().RGBAAt(50, 5))

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, s.SavePNG(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSurface_FollowsListSize(t *testing.T) {
	s := NewSurface(10, 10)
	s.Present(render.Render(render.Input{Mode: domain.ModeCircle, Width: 30, Height: 20}))
	w, h := s.Size()
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)

	s.Resize(5, 5)
	assert.Equal(t, 5, s.Image().Bounds().Dx())
}
