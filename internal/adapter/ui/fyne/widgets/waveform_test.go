package widgets

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

func flatFrame(n int) domain.FeatureFrame {
	return domain.FeatureFrame{Kind: domain.FrequencyDomain, Values: make([]uint8, n)}
}

func TestWaveform_SurfacePresent(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	w := NewWaveform(120, 40)
	surface := w.Surface()

	width, height := surface.Size()
	assert.Equal(t, 120, width)
	assert.Equal(t, 40, height)
	assert.Zero(t, w.Frames())

	surface.Present(render.Render(render.Input{
		Mode:   domain.ModeLine,
		Width:  width,
		Height: height,
		Frame:  flatFrame(256),
		State:  domain.PlaybackState{Duration: domain.UnknownDuration},
	}))
	assert.Equal(t, 1, w.Frames())

	img := w.Snapshot()
	require.Equal(t, 120, img.Bounds().Dx())
	require.Equal(t, 40, img.Bounds().Dy())

	// The theme background fills the frame.
	bg := render.DefaultTheme().Background
	r, g, b, _ := img.At(3, 3).RGBA()
	br, bgc, bb, _ := bg.RGBA()
	assert.Equal(t, []uint32{br, bgc, bb}, []uint32{r, g, b})
}

func TestWaveform_GeneratorTracksPixelSize(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	w := NewWaveform(120, 40)

	// Nothing presented yet: a blank image of the requested size.
	img := w.render(300, 100)
	assert.Equal(t, 300, img.Bounds().Dx())

	width, height := w.Surface().Size()
	assert.Equal(t, 300, width)
	assert.Equal(t, 100, height)
}

func TestWaveform_TapSeeks(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	w := NewWaveform(200, 50)
	w.Resize(fyne.NewSize(200, 50))

	var got []float64
	w.SetOnSeek(func(fraction float64) { got = append(got, fraction) })

	test.TapAt(w, fyne.NewPos(0, 10))
	test.TapAt(w, fyne.NewPos(50, 10))
	w.Tapped(&fyne.PointEvent{Position: fyne.NewPos(500, 10)})

	require.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0], 1e-6)
	assert.InDelta(t, 0.25, got[1], 1e-6)
	assert.InDelta(t, 1.0, got[2], 1e-6)
}

func TestWaveform_SecondaryTap(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	w := NewWaveform(200, 50)
	called := false
	w.SetOnSecondaryTap(func(*fyne.PointEvent) { called = true })

	test.TapSecondary(w)
	assert.True(t, called)
}

func TestRecentLabel(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var opened []string
	label := NewRecentLabel(func(url string) { opened = append(opened, url) })

	label.DoubleTapped(nil)
	assert.Empty(t, opened)

	label.SetEntry(domain.RecentAsset{URL: "https://cdn.example.com/a.mp3"})
	assert.Equal(t, "https://cdn.example.com/a.mp3", label.Text)

	label.SetEntry(domain.RecentAsset{URL: "https://cdn.example.com/b.mp3", Title: "Night Drive"})
	assert.Equal(t, "Night Drive", label.Text)

	test.DoubleTap(label)
	assert.Equal(t, []string{"https://cdn.example.com/b.mp3"}, opened)
}
