// Package widgets provides custom Fyne widgets for the WaveSync application.
package widgets

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/raster"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

// Waveform is a widget that shows the frames drawn by the render loop.
//
// The scheduler draws into Surface(); the widget keeps the latest draw list
// and rasterizes it whenever Fyne asks the raster for pixels. A primary tap
// seeks to the tapped fraction of the width, a secondary tap hands the event
// to the owner (mode menu).
type Waveform struct {
	widget.BaseWidget

	raster *canvas.Raster
	minW   float32
	minH   float32

	mu     sync.RWMutex
	list   render.DrawList
	width  int
	height int
	frames int

	onSeek         func(fraction float64)
	onSecondaryTap func(*fyne.PointEvent)
}

// NewWaveform creates a waveform widget whose surface starts at width x height pixels.
func NewWaveform(width, height int) *Waveform {
	w := &Waveform{
		minW:   float32(width) / 3,
		minH:   float32(height) / 3,
		width:  width,
		height: height,
	}
	w.raster = canvas.NewRaster(w.render)
	w.ExtendBaseWidget(w)
	return w
}

// CreateRenderer implements fyne.Widget.
func (w *Waveform) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.raster)
}

// MinSize returns the minimum size of the widget.
func (w *Waveform) MinSize() fyne.Size {
	return fyne.NewSize(w.minW, w.minH)
}

// SetOnSeek sets the callback for primary taps. fraction is in [0, 1].
func (w *Waveform) SetOnSeek(fn func(fraction float64)) {
	w.onSeek = fn
}

// SetOnSecondaryTap sets the callback for right clicks.
func (w *Waveform) SetOnSecondaryTap(fn func(*fyne.PointEvent)) {
	w.onSecondaryTap = fn
}

// Tapped implements fyne.Tappable.
func (w *Waveform) Tapped(pe *fyne.PointEvent) {
	if w.onSeek == nil {
		return
	}
	width := w.Size().Width
	if width <= 0 {
		return
	}
	fraction := float64(pe.Position.X / width)
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	w.onSeek(fraction)
}

// TappedSecondary implements fyne.SecondaryTappable.
func (w *Waveform) TappedSecondary(pe *fyne.PointEvent) {
	if w.onSecondaryTap != nil {
		w.onSecondaryTap(pe)
	}
}

// Cursor implements desktop.Cursorable.
func (w *Waveform) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

// Surface returns the render target backed by this widget.
func (w *Waveform) Surface() ports.RenderSurface {
	return (*waveformSurface)(w)
}

// Frames returns how many draw lists have been presented.
func (w *Waveform) Frames() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frames
}

// Snapshot rasterizes the latest frame at the surface size.
func (w *Waveform) Snapshot() *image.RGBA {
	w.mu.RLock()
	list := w.list
	w.mu.RUnlock()
	return raster.Rasterize(list)
}

// render is the raster generator. The pixel size Fyne asks for becomes the
// surface size, so the next frame is laid out for it.
func (w *Waveform) render(width, height int) image.Image {
	w.mu.Lock()
	if width > 0 && height > 0 {
		w.width, w.height = width, height
	}
	list := w.list
	w.mu.Unlock()

	if list.Width <= 0 || list.Height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return raster.Rasterize(list)
}

// waveformSurface exposes the widget as a ports.RenderSurface without
// clashing with fyne.CanvasObject's Size.
type waveformSurface Waveform

func (s *waveformSurface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *waveformSurface) Present(list render.DrawList) {
	s.mu.Lock()
	s.list = list
	s.frames++
	s.mu.Unlock()

	r := s.raster
	fyne.Do(r.Refresh)
}

var (
	_ fyne.Tappable          = (*Waveform)(nil)
	_ fyne.SecondaryTappable = (*Waveform)(nil)
	_ desktop.Cursorable     = (*Waveform)(nil)
	_ ports.RenderSurface    = (*waveformSurface)(nil)
)
