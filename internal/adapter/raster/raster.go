// Package raster replays draw lists onto pixels with fogleman/gg.
package raster

import (
	"image"
	"image/draw"
	"io"
	"sync"

	"github.com/fogleman/gg"

	"github.com/tejashwikalptaru/wavesync/internal/ports"
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

// Draw replays list onto dc. Commands run in order; paths are traced
// segment by segment and closed when marked closed.
func Draw(dc *gg.Context, list render.DrawList) {
	for _, c := range list.Commands {
		dc.SetColor(c.Style.Color)
		switch c.Op {
		case render.OpClear:
			dc.Clear()
		case render.OpFillRect:
			if c.Rect.W <= 0 || c.Rect.H <= 0 {
				continue
			}
			dc.DrawRectangle(c.Rect.X, c.Rect.Y, c.Rect.W, c.Rect.H)
			dc.Fill()
		case render.OpStrokePath:
			if trace(dc, c.Path) {
				dc.SetLineWidth(lineWidth(c.Style))
				dc.Stroke()
			}
		case render.OpFillPath:
			if trace(dc, c.Path) {
				dc.Fill()
			}
		}
	}
}

func lineWidth(s render.Style) float64 {
	if s.LineWidth <= 0 {
		return 1
	}
	return s.LineWidth
}

// trace adds the path to dc's current path and reports whether it had any segments.
func trace(dc *gg.Context, p render.Path) bool {
	if len(p.Segments) == 0 {
		return false
	}
	dc.NewSubPath()
	for _, s := range p.Segments {
		switch s.Kind {
		case render.MoveTo:
			dc.MoveTo(s.X, s.Y)
		case render.LineTo:
			dc.LineTo(s.X, s.Y)
		case render.QuadTo:
			dc.QuadraticTo(s.CX, s.CY, s.X, s.Y)
		}
	}
	if p.Closed {
		dc.ClosePath()
	}
	return true
}

// Rasterize renders a list into a fresh RGBA image of the list's size.
func Rasterize(list render.DrawList) *image.RGBA {
	w, h := list.Width, list.Height
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dc := gg.NewContext(w, h)
	Draw(dc, list)
	return toRGBA(dc.Image())
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// Surface is an off-screen render target.
// It keeps the most recently presented frame.
type Surface struct {
	mu     sync.Mutex
	width  int
	height int
	dc     *gg.Context
	frames int
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{
		width:  width,
		height: height,
		dc:     gg.NewContext(width, height),
	}
}

// Size implements ports.RenderSurface.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the surface size; the next frame is drawn at the new size.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.dc = gg.NewContext(width, height)
}

// Present implements ports.RenderSurface.
func (s *Surface) Present(list render.DrawList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list.Width != s.width || list.Height != s.height {
		s.width, s.height = list.Width, list.Height
		s.dc = gg.NewContext(list.Width, list.Height)
	}
	Draw(s.dc, list)
	s.frames++
}

// Frames returns how many frames have been presented.
func (s *Surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Image returns a copy of the current pixels.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

// SavePNG writes the current pixels to path.
func (s *Surface) SavePNG(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.SavePNG(path)
}

// EncodePNG writes the current pixels to w.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.EncodePNG(w)
}

var _ ports.RenderSurface = (*Surface)(nil)
