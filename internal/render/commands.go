// Package render maps feature frames onto draw commands.
//
// Every strategy is a pure function of its inputs: no state survives between
// calls, and nothing here touches a real surface. Adapters (raster, fyne)
// replay a DrawList onto pixels.
package render

import (
	"image/color"
)

// Op is a draw operation.
type Op int

const (
	// OpClear fills the whole surface with the style colour
	OpClear Op = iota
	// OpFillRect fills Rect
	OpFillRect
	// OpStrokePath strokes Path with the style colour and line width
	OpStrokePath
	// OpFillPath fills the closed Path
	OpFillPath
)

// Layer tags what a command draws.
type Layer string

// Layers in drawing order.
const (
	LayerBackground Layer = "background"
	LayerWaveform   Layer = "waveform"
	LayerMarker     Layer = "marker"
)

// SegmentKind is the kind of a path segment.
type SegmentKind int

const (
	MoveTo SegmentKind = iota
	LineTo
	// QuadTo draws a quadratic curve through control point (CX, CY) to (X, Y)
	QuadTo
)

// Segment is one element of a path.
type Segment struct {
	Kind   SegmentKind
	X, Y   float64
	CX, CY float64
}

// Path is a sequence of segments, optionally closed back to its start.
type Path struct {
	Segments []Segment
	Closed   bool
}

// MoveTo starts a new sub-path.
func (p *Path) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Kind: MoveTo, X: x, Y: y})
}

// LineTo adds a straight segment.
func (p *Path) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Kind: LineTo, X: x, Y: y})
}

// QuadTo adds a quadratic curve.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Segments = append(p.Segments, Segment{Kind: QuadTo, X: x, Y: y, CX: cx, CY: cy})
}

// Points returns the end point of every segment.
func (p Path) Points() [][2]float64 {
	pts := make([][2]float64, len(p.Segments))
	for i, s := range p.Segments {
		pts[i] = [2]float64{s.X, s.Y}
	}
	return pts
}

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}

// Style holds paint settings for a command.
type Style struct {
	Color     color.RGBA
	LineWidth float64
}

// Command is one draw call.
type Command struct {
	Op    Op
	Layer Layer
	Style Style
	Rect  Rect
	Path  Path
}

// DrawList is the complete output for one frame.
type DrawList struct {
	Width    int
	Height   int
	Commands []Command
}

// Layer returns the commands tagged with the given layer.
func (l DrawList) Layer(layer Layer) []Command {
	var out []Command
	for _, c := range l.Commands {
		if c.Layer == layer {
			out = append(out, c)
		}
	}
	return out
}

// Theme is the colour scheme used by every strategy.
type Theme struct {
	Background color.RGBA
	Waveform   color.RGBA
	Fill       color.RGBA
	Marker     color.RGBA
}

// DefaultTheme matches the storefront player: dark canvas, violet waveform, red marker.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 0x11, G: 0x11, B: 0x18, A: 0xff},
		Waveform:   color.RGBA{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
		Fill:       color.RGBA{R: 0x8b, G: 0x5c, B: 0xf6, A: 0x66},
		Marker:     color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	}
}
