package render

import (
	"math"

	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// Input is everything a single frame needs.
type Input struct {
	Mode   domain.VisualizationMode
	Width  int
	Height int

	// Frame is the live feature frame. It is ignored when Static is set.
	Frame domain.FeatureFrame

	// Static selects Classic's full-buffer envelope sub-mode using Peaks.
	Static bool
	Peaks  []domain.Peak

	// State supplies the marker position.
	State domain.PlaybackState

	Options Options
}

// Marker returns the playback-position marker, or nil when the duration is
// unknown or not positive. Circle gets a radial marker at angle progress*2pi;
// every other mode gets a vertical line at progress*width.
func Marker(mode domain.VisualizationMode, state domain.PlaybackState, width, height int, opts Options) []Command {
	progress, ok := state.Progress()
	if !ok {
		return nil
	}

	style := Style{Color: opts.theme().Marker, LineWidth: 2}
	var p Path
	if mode == domain.ModeCircle {
		cx, cy, base, amp := CircleGeometry(width, height)
		angle := progress * 2 * math.Pi
		r := base + amp
		p.MoveTo(cx, cy)
		p.LineTo(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
	} else {
		x := progress * float64(width)
		p.MoveTo(x, 0)
		p.LineTo(x, float64(height))
	}

	return []Command{{Op: OpStrokePath, Layer: LayerMarker, Style: style, Path: p}}
}

// Render runs the strategy for the input's mode and overlays the marker.
// An unknown mode falls back to Classic.
func Render(in Input) DrawList {
	var cmds []Command
	switch in.Mode {
	case domain.ModeBars:
		cmds = Bars(in.Frame, in.Width, in.Height, in.Options)
	case domain.ModeLine:
		cmds = Line(in.Frame, in.Width, in.Height, in.Options)
	case domain.ModeCircle:
		cmds = Circle(in.Frame, in.Width, in.Height, in.Options)
	default:
		if in.Static {
			cmds = ClassicEnvelope(in.Peaks, in.Width, in.Height, in.Options)
		} else {
			cmds = ClassicLive(in.Frame, in.Width, in.Height, in.Options)
		}
	}

	cmds = append(cmds, Marker(in.Mode, in.State, in.Width, in.Height, in.Options)...)
	return DrawList{Width: in.Width, Height: in.Height, Commands: cmds}
}
