package render

import (
	"math"

	"github.com/tejashwikalptaru/wavesync/internal/analysis"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
)

// DefaultBarCount is the number of bars drawn in Bars mode.
const DefaultBarCount = 64

// Options tune the strategies. The zero value selects the defaults.
type Options struct {
	Theme    *Theme
	BarCount int
}

func (o Options) theme() Theme {
	if o.Theme == nil {
		return DefaultTheme()
	}
	return *o.Theme
}

func (o Options) barCount() int {
	if o.BarCount <= 0 {
		return DefaultBarCount
	}
	return o.BarCount
}

func background(width, height int, t Theme) Command {
	return Command{
		Op:    OpClear,
		Layer: LayerBackground,
		Style: Style{Color: t.Background},
		Rect:  Rect{W: float64(width), H: float64(height)},
	}
}

// step returns the horizontal distance between n evenly spread points.
func step(width, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(width) / float64(n-1)
}

// ClassicLive draws the live sub-mode as a direct sample-to-y trace,
// y = v/128 * height/2, so a silent frame lies flat at mid-height. The trace
// ends on the centre line at the right edge.
func ClassicLive(frame domain.FeatureFrame, width, height int, opts Options) []Command {
	t := opts.theme()
	cmds := []Command{background(width, height, t)}
	n := frame.Len()
	if n == 0 {
		return append(cmds, baseline(width, height, t))
	}

	mid := float64(height) / 2
	dx := float64(width) / float64(n)
	var p Path
	for i, v := range frame.Values {
		y := float64(v) / float64(domain.TimeDomainZero) * mid
		if i == 0 {
			p.MoveTo(0, y)
			continue
		}
		p.LineTo(float64(i)*dx, y)
	}
	p.LineTo(float64(width), mid)

	return append(cmds,
		Command{Op: OpStrokePath, Layer: LayerWaveform, Style: Style{Color: t.Waveform, LineWidth: 2}, Path: p},
	)
}

// ClassicEnvelope draws the static sub-mode from a pre-computed per-column
// envelope of the whole buffer: max values along the top, min values back
// along the bottom.
func ClassicEnvelope(peaks []domain.Peak, width, height int, opts Options) []Command {
	t := opts.theme()
	cmds := []Command{background(width, height, t)}
	n := len(peaks)
	if n == 0 {
		return append(cmds, baseline(width, height, t))
	}

	mid := float64(height) / 2
	dx := step(width, n)
	var p Path
	for i, pk := range peaks {
		y := mid - clampUnit(float64(pk.Max))*mid
		if i == 0 {
			p.MoveTo(0, y)
			continue
		}
		p.LineTo(float64(i)*dx, y)
	}
	for i := n - 1; i >= 0; i-- {
		p.LineTo(float64(i)*dx, mid-clampUnit(float64(peaks[i].Min))*mid)
	}
	p.Closed = true

	return append(cmds,
		Command{Op: OpFillPath, Layer: LayerWaveform, Style: Style{Color: t.Fill}, Path: p},
		Command{Op: OpStrokePath, Layer: LayerWaveform, Style: Style{Color: t.Waveform, LineWidth: 1}, Path: p},
	)
}

// BarHeights averages the frame into count partitions and scales each average to pixels.
func BarHeights(frame domain.FeatureFrame, count, height int) []float64 {
	avgs := analysis.Average(frame.Values, count)
	for i, a := range avgs {
		avgs[i] = a / 255 * float64(height)
	}
	return avgs
}

// Bars draws count bars anchored at the bottom edge. Each slot is split 4:1
// between bar and gap.
func Bars(frame domain.FeatureFrame, width, height int, opts Options) []Command {
	t := opts.theme()
	count := opts.barCount()
	cmds := make([]Command, 0, count+1)
	cmds = append(cmds, background(width, height, t))

	slot := float64(width) / float64(count)
	barWidth := slot * 4 / 5
	for i, h := range BarHeights(frame, count, height) {
		cmds = append(cmds, Command{
			Op:    OpFillRect,
			Layer: LayerWaveform,
			Style: Style{Color: t.Waveform},
			Rect:  Rect{X: float64(i) * slot, Y: float64(height) - h, W: barWidth, H: h},
		})
	}
	return cmds
}

// Line draws a quadratic-smoothed curve through (x_i, mid - v_i/255*mid):
// each point is used as the control point of a curve ending halfway to the next.
func Line(frame domain.FeatureFrame, width, height int, opts Options) []Command {
	t := opts.theme()
	cmds := []Command{background(width, height, t)}
	n := frame.Len()
	if n < 2 {
		return append(cmds, baseline(width, height, t))
	}

	mid := float64(height) / 2
	dx := step(width, n)
	y := func(i int) float64 { return mid - float64(frame.Values[i])/255*mid }

	var p Path
	p.MoveTo(0, y(0))
	for i := 1; i < n-1; i++ {
		x := float64(i) * dx
		nx := float64(i+1) * dx
		p.QuadTo(x, y(i), (x+nx)/2, (y(i)+y(i+1))/2)
	}
	p.LineTo(float64(n-1)*dx, y(n-1))

	return append(cmds, Command{
		Op:    OpStrokePath,
		Layer: LayerWaveform,
		Style: Style{Color: t.Waveform, LineWidth: 2},
		Path:  p,
	})
}

// CircleGeometry returns the centre, base radius and maximum radius offset
// for a surface. The outer radius base+amp never exceeds half the short side.
func CircleGeometry(width, height int) (cx, cy, base, amp float64) {
	short := math.Min(float64(width), float64(height))
	base = short / 3
	return float64(width) / 2, float64(height) / 2, base, base / 2
}

// Circle maps bin i to angle i/N*2pi at radius base + v/255*amp and closes the loop.
func Circle(frame domain.FeatureFrame, width, height int, opts Options) []Command {
	t := opts.theme()
	cmds := []Command{background(width, height, t)}
	cx, cy, base, amp := CircleGeometry(width, height)

	values := frame.Values
	if len(values) == 0 {
		values = make([]uint8, 64)
	}
	n := float64(len(values))

	var p Path
	for i, v := range values {
		angle := float64(i) / n * 2 * math.Pi
		r := base + float64(v)/255*amp
		x, y := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
		if i == 0 {
			p.MoveTo(x, y)
			continue
		}
		p.LineTo(x, y)
	}
	p.Closed = true

	return append(cmds, Command{
		Op:    OpStrokePath,
		Layer: LayerWaveform,
		Style: Style{Color: t.Waveform, LineWidth: 2},
		Path:  p,
	})
}

func baseline(width, height int, t Theme) Command {
	mid := float64(height) / 2
	var p Path
	p.MoveTo(0, mid)
	p.LineTo(float64(width), mid)
	return Command{Op: OpStrokePath, Layer: LayerWaveform, Style: Style{Color: t.Waveform, LineWidth: 1}, Path: p}
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
