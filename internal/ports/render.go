package ports

import (
	"github.com/tejashwikalptaru/wavesync/internal/render"
)

// RenderSurface is a 2D raster target owned by the host UI.
// Only the render loop scheduler writes to it, from inside its tick.
type RenderSurface interface {
	// Size returns the current pixel dimensions.
	Size() (width, height int)

	// Present replaces the surface contents with the given draw list.
	Present(list render.DrawList)
}
