// Package topo renders climbing lines drawn over crag photos.
//
// Lines are stored as normalized points (fractions of the photo size) and are
// scaled into a viewBox whose area is fixed, so a stroke of a given width looks
// the same on portrait and landscape photos.
package topo

import (
	"math"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// viewBoxArea is width*height for every viewBox; 400x300 at 4:3.
const viewBoxArea = 400.0 * 300.0

// DefaultAspect is used when the photo dimensions are unknown.
const DefaultAspect = 4.0 / 3.0

// Point is an absolute point inside a viewBox.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewBox is the SVG coordinate space topo lines are scaled into.
type ViewBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewBoxFor returns the viewBox for an aspect ratio (width/height).
// width*height stays constant across aspect ratios.
func ViewBoxFor(aspect float64) ViewBox {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = DefaultAspect
	}
	return ViewBox{
		Width:  math.Sqrt(viewBoxArea * aspect),
		Height: math.Sqrt(viewBoxArea / aspect),
	}
}

// AspectRatio derives width/height from photo pixel dimensions.
func AspectRatio(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return DefaultAspect
	}
	return float64(width) / float64(height)
}

// PhotoAspect is AspectRatio for an optional photo.
func PhotoAspect(p *domain.Photo) float64 {
	if p == nil {
		return DefaultAspect
	}
	return AspectRatio(p.Width, p.Height)
}

// Scale maps normalized points into vb, keeping order and count.
// Values outside [0,1] are scaled as they are; callers validate at the storage boundary.
func Scale(points []domain.TopoPoint, vb ViewBox) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X * vb.Width, Y: p.Y * vb.Height}
	}
	return out
}
