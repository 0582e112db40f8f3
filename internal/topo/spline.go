package topo

import (
	"math"
	"strconv"
	"strings"
)

// alpha 0.5 is the centripetal parameterization; it avoids cusps and
// self-intersections on sharp turns.
const alpha = 0.5

// Segment is one piece of a topo path from From to To.
// Straight segments ignore the control points.
type Segment struct {
	From     Point
	C1       Point
	C2       Point
	To       Point
	Straight bool
}

// Segments converts scaled points into cubic Bezier segments using a
// centripetal Catmull-Rom spline. tension is clamped to [0,1]: 0 is the
// smoothest curve and 1 degenerates to straight lines between the points.
// Every input point is the endpoint of a segment, so the curve passes through all of them.
func Segments(points []Point, tension float64) []Segment {
	n := len(points)
	if n < 2 {
		return nil
	}
	tension = clamp01(tension)
	segs := make([]Segment, 0, n-1)

	for i := 0; i < n-1; i++ {
		p1, p2 := points[i], points[i+1]
		if tension >= 1 {
			segs = append(segs, Segment{From: p1, C1: p1, C2: p2, To: p2, Straight: true})
			continue
		}

		p0 := p1
		if i > 0 {
			p0 = points[i-1]
		}
		p3 := p2
		if i+2 < n {
			p3 = points[i+2]
		}

		d1 := dist(p0, p1)
		d2 := dist(p1, p2)
		d3 := dist(p2, p3)

		d1a, d1a2 := math.Pow(d1, alpha), math.Pow(d1, 2*alpha)
		d2a, d2a2 := math.Pow(d2, alpha), math.Pow(d2, 2*alpha)
		d3a, d3a2 := math.Pow(d3, alpha), math.Pow(d3, 2*alpha)

		c1, c2 := p1, p2

		if n1 := 3 * d1a * (d1a + d2a); n1 > 0 {
			a := 2*d1a2 + 3*d1a*d2a + d2a2
			c1 = Point{
				X: (-d2a2*p0.X + a*p1.X + d1a2*p2.X) / n1,
				Y: (-d2a2*p0.Y + a*p1.Y + d1a2*p2.Y) / n1,
			}
		}
		if m := 3 * d3a * (d3a + d2a); m > 0 {
			b := 2*d3a2 + 3*d3a*d2a + d2a2
			c2 = Point{
				X: (d3a2*p1.X + b*p2.X - d2a2*p3.X) / m,
				Y: (d3a2*p1.Y + b*p2.Y - d2a2*p3.Y) / m,
			}
		}

		// Tension pulls the handles toward the segment ends.
		k := 1 - tension
		c1 = Point{X: p1.X + (c1.X-p1.X)*k, Y: p1.Y + (c1.Y-p1.Y)*k}
		c2 = Point{X: p2.X + (c2.X-p2.X)*k, Y: p2.Y + (c2.Y-p2.Y)*k}

		segs = append(segs, Segment{From: p1, C1: c1, C2: c2, To: p2})
	}
	return segs
}

// BuildPath returns the SVG path data for points. It returns "" for fewer
// than two points; hosts are expected to skip rendering in that case.
// The output is byte-identical for identical input.
func BuildPath(points []Point, tension float64) string {
	return PathData(Segments(points, tension))
}

// PathData formats segments as SVG path data.
func PathData(segs []Segment) string {
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, segs[0].From)
	for _, s := range segs {
		if s.Straight {
			b.WriteString(" L ")
			writePoint(&b, s.To)
			continue
		}
		b.WriteString(" C ")
		writePoint(&b, s.C1)
		b.WriteByte(' ')
		writePoint(&b, s.C2)
		b.WriteByte(' ')
		writePoint(&b, s.To)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(formatNum(p.X))
	b.WriteByte(' ')
	b.WriteString(formatNum(p.Y))
}

// formatNum rounds to 3 decimals and never prints "-0".
func formatNum(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
