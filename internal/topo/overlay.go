package topo

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// Line is one route to draw on a photo.
type Line struct {
	RouteID string
	Grade   string
	Color   string // overrides the grade colour when set
	Points  domain.TopoLine
}

// OverlayOptions controls how lines are drawn.
type OverlayOptions struct {
	Aspect      float64
	ObjectFit   string // "cover" crops like CSS object-fit; anything else letterboxes
	Tension     float64
	StrokeWidth float64
	HaloWidth   float64
	HaloOpacity float64
	StartRadius float64

	// Animate adds a CSS draw-in for clients without the editor channel.
	Animate  bool
	Duration time.Duration
	Delay    time.Duration
	Easing   string
}

func (o OverlayOptions) withDefaults() OverlayOptions {
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = 4
	}
	if o.HaloWidth <= 0 {
		o.HaloWidth = 10
	}
	if o.HaloOpacity <= 0 {
		o.HaloOpacity = 0.45
	}
	if o.StartRadius <= 0 {
		o.StartRadius = 7
	}
	if o.Duration <= 0 {
		o.Duration = 1200 * time.Millisecond
	}
	if o.Easing == "" {
		o.Easing = "ease-in-out"
	}
	return o
}

// Rendered is the geometry of one line after scaling.
type Rendered struct {
	Line     Line
	Segments []Segment
	Path     string
	Length   float64
	Start    Point
	Color    string
}

// Prepare scales and fits every drawable line. Lines with fewer than two
// points are left out.
func Prepare(lines []Line, vb ViewBox, tension float64) []Rendered {
	out := make([]Rendered, 0, len(lines))
	for _, l := range lines {
		if !l.Points.Annotated() {
			continue
		}
		pts := Scale(l.Points, vb)
		segs := Segments(pts, tension)
		color := l.Color
		if color == "" {
			color = GradeColor(l.Grade)
		}
		out = append(out, Rendered{
			Line:     l,
			Segments: segs,
			Path:     PathData(segs),
			Length:   PathLength(segs),
			Start:    pts[0],
			Color:    color,
		})
	}
	return out
}

// RenderOverlay writes an SVG document with a halo, a coloured stroke and a
// start marker for every annotated line. It always writes a valid <svg>,
// empty when nothing is annotated.
func RenderOverlay(w io.Writer, lines []Line, opts OverlayOptions) error {
	opts = opts.withDefaults()
	vb := ViewBoxFor(opts.Aspect)
	rendered := Prepare(lines, vb, opts.Tension)

	par := "xMidYMid meet"
	if opts.ObjectFit == "cover" {
		par = "xMidYMid slice"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" preserveAspectRatio="%s" class="topo">`,
		formatNum(vb.Width), formatNum(vb.Height), par)

	if opts.Animate && len(rendered) > 0 {
		b.WriteString(`<style>@keyframes topo-draw{to{stroke-dashoffset:0}}</style>`)
	}

	for _, r := range rendered {
		id := html.EscapeString(r.Line.RouteID)
		fmt.Fprintf(&b, `<g class="topo-line" data-route-id="%s">`, id)
		fmt.Fprintf(&b,
			`<path d="%s" fill="none" stroke="#ffffff" stroke-opacity="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"/>`,
			r.Path, formatNum(opts.HaloOpacity), formatNum(opts.HaloWidth))

		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"`,
			r.Path, html.EscapeString(r.Color), formatNum(opts.StrokeWidth))
		if opts.Animate {
			l := formatNum(r.Length)
			fmt.Fprintf(&b, ` stroke-dasharray="%s" stroke-dashoffset="%s" style="animation:topo-draw %s %s %s forwards"`,
				l, l, cssDuration(opts.Duration), html.EscapeString(opts.Easing), cssDuration(opts.Delay))
		}
		b.WriteString("/>")

		fmt.Fprintf(&b, `<circle class="topo-start" data-route-id="%s" cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2"/>`,
			id, formatNum(r.Start.X), formatNum(r.Start.Y), formatNum(opts.StartRadius), html.EscapeString(r.Color))
		b.WriteString("</g>")
	}
	b.WriteString("</svg>")

	_, err := io.WriteString(w, b.String())
	return err
}

func cssDuration(d time.Duration) string {
	return formatNum(d.Seconds()) + "s"
}
