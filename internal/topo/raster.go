package topo

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// RasterizePNG draws the same overlay as RenderOverlay on a transparent
// canvas, scale pixels per viewBox unit.
func RasterizePNG(w io.Writer, lines []Line, opts OverlayOptions, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	opts = opts.withDefaults()
	vb := ViewBoxFor(opts.Aspect)
	width := int(math.Ceil(vb.Width*scale - 1e-6))
	height := int(math.Ceil(vb.Height*scale - 1e-6))

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	filler := rasterx.NewFiller(width, height, scanner)

	halo := color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(clamp01(opts.HaloOpacity) * 255))}

	for _, r := range Prepare(lines, vb, opts.Tension) {
		stroke, err := parseHex(r.Color)
		if err != nil {
			return fmt.Errorf("route %s: %w", r.Line.RouteID, err)
		}

		strokeSegments(dasher, r.Segments, opts.HaloWidth*scale, halo, scale)
		strokeSegments(dasher, r.Segments, opts.StrokeWidth*scale, stroke, scale)

		rasterx.AddCircle(r.Start.X*scale, r.Start.Y*scale, opts.StartRadius*scale, filler)
		filler.SetColor(stroke)
		filler.Draw()
		filler.Clear()
	}

	return png.Encode(w, img)
}

func strokeSegments(d *rasterx.Dasher, segs []Segment, width float64, c color.Color, scale float64) {
	d.SetStroke(fixed.Int26_6(width*64), 4<<6, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)
	d.SetColor(c)
	d.Start(rasterx.ToFixedP(segs[0].From.X*scale, segs[0].From.Y*scale))
	for _, s := range segs {
		to := rasterx.ToFixedP(s.To.X*scale, s.To.Y*scale)
		if s.Straight {
			d.Line(to)
			continue
		}
		d.CubeBezier(
			rasterx.ToFixedP(s.C1.X*scale, s.C1.Y*scale),
			rasterx.ToFixedP(s.C2.X*scale, s.C2.Y*scale),
			to,
		)
	}
	d.Stop(false)
	d.Draw()
	d.Clear()
}

// parseHex reads "#rrggbb".
func parseHex(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
