package topo_test

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/topo"
)

var diagonal = domain.TopoLine{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}}

func TestScaleDiagonal(t *testing.T) {
	got := topo.Scale(diagonal, topo.ViewBox{Width: 400, Height: 300})
	assert.Equal(t, []topo.Point{{X: 0, Y: 0}, {X: 200, Y: 150}, {X: 400, Y: 300}}, got)
}

func TestScalePreservesOrderAndPassesThroughOutOfRange(t *testing.T) {
	in := domain.TopoLine{{X: 0.9, Y: 0.1}, {X: 0.1, Y: 0.9}, {X: 1.5, Y: -0.5}}
	got := topo.Scale(in, topo.ViewBox{Width: 100, Height: 50})
	require.Len(t, got, 3)
	want := []topo.Point{{X: 90, Y: 5}, {X: 10, Y: 45}, {X: 150, Y: -25}}
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9)
	}
}

func TestViewBoxKeepsAreaConstant(t *testing.T) {
	for _, aspect := range []float64{4.0 / 3.0, 16.0 / 9.0, 1, 2.0 / 3.0, 0.5} {
		vb := topo.ViewBoxFor(aspect)
		assert.InDelta(t, 120000, vb.Width*vb.Height, 1e-6, "aspect %v", aspect)
		assert.InDelta(t, aspect, vb.Width/vb.Height, 1e-9, "aspect %v", aspect)
	}

	vb := topo.ViewBoxFor(4.0 / 3.0)
	assert.InDelta(t, 400, vb.Width, 1e-9)
	assert.InDelta(t, 300, vb.Height, 1e-9)

	assert.Equal(t, topo.ViewBoxFor(topo.DefaultAspect), topo.ViewBoxFor(-1))
	assert.Equal(t, topo.DefaultAspect, topo.AspectRatio(0, 100))
}

func TestBuildPathStartsAtFirstPoint(t *testing.T) {
	pts := topo.Scale(diagonal, topo.ViewBox{Width: 400, Height: 300})
	path := topo.BuildPath(pts, 0)
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(path, "M 0 0"), path)
}

func TestBuildPathDeterministic(t *testing.T) {
	pts := []topo.Point{{X: 12.5, Y: 280}, {X: 90.1, Y: 200.3}, {X: 60, Y: 120}, {X: 140.75, Y: 33.3}}
	for _, tension := range []float64{0, 0.3, 0.5, 1} {
		assert.Equal(t, topo.BuildPath(pts, tension), topo.BuildPath(pts, tension))
	}
}

func TestBuildPathTooFewPoints(t *testing.T) {
	assert.Empty(t, topo.BuildPath(nil, 0))
	assert.Empty(t, topo.BuildPath([]topo.Point{{X: 1, Y: 1}}, 0))
}

func TestTensionOneIsPolyline(t *testing.T) {
	pts := []topo.Point{{X: 0, Y: 0}, {X: 10, Y: 20}, {X: 30, Y: 5}}
	assert.Equal(t, "M 0 0 L 10 20 L 30 5", topo.BuildPath(pts, 1))
	assert.Equal(t, topo.BuildPath(pts, 1), topo.BuildPath(pts, 7), "tension is clamped")
}

func TestTensionZeroInterpolatesEveryPoint(t *testing.T) {
	pts := []topo.Point{{X: 0, Y: 300}, {X: 80, Y: 210}, {X: 60, Y: 120}, {X: 200, Y: 40}, {X: 210, Y: 0}}
	segs := topo.Segments(pts, 0)
	require.Len(t, segs, len(pts)-1)
	for i, s := range segs {
		assert.Equal(t, pts[i], s.From)
		assert.Equal(t, pts[i+1], s.To)
		assert.False(t, s.Straight)
		assert.Equal(t, pts[i], s.At(0))
		end := s.At(1)
		assert.InDelta(t, pts[i+1].X, end.X, 1e-9)
		assert.InDelta(t, pts[i+1].Y, end.Y, 1e-9)
	}

	// interior handles bend away from the straight chord
	mid := segs[1]
	assert.NotEqual(t, mid.From, mid.C1)
}

func TestSegmentsDuplicatePointsStayFinite(t *testing.T) {
	pts := []topo.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 50, Y: 60}}
	for _, s := range topo.Segments(pts, 0) {
		for _, v := range []float64{s.C1.X, s.C1.Y, s.C2.X, s.C2.Y} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestPathLengthStraight(t *testing.T) {
	segs := topo.Segments([]topo.Point{{X: 0, Y: 0}, {X: 30, Y: 40}, {X: 30, Y: 100}}, 1)
	assert.InDelta(t, 110, topo.PathLength(segs), 1e-9)

	curved := topo.PathLength(topo.Segments([]topo.Point{{X: 0, Y: 0}, {X: 30, Y: 40}, {X: 30, Y: 100}}, 0))
	assert.GreaterOrEqual(t, curved, 110.0-1e-6)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, topo.Validate(nil))
	assert.NoError(t, topo.Validate(diagonal))
	assert.ErrorIs(t, topo.Validate(domain.TopoLine{{X: 1.2, Y: 0}}), domain.ErrInvalidTopo)
	assert.ErrorIs(t, topo.Validate(domain.TopoLine{{X: math.NaN(), Y: 0}}), domain.ErrInvalidTopo)

	long := make(domain.TopoLine, topo.MaxPoints+1)
	assert.ErrorIs(t, topo.Validate(long), domain.ErrInvalidTopo)
}

func TestGradeColor(t *testing.T) {
	cases := map[string]string{
		"4":   topo.ColorEasy,
		"5+":  topo.ColorEasy,
		"6a":  topo.ColorMedium,
		"6B+": topo.ColorMedium,
		"6c":  topo.ColorHard,
		"7a+": topo.ColorHard,
		"7b":  topo.ColorVery,
		"7c+": topo.ColorVery,
		"8a":  topo.ColorElite,
		"":    topo.ColorUnknown,
		"V5":  topo.ColorUnknown,
		"10a": topo.ColorUnknown,
	}
	for grade, want := range cases {
		assert.Equal(t, want, topo.GradeColor(grade), grade)
	}
}

func TestRenderOverlay(t *testing.T) {
	var buf bytes.Buffer
	err := topo.RenderOverlay(&buf, []topo.Line{
		{RouteID: "r1", Grade: "6a", Points: diagonal},
		{RouteID: "r2", Grade: "7b", Points: domain.TopoLine{{X: 0.2, Y: 0.2}}},
	}, topo.OverlayOptions{Aspect: 4.0 / 3.0, ObjectFit: "cover", Animate: true})
	require.NoError(t, err)

	svg := buf.String()
	assert.Contains(t, svg, `viewBox="0 0 400 300"`)
	assert.Contains(t, svg, `preserveAspectRatio="xMidYMid slice"`)
	assert.Contains(t, svg, `data-route-id="r1"`)
	assert.NotContains(t, svg, `data-route-id="r2"`)
	assert.Equal(t, 2, strings.Count(svg, "<path "), "halo and stroke")
	assert.Equal(t, 1, strings.Count(svg, "<circle "))
	assert.Contains(t, svg, `d="M 0 0 `)
	assert.Contains(t, svg, topo.ColorMedium)
	assert.Contains(t, svg, "@keyframes topo-draw")
}

func TestRenderOverlayNothingAnnotated(t *testing.T) {
	var buf bytes.Buffer
	err := topo.RenderOverlay(&buf, []topo.Line{{RouteID: "r1", Points: nil}}, topo.OverlayOptions{})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<path")
	assert.True(t, strings.HasSuffix(buf.String(), "</svg>"))
}

func TestRasterizePNG(t *testing.T) {
	var buf bytes.Buffer
	err := topo.RasterizePNG(&buf, []topo.Line{{RouteID: "r1", Grade: "7a", Points: diagonal}},
		topo.OverlayOptions{Aspect: 4.0 / 3.0}, 0.5)
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	_, _, _, a := img.At(100, 75).RGBA()
	assert.NotZero(t, a, "the diagonal passes through the centre")
	_, _, _, a = img.At(190, 10).RGBA()
	assert.Zero(t, a, "far corner stays transparent")
}
