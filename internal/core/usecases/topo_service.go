package usecases

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/pkg/metrics"
	"github.com/samirrijal/cragtopo/internal/pkg/telemetry"
	"github.com/samirrijal/cragtopo/internal/topo"
)

var tracer = otel.Tracer("github.com/samirrijal/cragtopo/internal/core/usecases")

// TopoSettings are the rendering defaults shared by every topo.
type TopoSettings struct {
	Tension     float64
	StrokeWidth float64
	PNGScale    float64
	Duration    time.Duration
	Delay       time.Duration
	Easing      string
}

// RenderRequest carries the per-request overlay options.
type RenderRequest struct {
	ObjectFit string `json:"object_fit"`
	Animate   bool   `json:"animate"`
}

// Overlay is the scaled geometry of every annotated line on one photo.
type Overlay struct {
	Photo   *domain.Photo
	ViewBox topo.ViewBox
	Lines   []topo.Rendered
}

// TopoService renders topo lines to SVG and PNG.
type TopoService struct {
	routes   *RouteService
	crags    *CragService
	cache    ports.CacheService
	settings TopoSettings
}

// NewTopoService creates a new TopoService. cache may be nil.
func NewTopoService(routes *RouteService, crags *CragService, cache ports.CacheService, settings TopoSettings) *TopoService {
	if settings.PNGScale <= 0 {
		settings.PNGScale = 2
	}
	return &TopoService{routes: routes, crags: crags, cache: cache, settings: settings}
}

// Settings returns the rendering defaults.
func (s *TopoService) Settings() TopoSettings { return s.settings }

// RouteSVG renders one route over its own photo (or its crag's).
func (s *TopoService) RouteSVG(ctx context.Context, routeID string, req RenderRequest) ([]byte, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanRenderSVG)
	defer span.End()
	span.SetAttributes(attribute.String("route.id", routeID))

	route, photo, err := s.routeWithPhoto(ctx, routeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s.render(ctx, "svg", LinesFor([]domain.Route{*route}), s.options(photo, req))
}

// RoutePNG rasterizes one route. scale <= 0 uses the configured scale.
func (s *TopoService) RoutePNG(ctx context.Context, routeID string, scale float64) ([]byte, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanRenderPNG)
	defer span.End()
	span.SetAttributes(attribute.String("route.id", routeID))

	route, photo, err := s.routeWithPhoto(ctx, routeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if scale <= 0 {
		scale = s.settings.PNGScale
	}
	opts := s.options(photo, RenderRequest{})
	return s.renderWith(ctx, "png", LinesFor([]domain.Route{*route}), opts, scale)
}

// CragSVG renders every annotated route drawn on the crag's photo.
func (s *TopoService) CragSVG(ctx context.Context, cragSlug string, req RenderRequest) ([]byte, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanRenderSVG)
	defer span.End()
	span.SetAttributes(attribute.String("crag.slug", cragSlug))

	crag, routes, err := s.cragRoutes(ctx, cragSlug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s.render(ctx, "svg", LinesFor(onPhoto(routes, crag.Photo)), s.options(crag.Photo, req))
}

// CragOverlay returns the scaled geometry for the crag photo, used by live editor sessions.
func (s *TopoService) CragOverlay(ctx context.Context, cragSlug string) (*domain.Crag, *Overlay, error) {
	crag, routes, err := s.cragRoutes(ctx, cragSlug)
	if err != nil {
		return nil, nil, err
	}
	vb := topo.ViewBoxFor(topo.PhotoAspect(crag.Photo))
	return crag, &Overlay{
		Photo:   crag.Photo,
		ViewBox: vb,
		Lines:   topo.Prepare(LinesFor(onPhoto(routes, crag.Photo)), vb, s.settings.Tension),
	}, nil
}

// LinesFor converts routes into drawable lines.
func LinesFor(routes []domain.Route) []topo.Line {
	lines := make([]topo.Line, 0, len(routes))
	for _, r := range routes {
		lines = append(lines, topo.Line{RouteID: r.ID, Grade: r.Grade, Points: r.TopoLine})
	}
	return lines
}

// onPhoto keeps routes drawn on photo: those without a photo of their own
// inherit the crag photo.
func onPhoto(routes []domain.Route, photo *domain.Photo) []domain.Route {
	var out []domain.Route
	for _, r := range routes {
		if r.Photo == nil || (photo != nil && r.Photo.URL == photo.URL) {
			out = append(out, r)
		}
	}
	return out
}

func (s *TopoService) routeWithPhoto(ctx context.Context, routeID string) (*domain.Route, *domain.Photo, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, nil, err
	}
	photo := route.Photo
	if photo == nil && s.crags != nil {
		if crag, err := s.crags.GetByID(ctx, route.CragID); err == nil {
			photo = crag.Photo
		}
	}
	return route, photo, nil
}

func (s *TopoService) cragRoutes(ctx context.Context, slug string) (*domain.Crag, []domain.Route, error) {
	crag, err := s.crags.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	routes, err := s.routes.ListByCrag(ctx, crag.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list routes: %w", err)
	}
	return crag, routes, nil
}

// options resolves the overlay options. The object fit is folded to the two
// values the renderer distinguishes, so equivalent requests share a cache key.
func (s *TopoService) options(photo *domain.Photo, req RenderRequest) topo.OverlayOptions {
	fit := "contain"
	if req.ObjectFit == "cover" {
		fit = "cover"
	}
	return topo.OverlayOptions{
		Aspect:      topo.PhotoAspect(photo),
		ObjectFit:   fit,
		Tension:     s.settings.Tension,
		StrokeWidth: s.settings.StrokeWidth,
		Animate:     req.Animate,
		Duration:    s.settings.Duration,
		Delay:       s.settings.Delay,
		Easing:      s.settings.Easing,
	}
}

func (s *TopoService) render(ctx context.Context, format string, lines []topo.Line, opts topo.OverlayOptions) ([]byte, error) {
	return s.renderWith(ctx, format, lines, opts, 0)
}

// renderWith renders through a content-addressed cache: the key hashes the
// lines and options, so an edited line never hits a stale entry.
func (s *TopoService) renderWith(ctx context.Context, format string, lines []topo.Line, opts topo.OverlayOptions, scale float64) ([]byte, error) {
	key, err := renderKey(format, lines, opts, scale)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("topo_" + format).Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("topo_" + format).Inc()
	}

	start := time.Now()
	var buf bytes.Buffer
	switch format {
	case "png":
		err = topo.RasterizePNG(&buf, lines, opts, scale)
	default:
		err = topo.RenderOverlay(&buf, lines, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	metrics.TopoRenders.WithLabelValues(format).Inc()
	metrics.TopoRenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, buf.Bytes(), 86400)
	}
	return buf.Bytes(), nil
}

func renderKey(format string, lines []topo.Line, opts topo.OverlayOptions, scale float64) (string, error) {
	data, err := json.Marshal(struct {
		Lines []topo.Line
		Opts  topo.OverlayOptions
		Scale float64
	}{lines, opts, scale})
	if err != nil {
		return "", fmt.Errorf("render key: %w", err)
	}
	h := sha256.Sum256(data)
	return "topo:" + format + ":" + hex.EncodeToString(h[:12]), nil
}
