package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/pkg/telemetry"
	"github.com/samirrijal/cragtopo/internal/topo"
)

// RouteService handles route-related business logic.
type RouteService struct {
	routes    ports.RouteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewRouteService creates a new RouteService. cache and publisher may be nil.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService, publisher ports.EventPublisher) *RouteService {
	return &RouteService{routes: routes, cache: cache, publisher: publisher}
}

// GetByID returns a route by its UUID.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return readThrough(ctx, s.cache, "route", routeKey(id), 600, func() (*domain.Route, error) {
		return s.routes.GetByID(ctx, id)
	})
}

// ListByCrag returns all routes at a crag.
func (s *RouteService) ListByCrag(ctx context.Context, cragID string) ([]domain.Route, error) {
	return readThrough(ctx, s.cache, "routes_crag", cragRoutesKey(cragID), 300, func() ([]domain.Route, error) {
		return s.routes.ListByCrag(ctx, cragID)
	})
}

// Create stores a new route after validating its topo line.
func (s *RouteService) Create(ctx context.Context, route *domain.Route) error {
	if route.CragID == "" {
		return fmt.Errorf("%w: route crag_id is required", domain.ErrValidation)
	}
	if route.Name == "" || route.Slug == "" {
		return fmt.Errorf("%w: route name and slug are required", domain.ErrValidation)
	}
	if err := topo.Validate(route.TopoLine); err != nil {
		return err
	}
	if err := s.routes.Create(ctx, route); err != nil {
		return fmt.Errorf("create route: %w", err)
	}
	s.invalidate(ctx, route)
	return nil
}

// Delete removes a route.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	s.invalidate(ctx, route)
	return nil
}

// UpdateTopoLine replaces a route's topo line, then announces it so renders
// and open editor sessions pick it up.
func (s *RouteService) UpdateTopoLine(ctx context.Context, id string, line domain.TopoLine) (*domain.Route, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanTopoUpdate)
	defer span.End()
	span.SetAttributes(attribute.String("route.id", id), attribute.Int("topo.points", len(line)))

	if err := topo.Validate(line); err != nil {
		return nil, err
	}
	if line == nil {
		line = domain.TopoLine{}
	}

	route, err := s.routes.UpdateTopoLine(ctx, id, line)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, route)

	if s.publisher != nil {
		ev := &domain.TopoEvent{CragID: route.CragID, RouteID: route.ID, TopoLine: route.TopoLine, Time: time.Now()}
		if err := s.publisher.PublishTopoUpdated(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish topo update failed", "route_id", route.ID, "error", err)
		}
	}
	return route, nil
}

func (s *RouteService) invalidate(ctx context.Context, route *domain.Route) {
	invalidate(ctx, s.cache,
		routeKey(route.ID),
		cragRoutesKey(route.CragID),
		offlineKey(route.CragID),
	)
}

// EvictCrag drops the cached route list of a crag and each of its routes.
func (s *RouteService) EvictCrag(ctx context.Context, cragID string) error {
	routes, err := s.routes.ListByCrag(ctx, cragID)
	if err != nil {
		return fmt.Errorf("list routes: %w", err)
	}
	keys := []string{cragRoutesKey(cragID), offlineKey(cragID)}
	for _, r := range routes {
		keys = append(keys, routeKey(r.ID))
	}
	invalidate(ctx, s.cache, keys...)
	return nil
}

func routeKey(id string) string          { return "routes:id:" + id }
func cragRoutesKey(cragID string) string { return "routes:crag:" + cragID }
