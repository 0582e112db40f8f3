package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
)

// RouteInfo is what the prerender workflow needs to know about its target.
type RouteInfo struct {
	RouteID   string
	CragID    string
	CragSlug  string
	Annotated bool
}

// TopoActivities holds the activity implementations for the prerender workflow.
// Renders are kept in the content-addressed cache of TopoService; activities only
// return sizes so rendered bytes stay out of the workflow history.
type TopoActivities struct {
	Routes  *usecases.RouteService
	Crags   *usecases.CragService
	Topo    *usecases.TopoService
	Offline *usecases.OfflineService
}

// LoadRoute resolves the route and its crag. An empty routeID targets the crag only.
func (a *TopoActivities) LoadRoute(ctx context.Context, cragID, routeID string) (RouteInfo, error) {
	info := RouteInfo{RouteID: routeID, CragID: cragID}
	if routeID != "" {
		route, err := a.Routes.GetByID(ctx, routeID)
		if err != nil {
			return info, permanent(fmt.Errorf("get route %s: %w", routeID, err))
		}
		info.CragID = route.CragID
		info.Annotated = route.TopoLine.Annotated()
	}
	crag, err := a.Crags.GetByID(ctx, info.CragID)
	if err != nil {
		return info, permanent(fmt.Errorf("get crag %s: %w", info.CragID, err))
	}
	info.CragSlug = crag.Slug
	return info, nil
}

// RefreshCrag evicts the cached crag and route reads so the renders that
// follow see rows written outside the services.
func (a *TopoActivities) RefreshCrag(ctx context.Context, cragID string) error {
	crag, err := a.Crags.GetByID(ctx, cragID)
	if err != nil {
		return permanent(fmt.Errorf("get crag %s: %w", cragID, err))
	}
	a.Crags.Evict(ctx, crag)
	if err := a.Routes.EvictCrag(ctx, cragID); err != nil {
		return fmt.Errorf("evict routes %s: %w", cragID, err)
	}
	return nil
}

// permanent stops retries for records that are gone.
func permanent(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
	}
	return err
}

// RenderSVG renders the route overlay and returns its size in bytes.
func (a *TopoActivities) RenderSVG(ctx context.Context, routeID string) (int, error) {
	svg, err := a.Topo.RouteSVG(ctx, routeID, usecases.RenderRequest{})
	if err != nil {
		return 0, fmt.Errorf("render svg %s: %w", routeID, err)
	}
	return len(svg), nil
}

// RenderPNG rasterizes the route overlay at the configured scale.
func (a *TopoActivities) RenderPNG(ctx context.Context, routeID string) (int, error) {
	data, err := a.Topo.RoutePNG(ctx, routeID, 0)
	if err != nil {
		return 0, fmt.Errorf("render png %s: %w", routeID, err)
	}
	return len(data), nil
}

// RenderCragOverlay renders every line of the crag on the shared photo.
func (a *TopoActivities) RenderCragOverlay(ctx context.Context, cragSlug string) (int, error) {
	svg, err := a.Topo.CragSVG(ctx, cragSlug, usecases.RenderRequest{})
	if err != nil {
		return 0, fmt.Errorf("render crag %s: %w", cragSlug, err)
	}
	return len(svg), nil
}

// InvalidateOffline drops the cached offline bundle and rebuilds it.
func (a *TopoActivities) InvalidateOffline(ctx context.Context, cragID, cragSlug string) (string, error) {
	a.Offline.Invalidate(ctx, cragID)
	bundle, err := a.Offline.Bundle(ctx, cragSlug)
	if err != nil {
		return "", fmt.Errorf("rebuild offline bundle %s: %w", cragSlug, err)
	}
	activity.GetLogger(ctx).Info("offline bundle rebuilt", "crag", cragSlug, "version", bundle.Version)
	return bundle.Version, nil
}
