package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
)

// OfflineService builds the snapshots clients cache for offline use.
type OfflineService struct {
	crags  *CragService
	routes *RouteService
	cache  ports.CacheService
}

// NewOfflineService creates a new OfflineService.
func NewOfflineService(crags *CragService, routes *RouteService, cache ports.CacheService) *OfflineService {
	return &OfflineService{crags: crags, routes: routes, cache: cache}
}

// Bundle returns the offline snapshot of a crag.
func (s *OfflineService) Bundle(ctx context.Context, cragSlug string) (*domain.OfflineBundle, error) {
	crag, err := s.crags.GetBySlug(ctx, cragSlug)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, s.cache, "offline", offlineKey(crag.ID), 600, func() (*domain.OfflineBundle, error) {
		routes, err := s.routes.ListByCrag(ctx, crag.ID)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		return BuildBundle(crag, routes, time.Now())
	})
}

// Invalidate drops the cached bundle of a crag.
func (s *OfflineService) Invalidate(ctx context.Context, cragID string) {
	invalidate(ctx, s.cache, offlineKey(cragID))
}

// BuildBundle assembles a bundle. Version depends only on content, never on
// now or on the order routes were listed in.
func BuildBundle(crag *domain.Crag, routes []domain.Route, now time.Time) (*domain.OfflineBundle, error) {
	routes = append([]domain.Route{}, routes...)
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Name != routes[j].Name {
			return routes[i].Name < routes[j].Name
		}
		return routes[i].ID < routes[j].ID
	})
	seen := make(map[string]bool)
	var assets []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			assets = append(assets, u)
		}
	}

	if crag.Photo != nil {
		add(crag.Photo.URL)
	}
	add("/v1/crags/" + crag.Slug + "/topo.svg")
	for _, r := range routes {
		if r.Photo != nil {
			add(r.Photo.URL)
		}
		if r.TopoLine.Annotated() {
			add("/v1/routes/" + r.ID + "/topo.svg")
		}
	}
	sort.Strings(assets)

	data, err := json.Marshal(struct {
		Crag   *domain.Crag
		Routes []domain.Route
	}{crag, routes})
	if err != nil {
		return nil, fmt.Errorf("hash bundle: %w", err)
	}
	h := sha256.Sum256(data)

	return &domain.OfflineBundle{
		Crag:        crag,
		Routes:      routes,
		Assets:      assets,
		Version:     hex.EncodeToString(h[:8]),
		GeneratedAt: now.UTC(),
	}, nil
}

func offlineKey(cragID string) string { return "offline:" + cragID }
