package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/pkg/geospatial"
)

// CragService handles crag-related business logic.
type CragService struct {
	crags     ports.CragRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewCragService creates a new CragService. cache and publisher may be nil.
func NewCragService(crags ports.CragRepository, cache ports.CacheService, publisher ports.EventPublisher) *CragService {
	return &CragService{crags: crags, cache: cache, publisher: publisher}
}

// GetBySlug returns a single crag.
func (s *CragService) GetBySlug(ctx context.Context, slug string) (*domain.Crag, error) {
	return readThrough(ctx, s.cache, "crag", cragSlugKey(slug), 600, func() (*domain.Crag, error) {
		return s.crags.GetBySlug(ctx, slug)
	})
}

// GetByID returns a single crag by UUID.
func (s *CragService) GetByID(ctx context.Context, id string) (*domain.Crag, error) {
	return s.crags.GetByID(ctx, id)
}

// ListByCity returns all crags of a city.
func (s *CragService) ListByCity(ctx context.Context, cityID string) ([]domain.Crag, error) {
	return readThrough(ctx, s.cache, "crags_city", "crags:city:"+cityID, 300, func() ([]domain.Crag, error) {
		return s.crags.ListByCity(ctx, cityID)
	})
}

// Search matches crag names in any language.
func (s *CragService) Search(ctx context.Context, query string, limit int) ([]domain.Crag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrValidation)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	key := fmt.Sprintf("crags:search:%s:%d", strings.ToLower(query), limit)
	return readThrough(ctx, s.cache, "crags_search", key, 300, func() ([]domain.Crag, error) {
		return s.crags.Search(ctx, query, limit)
	})
}

// FindNearby returns crags within radiusMeters of a point, nearest first.
func (s *CragService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Crag, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)
	box := domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}

	candidates, err := s.crags.ListInBounds(ctx, box, limit*4)
	if err != nil {
		return nil, err
	}

	var out []domain.Crag
	for _, c := range candidates {
		d := geospatial.Haversine(lat, lon, c.Location.Lat, c.Location.Lon)
		if d > radiusMeters {
			continue
		}
		c.Distance = &d
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert creates or updates a crag and announces the change.
func (s *CragService) Upsert(ctx context.Context, crag *domain.Crag) error {
	if crag.Slug == "" {
		return fmt.Errorf("%w: crag slug is required", domain.ErrValidation)
	}
	if len(crag.Name) == 0 {
		return fmt.Errorf("%w: crag name is required", domain.ErrValidation)
	}
	if crag.CityID == "" {
		return fmt.Errorf("%w: crag city_id is required", domain.ErrValidation)
	}
	if err := s.crags.Upsert(ctx, crag); err != nil {
		return fmt.Errorf("upsert crag: %w", err)
	}

	invalidate(ctx, s.cache, cragSlugKey(crag.Slug), "crags:city:"+crag.CityID, offlineKey(crag.ID))

	if s.publisher != nil && crag.ID != "" {
		if err := s.publisher.PublishCragUpdated(ctx, crag.ID); err != nil {
			slog.WarnContext(ctx, "publish crag update failed", "crag_id", crag.ID, "error", err)
		}
	}
	return nil
}

// Evict drops every cached read of crag. Writers that bypass the service,
// such as the importer, rely on it through the crag.updated event.
func (s *CragService) Evict(ctx context.Context, crag *domain.Crag) {
	invalidate(ctx, s.cache, cragSlugKey(crag.Slug), "crags:city:"+crag.CityID, offlineKey(crag.ID))
}

func cragSlugKey(slug string) string { return "crags:slug:" + slug }
