package usecases

import (
	"context"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
)

// CityService handles city-related business logic.
type CityService struct {
	cities ports.CityRepository
	cache  ports.CacheService
}

// NewCityService creates a new CityService.
func NewCityService(cities ports.CityRepository, cache ports.CacheService) *CityService {
	return &CityService{cities: cities, cache: cache}
}

// List returns all cities.
func (s *CityService) List(ctx context.Context) ([]domain.City, error) {
	return readThrough(ctx, s.cache, "cities_list", "cities:all", 3600, func() ([]domain.City, error) {
		return s.cities.List(ctx)
	})
}

// GetBySlug returns a city by its slug.
func (s *CityService) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	return readThrough(ctx, s.cache, "city", "cities:slug:"+slug, 3600, func() (*domain.City, error) {
		return s.cities.GetBySlug(ctx, slug)
	})
}
