package ports

import (
	"context"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// CityRepository persists cities.
type CityRepository interface {
	Upsert(ctx context.Context, city *domain.City) error
	GetBySlug(ctx context.Context, slug string) (*domain.City, error)
	List(ctx context.Context) ([]domain.City, error)
}

// CragRepository persists crags.
type CragRepository interface {
	Upsert(ctx context.Context, crag *domain.Crag) error
	UpsertBatch(ctx context.Context, crags []domain.Crag) error
	GetBySlug(ctx context.Context, slug string) (*domain.Crag, error)
	GetByID(ctx context.Context, id string) (*domain.Crag, error)
	ListByCity(ctx context.Context, cityID string) ([]domain.Crag, error)
	ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Crag, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Crag, error)
}

// RouteRepository persists routes and their topo lines.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error
	UpsertBatch(ctx context.Context, routes []domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	ListByCrag(ctx context.Context, cragID string) ([]domain.Route, error)
	// UpdateTopoLine replaces the whole line.
	UpdateTopoLine(ctx context.Context, id string, line domain.TopoLine) (*domain.Route, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository resolves users from API tokens.
type UserRepository interface {
	GetByTokenHash(ctx context.Context, hash string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User, tokenHash string) error
}
