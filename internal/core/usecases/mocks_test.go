package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// --- Mock CityRepository ---

type mockCityRepo struct {
	listFn      func(ctx context.Context) ([]domain.City, error)
	getBySlugFn func(ctx context.Context, slug string) (*domain.City, error)
}

func (m *mockCityRepo) Upsert(ctx context.Context, c *domain.City) error { return nil }

func (m *mockCityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCityRepo) List(ctx context.Context) ([]domain.City, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock CragRepository ---

type mockCragRepo struct {
	upsertFn       func(ctx context.Context, c *domain.Crag) error
	getBySlugFn    func(ctx context.Context, slug string) (*domain.Crag, error)
	getByIDFn      func(ctx context.Context, id string) (*domain.Crag, error)
	listInBoundsFn func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Crag, error)
	searchFn       func(ctx context.Context, q string, limit int) ([]domain.Crag, error)
}

func (m *mockCragRepo) Upsert(ctx context.Context, c *domain.Crag) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, c)
	}
	return nil
}

func (m *mockCragRepo) UpsertBatch(ctx context.Context, cs []domain.Crag) error { return nil }

func (m *mockCragRepo) GetBySlug(ctx context.Context, slug string) (*domain.Crag, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCragRepo) GetByID(ctx context.Context, id string) (*domain.Crag, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCragRepo) ListByCity(ctx context.Context, cityID string) ([]domain.Crag, error) {
	return nil, nil
}

func (m *mockCragRepo) ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Crag, error) {
	if m.listInBoundsFn != nil {
		return m.listInBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockCragRepo) Search(ctx context.Context, q string, limit int) ([]domain.Crag, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, limit)
	}
	return nil, nil
}

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	getByIDFn        func(ctx context.Context, id string) (*domain.Route, error)
	listByCragFn     func(ctx context.Context, cragID string) ([]domain.Route, error)
	updateTopoLineFn func(ctx context.Context, id string, line domain.TopoLine) (*domain.Route, error)
	created          []domain.Route
	deleted          []string
}

func (m *mockRouteRepo) Create(ctx context.Context, r *domain.Route) error {
	m.created = append(m.created, *r)
	return nil
}

func (m *mockRouteRepo) UpsertBatch(ctx context.Context, rs []domain.Route) error { return nil }

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRouteRepo) ListByCrag(ctx context.Context, cragID string) ([]domain.Route, error) {
	if m.listByCragFn != nil {
		return m.listByCragFn(ctx, cragID)
	}
	return nil, nil
}

func (m *mockRouteRepo) UpdateTopoLine(ctx context.Context, id string, line domain.TopoLine) (*domain.Route, error) {
	if m.updateTopoLineFn != nil {
		return m.updateTopoLineFn(ctx, id, line)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRouteRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	byHash map[string]*domain.User
}

func (m *mockUserRepo) GetByTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	if u, ok := m.byHash[hash]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User, hash string) error {
	if m.byHash == nil {
		m.byHash = map[string]*domain.User{}
	}
	m.byHash[hash] = u
	return nil
}

// --- In-memory cache ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// --- Recording publisher ---

type recordingPublisher struct {
	topo  []*domain.TopoEvent
	crags []string
}

func (p *recordingPublisher) PublishTopoUpdated(ctx context.Context, ev *domain.TopoEvent) error {
	p.topo = append(p.topo, ev)
	return nil
}

func (p *recordingPublisher) PublishCragUpdated(ctx context.Context, cragID string) error {
	p.crags = append(p.crags, cragID)
	return nil
}
