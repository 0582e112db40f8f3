package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
)

func TestRouteService_GetByID(t *testing.T) {
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			return &domain.Route{ID: id, Name: "La Travesía", Grade: "6B+"}, nil
		},
	}

	svc := usecases.NewRouteService(repo, nil, nil)
	route, err := svc.GetByID(context.Background(), "route-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.Grade != "6B+" {
		t.Errorf("expected 6B+, got %s", route.Grade)
	}
}

func TestRouteService_GetByIDCached(t *testing.T) {
	calls := 0
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			calls++
			return &domain.Route{ID: id, Name: "Techo"}, nil
		},
	}

	svc := usecases.NewRouteService(repo, newMemCache(), nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.GetByID(context.Background(), "route-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
}

func TestRouteService_CreateRejectsInvalidLine(t *testing.T) {
	repo := &mockRouteRepo{}
	svc := usecases.NewRouteService(repo, nil, nil)

	err := svc.Create(context.Background(), &domain.Route{
		CragID:   "crag-1",
		Slug:     "techo",
		Name:     "Techo",
		TopoLine: domain.TopoLine{{X: 0.5, Y: 1.4}, {X: 0.5, Y: 0.2}},
	})
	if !errors.Is(err, domain.ErrInvalidTopo) {
		t.Fatalf("expected ErrInvalidTopo, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Errorf("invalid route must not be stored")
	}
}

func TestRouteService_UpdateTopoLinePublishes(t *testing.T) {
	line := domain.TopoLine{{X: 0.4, Y: 0.9}, {X: 0.5, Y: 0.5}, {X: 0.45, Y: 0.1}}
	repo := &mockRouteRepo{
		updateTopoLineFn: func(ctx context.Context, id string, l domain.TopoLine) (*domain.Route, error) {
			return &domain.Route{ID: id, CragID: "crag-1", TopoLine: l}, nil
		},
	}
	cache := newMemCache()
	pub := &recordingPublisher{}

	svc := usecases.NewRouteService(repo, cache, pub)
	route, err := svc.UpdateTopoLine(context.Background(), "route-1", line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.TopoLine) != 3 {
		t.Fatalf("expected 3 points, got %d", len(route.TopoLine))
	}
	if len(pub.topo) != 1 || pub.topo[0].RouteID != "route-1" || pub.topo[0].CragID != "crag-1" {
		t.Fatalf("unexpected events: %+v", pub.topo)
	}

	want := map[string]bool{"routes:id:route-1": true, "routes:crag:crag-1": true, "offline:crag-1": true}
	for _, k := range cache.deletes {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("keys not invalidated: %v", want)
	}
}

func TestRouteService_UpdateTopoLineClears(t *testing.T) {
	var got domain.TopoLine
	repo := &mockRouteRepo{
		updateTopoLineFn: func(ctx context.Context, id string, l domain.TopoLine) (*domain.Route, error) {
			got = l
			return &domain.Route{ID: id, CragID: "crag-1", TopoLine: l}, nil
		},
	}

	svc := usecases.NewRouteService(repo, nil, nil)
	if _, err := svc.UpdateTopoLine(context.Background(), "route-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil line, got %#v", got)
	}
}

func TestRouteService_UpdateTopoLineNotFound(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, &recordingPublisher{})
	_, err := svc.UpdateTopoLine(context.Background(), "missing", domain.TopoLine{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRouteService_Delete(t *testing.T) {
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			return &domain.Route{ID: id, CragID: "crag-1"}, nil
		},
	}
	svc := usecases.NewRouteService(repo, nil, nil)
	if err := svc.Delete(context.Background(), "route-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "route-1" {
		t.Errorf("unexpected deletes: %v", repo.deleted)
	}
}

func TestEvictCrag_SeesRowsWrittenOutsideServices(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	crag := &domain.Crag{ID: "crag-1", Slug: "atxarte", CityID: "city-1", Name: domain.Localized{"en": "Atxarte"}}
	routes := []domain.Route{{ID: "r1", CragID: "crag-1", Name: "Techo", Grade: "6A"}}

	crags := &mockCragRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*domain.Crag, error) { c := *crag; return &c, nil },
		getByIDFn:   func(ctx context.Context, id string) (*domain.Crag, error) { c := *crag; return &c, nil },
	}
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			for _, r := range routes {
				if r.ID == id {
					r := r
					return &r, nil
				}
			}
			return nil, domain.ErrNotFound
		},
		listByCragFn: func(ctx context.Context, cragID string) ([]domain.Route, error) { return routes, nil },
	}
	cragSvc := usecases.NewCragService(crags, cache, nil)
	routeSvc := usecases.NewRouteService(repo, cache, nil)
	offline := usecases.NewOfflineService(cragSvc, routeSvc, cache)

	before, err := offline.Bundle(ctx, "atxarte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := routeSvc.GetByID(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A bulk import writes straight to the repositories.
	crag.Name = domain.Localized{"en": "Atxarte Sur"}
	routes = []domain.Route{
		{ID: "r1", CragID: "crag-1", Name: "Techo", Grade: "6B"},
		{ID: "r2", CragID: "crag-1", Name: "Arista", Grade: "7C"},
	}

	cragSvc.Evict(ctx, crag)
	if err := routeSvc.EvictCrag(ctx, "crag-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := offline.Bundle(ctx, "atxarte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Routes) != 2 || after.Crag.Name["en"] != "Atxarte Sur" {
		t.Errorf("expected the imported content, got %d routes and name %q", len(after.Routes), after.Crag.Name["en"])
	}
	if after.Version == before.Version {
		t.Errorf("expected a new bundle version")
	}
	r1, err := routeSvc.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.Grade != "6B" {
		t.Errorf("expected the cached route to be evicted, got grade %s", r1.Grade)
	}
}
