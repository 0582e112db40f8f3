package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
)

func TestCragService_FindNearbySortsByDistance(t *testing.T) {
	repo := &mockCragRepo{
		listInBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Crag, error) {
			return []domain.Crag{
				{Slug: "far", Location: domain.GeoPoint{Lat: 43.30, Lon: -2.90}},
				{Slug: "near", Location: domain.GeoPoint{Lat: 43.2631, Lon: -2.9350}},
				{Slug: "outside", Location: domain.GeoPoint{Lat: 44.50, Lon: -2.90}},
			}, nil
		},
	}

	svc := usecases.NewCragService(repo, nil, nil)
	crags, err := svc.FindNearby(context.Background(), 43.2630, -2.9350, 10000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 2 {
		t.Fatalf("expected 2 crags, got %d", len(crags))
	}
	if crags[0].Slug != "near" || crags[1].Slug != "far" {
		t.Errorf("unexpected order: %s, %s", crags[0].Slug, crags[1].Slug)
	}
	if crags[0].Distance == nil || *crags[0].Distance > 50 {
		t.Errorf("expected distance under 50m for nearest crag")
	}
}

func TestCragService_SearchEmptyQuery(t *testing.T) {
	svc := usecases.NewCragService(&mockCragRepo{}, nil, nil)
	if _, err := svc.Search(context.Background(), "   ", 10); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestCragService_UpsertValidatesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &mockCragRepo{
		upsertFn: func(ctx context.Context, c *domain.Crag) error {
			c.ID = "crag-1"
			return nil
		},
	}
	svc := usecases.NewCragService(repo, newMemCache(), pub)

	if err := svc.Upsert(context.Background(), &domain.Crag{Slug: "atxarte"}); err == nil {
		t.Fatal("expected validation error")
	}

	crag := &domain.Crag{Slug: "atxarte", CityID: "city-1", Name: domain.Localized{"en": "Atxarte"}}
	if err := svc.Upsert(context.Background(), crag); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.crags) != 1 || pub.crags[0] != "crag-1" {
		t.Errorf("unexpected crag events: %v", pub.crags)
	}
}

func TestLocalizedFallback(t *testing.T) {
	name := domain.Localized{"en": "Atxarte", "eu": "Atxarte haitzak"}
	if got := name.Get("eu"); got != "Atxarte haitzak" {
		t.Errorf("eu: got %q", got)
	}
	if got := name.Get("fr"); got != "Atxarte" {
		t.Errorf("fr should fall back to en, got %q", got)
	}
	if got := (domain.Localized{"es": "Valdelinares"}).Get("en"); got != "Valdelinares" {
		t.Errorf("expected any translation, got %q", got)
	}
}
