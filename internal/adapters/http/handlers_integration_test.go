//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/cragtopo/internal/adapters/http"
	"github.com/samirrijal/cragtopo/internal/adapters/postgres"
	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/config"
)

// setupTestDB connects to the test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("cragtopo-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	cragSvc := usecases.NewCragService(postgres.NewCragRepo(db), nil, nil)
	routeSvc := usecases.NewRouteService(postgres.NewRouteRepo(db), nil, nil)

	return &http.Dependencies{
		Cities:  usecases.NewCityService(postgres.NewCityRepo(db), nil),
		Crags:   cragSvc,
		Routes:  routeSvc,
		Topo:    usecases.NewTopoService(routeSvc, cragSvc, nil, usecases.TopoSettings{Tension: 0.5}),
		Offline: usecases.NewOfflineService(cragSvc, routeSvc, nil),
		Auth:    usecases.NewAuthService(postgres.NewUserRepo(db)),
		DB:      db,
	}
}

// seedCrag inserts a city, a crag near Bilbao and one annotated route.
// It returns the crag slug and the route ID.
func seedCrag(t *testing.T, db *postgres.DB, suffix string) (string, string) {
	ctx := context.Background()

	city := &domain.City{
		Slug:     "test-city-" + suffix,
		Name:     domain.Localized{"en": "Test City"},
		Location: domain.GeoPoint{Lat: 43.263, Lon: -2.935},
	}
	if err := postgres.NewCityRepo(db).Upsert(ctx, city); err != nil {
		t.Fatalf("seed city: %v", err)
	}

	crag := &domain.Crag{
		Slug:     "test-crag-" + suffix,
		CityID:   city.ID,
		Name:     domain.Localized{"en": "Test Crag", "eu": "Proba"},
		Location: domain.GeoPoint{Lat: 43.27, Lon: -2.94},
		Photo:    &domain.Photo{URL: "https://img.example/test.jpg", Width: 1200, Height: 1600},
	}
	if err := postgres.NewCragRepo(db).Upsert(ctx, crag); err != nil {
		t.Fatalf("seed crag: %v", err)
	}

	route := &domain.Route{
		CragID:   crag.ID,
		Slug:     "test-route",
		Name:     "Test Route",
		Grade:    "6C",
		TopoLine: domain.TopoLine{{X: 0.2, Y: 0.9}, {X: 0.4, Y: 0.5}, {X: 0.3, Y: 0.1}},
	}
	if err := postgres.NewRouteRepo(db).Create(ctx, route); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return crag.Slug, route.ID
}

func TestCragTopo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	slug, _ := seedCrag(t, db, time.Now().Format("20060102150405"))
	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/crags/"+slug+"/topo.svg", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	// 3:4 portrait photo keeps the viewBox area at 120000.
	if !strings.Contains(body, `viewBox="0 0 300 400"`) {
		t.Errorf("expected portrait viewBox, got %s", body)
	}
}

func TestNearbyCrags_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	seedCrag(t, db, "nearby-"+time.Now().Format("150405"))
	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/crags/nearby?lat=43.263&lon=-2.935&radius=5000", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var crags []domain.Crag
	if err := json.NewDecoder(resp.Body).Decode(&crags); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(crags) == 0 {
		t.Error("expected at least 1 nearby crag, got 0")
	}
}

func TestUpdateTopo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	suffix := "topo-" + time.Now().Format("150405")
	_, routeID := seedCrag(t, db, suffix)

	token := "integration-" + suffix
	editor := &domain.User{Email: suffix + "@example.com", Name: "Editor", Role: domain.RoleEditor}
	if err := postgres.NewUserRepo(db).Create(context.Background(), editor, usecases.HashToken(token)); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	app := setupApp(setupTestDeps(t, db))

	req := httptest.NewRequest("PUT", "/v1/routes/"+routeID+"/topo", strings.NewReader(`{"points":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if route.TopoLine.Annotated() {
		t.Errorf("expected the line to be cleared, got %v", route.TopoLine)
	}
}
