package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	natsadapter "github.com/samirrijal/cragtopo/internal/adapters/nats"
	"github.com/samirrijal/cragtopo/internal/adapters/postgres"
	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/pkg/config"
	"github.com/samirrijal/cragtopo/internal/pkg/logging"
)

// importer loads cities, crags and routes from a JSON manifest.
//
//	importer [-cities bilbao,madrid] [-notify] manifest.json|https://...
func main() {
	cities := flag.String("cities", "", "comma-separated city slugs to import (default all)")
	notify := flag.Bool("notify", true, "announce imported crags so the renderer prerenders them")
	flag.Parse()

	cfg, err := config.Load("cragtopo-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()

	src := "manifest.json"
	if flag.NArg() > 0 {
		src = flag.Arg(0)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	manifest, err := readManifest(ctx, client, src)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}
	slog.Info("importing", "source", manifest.Source, "cities", len(manifest.Cities), "crags", len(manifest.Crags))

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if *notify {
		if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
			slog.Warn("nats unavailable, crags will not be prerendered", "error", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	filter := map[string]bool{}
	for _, s := range strings.Split(*cities, ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter[s] = true
		}
	}

	// Cities first; crags reference them by slug.
	cityRepo := postgres.NewCityRepo(db)
	cityIDs := make(map[string]string)
	for _, c := range manifest.Cities {
		if len(filter) > 0 && !filter[c.Slug] {
			continue
		}
		city := &domain.City{Slug: c.Slug, Name: c.Name, Country: c.Country, Location: c.Location}
		if err := cityRepo.Upsert(ctx, city); err != nil {
			log.Fatalf("city %s: %v", c.Slug, err)
		}
		cityIDs[c.Slug] = city.ID
	}

	cragRepo := postgres.NewCragRepo(db)
	routeRepo := postgres.NewRouteRepo(db)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 crags in flight

	for _, entry := range manifest.Crags {
		cityID, ok := cityIDs[entry.City]
		if !ok {
			if len(filter) == 0 {
				slog.Warn("crag references unknown city", "crag", entry.Slug, "city", entry.City)
			}
			continue
		}

		wg.Add(1)
		go func(e CragEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := importCrag(ctx, cragRepo, routeRepo, publisher, e, cityID); err != nil {
				slog.Error("import crag failed", "crag", e.Slug, "error", err)
			}
		}(entry)
	}

	wg.Wait()
	slog.Info("import complete")
}

func importCrag(ctx context.Context, crags ports.CragRepository, routes ports.RouteRepository, publisher ports.EventPublisher, e CragEntry, cityID string) error {
	crag := e.toCrag(cityID)
	if err := crags.Upsert(ctx, &crag); err != nil {
		return err
	}

	rs, err := e.toRoutes(crag.ID)
	if err != nil {
		slog.Warn("routes imported with problems", "crag", e.Slug, "error", err)
	}
	if err := routes.UpsertBatch(ctx, rs); err != nil {
		return err
	}

	annotated := 0
	for _, r := range rs {
		if r.TopoLine.Annotated() {
			annotated++
		}
	}
	slog.Info("crag imported", "crag", e.Slug, "routes", len(rs), "annotated", annotated)

	if publisher != nil {
		if err := publisher.PublishCragUpdated(ctx, crag.ID); err != nil {
			slog.Warn("publish crag update failed", "crag", e.Slug, "error", err)
		}
	}
	return nil
}
