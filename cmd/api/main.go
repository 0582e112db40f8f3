package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/cragtopo/internal/adapters/http"
	natsadapter "github.com/samirrijal/cragtopo/internal/adapters/nats"
	"github.com/samirrijal/cragtopo/internal/adapters/postgres"
	"github.com/samirrijal/cragtopo/internal/adapters/valkey"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/config"
	"github.com/samirrijal/cragtopo/internal/pkg/i18n"
	"github.com/samirrijal/cragtopo/internal/pkg/logging"
	"github.com/samirrijal/cragtopo/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("cragtopo-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "service", "api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache (optional)
	var (
		cache       ports.CacheService
		cachePinger http.Pinger
	)
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache, cachePinger = vc, vc
	}

	// NATS (optional)
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Raw NATS connection for the topo session relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Use cases
	citySvc := usecases.NewCityService(postgres.NewCityRepo(db), cache)
	cragSvc := usecases.NewCragService(postgres.NewCragRepo(db), cache, publisher)
	routeSvc := usecases.NewRouteService(postgres.NewRouteRepo(db), cache, publisher)
	topoSvc := usecases.NewTopoService(routeSvc, cragSvc, cache, usecases.TopoSettings{
		Tension:     cfg.Topo.Tension,
		StrokeWidth: cfg.Topo.StrokeWidth,
		PNGScale:    cfg.Topo.PNGScale,
		Duration:    cfg.Topo.Duration,
		Delay:       cfg.Topo.AutoPlay,
		Easing:      cfg.Topo.Easing,
	})

	deps := &http.Dependencies{
		Cities:    citySvc,
		Crags:     cragSvc,
		Routes:    routeSvc,
		Topo:      topoSvc,
		Offline:   usecases.NewOfflineService(cragSvc, routeSvc, cache),
		Auth:      usecases.NewAuthService(postgres.NewUserRepo(db)),
		I18n:      i18n.Default(),
		NATS:      natsConn,
		DB:        db,
		Cache:     cachePinger,
		AutoPlay:  cfg.Topo.AutoPlay,
		RateLimit: cfg.Server.RateLimit,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CragTopo API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.cragtopo.app",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, If-None-Match",
		ExposeHeaders:    "ETag, Link, Content-Language, Deprecation, Sunset",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
