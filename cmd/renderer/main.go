package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/cragtopo/internal/adapters/nats"
	"github.com/samirrijal/cragtopo/internal/adapters/postgres"
	"github.com/samirrijal/cragtopo/internal/adapters/valkey"
	"github.com/samirrijal/cragtopo/internal/core/ports"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/config"
	"github.com/samirrijal/cragtopo/internal/pkg/logging"
	"github.com/samirrijal/cragtopo/internal/pkg/telemetry"
	"github.com/samirrijal/cragtopo/internal/workflows"
)

// renderer runs the prerender worker and feeds it from topo and crag events.
func main() {
	cfg, err := config.Load("cragtopo-renderer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "service", "renderer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Renders land in the shared cache, so the renderer is pointless without it.
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer vc.Close()
	var cache ports.CacheService = vc

	cragSvc := usecases.NewCragService(postgres.NewCragRepo(db), cache, nil)
	routeSvc := usecases.NewRouteService(postgres.NewRouteRepo(db), cache, nil)
	topoSvc := usecases.NewTopoService(routeSvc, cragSvc, cache, usecases.TopoSettings{
		Tension:     cfg.Topo.Tension,
		StrokeWidth: cfg.Topo.StrokeWidth,
		PNGScale:    cfg.Topo.PNGScale,
		Duration:    cfg.Topo.Duration,
		Delay:       cfg.Topo.AutoPlay,
		Easing:      cfg.Topo.Easing,
	})

	// Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TopoPrerenderWorkflow)
	w.RegisterActivity(&workflows.TopoActivities{
		Routes:  routeSvc,
		Crags:   cragSvc,
		Topo:    topoSvc,
		Offline: usecases.NewOfflineService(cragSvc, routeSvc, cache),
	})
	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	// Events
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	starter := &workflows.Starter{Client: tc, TaskQueue: cfg.Temporal.TaskQueue}
	if err := sub.SubscribeTopoUpdates(ctx, starter.OnTopoUpdated); err != nil {
		log.Fatalf("subscribe topo: %v", err)
	}
	if err := sub.SubscribeCragUpdates(ctx, starter.OnCragUpdated); err != nil {
		log.Fatalf("subscribe crag: %v", err)
	}

	// Metrics
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &nethttp.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port+1), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			slog.Error("metrics server", "error", err)
		}
	}()

	slog.Info("renderer started", "task_queue", cfg.Temporal.TaskQueue)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	slog.Info("renderer stopped")
}
