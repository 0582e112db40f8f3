package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/pkg/metrics"
	"github.com/samirrijal/cragtopo/internal/pkg/telemetry"
)

// Starter turns topo events into prerender workflow runs.
type Starter struct {
	Client    client.Client
	TaskQueue string
	// Now stamps crag-level runs; nil means time.Now.
	Now func() time.Time
}

// OnTopoUpdated starts a prerender run for one edit. The ID carries the edit
// time: a redelivered event maps onto its existing run, while a later edit
// gets a run of its own instead of joining one that already rendered.
func (s *Starter) OnTopoUpdated(ctx context.Context, ev *domain.TopoEvent) error {
	metrics.TopoUpdates.Inc()
	id := fmt.Sprintf("topo-prerender-%s-%d", ev.RouteID, ev.Time.UnixNano())
	return s.start(ctx, id, PrerenderInput{CragID: ev.CragID, RouteID: ev.RouteID})
}

// OnCragUpdated starts a crag-only prerender run. crag.updated carries no
// timestamp, so each delivery gets its own run.
func (s *Starter) OnCragUpdated(ctx context.Context, cragID string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	id := fmt.Sprintf("crag-prerender-%s-%d", cragID, now().UnixNano())
	return s.start(ctx, id, PrerenderInput{CragID: cragID})
}

func (s *Starter) start(ctx context.Context, id string, in PrerenderInput) error {
	ctx, span := otel.Tracer("github.com/samirrijal/cragtopo/internal/workflows").Start(ctx, telemetry.SpanPrerender)
	defer span.End()
	span.SetAttributes(attribute.String("workflow_id", id), attribute.String("crag_id", in.CragID))

	run, err := s.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: s.TaskQueue,
	}, TopoPrerenderWorkflow, in)
	if err != nil {
		metrics.PrerenderRuns.WithLabelValues("start_failed").Inc()
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("start %s: %w", id, err)
	}
	metrics.PrerenderRuns.WithLabelValues("started").Inc()
	slog.InfoContext(ctx, "prerender started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
