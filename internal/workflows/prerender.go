package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// PrerenderInput is the input for the prerender workflow. An empty RouteID
// prerenders the crag overlay only.
type PrerenderInput struct {
	CragID  string
	RouteID string
}

// PrerenderResult summarizes what was rendered.
type PrerenderResult struct {
	SVGBytes      int
	PNGBytes      int
	OverlayBytes  int
	BundleVersion string
}

// TopoPrerenderWorkflow renders a route's topo to SVG and PNG, then the crag
// overlay, then rebuilds the crag's offline bundle. Un-annotated routes skip the
// route renders.
func TopoPrerenderWorkflow(ctx workflow.Context, input PrerenderInput) (PrerenderResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting topo prerender", "cragID", input.CragID, "routeID", input.RouteID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var res PrerenderResult

	// Step 1: Resolve route and crag
	var info RouteInfo
	if err := workflow.ExecuteActivity(ctx, "LoadRoute", input.CragID, input.RouteID).Get(ctx, &info); err != nil {
		return res, err
	}

	// A crag-level event follows a bulk write, so cached reads are stale
	if input.RouteID == "" {
		if err := workflow.ExecuteActivity(ctx, "RefreshCrag", info.CragID).Get(ctx, nil); err != nil {
			return res, err
		}
	}

	// Step 2: Route renders
	if info.RouteID != "" && info.Annotated {
		if err := workflow.ExecuteActivity(ctx, "RenderSVG", info.RouteID).Get(ctx, &res.SVGBytes); err != nil {
			return res, err
		}
		if err := workflow.ExecuteActivity(ctx, "RenderPNG", info.RouteID).Get(ctx, &res.PNGBytes); err != nil {
			// A missing thumbnail is not worth failing the run.
			logger.Warn("png render failed", "error", err)
		}
	}

	// Step 3: Crag overlay
	if err := workflow.ExecuteActivity(ctx, "RenderCragOverlay", info.CragSlug).Get(ctx, &res.OverlayBytes); err != nil {
		return res, err
	}

	// Step 4: Offline bundle
	if err := workflow.ExecuteActivity(ctx, "InvalidateOffline", info.CragID, info.CragSlug).Get(ctx, &res.BundleVersion); err != nil {
		return res, err
	}

	logger.Info("Topo prerender done", "crag", info.CragSlug, "version", res.BundleVersion)
	return res, nil
}
