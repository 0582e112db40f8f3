package workflows

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TopoPrerenderWorkflow)
	env.RegisterActivity(&TopoActivities{})
	return env
}

func TestTopoPrerenderWorkflow(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadRoute", mock.Anything, "crag-1", "r1").
		Return(RouteInfo{RouteID: "r1", CragID: "crag-1", CragSlug: "atxarte", Annotated: true}, nil)
	env.OnActivity("RenderSVG", mock.Anything, "r1").Return(812, nil)
	env.OnActivity("RenderPNG", mock.Anything, "r1").Return(4096, nil)
	env.OnActivity("RenderCragOverlay", mock.Anything, "atxarte").Return(1500, nil)
	env.OnActivity("InvalidateOffline", mock.Anything, "crag-1", "atxarte").Return("abc123", nil)

	env.ExecuteWorkflow(TopoPrerenderWorkflow, PrerenderInput{CragID: "crag-1", RouteID: "r1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var res PrerenderResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, PrerenderResult{SVGBytes: 812, PNGBytes: 4096, OverlayBytes: 1500, BundleVersion: "abc123"}, res)
}

func TestTopoPrerenderSkipsUnannotatedRoute(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadRoute", mock.Anything, "crag-1", "r2").
		Return(RouteInfo{RouteID: "r2", CragID: "crag-1", CragSlug: "atxarte"}, nil)
	env.OnActivity("RenderCragOverlay", mock.Anything, "atxarte").Return(900, nil)
	env.OnActivity("InvalidateOffline", mock.Anything, "crag-1", "atxarte").Return("v2", nil)

	env.ExecuteWorkflow(TopoPrerenderWorkflow, PrerenderInput{CragID: "crag-1", RouteID: "r2"})

	require.NoError(t, env.GetWorkflowError())
	var res PrerenderResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Zero(t, res.SVGBytes)
	require.Equal(t, "v2", res.BundleVersion)
}

func TestTopoPrerenderPNGFailureIsTolerated(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadRoute", mock.Anything, "crag-1", "r1").
		Return(RouteInfo{RouteID: "r1", CragID: "crag-1", CragSlug: "atxarte", Annotated: true}, nil)
	env.OnActivity("RenderSVG", mock.Anything, "r1").Return(812, nil)
	env.OnActivity("RenderPNG", mock.Anything, "r1").Return(0, assertErr("raster failed"))
	env.OnActivity("RenderCragOverlay", mock.Anything, "atxarte").Return(1500, nil)
	env.OnActivity("InvalidateOffline", mock.Anything, "crag-1", "atxarte").Return("v3", nil)

	env.ExecuteWorkflow(TopoPrerenderWorkflow, PrerenderInput{CragID: "crag-1", RouteID: "r1"})

	require.NoError(t, env.GetWorkflowError())
}

func TestTopoPrerenderCragUpdateRefreshesCaches(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadRoute", mock.Anything, "crag-1", "").
		Return(RouteInfo{CragID: "crag-1", CragSlug: "atxarte"}, nil)
	env.OnActivity("RefreshCrag", mock.Anything, "crag-1").Return(nil).Once()
	env.OnActivity("RenderCragOverlay", mock.Anything, "atxarte").Return(1500, nil)
	env.OnActivity("InvalidateOffline", mock.Anything, "crag-1", "atxarte").Return("v4", nil)

	env.ExecuteWorkflow(TopoPrerenderWorkflow, PrerenderInput{CragID: "crag-1"})

	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
	var res PrerenderResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, "v4", res.BundleVersion)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
