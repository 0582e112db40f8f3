package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// recordStarts stubs ExecuteWorkflow and collects the workflow IDs it is given.
func recordStarts(c *mocks.Client) *[]string {
	var ids []string
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("wf")
	run.On("GetRunID").Return("run")
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ids = append(ids, args.Get(1).(client.StartWorkflowOptions).ID)
		}).
		Return(run, nil)
	return &ids
}

func TestStarter_EachEditGetsItsOwnRun(t *testing.T) {
	c := &mocks.Client{}
	ids := recordStarts(c)
	s := &Starter{Client: c, TaskQueue: "topo"}

	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	first := &domain.TopoEvent{CragID: "crag-1", RouteID: "r1", Time: t0}
	second := &domain.TopoEvent{CragID: "crag-1", RouteID: "r1", Time: t0.Add(2 * time.Second)}

	require.NoError(t, s.OnTopoUpdated(context.Background(), first))
	require.NoError(t, s.OnTopoUpdated(context.Background(), second))
	require.NoError(t, s.OnTopoUpdated(context.Background(), first))

	require.Len(t, *ids, 3)
	require.NotEqual(t, (*ids)[0], (*ids)[1], "a later edit must not join the earlier run")
	require.Equal(t, (*ids)[0], (*ids)[2], "a redelivered event keeps its id")
}

func TestStarter_CragUpdateUsesClock(t *testing.T) {
	c := &mocks.Client{}
	ids := recordStarts(c)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s := &Starter{Client: c, TaskQueue: "topo", Now: func() time.Time { return now }}

	require.NoError(t, s.OnCragUpdated(context.Background(), "crag-1"))
	now = now.Add(time.Minute)
	require.NoError(t, s.OnCragUpdated(context.Background(), "crag-1"))

	require.Len(t, *ids, 2)
	require.NotEqual(t, (*ids)[0], (*ids)[1])
}

func TestStarter_StartFailure(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("frontend unavailable"))
	s := &Starter{Client: c, TaskQueue: "topo"}

	err := s.OnCragUpdated(context.Background(), "crag-1")
	require.ErrorContains(t, err, "frontend unavailable")
}
