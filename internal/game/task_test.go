package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// A building with no road link cannot dispatch anything.
func TestDispatchNeedsRoadLink(t *testing.T) {
	ts := NewTestSim(WithGold(500), WithBuilding("rice_farm", 3, 3))
	q := ts.Query()
	farm := ts.BuildingAt(3, 3)

	u := q.Tasks().StartDeliverToStorage(q, farm, "runner", ResourceRice, 2, "producer_runner_done")
	require.Nil(t, u)
	require.Equal(t, 0, q.Tasks().Count())
}

// A delivery with no reachable storage is a soft failure: no unit, no task.
func TestDeliverNeedsDestination(t *testing.T) {
	ts := NewTestSim(WithGold(500), WithRoadRow(4, 0, 8), WithBuilding("rice_farm", 1, 5))
	q := ts.Query()
	farm := ts.BuildingAt(1, 5)

	u := q.Tasks().StartDeliverToStorage(q, farm, "runner", ResourceRice, 2, "producer_runner_done")
	require.Nil(t, u)
	require.Equal(t, 0, q.Tasks().Count())
	require.Equal(t, 0, ts.Sim.World().UnitCount())
}

// While deliveries run, units and tasks stay paired up: every live unit's
// task resolves and every task's unit resolves.
func TestDeliveryKeepsUnitsAndTasksPaired(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("rice_farm", 1, 5),
		WithBuilding("granary", 6, 5),
	)
	granary := ts.BuildingAt(6, 5)

	tick := ts.RunUntil(func(ts *TestSim) bool {
		return granary.Behavior.AvailableResources(ResourceRice) > 0
	}, 1200)
	require.NotEqual(t, -1, tick, "delivery never completed")

	units := 0
	ts.Sim.World().ForEachUnit(func(u *Unit) bool {
		units++
		_, ok := ts.Sim.Tasks().TryGet(u.TaskID)
		require.True(t, ok, "unit %s has a dangling task id", u.Name)
		return true
	})
	require.Equal(t, units, ts.Sim.Tasks().Count())
	ts.Sim.Tasks().Pool().ForEach(func(task *Task) bool {
		_, ok := ts.Sim.World().units.TryGet(task.UnitID)
		require.True(t, ok, "%s task has a dangling unit id", task.Kind)
		return true
	})
}

// Demolishing a runner's destination mid-trip redirects or fails the task
// without stranding the unit forever.
func TestDeliverySurvivesDemolishedDestination(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("rice_farm", 1, 5),
		WithBuilding("granary", 6, 5),
	)
	q := ts.Query()

	// Wait for a runner to be on the road, then demolish the granary.
	tick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.Sim.World().UnitCount() > 0
	}, 600)
	require.NotEqual(t, -1, tick)
	require.NoError(t, ts.Sim.Placement().ClearTile(q, Cell{X: 6, Y: 5}))

	// The runner winds down instead of walking forever.
	tick = ts.RunUntil(func(ts *TestSim) bool {
		return ts.Sim.World().UnitCount() == 0 && ts.Sim.Tasks().Count() == 0
	}, 1200)
	require.NotEqual(t, -1, tick, "runner never wound down after demolition")

	// The cargo came home: nothing was delivered anywhere, so the farm holds
	// everything it produced, within its capacity.
	farm := ts.BuildingAt(1, 5)
	require.Greater(t, farm.Behavior.AvailableResources(ResourceRice), 0)
}

// A building placed across a road splits it; dispatch skips bordering road
// cells stranded on the cut-off fragment and starts from one that still
// reaches a destination.
func TestDispatchSkipsSeveredRoadFragment(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("rice_farm", 1, 4),
		WithBuilding("granary", 6, 4),
	)
	q := ts.Query()
	farm := ts.BuildingAt(1, 4)

	// The farm sits on (1,4)-(2,5), so only the stub at (0,4) and the run
	// from (3,4) remain walkable, and just the latter reaches the granary.
	require.False(t, ts.Sim.Graph().NodeKindAt(Cell{X: 1, Y: 4}).Intersects(RoadLikeNodes))

	u := q.Tasks().StartDeliverToStorage(q, farm, "runner", ResourceRice, 2, "producer_runner_done")
	require.NotNil(t, u, "no dispatch despite a connected road link")
	task, ok := q.Tasks().TryGet(u.TaskID)
	require.True(t, ok)
	require.Equal(t, Cell{X: 3, Y: 4}, task.OriginRoadLink)

	granary := ts.BuildingAt(6, 4)
	tick := ts.RunUntil(func(*TestSim) bool {
		return granary.Behavior.AvailableResources(ResourceRice) > 0
	}, 1200)
	require.NotEqual(t, -1, tick, "delivery never completed")
}

func TestRegisterTaskCallbackRejectsDuplicates(t *testing.T) {
	RegisterTaskCallback("task_test_unique", func(*Building, *Unit, *Task, *Query) bool { return false })
	require.Panics(t, func() {
		RegisterTaskCallback("task_test_unique", func(*Building, *Unit, *Task, *Query) bool { return false })
	})
}
