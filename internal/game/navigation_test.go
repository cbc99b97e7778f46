package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectionBetween(t *testing.T) {
	origin := Cell{X: 2, Y: 2}
	require.Equal(t, DirSE, DirectionBetween(origin, origin.Add(1, 0)))
	require.Equal(t, DirNW, DirectionBetween(origin, origin.Add(-1, 0)))
	require.Equal(t, DirSW, DirectionBetween(origin, origin.Add(0, 1)))
	require.Equal(t, DirNE, DirectionBetween(origin, origin.Add(0, -1)))
	require.Equal(t, DirIdle, DirectionBetween(origin, origin))
}

func navTestGraph(t *testing.T) *Graph {
	t.Helper()
	return gridGraph(t, []string{
		"rrrr",
	})
}

func walkPath() []Cell {
	return []Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
}

func TestNavigationProgressAndAdvance(t *testing.T) {
	g := navTestGraph(t)
	nav := UnitNavigation{Traversable: NodeRoad}
	nav.SetMovementSpeed(2) // half a second per cell
	nav.ResetPathAndGoal(walkPath(), nil)

	res := nav.Update(g, 0.25)
	require.Equal(t, NavMoving, res.Kind)
	require.Equal(t, Cell{X: 0, Y: 0}, res.From)
	require.Equal(t, Cell{X: 1, Y: 0}, res.To)
	require.InDelta(t, 0.5, res.Progress, 1e-9)
	require.Equal(t, DirSE, res.Direction)

	res = nav.Update(g, 0.25)
	require.Equal(t, NavAdvancedCell, res.Kind)
	require.Equal(t, Cell{X: 1, Y: 0}, res.To)
}

func TestNavigationReachesGoal(t *testing.T) {
	g := navTestGraph(t)
	nav := UnitNavigation{Traversable: NodeRoad}
	nav.SetMovementSpeed(1)
	nav.ResetPathAndGoal(walkPath(), nil)

	reached := false
	for i := 0; i < 100; i++ {
		res := nav.Update(g, 0.5)
		if res.Kind == NavReachedGoal {
			require.Equal(t, Cell{X: 3, Y: 0}, res.To)
			reached = true
			break
		}
	}
	require.True(t, reached, "goal never reached")
	require.False(t, nav.IsFollowingPath())
}

func TestNavigationBlockedPath(t *testing.T) {
	g := navTestGraph(t)
	nav := UnitNavigation{Traversable: NodeRoad}
	nav.SetMovementSpeed(1)
	nav.ResetPathAndGoal(walkPath(), nil)

	// Road removed under the next segment.
	g.SetNodeKind(Cell{X: 1, Y: 0}, NodeEmptyLand)
	res := nav.Update(g, 0.1)
	require.Equal(t, NavPathBlocked, res.Kind)
}

func TestNavigationIdleStates(t *testing.T) {
	g := navTestGraph(t)
	nav := UnitNavigation{Traversable: NodeRoad}
	nav.SetMovementSpeed(1)

	require.Equal(t, NavIdle, nav.Update(g, 0.1).Kind, "no path")

	nav.ResetPathAndGoal(walkPath(), nil)
	nav.Paused = true
	require.Equal(t, NavIdle, nav.Update(g, 0.1).Kind, "paused")
}

func TestNavigationTurnLookahead(t *testing.T) {
	g := gridGraph(t, []string{
		"rr",
		".r",
	})
	nav := UnitNavigation{Traversable: NodeRoad}
	nav.SetMovementSpeed(1)
	nav.ResetPathAndGoal([]Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, nil)

	res := nav.Update(g, 1.0)
	require.Equal(t, NavAdvancedCell, res.Kind)
	require.Equal(t, DirSW, res.Direction, "direction turns toward the next segment on advance")
}
