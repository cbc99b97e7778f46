package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// gridGraph builds a graph from rows of symbols: '.' empty land, '#' blocked,
// 'r' road, 'w' water.
func gridGraph(t *testing.T, rows []string) *Graph {
	t.Helper()
	g := NewGraph(Size{W: len(rows[0]), H: len(rows)})
	for y, row := range rows {
		for x, ch := range row {
			c := Cell{X: x, Y: y}
			switch ch {
			case '.':
				g.SetNodeKind(c, NodeEmptyLand)
			case 'r':
				g.SetNodeKind(c, NodeRoad)
			case 'w':
				g.SetNodeKind(c, NodeWater)
			case '#':
				g.SetNodeKind(c, NodeNone)
			default:
				t.Fatalf("unknown grid symbol %q", ch)
			}
		}
	}
	return g
}

func TestFindPathStraightLine(t *testing.T) {
	g := gridGraph(t, []string{
		"rrrrr",
		".....",
	})
	s := NewSearch(g.Size())
	res := s.FindPath(g, ManhattanHeuristic{}, NodeRoad, Cell{X: 0, Y: 0}, Cell{X: 4, Y: 0})
	require.Equal(t, PathFound, res)

	path := s.Path()
	require.Len(t, path, 5)
	require.Equal(t, Cell{X: 0, Y: 0}, path[0], "path includes the start")
	require.Equal(t, Cell{X: 4, Y: 0}, path[4])
}

func TestFindPathStartEqualsGoal(t *testing.T) {
	g := gridGraph(t, []string{"rr"})
	s := NewSearch(g.Size())
	res := s.FindPath(g, ManhattanHeuristic{}, NodeRoad, Cell{X: 0, Y: 0}, Cell{X: 0, Y: 0})
	require.Equal(t, PathFound, res)
	require.Equal(t, []Cell{{X: 0, Y: 0}}, s.Path())
}

func TestFindPathNonTraversableEndpoints(t *testing.T) {
	g := gridGraph(t, []string{
		"r#r",
	})
	s := NewSearch(g.Size())

	res := s.FindPath(g, ManhattanHeuristic{}, NodeRoad, Cell{X: 1, Y: 0}, Cell{X: 2, Y: 0})
	require.Equal(t, PathNotFound, res, "blocked start")

	res = s.FindPath(g, ManhattanHeuristic{}, NodeRoad, Cell{X: 0, Y: 0}, Cell{X: 1, Y: 0})
	require.Equal(t, PathNotFound, res, "blocked goal")

	// Buffers stay reusable after failures.
	g2 := gridGraph(t, []string{"rrr"})
	res = s.FindPath(g2, ManhattanHeuristic{}, NodeRoad, Cell{X: 0, Y: 0}, Cell{X: 2, Y: 0})
	require.Equal(t, PathFound, res)
	require.Len(t, s.Path(), 3)
}

func TestFindPathAroundObstacle(t *testing.T) {
	g := gridGraph(t, []string{
		"...",
		"###",
		"...",
	})
	// Corridor on the right edge connects the rows.
	g.SetNodeKind(Cell{X: 2, Y: 1}, NodeEmptyLand)

	s := NewSearch(g.Size())
	res := s.FindPath(g, ManhattanHeuristic{}, NodeEmptyLand, Cell{X: 0, Y: 0}, Cell{X: 0, Y: 2})
	require.Equal(t, PathFound, res)

	path := s.Path()
	require.Equal(t, Cell{X: 0, Y: 0}, path[0])
	require.Equal(t, Cell{X: 0, Y: 2}, path[len(path)-1])
	// Shortest detour: right along row 0, through the corridor, back left.
	require.Len(t, path, 7)
	for i := 1; i < len(path); i++ {
		require.Equal(t, 1, path[i].ManhattanDistance(path[i-1]), "4-connected steps only")
	}
}

func TestFindPathNoRoute(t *testing.T) {
	g := gridGraph(t, []string{
		"r#r",
		"###",
	})
	s := NewSearch(g.Size())
	res := s.FindPath(g, ManhattanHeuristic{}, NodeRoad, Cell{X: 0, Y: 0}, Cell{X: 2, Y: 0})
	require.Equal(t, PathNotFound, res)
}

func TestFindWaypointsBound(t *testing.T) {
	g := gridGraph(t, []string{
		"rrrrrrrr",
	})
	s := NewSearch(g.Size())
	res := s.FindWaypoints(g, NodeRoad, Cell{X: 0, Y: 0}, 1, nil)
	require.Equal(t, PathFound, res)
	require.Len(t, s.Path(), 2, "bound of one yields a two-node path")

	res = s.FindWaypoints(g, NodeRoad, Cell{X: 0, Y: 0}, 5, nil)
	require.Equal(t, PathFound, res)
	path := s.Path()
	require.Equal(t, 5, Cell{X: 0, Y: 0}.ManhattanDistance(path[len(path)-1]))
}

func TestFindWaypointsExhaustsFlood(t *testing.T) {
	// Only three road cells; a bound of ten cannot be reached.
	g := gridGraph(t, []string{
		"rrr",
		"###",
	})
	s := NewSearch(g.Size())
	res := s.FindWaypoints(g, NodeRoad, Cell{X: 0, Y: 0}, 10, nil)
	require.Equal(t, PathFound, res)
	path := s.Path()
	require.Equal(t, Cell{X: 2, Y: 0}, path[len(path)-1], "falls back to the farthest reachable node")
}

func TestFindWaypointsNonTraversableStart(t *testing.T) {
	g := gridGraph(t, []string{"#rr"})
	s := NewSearch(g.Size())
	res := s.FindWaypoints(g, NodeRoad, Cell{X: 0, Y: 0}, 3, nil)
	require.Equal(t, PathNotFound, res)
}

func TestFindWaypointsWithBiasStaysValid(t *testing.T) {
	g := gridGraph(t, []string{
		"rrrr",
		"rrrr",
		"rrrr",
	})
	s := NewSearch(g.Size())
	bias := &WaypointBias{Min: 0, Max: 3, Rng: rand.New(rand.NewSource(7))} // #nosec G404 -- test
	res := s.FindWaypoints(g, NodeRoad, Cell{X: 0, Y: 0}, 4, bias)
	require.Equal(t, PathFound, res)
	path := s.Path()
	for i := 1; i < len(path); i++ {
		require.Equal(t, 1, path[i].ManhattanDistance(path[i-1]))
		require.True(t, g.NodeKindAt(path[i]).Intersects(NodeRoad))
	}
}

func TestFindPathToNode(t *testing.T) {
	g := gridGraph(t, []string{
		"rrrw",
	})
	s := NewSearch(g.Size())
	res := s.FindPathToNode(g, NodeRoad, NodeWater, Cell{X: 0, Y: 0})
	require.Equal(t, PathFound, res)
	path := s.Path()
	require.Equal(t, Cell{X: 3, Y: 0}, path[len(path)-1])
}

func TestFindNearestRoadLink(t *testing.T) {
	g := gridGraph(t, []string{
		".....",
		".##..",
		"rrrrr",
	})
	// Building at (1,1)-(2,1); the road row borders its south edge.
	link := g.FindNearestRoadLink(CellRange{Start: Cell{X: 1, Y: 1}, End: Cell{X: 2, Y: 1}})
	require.True(t, link.IsValid())
	require.Equal(t, NodeRoad, g.NodeKindAt(link))
	require.Equal(t, 2, link.Y)
}

func TestFindNearestRoadLinkPrefersFlaggedLink(t *testing.T) {
	g := gridGraph(t, []string{
		"rrr",
		".#.",
	})
	g.SetNodeKind(Cell{X: 2, Y: 0}, NodeBuildingRoadLink)
	link := g.FindNearestRoadLink(CellRange{Start: Cell{X: 1, Y: 1}, End: Cell{X: 1, Y: 1}})
	require.Equal(t, Cell{X: 2, Y: 0}, link)
}

func TestFindNearestRoadLinkNone(t *testing.T) {
	g := gridGraph(t, []string{
		"...",
		".#.",
		"...",
	})
	link := g.FindNearestRoadLink(CellRange{Start: Cell{X: 1, Y: 1}, End: Cell{X: 1, Y: 1}})
	require.False(t, link.IsValid())
}
