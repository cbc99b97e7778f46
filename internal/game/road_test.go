package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoadSegmentCellsShapes(t *testing.T) {
	from, to := Cell{X: 2, Y: 4}, Cell{X: 5, Y: 6}
	wantLen := 3 + 2 + 1 // dx + dy + start

	for _, shape := range []RoadSegmentShape{SegmentHV, SegmentVH, SegmentZigzag} {
		cells := RoadSegmentCells(from, to, shape)
		require.Len(t, cells, wantLen, "shape %d", shape)
		require.Equal(t, from, cells[0])
		require.Equal(t, to, cells[len(cells)-1])
		for i := 1; i < len(cells); i++ {
			require.Equal(t, 1, cells[i-1].ManhattanDistance(cells[i]),
				"shape %d stepped diagonally at %d", shape, i)
		}
	}

	// HV bends at the horizontal leg's end, VH at the vertical leg's end.
	hv := RoadSegmentCells(from, to, SegmentHV)
	require.Contains(t, hv, Cell{X: 5, Y: 4})
	vh := RoadSegmentCells(from, to, SegmentVH)
	require.Contains(t, vh, Cell{X: 2, Y: 6})
}

func TestRoadSegmentCellsSinglePoint(t *testing.T) {
	cells := RoadSegmentCells(Cell{X: 3, Y: 3}, Cell{X: 3, Y: 3}, SegmentHV)
	require.Equal(t, []Cell{{X: 3, Y: 3}}, cells)
}

// A crossroads carries all four junction bits; the arms carry only the bit
// facing the center.
func TestRoadJunctionVariations(t *testing.T) {
	ts := NewTestSim(
		WithTerrain("dirt_path", 4, 4),
		WithTerrain("dirt_path", 4, 3), // -y arm
		WithTerrain("dirt_path", 4, 5), // +y arm
		WithTerrain("dirt_path", 3, 4), // -x arm
		WithTerrain("dirt_path", 5, 4), // +x arm
	)
	tm := ts.Sim.TileMap()
	variation := func(x, y int) int {
		return tm.TileAt(Cell{X: x, Y: y}, LayerTerrain).VariationIndex
	}

	require.Equal(t, RoadJunctionW|RoadJunctionS|RoadJunctionE|RoadJunctionN, variation(4, 4))
	require.Equal(t, RoadJunctionE, variation(4, 3))
	require.Equal(t, RoadJunctionW, variation(4, 5))
	require.Equal(t, RoadJunctionN, variation(3, 4))
	require.Equal(t, RoadJunctionS, variation(5, 4))
}

// Junctions update when a neighboring road appears or disappears.
func TestRoadJunctionsFollowEdits(t *testing.T) {
	ts := NewTestSim(WithGold(100))
	q := ts.Query()
	def := ts.Sim.TileMap().TileSets().FindByName("dirt_path")

	require.NoError(t, ts.Sim.Placement().PlaceRoadSegment(q, def, Cell{X: 2, Y: 4}, Cell{X: 4, Y: 4}, SegmentHV))
	tm := ts.Sim.TileMap()
	require.Equal(t, RoadJunctionS|RoadJunctionN, tm.TileAt(Cell{X: 3, Y: 4}, LayerTerrain).VariationIndex)

	require.NoError(t, ts.Sim.Placement().ClearTile(q, Cell{X: 4, Y: 4}))
	require.Equal(t, RoadJunctionS, tm.TileAt(Cell{X: 3, Y: 4}, LayerTerrain).VariationIndex)
}
