package game

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Connecting the two village houses with a dirt path: every cell of the
// segment becomes a road node, the treasury pays per new cell, and both
// houses discover a road link.
func TestScenarioConnectVillageHouses(t *testing.T) {
	sim := NewSimulation(SimulationOptions{MapSize: Size{W: 9, H: 9}, Seed: 7})
	require.NoError(t, sim.LoadPreset(0))

	q := sim.Query(0.1)
	def := sim.TileMap().TileSets().FindByName("dirt_path")
	require.NotNil(t, def)

	goldBefore := q.Treasury().Gold
	err := sim.Placement().PlaceRoadSegment(q, def, Cell{X: 2, Y: 4}, Cell{X: 6, Y: 4}, SegmentHV)
	require.NoError(t, err)

	// Five fresh cells, charged at the def's per-cell cost.
	require.Equal(t, goldBefore-5*def.Cost, q.Treasury().Gold)
	for x := 2; x <= 6; x++ {
		c := Cell{X: x, Y: 4}
		require.True(t, sim.Graph().NodeKindAt(c).Intersects(NodeRoad), "cell (%d,4)", x)
	}

	// Both preset houses sit one cell above the new road and can reach it.
	for _, hc := range []Cell{{X: 2, Y: 3}, {X: 6, Y: 3}} {
		b, ok := sim.World().FindBuildingAtCell(sim.TileMap(), hc)
		require.True(t, ok, "house at (%d,%d)", hc.X, hc.Y)
		require.NotEqual(t, InvalidCell, b.RoadLink(sim.Graph()))
	}
}

// A rice farm and a granary on the same road: the farm produces on its timer
// and its runner carts the rice over, so the granary fills up while the
// farm's output stock never exceeds its capacity.
func TestScenarioFarmDeliversToGranary(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("rice_farm", 1, 4),
		WithBuilding("granary", 6, 4),
	)
	ts.RunTicks(300) // 30 seconds

	granary := ts.BuildingAt(6, 4)
	require.GreaterOrEqual(t, granary.Behavior.AvailableResources(ResourceRice), 1,
		"granary received no rice")

	farm := ts.BuildingAt(1, 4)
	p, ok := farm.Behavior.(*ProducerState)
	require.True(t, ok)
	require.LessOrEqual(t, p.OutputStock.Stock.Count(ResourceRice),
		int(p.OutputStock.Capacities[ResourceRice.bitIndex()]),
		"farm output overflowed its capacity")
}

// A stocked granary, a well, and residents: the house shops for rice, meets
// the next level's demands, and climbs the ladder within a few evaluation
// cycles.
func TestScenarioHouseUpgrades(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithBuilding("house0", 3, 3),
		WithBuilding("well", 2, 3),
		WithBuilding("granary", 5, 3),
	)
	granary := ts.BuildingAt(5, 3)
	require.Equal(t, 16, ts.StockFor(granary, ResourceRice, 16))

	house := ts.BuildingAt(3, 3)
	require.Equal(t, 2, ts.MoveIn(house, 2))

	tick := ts.RunUntil(func(ts *TestSim) bool {
		return house.Behavior.(*HouseState).Level >= 1
	}, 600)
	require.NotEqual(t, -1, tick, "house never upgraded")

	h := house.Behavior.(*HouseState)
	require.GreaterOrEqual(t, h.Level, 1)
	require.Equal(t, Size{W: 2, H: 2}, house.Size)
	require.GreaterOrEqual(t, h.Pop.Count, 2, "residents lost in the upgrade")
}

// Walking the ring road between opposite corners: the path follows the
// perimeter with cardinal steps only, and its length is the Manhattan
// distance plus one.
func TestScenarioRingRoadPath(t *testing.T) {
	sim := NewSimulation(SimulationOptions{MapSize: Size{W: 12, H: 12}, Seed: 3})
	require.NoError(t, sim.LoadPreset(2))

	q := sim.Query(0)
	start, goal := Cell{X: 1, Y: 1}, Cell{X: 10, Y: 10}
	res := q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, NodeRoad, start, goal)
	require.Equal(t, PathFound, res)

	path := q.Search().Path()
	require.Len(t, path, 19) // 18 steps around the ring, start included
	require.Equal(t, start, path[0])
	require.Equal(t, goal, path[len(path)-1])
	for i := 1; i < len(path); i++ {
		require.Equal(t, 1, path[i-1].ManhattanDistance(path[i]),
			"non-cardinal step at %d", i)
		require.True(t, q.Graph().NodeKindAt(path[i]).Intersects(NodeRoad))
	}
}

// Demolishing a road cell and undoing it: the cell comes back as road and the
// junction variations of the whole run match an unbroken row again.
func TestScenarioUndoRestoresClearedRoad(t *testing.T) {
	ts := NewTestSim(WithGold(100))
	q := ts.Query()
	def := ts.Sim.TileMap().TileSets().FindByName("dirt_path")

	require.NoError(t, ts.Sim.Placement().PlaceRoadSegment(q, def, Cell{X: 2, Y: 4}, Cell{X: 6, Y: 4}, SegmentHV))
	require.NoError(t, ts.Sim.Placement().ClearTile(q, Cell{X: 4, Y: 4}))
	require.False(t, ts.Sim.Graph().NodeKindAt(Cell{X: 4, Y: 4}).Intersects(NodeRoad))

	require.NoError(t, ts.Sim.Placement().Journal().Undo(q))

	tm := ts.Sim.TileMap()
	require.True(t, ts.Sim.Graph().NodeKindAt(Cell{X: 4, Y: 4}).Intersects(NodeRoad))
	require.Equal(t, "dirt_path", tm.TileAt(Cell{X: 4, Y: 4}, LayerTerrain).Def.Name)

	// The seam cells reconnect: (3,4) sees its +x neighbor again, (5,4) its
	// -x neighbor, and the restored cell carries both bits.
	require.NotZero(t, tm.TileAt(Cell{X: 3, Y: 4}, LayerTerrain).VariationIndex&RoadJunctionN)
	require.NotZero(t, tm.TileAt(Cell{X: 5, Y: 4}, LayerTerrain).VariationIndex&RoadJunctionS)
	require.Equal(t, RoadJunctionS|RoadJunctionN, tm.TileAt(Cell{X: 4, Y: 4}, LayerTerrain).VariationIndex)

	// Redo takes the cell out again.
	require.NoError(t, ts.Sim.Placement().Journal().Redo(q))
	require.False(t, ts.Sim.Graph().NodeKindAt(Cell{X: 4, Y: 4}).Intersects(NodeRoad))
}

// Saving a running settlement and loading it into a fresh session: the census
// and every building's stock match, and re-saving the loaded session
// reproduces the file byte for byte.
func TestScenarioSaveLoadRoundTrip(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("rice_farm", 1, 4),
		WithBuilding("granary", 6, 4),
	)
	ts.RunTicks(300)

	path := filepath.Join(t.TempDir(), "slot.json")
	require.NoError(t, ts.Sim.SaveToFile(path))

	loaded := NewSimulation(SimulationOptions{MapSize: Size{W: 9, H: 9}, Seed: 99})
	require.NoError(t, loaded.LoadFromFile(path))

	require.Equal(t, ts.Sim.SessionID(), loaded.SessionID())
	require.Equal(t, ts.Sim.Tick(), loaded.Tick())

	var want, got WorldStats
	ts.Sim.World().TallyStats(&want, ts.Sim.Tasks().Count())
	loaded.World().TallyStats(&got, loaded.Tasks().Count())
	require.Equal(t, want, got)

	ts.Sim.World().ForEachBuilding(func(b *Building) bool {
		other, ok := loaded.World().FindBuildingAtCell(loaded.TileMap(), b.BaseCell)
		require.True(t, ok, "no loaded building at (%d,%d)", b.BaseCell.X, b.BaseCell.Y)
		require.Equal(t, b.Name, other.Name)
		ForEachResourceKind(AllResources, func(k ResourceKind) bool {
			require.Equal(t, b.Behavior.AvailableResources(k), other.Behavior.AvailableResources(k),
				"%s stock of %v", b.Name, k)
			return true
		})
		return true
	})

	// Re-saving the loaded session reproduces the original file, timestamp
	// aside.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var meta struct {
		SavedAt time.Time `json:"saved_at"`
	}
	require.NoError(t, json.Unmarshal(data, &meta))

	doc := loaded.BuildSaveDocument()
	doc.SavedAt = meta.SavedAt
	again, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.Equal(t, string(data), string(again))
}
