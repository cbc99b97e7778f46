package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testMap(t *testing.T, w, h int) *TileMap {
	t.Helper()
	sets := BuiltinTileSets()
	grass := sets.FindByName("grass")
	require.NotNil(t, grass)
	return NewTileMap(Size{W: w, H: h}, sets, grass)
}

func TestNewTileMapFillsTerrain(t *testing.T) {
	tm := testMap(t, 4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			tile := tm.TileAt(Cell{X: x, Y: y}, LayerTerrain)
			require.NotNil(t, tile)
			require.Equal(t, "grass", tile.Def.Name)
			require.Nil(t, tm.TileAt(Cell{X: x, Y: y}, LayerObjects))
		}
	}
}

func TestPlaceMultiCellBuildingWritesBlockers(t *testing.T) {
	tm := testMap(t, 6, 6)
	def := tm.TileSets().FindByName("granary") // 2x2

	tile, err := tm.TryPlaceTile(Cell{X: 2, Y: 2}, def)
	require.NoError(t, err)
	require.Equal(t, Cell{X: 2, Y: 2}, tile.BaseCell)

	for _, c := range []Cell{{X: 3, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3}} {
		b := tm.TileAt(c, LayerObjects)
		require.NotNil(t, b)
		require.True(t, b.IsBlocker())
		require.Equal(t, Cell{X: 2, Y: 2}, b.BlockerBase())
		require.Same(t, tile, tm.BaseTileAt(c, LayerObjects))
	}
}

func TestPlacePartiallyOutOfBoundsFails(t *testing.T) {
	tm := testMap(t, 4, 4)
	def := tm.TileSets().FindByName("granary") // 2x2

	_, err := tm.TryPlaceTile(Cell{X: 3, Y: 3}, def)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// Map unchanged.
	require.Nil(t, tm.TileAt(Cell{X: 3, Y: 3}, LayerObjects))
}

func TestPlaceOnOccupiedCellFails(t *testing.T) {
	tm := testMap(t, 6, 6)
	well := tm.TileSets().FindByName("well")
	granary := tm.TileSets().FindByName("granary")

	_, err := tm.TryPlaceTile(Cell{X: 3, Y: 3}, well)
	require.NoError(t, err)

	// Granary at (2,2) would cover (3,3).
	_, err = tm.TryPlaceTile(Cell{X: 2, Y: 2}, granary)
	require.ErrorIs(t, err, ErrOccupied)
	require.Nil(t, tm.TileAt(Cell{X: 2, Y: 2}, LayerObjects), "failed placement writes nothing")
}

func TestTerrainOverwriteKeepsObjects(t *testing.T) {
	tm := testMap(t, 4, 4)
	road := tm.TileSets().FindByName("dirt_path")
	well := tm.TileSets().FindByName("well")

	_, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, well)
	require.NoError(t, err)

	_, err = tm.TryPlaceTile(Cell{X: 1, Y: 1}, road)
	require.NoError(t, err)
	require.Equal(t, "dirt_path", tm.TileAt(Cell{X: 1, Y: 1}, LayerTerrain).Def.Name)
	require.Equal(t, "well", tm.TileAt(Cell{X: 1, Y: 1}, LayerObjects).Def.Name)
}

func TestUnitStacking(t *testing.T) {
	tm := testMap(t, 4, 4)
	runner := tm.TileSets().FindByName("runner")

	a, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, runner)
	require.NoError(t, err)
	b, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, runner)
	require.NoError(t, err)

	head := tm.TileAt(Cell{X: 1, Y: 1}, LayerObjects)
	require.Same(t, b, head, "newest unit is the stack head")
	require.Same(t, a, head.NextInStack())

	// Popping one unit keeps the other in place.
	require.NoError(t, tm.RemoveStackedTile(Cell{X: 1, Y: 1}, b))
	require.Same(t, a, tm.TileAt(Cell{X: 1, Y: 1}, LayerObjects))
	require.Nil(t, a.NextInStack())
}

func TestUnitCannotStackOnBuilding(t *testing.T) {
	tm := testMap(t, 4, 4)
	well := tm.TileSets().FindByName("well")
	runner := tm.TileSets().FindByName("runner")

	_, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, well)
	require.NoError(t, err)
	_, err = tm.TryPlaceTile(Cell{X: 1, Y: 1}, runner)
	require.ErrorIs(t, err, ErrOccupied)
}

func TestClearMultiCellTileRemovesBlockers(t *testing.T) {
	tm := testMap(t, 6, 6)
	def := tm.TileSets().FindByName("granary")

	_, err := tm.TryPlaceTile(Cell{X: 2, Y: 2}, def)
	require.NoError(t, err)

	// Clearing via a blocker cell resolves to the base tile.
	require.NoError(t, tm.TryClearTileFromLayer(Cell{X: 3, Y: 3}, LayerObjects))
	def.CellRange(Cell{X: 2, Y: 2}).ForEach(func(c Cell) bool {
		require.Nil(t, tm.TileAt(c, LayerObjects))
		return true
	})
}

func TestTryMoveTileUnit(t *testing.T) {
	tm := testMap(t, 4, 4)
	runner := tm.TileSets().FindByName("runner")
	well := tm.TileSets().FindByName("well")

	u, err := tm.TryPlaceTile(Cell{X: 0, Y: 0}, runner)
	require.NoError(t, err)
	_, err = tm.TryPlaceTile(Cell{X: 2, Y: 2}, well)
	require.NoError(t, err)

	require.NoError(t, tm.TryMoveTile(u, Cell{X: 1, Y: 0}))
	require.Equal(t, Cell{X: 1, Y: 0}, u.BaseCell)
	require.Nil(t, tm.TileAt(Cell{X: 0, Y: 0}, LayerObjects))
	require.Same(t, u, tm.TileAt(Cell{X: 1, Y: 0}, LayerObjects))

	require.ErrorIs(t, tm.TryMoveTile(u, Cell{X: 2, Y: 2}), ErrOccupied)
	require.ErrorIs(t, tm.TryMoveTile(u, Cell{X: 9, Y: 9}), ErrOutOfBounds)
	require.NoError(t, tm.TryMoveTile(u, u.BaseCell), "same-cell move is a no-op")
}

func TestPlacementCallbacksFire(t *testing.T) {
	tm := testMap(t, 4, 4)
	var placed, removed []string
	tm.SetCallbacks(TileMapCallbacks{
		OnTilePlaced:   func(tile *Tile) { placed = append(placed, tile.Def.Name) },
		OnRemovingTile: func(tile *Tile) { removed = append(removed, tile.Def.Name) },
	})

	well := tm.TileSets().FindByName("well")
	_, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, well)
	require.NoError(t, err)
	require.NoError(t, tm.TryClearTileFromLayer(Cell{X: 1, Y: 1}, LayerObjects))

	require.Equal(t, []string{"well"}, placed)
	require.Equal(t, []string{"well"}, removed)
}

func TestFindTileWithKindMask(t *testing.T) {
	tm := testMap(t, 4, 4)
	runner := tm.TileSets().FindByName("runner")

	u, err := tm.TryPlaceTile(Cell{X: 1, Y: 1}, runner)
	require.NoError(t, err)

	require.Same(t, u, tm.FindTile(Cell{X: 1, Y: 1}, LayerObjects, TileKindUnit))
	require.Nil(t, tm.FindTile(Cell{X: 1, Y: 1}, LayerObjects, TileKindBuilding))
	require.NotNil(t, tm.FindTile(Cell{X: 1, Y: 1}, LayerTerrain, TileKindTerrain))
}

func TestGraphDerivationFromTileMap(t *testing.T) {
	tm := testMap(t, 5, 5)
	road := tm.TileSets().FindByName("dirt_path")
	well := tm.TileSets().FindByName("well")
	water := tm.TileSets().FindByName("water")

	_, err := tm.TryPlaceTile(Cell{X: 1, Y: 0}, road)
	require.NoError(t, err)
	_, err = tm.TryPlaceTile(Cell{X: 2, Y: 0}, well)
	require.NoError(t, err)
	_, err = tm.TryPlaceTile(Cell{X: 3, Y: 0}, water)
	require.NoError(t, err)

	g := NewGraph(tm.SizeInCells())
	g.RebuildFromTileMap(tm)

	require.Equal(t, NodeEmptyLand, g.NodeKindAt(Cell{X: 0, Y: 0}))
	require.Equal(t, NodeRoad, g.NodeKindAt(Cell{X: 1, Y: 0}))
	require.Equal(t, NodeBuilding, g.NodeKindAt(Cell{X: 2, Y: 0}))
	require.Equal(t, NodeWater, g.NodeKindAt(Cell{X: 3, Y: 0}))

	// A flagged road-link cell projects its own node kind.
	tm.TileAt(Cell{X: 1, Y: 0}, LayerTerrain).SetFlags(TileFlagBuildingRoadLink, true)
	g.RefreshCell(tm, Cell{X: 1, Y: 0})
	require.Equal(t, NodeBuildingRoadLink, g.NodeKindAt(Cell{X: 1, Y: 0}))
}
