package game

// Water shore bits mirror the road junction bits: each bit marks a land
// neighbor toward one screen direction, and the resulting mask selects the
// shoreline variation out of the 16-entry water set.
const (
	ShoreW = 1 << iota // -y neighbor is land
	ShoreS             // -x neighbor is land
	ShoreE             // +y neighbor is land
	ShoreN             // +x neighbor is land
)

// waterShoreMask computes the shoreline bits for a water cell. Out-of-bounds
// neighbors count as water so map edges stay open sea.
func waterShoreMask(g *Graph, c Cell) int {
	land := func(n Cell) bool {
		k := g.NodeKindAt(n)
		return k != NodeNone && !k.Intersects(NodeWater)
	}
	mask := 0
	if land(c.Add(0, -1)) {
		mask |= ShoreW
	}
	if land(c.Add(-1, 0)) {
		mask |= ShoreS
	}
	if land(c.Add(0, 1)) {
		mask |= ShoreE
	}
	if land(c.Add(1, 0)) {
		mask |= ShoreN
	}
	return mask
}

// RefreshWaterTransitions recomputes the shoreline variation of every water
// tile in the range, expanded by one cell so terrain edits fix up the shore.
func RefreshWaterTransitions(tm *TileMap, g *Graph, around CellRange) {
	expanded := CellRange{Start: around.Start.Add(-1, -1), End: around.End.Add(1, 1)}
	expanded.ForEach(func(c Cell) bool {
		if !tm.InBounds(c) {
			return true
		}
		t := tm.TileAt(c, LayerTerrain)
		if t == nil || t.PathKind() != NodeWater {
			return true
		}
		t.SetVariationIndex(waterShoreMask(g, c))
		return true
	})
}
