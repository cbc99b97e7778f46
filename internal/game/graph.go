package game

// NodeKind describes the pathable property of one graph cell. A cell holds a
// single flag; masks of several flags are used for traversability queries.
type NodeKind uint16

// NodeNone marks a cell with no pathable property (blocked).
const NodeNone NodeKind = 0

const (
	NodeEmptyLand NodeKind = 1 << iota
	NodeVacantLot
	NodeRoad
	NodeWater
	NodeBuilding
	NodeBuildingRoadLink // road cell adjacent to a building entrance
	NodeSettlersSpawnPoint
	NodeRocks
	NodeVegetation
)

// Intersects reports whether any bit of mask is set in k.
func (k NodeKind) Intersects(mask NodeKind) bool {
	return k&mask != 0
}

// String returns a short name for single-flag values.
func (k NodeKind) String() string {
	switch k {
	case NodeNone:
		return "none"
	case NodeEmptyLand:
		return "empty_land"
	case NodeVacantLot:
		return "vacant_lot"
	case NodeRoad:
		return "road"
	case NodeWater:
		return "water"
	case NodeBuilding:
		return "building"
	case NodeBuildingRoadLink:
		return "road_link"
	case NodeSettlersSpawnPoint:
		return "settlers_spawn"
	case NodeRocks:
		return "rocks"
	case NodeVegetation:
		return "vegetation"
	default:
		return "mixed"
	}
}

// RoadLikeNodes matches anything a road-walking unit can traverse.
const RoadLikeNodes = NodeRoad | NodeBuildingRoadLink

// Graph is the pathfinding grid derived from the tile map. It is rebuilt
// wholesale at load and patched incrementally by the placement engine.
type Graph struct {
	size  Size
	nodes []NodeKind // row-major
}

// NewGraph creates a graph of the given size with all nodes NodeNone.
func NewGraph(size Size) *Graph {
	return &Graph{size: size, nodes: make([]NodeKind, size.W*size.H)}
}

// Size returns the grid dimensions in cells.
func (g *Graph) Size() Size { return g.size }

// InBounds reports whether the cell lies on the grid.
func (g *Graph) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.size.W && c.Y >= 0 && c.Y < g.size.H
}

// NodeKindAt returns the node kind at the cell, or NodeNone out of bounds.
func (g *Graph) NodeKindAt(c Cell) NodeKind {
	if !g.InBounds(c) {
		return NodeNone
	}
	return g.nodes[c.Y*g.size.W+c.X]
}

// SetNodeKind overwrites the node kind at the cell.
func (g *Graph) SetNodeKind(c Cell, kind NodeKind) {
	if !g.InBounds(c) {
		return
	}
	g.nodes[c.Y*g.size.W+c.X] = kind
}

// nodeKindForCell derives a cell's node kind from the tile map occupants.
// The top-most object wins over terrain; the road-link flag wins over plain
// road.
func nodeKindForCell(tm *TileMap, c Cell) NodeKind {
	if obj := tm.TileAt(c, LayerObjects); obj != nil {
		base := obj
		if obj.IsBlocker() {
			base = tm.TileAt(obj.BlockerBase(), LayerObjects)
		}
		if base != nil && base.Kind() != TileKindUnit && base.PathKind() != NodeNone {
			return base.PathKind()
		}
	}
	terrain := tm.TileAt(c, LayerTerrain)
	if terrain == nil {
		return NodeNone
	}
	if terrain.PathKind() == NodeRoad && terrain.HasFlags(TileFlagBuildingRoadLink) {
		return NodeBuildingRoadLink
	}
	return terrain.PathKind()
}

// RebuildFromTileMap re-derives every node from the current tile map state.
func (g *Graph) RebuildFromTileMap(tm *TileMap) {
	for y := 0; y < g.size.H; y++ {
		for x := 0; x < g.size.W; x++ {
			c := Cell{X: x, Y: y}
			g.nodes[y*g.size.W+x] = nodeKindForCell(tm, c)
		}
	}
}

// RefreshCell re-derives a single node from the tile map.
func (g *Graph) RefreshCell(tm *TileMap, c Cell) {
	if !g.InBounds(c) {
		return
	}
	g.nodes[c.Y*g.size.W+c.X] = nodeKindForCell(tm, c)
}

// RefreshRange re-derives every node covered by the range.
func (g *Graph) RefreshRange(tm *TileMap, r CellRange) {
	r.ForEach(func(c Cell) bool {
		g.RefreshCell(tm, c)
		return true
	})
}

// forEachSurroundingCell visits the in-bounds cells forming a one-cell ring
// around the range.
func forEachSurroundingCell(g *Graph, r CellRange, visit func(Cell) bool) {
	for x := r.Start.X - 1; x <= r.End.X+1; x++ {
		for _, y := range [2]int{r.Start.Y - 1, r.End.Y + 1} {
			c := Cell{X: x, Y: y}
			if g.InBounds(c) && !visit(c) {
				return
			}
		}
	}
	for y := r.Start.Y; y <= r.End.Y; y++ {
		for _, x := range [2]int{r.Start.X - 1, r.End.X + 1} {
			c := Cell{X: x, Y: y}
			if g.InBounds(c) && !visit(c) {
				return
			}
		}
	}
}

// FindRoadLinks returns every road cell bordering the range, flagged
// road-link cells first. A building placed across a road can leave the
// bordering cells on disconnected fragments, so callers needing a route try
// each candidate rather than committing to the first.
func (g *Graph) FindRoadLinks(r CellRange) []Cell {
	var flagged, plain []Cell
	forEachSurroundingCell(g, r, func(c Cell) bool {
		switch g.NodeKindAt(c) {
		case NodeBuildingRoadLink:
			flagged = append(flagged, c)
		case NodeRoad:
			plain = append(plain, c)
		}
		return true
	})
	return append(flagged, plain...)
}

// FindNearestRoadLink returns a road cell bordering the range, preferring
// flagged road-link cells, or InvalidCell if the range touches no road.
func (g *Graph) FindNearestRoadLink(r CellRange) Cell {
	link := InvalidCell
	forEachSurroundingCell(g, r, func(c Cell) bool {
		kind := g.NodeKindAt(c)
		if kind == NodeBuildingRoadLink {
			link = c
			return false
		}
		if kind == NodeRoad && !link.IsValid() {
			link = c
		}
		return true
	})
	return link
}
