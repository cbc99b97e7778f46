package game

// Road junction bits. Each bit marks a road continuing toward one screen
// direction; the mask doubles as the tile variation index, so the variation
// tables in the tile sets are ordered to match.
const (
	RoadJunctionW = 1 << iota // -y neighbor
	RoadJunctionS             // -x neighbor
	RoadJunctionE             // +y neighbor
	RoadJunctionN             // +x neighbor
)

// RoadSegmentShape selects how a road segment bends between its endpoints.
type RoadSegmentShape uint8

const (
	// SegmentHV runs the horizontal leg first, then the vertical.
	SegmentHV RoadSegmentShape = iota
	// SegmentVH runs the vertical leg first, then the horizontal.
	SegmentVH
	// SegmentZigzag alternates single horizontal and vertical steps.
	SegmentZigzag
)

// RoadSegmentCells enumerates the cells of a road segment from one endpoint
// to the other, endpoints included, without duplicates.
func RoadSegmentCells(from, to Cell, shape RoadSegmentShape) []Cell {
	stepX := 1
	if to.X < from.X {
		stepX = -1
	}
	stepY := 1
	if to.Y < from.Y {
		stepY = -1
	}

	cells := make([]Cell, 0, absInt(to.X-from.X)+absInt(to.Y-from.Y)+1)
	c := from
	cells = append(cells, c)

	switch shape {
	case SegmentHV:
		for c.X != to.X {
			c.X += stepX
			cells = append(cells, c)
		}
		for c.Y != to.Y {
			c.Y += stepY
			cells = append(cells, c)
		}
	case SegmentVH:
		for c.Y != to.Y {
			c.Y += stepY
			cells = append(cells, c)
		}
		for c.X != to.X {
			c.X += stepX
			cells = append(cells, c)
		}
	case SegmentZigzag:
		horizontal := true
		for c != to {
			switch {
			case horizontal && c.X != to.X:
				c.X += stepX
			case c.Y != to.Y:
				c.Y += stepY
			default:
				c.X += stepX
			}
			horizontal = !horizontal
			cells = append(cells, c)
		}
	}
	return cells
}

// roadJunctionMask computes the junction bits for a cell from its road-like
// neighbors in the graph.
func roadJunctionMask(g *Graph, c Cell) int {
	mask := 0
	if g.NodeKindAt(c.Add(0, -1)).Intersects(RoadLikeNodes) {
		mask |= RoadJunctionW
	}
	if g.NodeKindAt(c.Add(-1, 0)).Intersects(RoadLikeNodes) {
		mask |= RoadJunctionS
	}
	if g.NodeKindAt(c.Add(0, 1)).Intersects(RoadLikeNodes) {
		mask |= RoadJunctionE
	}
	if g.NodeKindAt(c.Add(1, 0)).Intersects(RoadLikeNodes) {
		mask |= RoadJunctionN
	}
	return mask
}

// RefreshRoadJunctions recomputes the junction variation of every road tile
// in the range, expanded by one cell so edits fix up their neighbors.
func RefreshRoadJunctions(tm *TileMap, g *Graph, around CellRange) {
	expanded := CellRange{Start: around.Start.Add(-1, -1), End: around.End.Add(1, 1)}
	expanded.ForEach(func(c Cell) bool {
		if !tm.InBounds(c) {
			return true
		}
		t := tm.TileAt(c, LayerTerrain)
		if t == nil || t.PathKind() != NodeRoad {
			return true
		}
		t.SetVariationIndex(roadJunctionMask(g, c))
		return true
	})
}
