package game

import "sort"

// RenderTarget is the sink the draw pass emits into. The core stays free of
// any rendering backend; the frontend implements this over whatever it draws
// with.
type RenderTarget interface {
	FillDiamond(corners [4]Vec2, col Color)
	FillRect(r Rect, col Color)
	StrokeRect(r Rect, width float64, col Color)
	StrokeLine(a, b Vec2, width float64, col Color)
}

// VisibleCells returns the cell range overlapping the viewport under the
// camera transform, padded so tall sprites anchored just outside still draw.
func VisibleCells(tm *TileMap, viewport Rect, tr WorldToScreenTransform) CellRange {
	corners := [4]Vec2{
		{X: viewport.X, Y: viewport.Y},
		{X: viewport.X + viewport.W, Y: viewport.Y},
		{X: viewport.X, Y: viewport.Y + viewport.H},
		{X: viewport.X + viewport.W, Y: viewport.Y + viewport.H},
	}
	first := true
	var lo, hi Cell
	for _, p := range corners {
		c := IsoToCell(ScreenToIsoPoint(p, tr), BaseTileSize)
		if first {
			lo, hi = c, c
			first = false
			continue
		}
		lo.X = minInt(lo.X, c.X)
		lo.Y = minInt(lo.Y, c.Y)
		hi.X = maxInt(hi.X, c.X)
		hi.Y = maxInt(hi.Y, c.Y)
	}
	// Pad by the tallest sprite's worth of rows.
	const pad = 4
	size := tm.SizeInCells()
	return CellRange{
		Start: Cell{X: maxInt(0, lo.X-pad), Y: maxInt(0, lo.Y-pad)},
		End:   Cell{X: minInt(size.W-1, hi.X+pad), Y: minInt(size.H-1, hi.Y+pad)},
	}
}

// shadeColor lightens (positive) or darkens (negative) a color by delta per
// channel, clamping at the ends.
func shadeColor(c Color, delta int) Color {
	adj := func(v uint8) uint8 {
		n := int(v) + delta
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		return uint8(n)
	}
	return Color{R: adj(c.R), G: adj(c.G), B: adj(c.B), A: c.A}
}

// tileDrawColor resolves a tile's base color through its variation shading
// and any selection or preview tint flags.
func tileDrawColor(t *Tile) Color {
	col := t.Def.Color
	// Cosmetic variation shading; roads and water encode junction shape in
	// the variation instead, so they keep a flat base color.
	if !t.PathKind().Intersects(NodeRoad | NodeWater) {
		col = shadeColor(col, (t.VariationIndex%4)*4-6)
	}
	switch {
	case t.HasFlags(TileFlagInvalidated):
		col = Color{R: 200, G: 64, B: 64, A: col.A}
	case t.HasFlags(TileFlagHighlighted):
		col = shadeColor(col, 40)
	case t.HasFlags(TileFlagRoadPreview):
		col = shadeColor(col, 24)
	}
	return col
}

// RenderTerrain fills the isometric diamond of every visible terrain cell.
// Cells whose object tile occludes the ground are skipped.
func RenderTerrain(tm *TileMap, visible CellRange, tr WorldToScreenTransform, rt RenderTarget) {
	visible.ForEach(func(c Cell) bool {
		t := tm.TileAt(c, LayerTerrain)
		if t == nil || t.Def == nil || t.HasFlags(TileFlagHidden) {
			return true
		}
		if obj := tm.TileAt(c, LayerObjects); obj != nil && obj.HasFlags(TileFlagOccludesTerrain) {
			return true
		}
		col := tileDrawColor(t)
		// Roads darken slightly with junction complexity so crossings read.
		if t.PathKind() == NodeRoad {
			col = shadeColor(col, -junctionBitCount(t.VariationIndex)*3)
		}
		rt.FillDiamond(CellToScreenDiamondPoints(c, tr), col)
		return true
	})
}

// junctionBitCount counts connected neighbors in a junction variation index.
func junctionBitCount(mask int) int {
	n := 0
	for m := mask & 0xf; m != 0; m >>= 1 {
		n += m & 1
	}
	return n
}

// RenderObjects draws every visible object tile back-to-front: buildings and
// props as vertical slabs over their footprint, units as small markers offset
// by their walk interpolation.
func RenderObjects(tm *TileMap, visible CellRange, tr WorldToScreenTransform, rt RenderTarget) {
	var draw []*Tile
	tm.ForEachTileInRange(visible, LayerObjects, func(t *Tile) bool {
		if t.Def != nil && !t.HasFlags(TileFlagHidden) {
			draw = append(draw, t)
		}
		return true
	})
	sort.SliceStable(draw, func(i, j int) bool {
		return draw[i].zSortKey() < draw[j].zSortKey()
	})
	for _, t := range draw {
		if t.Is(TileKindUnit) {
			renderUnitTile(t, tr, rt)
		} else {
			renderObjectTile(t, tr, rt)
		}
	}
}

// renderObjectTile draws a building or prop: its footprint diamond plus a
// slab rising DrawSize.H pixels above the footprint's far corner.
func renderObjectTile(t *Tile, tr WorldToScreenTransform, rt RenderTarget) {
	col := tileDrawColor(t)
	r := t.CellRange()
	r.ForEach(func(c Cell) bool {
		rt.FillDiamond(CellToScreenDiamondPoints(c, tr), shadeColor(col, -12))
		return true
	})

	// Slab anchored over the footprint center, scaled by the camera.
	iso := CellToIso(t.BaseCell, BaseTileSize)
	foot := IsoToScreenRect(iso, Size{
		W: BaseTileSize.W * r.Size().W,
		H: BaseTileSize.H * r.Size().H,
	}, tr)
	slabH := float64(t.Def.DrawSize.H) * tr.Scaling
	slab := Rect{
		X: foot.X + foot.W*0.2,
		Y: foot.Y + foot.H*0.5 - slabH,
		W: foot.W * 0.6,
		H: slabH,
	}
	rt.FillRect(slab, col)
	rt.StrokeRect(slab, 1, shadeColor(col, -40))
}

// renderUnitTile draws a walking unit as a small marker, offset by the
// navigation interpolation so motion between cells is smooth.
func renderUnitTile(t *Tile, tr WorldToScreenTransform, rt RenderTarget) {
	iso := CellToIso(t.BaseCell, BaseTileSize)
	iso.X += t.IsoAdjust.X
	iso.Y += t.IsoAdjust.Y
	foot := IsoToScreenRect(iso, BaseTileSize, tr)
	w := float64(t.Def.DrawSize.W) * tr.Scaling * 0.5
	h := float64(t.Def.DrawSize.H) * tr.Scaling * 0.5
	marker := Rect{
		X: foot.X + foot.W/2 - w/2,
		Y: foot.Y + foot.H/2 - h,
		W: w,
		H: h,
	}
	col := tileDrawColor(t)
	rt.FillRect(marker, col)
	rt.StrokeRect(marker, 1, shadeColor(col, -60))
}

// RenderCellOutline strokes the diamond outline of one cell, used for the
// placement cursor.
func RenderCellOutline(c Cell, tr WorldToScreenTransform, rt RenderTarget, col Color) {
	d := CellToScreenDiamondPoints(c, tr)
	for i := 0; i < 4; i++ {
		rt.StrokeLine(d[i], d[(i+1)%4], 2, col)
	}
}

// graphOverlayColors maps node kinds to their debug overlay tint. Earlier
// entries win for cells carrying several flags.
var graphOverlayColors = []struct {
	kind NodeKind
	col  Color
}{
	{NodeBuildingRoadLink, Color{R: 230, G: 200, B: 90, A: 140}},
	{NodeRoad, Color{R: 200, G: 170, B: 90, A: 110}},
	{NodeBuilding, Color{R: 180, G: 80, B: 80, A: 110}},
	{NodeSettlersSpawnPoint, Color{R: 200, G: 120, B: 200, A: 140}},
	{NodeWater, Color{R: 60, G: 90, B: 180, A: 110}},
	{NodeVacantLot, Color{R: 140, G: 130, B: 60, A: 90}},
	{NodeVegetation, Color{R: 40, G: 90, B: 40, A: 110}},
	{NodeRocks, Color{R: 130, G: 130, B: 130, A: 110}},
	{NodeEmptyLand, Color{R: 60, G: 120, B: 60, A: 90}},
}

// RenderGraphOverlay tints every visible cell by its pathing node kind, for
// the debug traversability view.
func RenderGraphOverlay(g *Graph, visible CellRange, tr WorldToScreenTransform, rt RenderTarget) {
	visible.ForEach(func(c Cell) bool {
		kind := g.NodeKindAt(c)
		for _, e := range graphOverlayColors {
			if kind.Intersects(e.kind) {
				rt.FillDiamond(CellToScreenDiamondPoints(c, tr), e.col)
				break
			}
		}
		return true
	})
}

// RenderFrame runs the full draw pass: terrain, then z-sorted objects.
func RenderFrame(tm *TileMap, viewport Rect, tr WorldToScreenTransform, rt RenderTarget) {
	visible := VisibleCells(tm, viewport, tr)
	RenderTerrain(tm, visible, tr, rt)
	RenderObjects(tm, visible, tr, rt)
}
