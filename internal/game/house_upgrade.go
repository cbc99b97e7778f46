package game

import (
	"errors"
	"fmt"
)

// ErrUpgradeBlocked is returned when no candidate footprint for a house
// upgrade fits the surrounding map.
var ErrUpgradeBlocked = errors.New("no footprint fits the upgrade")

// TryUpgradeHouse advances a house one ladder level, growing its footprint
// when the next level's tile is larger. Growth merges neighboring houses no
// larger than this one that fall inside the chosen footprint, combining their
// residents, goods, and accrued tax. The candidate footprint absorbing the
// most house tiles wins, ties going to anchor order.
func TryUpgradeHouse(b *Building, h *HouseState, q *Query) error {
	next := h.configs.HouseLevel(h.Level + 1)
	if next == nil {
		return errors.New("already at the top level")
	}
	nextDef := q.TileMap().TileSets().FindByName(next.TileDefName)
	if nextDef == nil {
		return fmt.Errorf("no tile def %q", next.TileDefName)
	}

	if nextDef.LogicalSize == b.Size {
		if err := replaceBuildingTile(q, b, nextDef, b.BaseCell); err != nil {
			return err
		}
		h.applyLevel(h.Level + 1)
		q.Log().Infof(LogChannelHouse, "%s upgraded to %s", b.Name, next.Name)
		b.Name = next.Name
		return nil
	}

	rect, merged, ok := findUpgradeFootprint(b, q, nextDef.LogicalSize)
	if !ok {
		h.HasRoomToUpgrade = false
		return ErrUpgradeBlocked
	}

	// Absorb the merged households before touching the map.
	for _, other := range merged {
		oh := other.Behavior.(*HouseState)
		h.Pop.Max += oh.Pop.Max // temporary headroom; applyLevel resets the cap
		h.Pop.Add(oh.Pop.Count)
		h.Stock.Stock.MergeFrom(&oh.Stock.Stock)
		h.TaxAccrued += oh.TaxAccrued
	}

	// Clear every absorbed tile plus our own, then place the bigger tile.
	removed := []*Building{b}
	removed = append(removed, merged...)
	for _, rb := range removed {
		if err := q.TileMap().TryClearTileFromLayer(rb.BaseCell, LayerObjects); err != nil {
			return fmt.Errorf("clearing %s at (%d,%d): %w", rb.Name, rb.BaseCell.X, rb.BaseCell.Y, err)
		}
	}
	t, err := q.TileMap().TryPlaceTile(rect.Start, nextDef)
	if err != nil {
		// Revert: put every old tile back where it was.
		for _, rb := range removed {
			def := q.TileMap().TileSets().FindByName(houseLevelDefName(rb, q))
			if old, perr := q.TileMap().TryPlaceTile(rb.BaseCell, def); perr == nil {
				old.Handle = rb.Handle()
			}
		}
		return fmt.Errorf("placing upgraded house: %w", err)
	}

	for _, other := range merged {
		if derr := q.World().DespawnBuilding(q, other); derr != nil {
			q.Log().Errorf(LogChannelHouse, "merge despawn: %v", derr)
		}
	}

	b.BaseCell = rect.Start
	b.Size = nextDef.LogicalSize
	b.Name = next.Name
	b.InvalidateRoadLink()
	t.Handle = b.Handle()
	h.applyLevel(h.Level + 1)
	q.Graph().RefreshRange(q.TileMap(), rect)
	q.Log().Infof(LogChannelHouse, "%s upgraded, footprint %dx%d at (%d,%d), %d merged",
		b.Name, b.Size.W, b.Size.H, b.BaseCell.X, b.BaseCell.Y, len(merged))
	return nil
}

// houseLevelDefName resolves the tile def name backing a house building's
// current level, for revert paths.
func houseLevelDefName(b *Building, q *Query) string {
	if h, ok := b.Behavior.(*HouseState); ok {
		if cfg := h.LevelConfig(); cfg != nil {
			return cfg.TileDefName
		}
	}
	return ""
}

// findUpgradeFootprint scores the four footprints keeping the house's base
// cell at each corner, in fixed order: base at top-left, shifted left,
// shifted up, shifted both. A footprint is viable when every covered cell is
// open ground or part of a mergeable house lying entirely inside it; among
// viable footprints the one covering the most merged house tiles wins, the
// earlier anchor on ties.
func findUpgradeFootprint(b *Building, q *Query, size Size) (CellRange, []*Building, bool) {
	dx := size.W - b.Size.W
	dy := size.H - b.Size.H
	anchors := []Cell{
		b.BaseCell,
		b.BaseCell.Add(-dx, 0),
		b.BaseCell.Add(0, -dy),
		b.BaseCell.Add(-dx, -dy),
	}
	var (
		bestRect   CellRange
		bestMerged []*Building
		bestScore  = -1
	)
	for _, anchor := range anchors {
		rect := RangeForSize(anchor, size)
		merged, ok := footprintMergeSet(b, q, rect)
		if !ok {
			continue
		}
		score := 0
		for _, m := range merged {
			score += m.Size.W * m.Size.H
		}
		if score > bestScore {
			bestRect, bestMerged, bestScore = rect, merged, score
		}
	}
	if bestScore < 0 {
		return CellRange{}, nil, false
	}
	return bestRect, bestMerged, true
}

// footprintMergeSet validates one candidate footprint and collects the houses
// it would absorb. A house merges when its footprint is no larger than the
// upgrading house's and lies entirely inside the candidate rect.
func footprintMergeSet(b *Building, q *Query, rect CellRange) ([]*Building, bool) {
	tm := q.TileMap()
	if !tm.InBounds(rect.Start) || !tm.InBounds(rect.End) {
		return nil, false
	}

	var merged []*Building
	seen := map[GameObjectHandle]bool{b.Handle(): true}
	viable := true

	rect.ForEach(func(c Cell) bool {
		if obj := tm.BaseTileAt(c, LayerObjects); obj != nil {
			other, ok := q.World().FindBuildingAtCell(tm, c)
			if !ok || !other.Kind.Intersects(BuildingKindHouse) {
				viable = false
				return false
			}
			if _, ok := other.Behavior.(*HouseState); !ok {
				viable = false
				return false
			}
			if other.Size.W > b.Size.W || other.Size.H > b.Size.H ||
				!rect.Contains(other.CellRange().Start) || !rect.Contains(other.CellRange().End) {
				viable = false
				return false
			}
			if !seen[other.Handle()] {
				seen[other.Handle()] = true
				merged = append(merged, other)
			}
			return true
		}
		// Open cell: plain land and vacant lots only, no roads or water.
		if !q.Graph().NodeKindAt(c).Intersects(NodeEmptyLand | NodeVacantLot) {
			viable = false
			return false
		}
		return true
	})
	if !viable {
		return nil, false
	}
	return merged, true
}

// TryDowngradeHouse drops a house one ladder level, shrinking its tile back
// to the lower level's footprint anchored at the base cell. Residents beyond
// the smaller cap move out; the freed cells revert to open terrain.
func TryDowngradeHouse(b *Building, h *HouseState, q *Query) error {
	if h.Level == 0 {
		return errors.New("already at the bottom level")
	}
	prev := h.configs.HouseLevel(h.Level - 1)
	prevDef := q.TileMap().TileSets().FindByName(prev.TileDefName)
	if prevDef == nil {
		return fmt.Errorf("no tile def %q", prev.TileDefName)
	}
	oldRange := b.CellRange()
	if err := replaceBuildingTile(q, b, prevDef, b.BaseCell); err != nil {
		return err
	}
	b.Size = prevDef.LogicalSize
	b.Name = prev.Name
	b.InvalidateRoadLink()
	h.applyLevel(h.Level - 1)
	q.Graph().RefreshRange(q.TileMap(), oldRange)
	q.Log().Infof(LogChannelHouse, "%s downgraded to %s", b.Name, prev.Name)
	return nil
}

// replaceBuildingTile swaps a building's map tile for a new def at the given
// base cell, restoring the old tile if the placement fails.
func replaceBuildingTile(q *Query, b *Building, def *TileDef, base Cell) error {
	tm := q.TileMap()
	oldTile := tm.BaseTileAt(b.BaseCell, LayerObjects)
	var oldDef *TileDef
	if oldTile != nil {
		oldDef = oldTile.Def
	}
	if err := tm.TryClearTileFromLayer(b.BaseCell, LayerObjects); err != nil {
		return err
	}
	t, err := tm.TryPlaceTile(base, def)
	if err != nil {
		if oldDef != nil {
			if old, perr := tm.TryPlaceTile(b.BaseCell, oldDef); perr == nil {
				old.Handle = b.Handle()
			}
		}
		return err
	}
	t.Handle = b.Handle()
	return nil
}
