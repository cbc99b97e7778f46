package game

import (
	"errors"
	"fmt"
)

// ErrCannotAfford is returned when the treasury does not cover a placement.
var ErrCannotAfford = errors.New("cannot afford placement")

// ErrNotClearable is returned for terrain that placement refuses to remove.
var ErrNotClearable = errors.New("tile cannot be cleared")

// Placement is the build/demolish engine. Every successful operation goes
// through the undo journal and the treasury.
type Placement struct {
	journal *UndoJournal
}

// NewPlacement creates the engine around an undo journal.
func NewPlacement(journal *UndoJournal) *Placement {
	return &Placement{journal: journal}
}

// Journal exposes the undo journal.
func (p *Placement) Journal() *UndoJournal { return p.journal }

// journalRange pads a footprint by one cell, clamped to the map, so junction
// and shoreline fixups of the neighbors are captured too.
func journalRange(tm *TileMap, r CellRange) CellRange {
	size := tm.SizeInCells()
	return CellRange{
		Start: Cell{X: maxInt(0, r.Start.X-1), Y: maxInt(0, r.Start.Y-1)},
		End:   Cell{X: minInt(size.W-1, r.End.X+1), Y: minInt(size.H-1, r.End.Y+1)},
	}
}

// PlaceTile places one tile def at the base cell, charging its cost and
// spawning the building record when the def is a configured building.
func (p *Placement) PlaceTile(q *Query, def *TileDef, base Cell) error {
	if def == nil {
		return ErrInvalidTile
	}
	if !q.Treasury().CanAfford(def.Cost) {
		return fmt.Errorf("%w: %s costs %d, treasury holds %d",
			ErrCannotAfford, def.Name, def.Cost, q.Treasury().Gold)
	}

	r := journalRange(q.TileMap(), def.CellRange(base))
	p.journal.Begin(q, "place "+def.Name, r)

	t, err := q.TileMap().TryPlaceTile(base, def)
	if err != nil {
		p.journal.Abort()
		return err
	}
	if def.Layer == LayerObjects && def.Kind&TileKindUnit == 0 {
		if _, berr := q.World().SpawnBuildingForTile(q, t); berr != nil &&
			!errors.Is(berr, ErrInvalidTile) {
			// Props are not configured buildings; anything else is real.
			p.journal.Abort()
			return berr
		}
	}
	q.Treasury().Spend(def.Cost)
	p.fixupAfterEdit(q, r)
	p.journal.Commit(q)
	q.Log().Infof(LogChannelPlacement, "placed %s at (%d,%d)", def.Name, base.X, base.Y)
	return nil
}

// ClearTile demolishes whatever occupies the cell: object tiles are removed
// along with their building record; road and vacant-lot terrain reverts to
// grass. Other terrain refuses to clear.
func (p *Placement) ClearTile(q *Query, c Cell) error {
	tm := q.TileMap()
	if !tm.InBounds(c) {
		return ErrOutOfBounds
	}

	if obj := tm.BaseTileAt(c, LayerObjects); obj != nil && obj.Def != nil && !obj.Is(TileKindUnit) {
		r := journalRange(tm, obj.CellRange())
		p.journal.Begin(q, "clear "+obj.Def.Name, r)
		if b, ok := q.World().FindBuildingByHandle(obj.Handle); ok {
			if err := q.World().DespawnBuilding(q, b); err != nil {
				p.journal.Abort()
				return err
			}
		}
		if err := tm.TryClearTileFromLayer(obj.BaseCell, LayerObjects); err != nil {
			p.journal.Abort()
			return err
		}
		p.fixupAfterEdit(q, r)
		p.journal.Commit(q)
		q.Log().Infof(LogChannelPlacement, "cleared object at (%d,%d)", c.X, c.Y)
		return nil
	}

	terrain := tm.TileAt(c, LayerTerrain)
	if terrain == nil || terrain.Def == nil {
		return ErrNoSuchTile
	}
	if terrain.PathKind() != NodeRoad && !terrain.PathKind().Intersects(NodeVacantLot) {
		return fmt.Errorf("%w: %s", ErrNotClearable, terrain.Def.Name)
	}
	grass := tm.TileSets().FindByName("grass")
	r := journalRange(tm, CellRange{Start: c, End: c})
	p.journal.Begin(q, "clear "+terrain.Def.Name, r)
	if _, err := tm.TryPlaceTile(c, grass); err != nil {
		p.journal.Abort()
		return err
	}
	p.fixupAfterEdit(q, r)
	p.journal.Commit(q)
	q.Log().Infof(LogChannelPlacement, "cleared terrain at (%d,%d)", c.X, c.Y)
	return nil
}

// PlaceRoadSegment lays a run of road tiles between two cells. Cells already
// carrying a road are kept and not charged; any cell that can hold neither
// fails the whole segment before the map is touched.
func (p *Placement) PlaceRoadSegment(q *Query, def *TileDef, from, to Cell, shape RoadSegmentShape) error {
	if def == nil || def.PathKind != NodeRoad {
		return ErrInvalidTile
	}
	tm := q.TileMap()
	cells := RoadSegmentCells(from, to, shape)

	newCells := cells[:0:0]
	for _, c := range cells {
		if !tm.InBounds(c) {
			return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, c.X, c.Y)
		}
		kind := q.Graph().NodeKindAt(c)
		switch {
		case kind.Intersects(RoadLikeNodes):
			// Existing road, keep it.
		case kind.Intersects(NodeEmptyLand | NodeVacantLot):
			newCells = append(newCells, c)
		default:
			return fmt.Errorf("%w: road blocked at (%d,%d)", ErrOccupied, c.X, c.Y)
		}
	}
	if len(newCells) == 0 {
		return nil
	}
	cost := def.Cost * len(newCells)
	if !q.Treasury().CanAfford(cost) {
		return fmt.Errorf("%w: segment costs %d, treasury holds %d",
			ErrCannotAfford, cost, q.Treasury().Gold)
	}

	r := journalRange(tm, boundingRange(cells))
	p.journal.Begin(q, "place road segment", r)
	for _, c := range newCells {
		if _, err := tm.TryPlaceTile(c, def); err != nil {
			p.journal.Abort()
			return err
		}
	}
	q.Treasury().Spend(cost)
	p.fixupAfterEdit(q, r)
	p.journal.Commit(q)
	q.Log().Infof(LogChannelPlacement, "placed %d road tiles (%d,%d)..(%d,%d)",
		len(newCells), from.X, from.Y, to.X, to.Y)
	return nil
}

// boundingRange returns the smallest range covering all cells.
func boundingRange(cells []Cell) CellRange {
	r := CellRange{Start: cells[0], End: cells[0]}
	for _, c := range cells[1:] {
		r.Start.X = minInt(r.Start.X, c.X)
		r.Start.Y = minInt(r.Start.Y, c.Y)
		r.End.X = maxInt(r.End.X, c.X)
		r.End.Y = maxInt(r.End.Y, c.Y)
	}
	return r
}

// fixupAfterEdit refreshes the graph and the visual transition tiles around
// an edit. Buildings with cached road links near the edit re-discover them.
func (p *Placement) fixupAfterEdit(q *Query, r CellRange) {
	q.Graph().RefreshRange(q.TileMap(), r)
	RefreshRoadJunctions(q.TileMap(), q.Graph(), r)
	RefreshWaterTransitions(q.TileMap(), q.Graph(), r)
	q.World().ForEachBuilding(func(b *Building) bool {
		if b.IsNear(r, 1) {
			b.InvalidateRoadLink()
			if h, ok := b.Behavior.(*HouseState); ok {
				h.HasRoomToUpgrade = true
			}
		}
		return true
	})
}
