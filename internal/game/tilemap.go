package game

import (
	"errors"
	"fmt"
)

// Placement failure kinds surfaced by the tile map.
var (
	ErrOutOfBounds   = errors.New("cell range out of bounds")
	ErrOccupied      = errors.New("cell occupied by incompatible tile")
	ErrInvalidTile   = errors.New("invalid tile def for layer")
	ErrNoSuchTile    = errors.New("no tile at cell")
)

// TileMapCallbacks are the process-level placement hooks. Exactly one set is
// registered at a time; the world uses them to keep game objects and the
// pathfinding graph in sync with tile edits.
type TileMapCallbacks struct {
	OnTilePlaced   func(*Tile)
	OnRemovingTile func(*Tile)
	OnMapReset     func()
}

type tileMapLayer struct {
	grid []*Tile // row-major; nil = empty, may hold base, blocker, or unit stack head
}

// TileMap is the authoritative two-layer spatial index of the world. The
// terrain layer always holds exactly one 1x1 terrain tile per cell; the
// object layer holds buildings, props, and stacked units.
type TileMap struct {
	size      Size
	layers    [layerCount]tileMapLayer
	sets      *TileSets
	callbacks TileMapCallbacks
}

// NewTileMap creates a map of the given size with every terrain cell filled
// with fillDef (normally grass).
func NewTileMap(size Size, sets *TileSets, fillDef *TileDef) *TileMap {
	tm := &TileMap{size: size, sets: sets}
	for l := range tm.layers {
		tm.layers[l].grid = make([]*Tile, size.W*size.H)
	}
	tm.fillTerrain(fillDef)
	return tm
}

func (tm *TileMap) fillTerrain(fillDef *TileDef) {
	if fillDef == nil {
		return
	}
	for y := 0; y < tm.size.H; y++ {
		for x := 0; x < tm.size.W; x++ {
			c := Cell{X: x, Y: y}
			tm.layers[LayerTerrain].grid[tm.index(c)] = &Tile{
				Def:      fillDef,
				BaseCell: c,
				Handle:   InvalidHandle(),
			}
		}
	}
}

// SizeInCells returns the fixed map dimensions.
func (tm *TileMap) SizeInCells() Size { return tm.size }

// TileSets returns the catalog the map was created with.
func (tm *TileMap) TileSets() *TileSets { return tm.sets }

// SetCallbacks registers the placement hooks, replacing any previous set.
func (tm *TileMap) SetCallbacks(cb TileMapCallbacks) {
	tm.callbacks = cb
}

// InBounds reports whether the cell lies on the map.
func (tm *TileMap) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < tm.size.W && c.Y >= 0 && c.Y < tm.size.H
}

func (tm *TileMap) index(c Cell) int { return c.Y*tm.size.W + c.X }

// TileAt returns the raw grid entry at (cell, layer): a base tile, a blocker,
// the head of a unit stack, or nil.
func (tm *TileMap) TileAt(c Cell, layer TileLayerKind) *Tile {
	if !tm.InBounds(c) {
		return nil
	}
	return tm.layers[layer].grid[tm.index(c)]
}

// BaseTileAt resolves blockers to their owning base tile.
func (tm *TileMap) BaseTileAt(c Cell, layer TileLayerKind) *Tile {
	t := tm.TileAt(c, layer)
	if t != nil && t.IsBlocker() {
		return tm.TileAt(t.BlockerBase(), layer)
	}
	return t
}

// FindTile returns the first tile at the cell whose kind intersects the mask,
// searching through unit stacks, or nil.
func (tm *TileMap) FindTile(c Cell, layer TileLayerKind, mask TileKind) *Tile {
	t := tm.BaseTileAt(c, layer)
	if t == nil {
		return nil
	}
	var found *Tile
	t.VisitStack(func(cur *Tile) bool {
		if cur.Is(mask) {
			found = cur
			return false
		}
		return true
	})
	return found
}

// TryPlaceTile places a new tile of the given def anchored at base. The tile
// is created with an invalid game-object handle; spawners set it afterwards.
func (tm *TileMap) TryPlaceTile(base Cell, def *TileDef) (*Tile, error) {
	if def == nil {
		return nil, ErrInvalidTile
	}
	r := def.CellRange(base)
	if !tm.InBounds(r.Start) || !tm.InBounds(r.End) {
		return nil, fmt.Errorf("%w: %s at (%d,%d)", ErrOutOfBounds, def.Name, base.X, base.Y)
	}

	tile := &Tile{
		Def:      def,
		BaseCell: base,
		Handle:   InvalidHandle(),
	}

	switch def.Layer {
	case LayerTerrain:
		// Terrain always overwrites terrain; objects on the cell are untouched.
		if def.Kind != TileKindTerrain || def.IsMultiCell() {
			return nil, ErrInvalidTile
		}
		tm.layers[LayerTerrain].grid[tm.index(base)] = tile

	case LayerObjects:
		if err := tm.checkObjectPlacement(r, def); err != nil {
			return nil, err
		}
		grid := tm.layers[LayerObjects].grid
		if def.Kind == TileKindUnit {
			// Units stack: push onto the head of the chain.
			tile.next = grid[tm.index(base)]
			grid[tm.index(base)] = tile
		} else {
			grid[tm.index(base)] = tile
			r.ForEach(func(c Cell) bool {
				if c != base {
					grid[tm.index(c)] = &Tile{BaseCell: c, blockerBase: base, Handle: InvalidHandle()}
				}
				return true
			})
		}
	}

	if tm.callbacks.OnTilePlaced != nil {
		tm.callbacks.OnTilePlaced(tile)
	}
	return tile, nil
}

func (tm *TileMap) checkObjectPlacement(r CellRange, def *TileDef) error {
	var conflict error
	grid := tm.layers[LayerObjects].grid
	r.ForEach(func(c Cell) bool {
		occ := grid[tm.index(c)]
		if occ == nil {
			return true
		}
		// Unit tiles may join an existing unit stack.
		if def.Kind == TileKindUnit && !occ.IsBlocker() && occ.Is(TileKindUnit) {
			return true
		}
		conflict = fmt.Errorf("%w: %s blocked at (%d,%d)", ErrOccupied, def.Name, c.X, c.Y)
		return false
	})
	return conflict
}

// TryClearTileFromLayer removes the base tile at the cell along with every
// blocker it owns. For stacked units the whole stack is cleared; use
// RemoveStackedTile to pop a single unit.
func (tm *TileMap) TryClearTileFromLayer(c Cell, layer TileLayerKind) error {
	t := tm.BaseTileAt(c, layer)
	if t == nil {
		return fmt.Errorf("%w: (%d,%d) %s", ErrNoSuchTile, c.X, c.Y, layer)
	}
	if tm.callbacks.OnRemovingTile != nil {
		t.VisitStack(func(cur *Tile) bool {
			tm.callbacks.OnRemovingTile(cur)
			return true
		})
	}
	grid := tm.layers[layer].grid
	t.CellRange().ForEach(func(cc Cell) bool {
		grid[tm.index(cc)] = nil
		return true
	})
	return nil
}

// RemoveStackedTile unlinks one unit tile from the stack at its cell.
func (tm *TileMap) RemoveStackedTile(c Cell, target *Tile) error {
	if !tm.InBounds(c) {
		return ErrOutOfBounds
	}
	grid := tm.layers[LayerObjects].grid
	head := grid[tm.index(c)]
	if head == nil {
		return ErrNoSuchTile
	}
	if tm.callbacks.OnRemovingTile != nil && containsInStack(head, target) {
		tm.callbacks.OnRemovingTile(target)
	}
	if head == target {
		grid[tm.index(c)] = head.next
		target.next = nil
		return nil
	}
	for cur := head; cur.next != nil; cur = cur.next {
		if cur.next == target {
			cur.next = target.next
			target.next = nil
			return nil
		}
	}
	return ErrNoSuchTile
}

func containsInStack(head, target *Tile) bool {
	for cur := head; cur != nil; cur = cur.next {
		if cur == target {
			return true
		}
	}
	return false
}

// TryMoveTile relocates a unit tile between cells, preserving its identity.
// The destination must be in bounds and either empty or an existing unit
// stack. Moving to the same cell succeeds trivially.
func (tm *TileMap) TryMoveTile(t *Tile, to Cell) error {
	if !tm.InBounds(to) {
		return ErrOutOfBounds
	}
	if t.BaseCell == to {
		return nil
	}
	if !t.Is(TileKindUnit) {
		return ErrInvalidTile
	}
	grid := tm.layers[LayerObjects].grid
	dest := grid[tm.index(to)]
	if dest != nil && (dest.IsBlocker() || !dest.Is(TileKindUnit)) {
		return fmt.Errorf("%w: move to (%d,%d)", ErrOccupied, to.X, to.Y)
	}

	// Unlink from the source stack.
	from := t.BaseCell
	head := grid[tm.index(from)]
	if head == t {
		grid[tm.index(from)] = t.next
	} else {
		for cur := head; cur != nil && cur.next != nil; cur = cur.next {
			if cur.next == t {
				cur.next = t.next
				break
			}
		}
	}
	t.next = dest
	t.BaseCell = to
	grid[tm.index(to)] = t
	return nil
}

// ForEachTileInRange visits base and unit tiles (not blockers) whose base
// cell lies in the range, for the given layer, in row-major order.
func (tm *TileMap) ForEachTileInRange(r CellRange, layer TileLayerKind, visit func(*Tile) bool) {
	start := Cell{X: maxInt(0, r.Start.X), Y: maxInt(0, r.Start.Y)}
	end := Cell{X: minInt(tm.size.W-1, r.End.X), Y: minInt(tm.size.H-1, r.End.Y)}
	stop := false
	for y := start.Y; y <= end.Y && !stop; y++ {
		for x := start.X; x <= end.X && !stop; x++ {
			t := tm.layers[layer].grid[tm.index(Cell{X: x, Y: y})]
			if t == nil || t.IsBlocker() {
				continue
			}
			t.VisitStack(func(cur *Tile) bool {
				if !visit(cur) {
					stop = true
					return false
				}
				return true
			})
		}
	}
}

// FullRange returns the range covering the whole map.
func (tm *TileMap) FullRange() CellRange {
	return CellRange{Start: Cell{}, End: Cell{X: tm.size.W - 1, Y: tm.size.H - 1}}
}

// UpdateAnims advances the animation cursor of every tile whose base cell is
// inside the visible range.
func (tm *TileMap) UpdateAnims(dt float64, visible CellRange) {
	for l := TileLayerKind(0); l < layerCount; l++ {
		tm.ForEachTileInRange(visible, l, func(t *Tile) bool {
			t.AdvanceAnim(dt)
			return true
		})
	}
}

// TopmostTileAtCursor returns the object or terrain tile whose diamond
// contains the screen point, preferring objects over terrain and deeper rows
// over shallower ones.
func (tm *TileMap) TopmostTileAtCursor(p Vec2, tr WorldToScreenTransform) *Tile {
	cell := IsoToCell(ScreenToIsoPoint(p, tr), BaseTileSize)
	if !tm.InBounds(cell) {
		return nil
	}
	if obj := tm.BaseTileAt(cell, LayerObjects); obj != nil {
		return obj
	}
	return tm.TileAt(cell, LayerTerrain)
}

// FindExactCellForPoint returns the cell whose diamond contains the screen
// point, or InvalidCell outside the map.
func (tm *TileMap) FindExactCellForPoint(p Vec2, tr WorldToScreenTransform) Cell {
	cell := IsoToCell(ScreenToIsoPoint(p, tr), BaseTileSize)
	if !tm.InBounds(cell) {
		return InvalidCell
	}
	return cell
}

// Reset clears every object and refills the terrain with fillDef.
func (tm *TileMap) Reset(fillDef *TileDef) {
	for l := range tm.layers {
		grid := tm.layers[l].grid
		for i := range grid {
			grid[i] = nil
		}
	}
	tm.fillTerrain(fillDef)
	if tm.callbacks.OnMapReset != nil {
		tm.callbacks.OnMapReset()
	}
}
