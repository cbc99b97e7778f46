package game

// TileFlags is a bitfield of per-tile metadata.
type TileFlags uint16

const (
	TileFlagHidden          TileFlags = 1 << iota // not enumerated for rendering
	TileFlagHighlighted                           // selection hover tint
	TileFlagInvalidated                           // invalid placement preview tint
	TileFlagDrawDebug                             // include in debug overlays
	TileFlagOccludesTerrain                       // terrain under this tile is skipped
	TileFlagRoadPreview                           // part of an uncommitted road segment
	TileFlagBuildingRoadLink                      // road cell adjacent to a building entrance
)

// GameObjectKind tags which spawn pool a handle points into. Building kinds
// are separate bits so a handle alone identifies its archetype pool.
type GameObjectKind uint8

const (
	ObjectKindNone GameObjectKind = 0

	ObjectKindUnit     GameObjectKind = 1 << 0
	ObjectKindProducer GameObjectKind = 1 << 1
	ObjectKindStorage  GameObjectKind = 1 << 2
	ObjectKindService  GameObjectKind = 1 << 3
	ObjectKindHouse    GameObjectKind = 1 << 4
)

// ObjectKindBuildings matches any building pool.
const ObjectKindBuildings = ObjectKindProducer | ObjectKindStorage | ObjectKindService | ObjectKindHouse

// Intersects reports whether any bit of mask is set in k.
func (k GameObjectKind) Intersects(mask GameObjectKind) bool {
	return k&mask != 0
}

// GameObjectHandle links a tile to the building or unit occupying it.
// Invalid handles have kind None and an invalid generational index.
type GameObjectHandle struct {
	Kind GameObjectKind    `json:"kind"`
	ID   GenerationalIndex `json:"id"`
}

// InvalidHandle returns the null game-object handle.
func InvalidHandle() GameObjectHandle {
	return GameObjectHandle{Kind: ObjectKindNone, ID: InvalidIndex()}
}

// IsValid reports whether the handle points at a pool slot.
func (h GameObjectHandle) IsValid() bool {
	return h.Kind != ObjectKindNone && h.ID.IsValid()
}

// TileAnimCursor is the per-tile animation playback state. Animation set data
// itself is shared via the tile def.
type TileAnimCursor struct {
	SetIndex   int     `json:"set_index"`
	FrameIndex int     `json:"frame_index"`
	FrameTime  float64 `json:"frame_time"`
}

// Tile is one placed instance on a tile map layer. Multi-cell tiles have one
// base Tile at CellRange.Start; the other covered cells hold blocker tiles
// pointing back at the base. Unit tiles sharing a cell chain through next.
type Tile struct {
	Def            *TileDef
	BaseCell       Cell
	Flags          TileFlags
	Handle         GameObjectHandle
	Anim           TileAnimCursor
	VariationIndex int
	IsoAdjust      Vec2 // interpolation offset for moving units
	ZSortExtra     int  // additive draw-order bias

	// blockerBase is the owning base cell when Kind is Blocker.
	blockerBase Cell

	next *Tile // stack chain for unit tiles in the same cell
}

// Kind returns the tile's kind from its def, or Blocker for blocker entries.
func (t *Tile) Kind() TileKind {
	if t.Def == nil {
		return TileKindBlocker
	}
	return t.Def.Kind
}

// Is reports whether the tile's kind intersects the mask.
func (t *Tile) Is(mask TileKind) bool {
	return t.Kind().Intersects(mask)
}

// IsBlocker reports whether this entry is a covered cell of a multi-cell tile.
func (t *Tile) IsBlocker() bool {
	return t.Def == nil
}

// BlockerBase returns the base cell of the owning tile for blocker entries.
func (t *Tile) BlockerBase() Cell {
	return t.blockerBase
}

// CellRange returns the inclusive footprint of the tile.
func (t *Tile) CellRange() CellRange {
	if t.Def == nil {
		return RangeForSize(t.BaseCell, Size{W: 1, H: 1})
	}
	return t.Def.CellRange(t.BaseCell)
}

// PathKind returns the graph node kind this tile projects, or NodeNone.
func (t *Tile) PathKind() NodeKind {
	if t.Def == nil {
		return NodeNone
	}
	return t.Def.PathKind
}

// HasFlags reports whether all the given flags are set.
func (t *Tile) HasFlags(f TileFlags) bool {
	return t.Flags&f == f
}

// SetFlags sets or clears the given flag bits.
func (t *Tile) SetFlags(f TileFlags, on bool) {
	if on {
		t.Flags |= f
	} else {
		t.Flags &^= f
	}
}

// SetVariationIndex clamps and stores the variation, resetting the animation
// cursor so the new variant starts from frame zero.
func (t *Tile) SetVariationIndex(i int) {
	if t.Def == nil || len(t.Def.Variations) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(t.Def.Variations) {
		i = len(t.Def.Variations) - 1
	}
	t.VariationIndex = i
	t.Anim = TileAnimCursor{}
}

// SetAnimSetByName switches the active animation set, resetting playback.
// No-op if the variation has no set with that name.
func (t *Tile) SetAnimSetByName(nameHash StringHash) {
	if t.Def == nil {
		return
	}
	idx := t.Def.AnimSetIndex(t.VariationIndex, nameHash)
	if idx < 0 || idx == t.Anim.SetIndex {
		return
	}
	t.Anim = TileAnimCursor{SetIndex: idx}
}

// CurrentAnimSet returns the active animation set, or nil for blockers.
func (t *Tile) CurrentAnimSet() *TileAnimSet {
	if t.Def == nil {
		return nil
	}
	return t.Def.AnimSet(t.VariationIndex, t.Anim.SetIndex)
}

// AdvanceAnim steps the animation cursor by dt seconds.
func (t *Tile) AdvanceAnim(dt float64) {
	set := t.CurrentAnimSet()
	if set == nil || set.FrameCount <= 1 {
		return
	}
	t.Anim.FrameTime += dt
	for t.Anim.FrameTime >= set.FrameDuration {
		t.Anim.FrameTime -= set.FrameDuration
		next := t.Anim.FrameIndex + 1
		if next >= set.FrameCount {
			if !set.Looping {
				t.Anim.FrameIndex = set.FrameCount - 1
				t.Anim.FrameTime = 0
				return
			}
			next = 0
		}
		t.Anim.FrameIndex = next
	}
}

// NextInStack returns the next unit tile stacked in the same cell, or nil.
func (t *Tile) NextInStack() *Tile {
	return t.next
}

// VisitStack visits this tile and every tile chained after it.
func (t *Tile) VisitStack(visit func(*Tile) bool) {
	for cur := t; cur != nil; cur = cur.next {
		if !visit(cur) {
			return
		}
	}
}

// zSortKey orders tiles back-to-front for rendering: deeper rows first, then
// the per-tile bias.
func (t *Tile) zSortKey() int {
	return (t.BaseCell.X+t.BaseCell.Y)*16 + t.ZSortExtra
}
