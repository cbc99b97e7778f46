package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// undoJournalCapacity caps how many edits can be undone.
const undoJournalCapacity = 16

// ErrNothingToUndo is returned when the journal is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned when no undone edit is pending.
var ErrNothingToRedo = errors.New("nothing to redo")

// cellSnapshot captures everything restorable about one map cell: the terrain
// tile, and, when the cell is a building's base cell, the full building state.
type cellSnapshot struct {
	Cell             Cell       `json:"cell"`
	TerrainDefHash   StringHash `json:"terrain_def"`
	TerrainVariation int        `json:"terrain_variation"`
	TerrainFlags     TileFlags  `json:"terrain_flags"`

	// ObjectDefHash is zero when no object base tile sits on the cell.
	ObjectDefHash StringHash      `json:"object_def,omitempty"`
	BuildingState json.RawMessage `json:"building_state,omitempty"`
}

// editRecord is one journal entry: the affected range captured before and
// after the edit, so the edit can be walked in either direction.
type editRecord struct {
	Name   string         `json:"name"`
	Range  CellRange      `json:"range"`
	Before []cellSnapshot `json:"before"`
	After  []cellSnapshot `json:"after"`
}

// UndoJournal records map edits as before/after snapshots of the affected
// cells. Undo restores the before side, redo the after side; a new edit
// discards any pending redos.
type UndoJournal struct {
	UndoStack []editRecord `json:"undo_stack"`
	RedoStack []editRecord `json:"redo_stack"`

	// pending is the open record between Begin and Commit.
	pending *editRecord
}

// NewUndoJournal creates an empty journal.
func NewUndoJournal() *UndoJournal {
	return &UndoJournal{}
}

// CanUndo reports whether an edit is available to undo.
func (j *UndoJournal) CanUndo() bool { return len(j.UndoStack) > 0 }

// CanRedo reports whether an undone edit is available to redo.
func (j *UndoJournal) CanRedo() bool { return len(j.RedoStack) > 0 }

// Begin opens a record covering the given range, capturing its current state.
// Commit or Abort must follow before the next Begin.
func (j *UndoJournal) Begin(q *Query, name string, r CellRange) {
	j.pending = &editRecord{
		Name:   name,
		Range:  r,
		Before: snapshotRange(q, r),
	}
}

// Commit captures the post-edit state and pushes the record, discarding the
// redo stack and the oldest record past capacity.
func (j *UndoJournal) Commit(q *Query) {
	if j.pending == nil {
		return
	}
	j.pending.After = snapshotRange(q, j.pending.Range)
	j.UndoStack = append(j.UndoStack, *j.pending)
	if len(j.UndoStack) > undoJournalCapacity {
		j.UndoStack = j.UndoStack[1:]
	}
	j.RedoStack = j.RedoStack[:0]
	j.pending = nil
}

// Abort drops the open record, for edits that failed before changing the map.
func (j *UndoJournal) Abort() { j.pending = nil }

// Undo restores the most recent edit's before state.
func (j *UndoJournal) Undo(q *Query) error {
	if !j.CanUndo() {
		return ErrNothingToUndo
	}
	rec := j.UndoStack[len(j.UndoStack)-1]
	j.UndoStack = j.UndoStack[:len(j.UndoStack)-1]
	if err := restoreSnapshots(q, rec.Range, rec.Before); err != nil {
		return fmt.Errorf("undo %s: %w", rec.Name, err)
	}
	j.RedoStack = append(j.RedoStack, rec)
	q.Log().Infof(LogChannelUndoRedo, "undid %s", rec.Name)
	return nil
}

// Redo re-applies the most recently undone edit's after state.
func (j *UndoJournal) Redo(q *Query) error {
	if !j.CanRedo() {
		return ErrNothingToRedo
	}
	rec := j.RedoStack[len(j.RedoStack)-1]
	j.RedoStack = j.RedoStack[:len(j.RedoStack)-1]
	if err := restoreSnapshots(q, rec.Range, rec.After); err != nil {
		return fmt.Errorf("redo %s: %w", rec.Name, err)
	}
	j.UndoStack = append(j.UndoStack, rec)
	q.Log().Infof(LogChannelUndoRedo, "redid %s", rec.Name)
	return nil
}

// Clear drops all history.
func (j *UndoJournal) Clear() {
	j.UndoStack = j.UndoStack[:0]
	j.RedoStack = j.RedoStack[:0]
	j.pending = nil
}

// snapshotRange captures every cell of the range. Buildings are captured once
// at their base cell, with their full serialized state.
func snapshotRange(q *Query, r CellRange) []cellSnapshot {
	tm := q.TileMap()
	var snaps []cellSnapshot
	r.ForEach(func(c Cell) bool {
		if !tm.InBounds(c) {
			return true
		}
		snap := cellSnapshot{Cell: c}
		if t := tm.TileAt(c, LayerTerrain); t != nil && t.Def != nil {
			snap.TerrainDefHash = t.Def.NameHash
			snap.TerrainVariation = t.VariationIndex
			snap.TerrainFlags = t.Flags
		}
		if obj := tm.TileAt(c, LayerObjects); obj != nil && obj.Def != nil && obj.BaseCell == c {
			snap.ObjectDefHash = obj.Def.NameHash
			if b, ok := q.World().FindBuildingByHandle(obj.Handle); ok {
				if state, err := json.Marshal(b); err == nil {
					snap.BuildingState = state
				}
			}
		}
		snaps = append(snaps, snap)
		return true
	})
	return snaps
}

// restoreSnapshots rewrites the range to match the snapshots: objects in the
// range are demolished, then terrain and recorded buildings are put back.
// Restored buildings come back with fresh handles; stale handles elsewhere
// resolve to nothing and their tasks wind down on their own.
func restoreSnapshots(q *Query, r CellRange, snaps []cellSnapshot) error {
	tm := q.TileMap()

	// Demolish current objects based in the range.
	r.ForEach(func(c Cell) bool {
		obj := tm.BaseTileAt(c, LayerObjects)
		if obj == nil || obj.Def == nil || obj.BaseCell != c || obj.Is(TileKindUnit) {
			return true
		}
		if b, ok := q.World().FindBuildingByHandle(obj.Handle); ok {
			if err := q.World().DespawnBuilding(q, b); err != nil {
				q.Log().Errorf(LogChannelUndoRedo, "restore despawn: %v", err)
			}
		}
		if err := tm.TryClearTileFromLayer(c, LayerObjects); err != nil {
			q.Log().Errorf(LogChannelUndoRedo, "restore clear: %v", err)
		}
		return true
	})

	// Terrain first, then buildings on top of it.
	for _, snap := range snaps {
		if snap.TerrainDefHash == 0 {
			continue
		}
		def := tm.TileSets().FindByHash(snap.TerrainDefHash)
		if def == nil {
			return fmt.Errorf("unknown terrain def %d at (%d,%d)", snap.TerrainDefHash, snap.Cell.X, snap.Cell.Y)
		}
		t, err := tm.TryPlaceTile(snap.Cell, def)
		if err != nil {
			return err
		}
		t.SetVariationIndex(snap.TerrainVariation)
		t.Flags = snap.TerrainFlags
	}
	for _, snap := range snaps {
		if snap.ObjectDefHash == 0 {
			continue
		}
		def := tm.TileSets().FindByHash(snap.ObjectDefHash)
		if def == nil {
			return fmt.Errorf("unknown object def %d at (%d,%d)", snap.ObjectDefHash, snap.Cell.X, snap.Cell.Y)
		}
		t, err := tm.TryPlaceTile(snap.Cell, def)
		if err != nil {
			return err
		}
		b, err := q.World().SpawnBuildingForTile(q, t)
		if err != nil {
			continue // props have no building record
		}
		if len(snap.BuildingState) > 0 {
			id := b.ID
			if uerr := json.Unmarshal(snap.BuildingState, b); uerr != nil {
				q.Log().Errorf(LogChannelUndoRedo, "restore building state: %v", uerr)
			}
			b.ID = id // keep the fresh pool identity
			t.Handle = b.Handle()
			if perr := b.Behavior.PostLoad(b, q.Configs()); perr != nil {
				q.Log().Errorf(LogChannelUndoRedo, "restore building config: %v", perr)
			}
		}
	}

	q.Graph().RefreshRange(tm, r)
	RefreshRoadJunctions(tm, q.Graph(), r)
	RefreshWaterTransitions(tm, q.Graph(), r)
	return nil
}
