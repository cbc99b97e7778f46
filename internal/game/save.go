package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// saveFormatVersion bumps whenever the document layout changes.
const saveFormatVersion = 1

// AutosaveName is the slot written by Autosave.
const AutosaveName = "autosave"

// CameraState is the frontend viewport, persisted so a loaded game opens
// where it was left.
type CameraState struct {
	Scaling float64 `json:"scaling"`
	Offset  Vec2    `json:"offset"`
}

// tileSave is one serialized map tile.
type tileSave struct {
	Cell      Cell             `json:"cell"`
	DefHash   StringHash       `json:"def"`
	Variation int              `json:"variation,omitempty"`
	Flags     TileFlags        `json:"flags,omitempty"`
	Handle    GameObjectHandle `json:"handle,omitempty"`
}

// tileMapSave is the serialized map: every terrain cell plus every object
// tile, unit stack entries included.
type tileMapSave struct {
	Size    Size       `json:"size"`
	Terrain []tileSave `json:"terrain"`
	Objects []tileSave `json:"objects"`
}

// SaveDocument is the full session on disk.
type SaveDocument struct {
	Version   int              `json:"version"`
	SessionID uuid.UUID        `json:"session_id"`
	SavedAt   time.Time        `json:"saved_at"`
	Tick      uint64           `json:"tick"`
	Camera    CameraState      `json:"camera"`
	TileMap   tileMapSave      `json:"tile_map"`
	World     *World           `json:"world"`
	Tasks     *SpawnPool[*Task] `json:"tasks"`
	Settlers  SettlersSystem   `json:"settlers"`
	Journal   *UndoJournal     `json:"undo_journal"`
}

// saveTileMap flattens the map into its serialized form.
func saveTileMap(tm *TileMap) tileMapSave {
	out := tileMapSave{Size: tm.SizeInCells()}
	tm.FullRange().ForEach(func(c Cell) bool {
		if t := tm.TileAt(c, LayerTerrain); t != nil && t.Def != nil {
			out.Terrain = append(out.Terrain, tileSave{
				Cell: c, DefHash: t.Def.NameHash,
				Variation: t.VariationIndex, Flags: t.Flags,
			})
		}
		head := tm.TileAt(c, LayerObjects)
		if head == nil {
			return true
		}
		head.VisitStack(func(t *Tile) bool {
			if t.Def != nil && t.BaseCell == c {
				out.Objects = append(out.Objects, tileSave{
					Cell: c, DefHash: t.Def.NameHash,
					Variation: t.VariationIndex, Flags: t.Flags,
					Handle: t.Handle,
				})
			}
			return true
		})
		return true
	})
	return out
}

// loadTileMap rebuilds the map from its serialized form. Unit stacks restore
// in saved order so handle lookups find their tiles again.
func loadTileMap(tm *TileMap, save tileMapSave) error {
	if tm.SizeInCells() != save.Size {
		return fmt.Errorf("save map is %dx%d, session map is %dx%d",
			save.Size.W, save.Size.H, tm.SizeInCells().W, tm.SizeInCells().H)
	}
	for _, rec := range save.Terrain {
		def := tm.TileSets().FindByHash(rec.DefHash)
		if def == nil {
			return fmt.Errorf("unknown terrain def %d at (%d,%d)", rec.DefHash, rec.Cell.X, rec.Cell.Y)
		}
		t, err := tm.TryPlaceTile(rec.Cell, def)
		if err != nil {
			return err
		}
		t.SetVariationIndex(rec.Variation)
		t.Flags = rec.Flags
	}
	place := func(rec tileSave, def *TileDef) error {
		t, err := tm.TryPlaceTile(rec.Cell, def)
		if err != nil {
			return err
		}
		t.SetVariationIndex(rec.Variation)
		t.Flags = rec.Flags
		t.Handle = rec.Handle
		return nil
	}
	for _, rec := range save.Objects {
		def := tm.TileSets().FindByHash(rec.DefHash)
		if def == nil {
			return fmt.Errorf("unknown object def %d at (%d,%d)", rec.DefHash, rec.Cell.X, rec.Cell.Y)
		}
		if def.Kind == TileKindUnit {
			continue
		}
		if err := place(rec, def); err != nil {
			return err
		}
	}
	// Units were saved head-to-tail but placement pushes onto the stack head,
	// so they go back in reverse to restore the original order.
	for i := len(save.Objects) - 1; i >= 0; i-- {
		rec := save.Objects[i]
		def := tm.TileSets().FindByHash(rec.DefHash)
		if def == nil || def.Kind != TileKindUnit {
			continue
		}
		if err := place(rec, def); err != nil {
			return err
		}
	}
	return nil
}

// BuildSaveDocument captures the session into a document.
func (s *Simulation) BuildSaveDocument() *SaveDocument {
	return &SaveDocument{
		Version:   saveFormatVersion,
		SessionID: s.sessionID,
		SavedAt:   time.Now().UTC(),
		Tick:      s.tick,
		Camera:    s.camera,
		TileMap:   saveTileMap(s.tileMap),
		World:     s.world,
		Tasks:     s.tasks.Pool(),
		Settlers:  s.settlers,
		Journal:   s.placement.Journal(),
	}
}

// ApplySaveDocument replaces the session state with the document's. The map
// is staged on a scratch instance first, so a corrupt or mismatched document
// errors out without disturbing the running session; only a fully validated
// load swaps in.
func (s *Simulation) ApplySaveDocument(doc *SaveDocument) error {
	if doc.Version != saveFormatVersion {
		return fmt.Errorf("unsupported save version %d", doc.Version)
	}

	sets := s.tileMap.TileSets()
	staged := NewTileMap(s.tileMap.SizeInCells(), sets, sets.FindByName("grass"))
	if err := loadTileMap(staged, doc.TileMap); err != nil {
		return fmt.Errorf("load tile map: %w", err)
	}
	if err := doc.World.PostLoad(staged, s.buildingConfigs, s.unitConfigs); err != nil {
		return fmt.Errorf("load world: %w", err)
	}

	s.tileMap = staged
	s.tileMap.SetCallbacks(TileMapCallbacks{
		OnTilePlaced:   s.onTilePlaced,
		OnRemovingTile: s.onRemovingTile,
		OnMapReset:     s.onMapReset,
	})
	s.world = doc.World
	s.tasks = &TaskManager{pool: doc.Tasks}
	s.settlers = doc.Settlers
	if doc.Journal != nil {
		s.placement = NewPlacement(doc.Journal)
	} else {
		s.placement = NewPlacement(NewUndoJournal())
	}
	s.sessionID = doc.SessionID
	s.camera = doc.Camera
	s.tick = doc.Tick
	s.log.SetTick(int(s.tick))
	s.deferredRefreshes = s.deferredRefreshes[:0]
	s.graph.RebuildFromTileMap(s.tileMap)
	s.log.Infof(LogChannelSave, "session %s restored at tick %d", s.sessionID, s.tick)
	return nil
}

// SavePath returns saves/<name>.json under the working directory.
func SavePath(name string) string {
	return filepath.Join("saves", name+".json")
}

// SaveToFile writes the session to a file, creating parent directories.
func (s *Simulation) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s.BuildSaveDocument(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	s.log.Infof(LogChannelSave, "saved to %s (%d bytes)", path, len(data))
	return nil
}

// LoadFromFile reads a save file and applies it to the session.
func (s *Simulation) LoadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- save path comes from the player
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	// Pre-seed the pools so their decoders know how to rebuild slots.
	doc := SaveDocument{
		World:   NewWorld(),
		Tasks:   NewTaskManager().Pool(),
		Journal: NewUndoJournal(),
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode save %s: %w", path, err)
	}
	return s.ApplySaveDocument(&doc)
}

// SaveGame writes the named slot under saves/.
func (s *Simulation) SaveGame(name string) error {
	return s.SaveToFile(SavePath(name))
}

// LoadGame reads the named slot under saves/.
func (s *Simulation) LoadGame(name string) error {
	return s.LoadFromFile(SavePath(name))
}

// Autosave writes the autosave slot.
func (s *Simulation) Autosave() error {
	return s.SaveGame(AutosaveName)
}
