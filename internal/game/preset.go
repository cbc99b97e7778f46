package game

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// MapPreset is a built-in starting map: terrain and object layers as rows of
// symbol characters, plus the starting treasury and optional decoration.
type MapPreset struct {
	Name         string
	Size         Size
	StartingGold int

	// Terrain and Objects are row-major symbol grids; Objects rows may be
	// omitted entirely. A space or '.' leaves the cell alone.
	Terrain []string
	Objects []string

	// ScatterVegetation seeds trees and rocks over open grass from a noise
	// field when non-zero; the value is the noise seed.
	ScatterVegetation int64
}

// presetTerrainSymbols maps terrain symbols to tile def names.
var presetTerrainSymbols = map[rune]string{
	'g': "grass",
	'w': "water",
	'r': "dirt_path",
	'R': "paved_road",
	'v': "vacant_lot",
	's': "settlers_spawn",
}

// presetObjectSymbols maps object symbols to tile def names.
var presetObjectSymbols = map[rune]string{
	'h': "house0",
	'f': "rice_farm",
	'l': "lumber_mill",
	'G': "granary",
	'y': "storage_yard",
	'W': "well",
	'm': "market",
	'x': "tax_office",
	't': "tree",
	'k': "rocks",
}

// BuiltinPresets returns the compiled-in starting maps.
func BuiltinPresets() []MapPreset {
	return []MapPreset{
		{
			// A small starting village: two houses either side of an open
			// row, waiting for the player to lay the connecting road. The
			// spawn point sits at the west edge.
			Name: "village", Size: Size{W: 9, H: 9}, StartingGold: 500,
			Terrain: []string{
				"ggggggggg",
				"ggggggggg",
				"ggggggggg",
				"ggggggggg",
				"sgggggggg",
				"ggggggggg",
				"ggggggggg",
				"ggggggggg",
				"ggggggggg",
			},
			Objects: []string{
				".........",
				".........",
				".........",
				"..h...h..",
				".........",
				".........",
				".........",
				".........",
				".........",
			},
		},
		{
			// A riverside clearing: water along the north edge, scattered
			// trees and rocks, a paved road to the shore.
			Name: "riverside", Size: Size{W: 12, H: 12}, StartingGold: 800,
			Terrain: []string{
				"wwwwwwwwwwww",
				"wwwwwwwwwwww",
				"gggggggggggg",
				"gggggggggggg",
				"ggggRRRRgggg",
				"ggggRggRgggg",
				"ggggRggRgggg",
				"ggggRRRRgggg",
				"gggggggggggg",
				"gggggggggggg",
				"sggggggggggg",
				"gggggggggggg",
			},
			ScatterVegetation: 12345,
		},
		{
			// A road ring one cell in from the map edge, for walking the
			// perimeter between opposite corners.
			Name: "ring", Size: Size{W: 12, H: 12}, StartingGold: 300,
			Terrain: []string{
				"gggggggggggg",
				"grrrrrrrrrrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grggggggggrg",
				"grrrrrrrrrrg",
				"gggggggggggg",
			},
		},
	}
}

// LoadPreset resets the session onto one of the built-in maps.
func (s *Simulation) LoadPreset(index int) error {
	presets := BuiltinPresets()
	if index < 0 || index >= len(presets) {
		return fmt.Errorf("no preset %d", index)
	}
	p := &presets[index]
	if p.Size != s.tileMap.SizeInCells() {
		return fmt.Errorf("preset %q is %dx%d, session map is %dx%d",
			p.Name, p.Size.W, p.Size.H, s.tileMap.SizeInCells().W, s.tileMap.SizeInCells().H)
	}

	s.tileMap.Reset(s.tileMap.TileSets().FindByName("grass"))
	s.world.Reset()
	s.tasks = NewTaskManager()
	s.placement = NewPlacement(NewUndoJournal())
	s.settlers = NewSettlersSystem()
	s.world.Treasury().Earn(p.StartingGold)

	q := s.Query(0)
	if err := applyPresetLayer(q, p.Terrain, presetTerrainSymbols, false); err != nil {
		return fmt.Errorf("preset %q terrain: %w", p.Name, err)
	}
	if err := applyPresetLayer(q, p.Objects, presetObjectSymbols, true); err != nil {
		return fmt.Errorf("preset %q objects: %w", p.Name, err)
	}
	if p.ScatterVegetation != 0 {
		scatterVegetation(q, p.ScatterVegetation)
	}

	s.graph.RebuildFromTileMap(s.tileMap)
	r := s.tileMap.FullRange()
	RefreshRoadJunctions(s.tileMap, s.graph, r)
	RefreshWaterTransitions(s.tileMap, s.graph, r)
	s.log.Infof(LogChannelSystems, "loaded preset %q", p.Name)
	return nil
}

// applyPresetLayer places one symbol grid. Object symbols that map to
// configured buildings also spawn their building record.
func applyPresetLayer(q *Query, rows []string, symbols map[rune]string, objects bool) error {
	tm := q.TileMap()
	for y, row := range rows {
		for x, sym := range row {
			if sym == '.' || sym == ' ' {
				continue
			}
			name, ok := symbols[sym]
			if !ok {
				return fmt.Errorf("unknown symbol %q at (%d,%d)", sym, x, y)
			}
			def := tm.TileSets().FindByName(name)
			if def == nil {
				return fmt.Errorf("no tile def %q", name)
			}
			t, err := tm.TryPlaceTile(Cell{X: x, Y: y}, def)
			if err != nil {
				return err
			}
			if objects {
				if _, berr := q.World().SpawnBuildingForTile(q, t); berr != nil {
					// Trees and rocks carry no building record.
					continue
				}
			}
		}
	}
	return nil
}

// vegetationNoiseThreshold tunes how dense the tree scatter grows.
const vegetationNoiseThreshold = 0.45

// scatterVegetation drops trees and rocks over open grass using a smooth
// noise field, so clumps form instead of uniform speckle.
func scatterVegetation(q *Query, seed int64) {
	noise := opensimplex.New(seed)
	tm := q.TileMap()
	tm.FullRange().ForEach(func(c Cell) bool {
		if !q.Graph().NodeKindAt(c).Intersects(NodeEmptyLand) {
			return true
		}
		if tm.TileAt(c, LayerObjects) != nil {
			return true
		}
		v := noise.Eval2(float64(c.X)*0.35, float64(c.Y)*0.35)
		switch {
		case v > vegetationNoiseThreshold:
			placePresetProp(tm, c, "tree")
		case v < -vegetationNoiseThreshold-0.2:
			placePresetProp(tm, c, "rocks")
		}
		return true
	})
}

func placePresetProp(tm *TileMap, c Cell, name string) {
	if def := tm.TileSets().FindByName(name); def != nil {
		tm.TryPlaceTile(c, def) // nolint:errcheck // decorative, skip on conflict
	}
}
