package game

import (
	"github.com/kamstrup/intmap"
)

// TileKind classifies what a tile is, independent of which layer holds it.
type TileKind uint16

const (
	TileKindTerrain    TileKind = 1 << iota // ground surface (grass, water, road)
	TileKindBuilding                        // building footprint base
	TileKindProp                            // decorative object
	TileKindUnit                            // walking unit, stackable
	TileKindBlocker                         // covered cell of a multi-cell object
	TileKindVegetation                      // trees, bushes
	TileKindRocks                           // rock formations
)

// Intersects reports whether any bit of mask is set in k.
func (k TileKind) Intersects(mask TileKind) bool {
	return k&mask != 0
}

// TileLayerKind selects one of the two tile map layers.
type TileLayerKind uint8

const (
	LayerTerrain TileLayerKind = iota
	LayerObjects
	layerCount
)

// String returns the layer name.
func (l TileLayerKind) String() string {
	if l == LayerTerrain {
		return "terrain"
	}
	return "objects"
}

// Color is a plain RGBA palette color carried by tile defs. The core never
// touches a rendering backend; the frontend maps this to whatever it draws
// with.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// TileAnimSet is one named animation loop of a tile variation.
type TileAnimSet struct {
	Name          string
	NameHash      StringHash
	FrameCount    int
	FrameDuration float64 // seconds per frame
	Looping       bool
}

// TileVariation is one visual variant of a tile def. Roads use variations to
// encode junction shapes; buildings use them for cosmetic variety.
type TileVariation struct {
	Name     string
	AnimSets []TileAnimSet
}

// TileDef is an immutable catalog entry shared by every tile instance of its
// kind. Instances refer to defs by pointer; defs live for the whole process.
type TileDef struct {
	Name        string
	NameHash    StringHash
	Kind        TileKind
	Layer       TileLayerKind
	LogicalSize Size // footprint in cells
	DrawSize    Size // sprite size in pixels at zoom 1
	PathKind    NodeKind
	Color       Color
	Cost        int // gold to place one tile; 0 = free
	Variations  []TileVariation
}

// CellRange returns the inclusive footprint of the def anchored at base.
func (d *TileDef) CellRange(base Cell) CellRange {
	return RangeForSize(base, d.LogicalSize)
}

// IsMultiCell reports whether the def covers more than one cell.
func (d *TileDef) IsMultiCell() bool {
	return d.LogicalSize.W > 1 || d.LogicalSize.H > 1
}

// VariationCount returns how many visual variants the def has.
func (d *TileDef) VariationCount() int {
	return len(d.Variations)
}

// AnimSetIndex returns the index of the variation's animation set with the
// given name hash, or -1.
func (d *TileDef) AnimSetIndex(variation int, nameHash StringHash) int {
	if variation < 0 || variation >= len(d.Variations) {
		return -1
	}
	for i, as := range d.Variations[variation].AnimSets {
		if as.NameHash == nameHash {
			return i
		}
	}
	return -1
}

// AnimSet returns the animation set at (variation, set index), or nil.
func (d *TileDef) AnimSet(variation, setIndex int) *TileAnimSet {
	if variation < 0 || variation >= len(d.Variations) {
		return nil
	}
	sets := d.Variations[variation].AnimSets
	if setIndex < 0 || setIndex >= len(sets) {
		return nil
	}
	return &sets[setIndex]
}

// TileSets is the immutable tile-def catalog, indexed by name hash.
type TileSets struct {
	defs   []*TileDef
	byHash *intmap.Map[uint64, int]
}

// NewTileSets builds a catalog from the given defs, computing name hashes and
// the lookup index.
func NewTileSets(defs []*TileDef) *TileSets {
	ts := &TileSets{
		defs:   defs,
		byHash: intmap.New[uint64, int](len(defs) * 2),
	}
	for i, d := range defs {
		d.NameHash = HashString(d.Name)
		ts.byHash.Put(uint64(d.NameHash), i)
	}
	return ts
}

// FindByName returns the def with the given name, or nil.
func (ts *TileSets) FindByName(name string) *TileDef {
	return ts.FindByHash(HashString(name))
}

// FindByHash returns the def with the given name hash, or nil.
func (ts *TileSets) FindByHash(h StringHash) *TileDef {
	if i, ok := ts.byHash.Get(uint64(h)); ok {
		return ts.defs[i]
	}
	return nil
}

// ForEach visits every def in catalog order.
func (ts *TileSets) ForEach(visit func(*TileDef)) {
	for _, d := range ts.defs {
		visit(d)
	}
}

// Unit animation set names. Direction changes swap the active set.
const (
	AnimIdle   = "idle"
	AnimWalkNE = "walk_ne"
	AnimWalkNW = "walk_nw"
	AnimWalkSE = "walk_se"
	AnimWalkSW = "walk_sw"
)

func staticAnim() []TileAnimSet {
	return []TileAnimSet{{Name: AnimIdle, NameHash: HashString(AnimIdle), FrameCount: 1, FrameDuration: 1, Looping: true}}
}

func unitAnims() []TileAnimSet {
	names := []string{AnimIdle, AnimWalkNE, AnimWalkNW, AnimWalkSE, AnimWalkSW}
	sets := make([]TileAnimSet, len(names))
	for i, n := range names {
		sets[i] = TileAnimSet{Name: n, NameHash: HashString(n), FrameCount: 4, FrameDuration: 0.15, Looping: true}
	}
	return sets
}

func variations(names []string, anims func() []TileAnimSet) []TileVariation {
	out := make([]TileVariation, len(names))
	for i, n := range names {
		out[i] = TileVariation{Name: n, AnimSets: anims()}
	}
	return out
}

// Road junction variations, one per 4-bit neighbor mask. The variation index
// equals the mask; see updateRoadJunctions.
func roadVariations() []TileVariation {
	names := make([]string, 16)
	for i := range names {
		names[i] = "junction"
	}
	return variations(names, staticAnim)
}

// Water shoreline variations, one per transition lookup entry.
func waterVariations() []TileVariation {
	names := make([]string, 16)
	for i := range names {
		names[i] = "shore"
	}
	return variations(names, staticAnim)
}

func terrainDef(name string, pathKind NodeKind, cost int, col Color, vars []TileVariation) *TileDef {
	return &TileDef{
		Name:        name,
		Kind:        TileKindTerrain,
		Layer:       LayerTerrain,
		LogicalSize: Size{W: 1, H: 1},
		DrawSize:    BaseTileSize,
		PathKind:    pathKind,
		Color:       col,
		Cost:        cost,
		Variations:  vars,
	}
}

func buildingDef(name string, sizeCells, drawH int, cost int, col Color) *TileDef {
	return &TileDef{
		Name:        name,
		Kind:        TileKindBuilding,
		Layer:       LayerObjects,
		LogicalSize: Size{W: sizeCells, H: sizeCells},
		DrawSize:    Size{W: BaseTileSize.W * sizeCells, H: drawH},
		PathKind:    NodeBuilding,
		Color:       col,
		Cost:        cost,
		Variations:  variations([]string{"var0", "var1"}, staticAnim),
	}
}

func unitDef(name string, col Color) *TileDef {
	return &TileDef{
		Name:        name,
		Kind:        TileKindUnit,
		Layer:       LayerObjects,
		LogicalSize: Size{W: 1, H: 1},
		DrawSize:    Size{W: 32, H: 48},
		Color:       col,
		Variations:  variations([]string{"var0"}, unitAnims),
	}
}

func propDef(name string, kind TileKind, pathKind NodeKind, col Color) *TileDef {
	return &TileDef{
		Name:        name,
		Kind:        kind,
		Layer:       LayerObjects,
		LogicalSize: Size{W: 1, H: 1},
		DrawSize:    Size{W: BaseTileSize.W, H: 64},
		PathKind:    pathKind,
		Color:       col,
		Variations:  variations([]string{"var0", "var1", "var2"}, staticAnim),
	}
}

// BuiltinTileSets returns the compiled-in catalog used by the preset maps and
// the tests. A data-driven catalog can replace this wholesale.
func BuiltinTileSets() *TileSets {
	defs := []*TileDef{
		// Terrain.
		terrainDef("grass", NodeEmptyLand, 0, Color{R: 70, G: 110, B: 58, A: 255},
			variations([]string{"var0", "var1", "var2", "var3"}, staticAnim)),
		terrainDef("water", NodeWater, 0, Color{R: 42, G: 74, B: 120, A: 255}, waterVariations()),
		terrainDef("dirt_path", NodeRoad, 2, Color{R: 120, G: 96, B: 64, A: 255}, roadVariations()),
		terrainDef("paved_road", NodeRoad, 4, Color{R: 104, G: 100, B: 96, A: 255}, roadVariations()),
		terrainDef("vacant_lot", NodeVacantLot, 1, Color{R: 96, G: 88, B: 60, A: 255},
			variations([]string{"var0"}, staticAnim)),
		terrainDef("settlers_spawn", NodeSettlersSpawnPoint, 0, Color{R: 150, G: 130, B: 70, A: 255},
			variations([]string{"var0"}, staticAnim)),

		// Houses, one def per level. Footprint grows one cell per level.
		buildingDef("house0", 1, 64, 10, Color{R: 170, G: 140, B: 100, A: 255}),
		buildingDef("house1", 2, 96, 0, Color{R: 180, G: 150, B: 104, A: 255}),
		buildingDef("house2", 3, 128, 0, Color{R: 190, G: 158, B: 108, A: 255}),

		// Producers.
		buildingDef("rice_farm", 2, 80, 30, Color{R: 132, G: 160, B: 84, A: 255}),
		buildingDef("lumber_mill", 2, 88, 35, Color{R: 128, G: 104, B: 72, A: 255}),
		buildingDef("smelter", 2, 92, 45, Color{R: 140, G: 96, B: 88, A: 255}),

		// Storage.
		buildingDef("granary", 2, 96, 40, Color{R: 196, G: 170, B: 110, A: 255}),
		buildingDef("storage_yard", 2, 72, 30, Color{R: 150, G: 140, B: 120, A: 255}),

		// Services.
		buildingDef("well", 1, 56, 15, Color{R: 110, G: 120, B: 140, A: 255}),
		buildingDef("market", 2, 88, 40, Color{R: 200, G: 120, B: 80, A: 255}),
		buildingDef("tax_office", 2, 96, 50, Color{R: 160, G: 140, B: 170, A: 255}),

		// Units.
		unitDef("runner", Color{R: 220, G: 200, B: 150, A: 255}),
		unitDef("patrol", Color{R: 150, G: 200, B: 220, A: 255}),
		unitDef("settler", Color{R: 200, G: 170, B: 200, A: 255}),

		// Props.
		propDef("tree", TileKindVegetation, NodeVegetation, Color{R: 48, G: 88, B: 44, A: 255}),
		propDef("rocks", TileKindRocks, NodeRocks, Color{R: 120, G: 118, B: 112, A: 255}),
	}
	return NewTileSets(defs)
}
