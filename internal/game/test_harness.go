package game

import "fmt"

// TestSim is a headless simulation harness used exclusively by tests. It
// wraps a Simulation with deterministic seeding and builder-style setup so
// scenarios read as data.
type TestSim struct {
	Sim *Simulation

	// tickDt is the fixed step used by RunTicks.
	tickDt float64
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map size, seed, gold — applied first
	simOptLayout                      // terrain: roads, water, spawn points
	simOptSpawn                       // buildings and units — applied last
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// testSimConfig collects infra options before the simulation exists.
type testSimConfig struct {
	size Size
	seed int64
	gold int
}

var pendingConfig testSimConfig

// WithMapSize sets the map dimensions in cells.
func WithMapSize(w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		pendingConfig.size = Size{W: w, H: h}
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		pendingConfig.seed = seed
	}}
}

// WithGold sets the starting treasury.
func WithGold(gold int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		pendingConfig.gold = gold
	}}
}

// WithRoadRow lays dirt path across one row, from x0 to x1 inclusive.
func WithRoadRow(y, x0, x1 int) SimOption {
	return SimOption{simOptLayout, func(ts *TestSim) {
		ts.placeTerrainRun("dirt_path", y, x0, x1)
	}}
}

// WithTerrain places one terrain tile by def name.
func WithTerrain(name string, x, y int) SimOption {
	return SimOption{simOptLayout, func(ts *TestSim) {
		ts.mustPlace(name, Cell{X: x, Y: y})
	}}
}

// WithSpawnPoint places a settlers spawn tile.
func WithSpawnPoint(x, y int) SimOption {
	return SimOption{simOptLayout, func(ts *TestSim) {
		ts.mustPlace("settlers_spawn", Cell{X: x, Y: y})
	}}
}

// WithBuilding places a building tile by def name and spawns its record.
func WithBuilding(name string, x, y int) SimOption {
	return SimOption{simOptSpawn, func(ts *TestSim) {
		t := ts.mustPlace(name, Cell{X: x, Y: y})
		if _, err := ts.Sim.World().SpawnBuildingForTile(ts.Query(), t); err != nil {
			panic(fmt.Sprintf("test sim: spawn %s: %v", name, err))
		}
	}}
}

// NewTestSim constructs a harness from the given options in three ordered
// passes: infrastructure, terrain layout, then buildings and units.
func NewTestSim(opts ...SimOption) *TestSim {
	pendingConfig = testSimConfig{size: Size{W: 9, H: 9}, seed: 1}
	ts := &TestSim{tickDt: 0.1}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Sim = NewSimulation(SimulationOptions{
		MapSize: pendingConfig.size,
		Seed:    pendingConfig.seed,
	})
	ts.Sim.World().Treasury().Earn(pendingConfig.gold)
	for _, o := range opts {
		if o.kind == simOptLayout {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptSpawn {
			o.fn(ts)
		}
	}
	r := ts.Sim.TileMap().FullRange()
	RefreshRoadJunctions(ts.Sim.TileMap(), ts.Sim.Graph(), r)
	RefreshWaterTransitions(ts.Sim.TileMap(), ts.Sim.Graph(), r)
	return ts
}

// Query returns a façade bound to the harness step size.
func (ts *TestSim) Query() *Query {
	return ts.Sim.Query(ts.tickDt)
}

// mustPlace places one tile or panics; harness setup failures are test bugs.
func (ts *TestSim) mustPlace(name string, c Cell) *Tile {
	def := ts.Sim.TileMap().TileSets().FindByName(name)
	if def == nil {
		panic(fmt.Sprintf("test sim: no tile def %q", name))
	}
	t, err := ts.Sim.TileMap().TryPlaceTile(c, def)
	if err != nil {
		panic(fmt.Sprintf("test sim: place %s at (%d,%d): %v", name, c.X, c.Y, err))
	}
	return t
}

// placeTerrainRun lays a horizontal run of one terrain def.
func (ts *TestSim) placeTerrainRun(name string, y, x0, x1 int) {
	for x := x0; x <= x1; x++ {
		ts.mustPlace(name, Cell{X: x, Y: y})
	}
}

// RunTicks advances the simulation n steps at the fixed harness dt.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Sim.Update(ts.tickDt)
	}
}

// RunUntil advances up to maxTicks, stopping early when the predicate holds.
// Returns the tick at which it was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Sim.Update(ts.tickDt)
		if predicate(ts) {
			return int(ts.Sim.Tick())
		}
	}
	return -1
}

// BuildingAt resolves the building whose footprint covers the cell, failing
// the lookup loudly when absent.
func (ts *TestSim) BuildingAt(x, y int) *Building {
	b, ok := ts.Sim.World().FindBuildingAtCell(ts.Sim.TileMap(), Cell{X: x, Y: y})
	if !ok {
		panic(fmt.Sprintf("test sim: no building at (%d,%d)", x, y))
	}
	return b
}

// StockFor feeds a storage or service building directly, bypassing runners.
func (ts *TestSim) StockFor(b *Building, kind ResourceKind, n int) int {
	return b.Behavior.ReceiveResources(kind, n)
}

// MoveIn adds residents to a house directly.
func (ts *TestSim) MoveIn(b *Building, n int) int {
	h := b.Behavior.(*HouseState)
	return h.Pop.Add(n)
}
