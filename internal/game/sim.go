package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// UpdateTimer accumulates elapsed time and fires at a fixed frequency.
type UpdateTimer struct {
	Elapsed   float64 `json:"elapsed"`
	Frequency float64 `json:"frequency"` // seconds between firings
}

// NewUpdateTimer creates a timer firing every frequencySecs.
func NewUpdateTimer(frequencySecs float64) UpdateTimer {
	return UpdateTimer{Frequency: frequencySecs}
}

// Tick advances the timer and reports whether it fired this step. A timer
// with a non-positive frequency never fires.
func (t *UpdateTimer) Tick(dt float64) bool {
	if t.Frequency <= 0 {
		return false
	}
	t.Elapsed += dt
	if t.Elapsed < t.Frequency {
		return false
	}
	t.Elapsed -= t.Frequency
	return true
}

// Reset restarts the current interval.
func (t *UpdateTimer) Reset() { t.Elapsed = 0 }

// Query is the façade handed to every per-object update. It exposes the
// simulation's systems without letting objects reach the simulation itself.
type Query struct {
	sim *Simulation
	dt  float64
}

// TileMap returns the map.
func (q *Query) TileMap() *TileMap { return q.sim.tileMap }

// World returns the object pools.
func (q *Query) World() *World { return q.sim.world }

// Graph returns the traversability graph.
func (q *Query) Graph() *Graph { return q.sim.graph }

// Search returns the shared path search scratch buffers. Single-threaded use
// only; a found path is valid until the next search.
func (q *Query) Search() *Search { return q.sim.search }

// Tasks returns the task manager.
func (q *Query) Tasks() *TaskManager { return q.sim.tasks }

// Treasury returns the session gold counter.
func (q *Query) Treasury() *Treasury { return q.sim.world.Treasury() }

// Configs returns the building config registry.
func (q *Query) Configs() *BuildingConfigs { return q.sim.buildingConfigs }

// UnitConfigs returns the unit config registry.
func (q *Query) UnitConfigs() *UnitConfigs { return q.sim.unitConfigs }

// Placement returns the build/demolish engine.
func (q *Query) Placement() *Placement { return q.sim.placement }

// Log returns the simulation log.
func (q *Query) Log() *SimLog { return q.sim.log }

// Rng returns the simulation's random source.
func (q *Query) Rng() *rand.Rand { return q.sim.rng }

// DeltaTime returns the current step size in seconds.
func (q *Query) DeltaTime() float64 { return q.dt }

// Tick returns the current simulation tick number.
func (q *Query) Tick() uint64 { return q.sim.tick }

// Stats returns last tick's census snapshot.
func (q *Query) Stats() *WorldStats { return &q.sim.stats }

// Simulation drives the settlement: it owns the map, the graph, the object
// pools, and the systems, and steps them in a fixed order.
type Simulation struct {
	tileMap *TileMap
	graph   *Graph
	world   *World
	tasks   *TaskManager
	search  *Search
	log     *SimLog
	rng     *rand.Rand

	buildingConfigs *BuildingConfigs
	unitConfigs     *UnitConfigs

	placement *Placement
	settlers  SettlersSystem

	sessionID uuid.UUID
	camera    CameraState

	// deferredRefreshes holds footprints of tiles removed mid-operation;
	// flushed at the start of every step and after placement operations.
	deferredRefreshes []CellRange

	tick  uint64
	stats WorldStats
}

// SimulationOptions configures a new simulation.
type SimulationOptions struct {
	MapSize         Size
	Seed            int64
	TileSets        *TileSets        // nil for the builtin sets
	BuildingConfigs *BuildingConfigs // nil for the compiled-in defaults
	UnitConfigs     *UnitConfigs     // nil for the compiled-in defaults
}

// NewSimulation creates an empty simulation with a grass-filled map.
func NewSimulation(opts SimulationOptions) *Simulation {
	sets := opts.TileSets
	if sets == nil {
		sets = BuiltinTileSets()
	}
	bc := opts.BuildingConfigs
	if bc == nil {
		bc = DefaultBuildingConfigs()
	}
	uc := opts.UnitConfigs
	if uc == nil {
		uc = DefaultUnitConfigs()
	}

	s := &Simulation{
		tileMap:         NewTileMap(opts.MapSize, sets, sets.FindByName("grass")),
		graph:           NewGraph(opts.MapSize),
		world:           NewWorld(),
		tasks:           NewTaskManager(),
		search:          NewSearch(opts.MapSize),
		log:             NewSimLog(0),
		rng:             rand.New(rand.NewSource(opts.Seed)), // #nosec G404 -- gameplay randomness
		buildingConfigs: bc,
		unitConfigs:     uc,
	}
	s.placement = NewPlacement(NewUndoJournal())
	s.settlers = NewSettlersSystem()
	s.sessionID = uuid.New()
	s.graph.RebuildFromTileMap(s.tileMap)
	s.tileMap.SetCallbacks(TileMapCallbacks{
		OnTilePlaced:   s.onTilePlaced,
		OnRemovingTile: s.onRemovingTile,
		OnMapReset:     s.onMapReset,
	})
	return s
}

// Query returns a façade bound to the given step size.
func (s *Simulation) Query(dt float64) *Query {
	return &Query{sim: s, dt: dt}
}

// TileMap returns the map.
func (s *Simulation) TileMap() *TileMap { return s.tileMap }

// Graph returns the traversability graph.
func (s *Simulation) Graph() *Graph { return s.graph }

// World returns the object pools.
func (s *Simulation) World() *World { return s.world }

// Tasks returns the task manager.
func (s *Simulation) Tasks() *TaskManager { return s.tasks }

// Log returns the simulation log.
func (s *Simulation) Log() *SimLog { return s.log }

// Stats returns last tick's census snapshot.
func (s *Simulation) Stats() *WorldStats { return &s.stats }

// Tick returns the number of completed update steps.
func (s *Simulation) Tick() uint64 { return s.tick }

// Configs returns the building config registry.
func (s *Simulation) Configs() *BuildingConfigs { return s.buildingConfigs }

// UnitConfigs returns the unit config registry.
func (s *Simulation) UnitConfigs() *UnitConfigs { return s.unitConfigs }

// Settlers returns the settler spawn system.
func (s *Simulation) Settlers() *SettlersSystem { return &s.settlers }

// Placement returns the build/demolish engine.
func (s *Simulation) Placement() *Placement { return s.placement }

// SessionID identifies this play session across saves.
func (s *Simulation) SessionID() uuid.UUID { return s.sessionID }

// Camera returns the persisted viewport transform.
func (s *Simulation) Camera() CameraState { return s.camera }

// SetCamera stores the viewport transform for the next save.
func (s *Simulation) SetCamera(c CameraState) { s.camera = c }

// onTilePlaced keeps the graph in sync with map edits. Units stack on roads
// without changing the node kind, so they are skipped.
func (s *Simulation) onTilePlaced(t *Tile) {
	if t.Is(TileKindUnit) {
		return
	}
	s.graph.RefreshRange(s.tileMap, t.CellRange())
}

// onRemovingTile mirrors onTilePlaced for removals. The tile is still on the
// map during the callback, so the refresh is deferred to after the removal.
func (s *Simulation) onRemovingTile(t *Tile) {
	if t.Is(TileKindUnit) {
		return
	}
	s.deferredRefreshes = append(s.deferredRefreshes, t.CellRange())
}

// onMapReset rebuilds the graph from scratch.
func (s *Simulation) onMapReset() {
	s.graph.RebuildFromTileMap(s.tileMap)
}

// FlushGraphRefreshes applies deferred graph updates from tile removals.
func (s *Simulation) FlushGraphRefreshes() {
	for _, r := range s.deferredRefreshes {
		s.graph.RefreshRange(s.tileMap, r)
	}
	s.deferredRefreshes = s.deferredRefreshes[:0]
}

// Update runs one simulation step: units walk first so buildings observe
// settled positions, then producers, storages, services, and houses update,
// and the census is rebuilt last.
func (s *Simulation) Update(dt float64) {
	s.tick++
	s.log.SetTick(int(s.tick))
	s.FlushGraphRefreshes()

	q := s.Query(dt)

	s.world.ForEachUnit(func(u *Unit) bool {
		u.UpdateNavigation(q)
		return true
	})

	for _, mask := range []BuildingKind{
		BuildingKindProducers,
		BuildingKindStorages,
		BuildingKindServices,
		BuildingKindHouse,
	} {
		s.world.ForEachBuildingOfKind(mask, func(b *Building) bool {
			b.Behavior.Update(b, q)
			return true
		})
	}

	s.settlers.Update(q)
	s.tileMap.UpdateAnims(dt, s.tileMap.FullRange())
	s.world.TallyStats(&s.stats, s.tasks.Count())
}
