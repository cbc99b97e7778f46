package game

import (
	"encoding/json"
	"fmt"
)

// Default pool capacities. Pools grow past these; the numbers only size the
// initial backing arrays.
const (
	producerPoolCapacity = 32
	storagePoolCapacity  = 32
	servicePoolCapacity  = 128
	housePoolCapacity    = 256
	unitPoolCapacity     = 512
)

// World owns every spawned game object: one generational pool per building
// archetype plus the unit pool, and the session treasury.
type World struct {
	producers *SpawnPool[*Building]
	storages  *SpawnPool[*Building]
	services  *SpawnPool[*Building]
	houses    *SpawnPool[*Building]
	units     *SpawnPool[*Unit]

	treasury Treasury
}

// NewWorld creates an empty world.
func NewWorld() *World {
	newBuilding := func() *Building { return &Building{ID: InvalidIndex(), roadLink: InvalidCell} }
	return &World{
		producers: NewSpawnPool(producerPoolCapacity, newBuilding),
		storages:  NewSpawnPool(storagePoolCapacity, newBuilding),
		services:  NewSpawnPool(servicePoolCapacity, newBuilding),
		houses:    NewSpawnPool(housePoolCapacity, newBuilding),
		units:     NewSpawnPool(unitPoolCapacity, func() *Unit { return &Unit{ID: InvalidIndex()} }),
	}
}

// Treasury returns the session gold counter.
func (w *World) Treasury() *Treasury { return &w.treasury }

// poolForObjectKind routes a handle kind to its building pool.
func (w *World) poolForObjectKind(kind GameObjectKind) *SpawnPool[*Building] {
	switch kind {
	case ObjectKindProducer:
		return w.producers
	case ObjectKindStorage:
		return w.storages
	case ObjectKindService:
		return w.services
	case ObjectKindHouse:
		return w.houses
	default:
		return nil
	}
}

// poolForArchetype routes an archetype to its building pool.
func (w *World) poolForArchetype(a BuildingArchetypeKind) *SpawnPool[*Building] {
	return w.poolForObjectKind(a.objectKind())
}

// SpawnBuildingForTile creates the building record for a freshly placed
// object tile whose def is registered in the building configs, and stamps the
// tile with the new handle.
func (w *World) SpawnBuildingForTile(q *Query, t *Tile) (*Building, error) {
	archetype, index, ok := q.Configs().FindForTileDef(t.Def)
	if !ok {
		return nil, fmt.Errorf("%w: tile def %q is not a configured building", ErrInvalidTile, t.Def.Name)
	}

	var name string
	var kind BuildingKind
	var behavior BuildingBehavior
	bc := q.Configs()
	switch archetype {
	case ArchetypeProducer:
		cfg := &bc.Producers[index]
		name, kind = cfg.Name, cfg.Kind
		behavior = NewProducerState(cfg)
	case ArchetypeStorage:
		cfg := &bc.Storages[index]
		name, kind = cfg.Name, cfg.Kind
		behavior = NewStorageState(cfg)
	case ArchetypeService:
		cfg := &bc.Services[index]
		name, kind = cfg.Name, cfg.Kind
		behavior = NewServiceState(cfg)
	case ArchetypeHouse:
		cfg := &bc.HouseLevels[index]
		name, kind = cfg.Name, BuildingKindHouse
		behavior = NewHouseState(bc, index)
	}

	b := w.poolForArchetype(archetype).Spawn(func(b *Building) {
		b.Name = name
		b.Kind = kind
		b.BaseCell = t.BaseCell
		b.Size = t.Def.LogicalSize
		b.Behavior = behavior
		b.roadLink = InvalidCell
	})
	t.Handle = b.Handle()
	q.Log().Infof(LogChannelWorld, "spawned %s at (%d,%d)", b.Name, b.BaseCell.X, b.BaseCell.Y)
	return b, nil
}

// DespawnBuilding releases a building record. The caller owns clearing the
// tile; in-flight units of the building finish their tasks and despawn on
// return when the owner handle no longer resolves.
func (w *World) DespawnBuilding(q *Query, b *Building) error {
	pool := w.poolForArchetype(b.Behavior.ArchetypeKind())
	if err := pool.Despawn(b, nil); err != nil {
		return err
	}
	q.Log().Infof(LogChannelWorld, "despawned %s at (%d,%d)", b.Name, b.BaseCell.X, b.BaseCell.Y)
	return nil
}

// SpawnUnit places a unit tile at the cell and spawns its record. The cell
// must be traversable for unit tiles (roads, or open land for settlers).
func (w *World) SpawnUnit(q *Query, name string, cell Cell) (*Unit, error) {
	cfg := q.UnitConfigs().FindByTileDefName(name)
	if cfg == nil {
		return nil, fmt.Errorf("no unit config named %q", name)
	}
	def := q.TileMap().TileSets().FindByName(cfg.TileDefName)
	if def == nil {
		return nil, fmt.Errorf("no tile def named %q", cfg.TileDefName)
	}
	tile, err := q.TileMap().TryPlaceTile(cell, def)
	if err != nil {
		return nil, fmt.Errorf("spawn unit %q: %w", name, err)
	}
	u := w.units.Spawn(func(u *Unit) {
		u.setup(cfg, cell, tile)
	})
	return u, nil
}

// DespawnUnit removes the unit's tile from the map and releases its record.
func (w *World) DespawnUnit(q *Query, u *Unit) {
	if u.tile != nil {
		if err := q.TileMap().RemoveStackedTile(u.Cell, u.tile); err != nil {
			q.Log().Errorf(LogChannelUnit, "unit %s tile removal: %v", u.Name, err)
		}
		u.tile = nil
	}
	if err := w.units.Despawn(u, nil); err != nil {
		q.Log().Errorf(LogChannelUnit, "unit despawn: %v", err)
	}
}

// FindBuildingByHandle resolves a building handle against its archetype pool.
func (w *World) FindBuildingByHandle(h GameObjectHandle) (*Building, bool) {
	pool := w.poolForObjectKind(h.Kind)
	if pool == nil {
		return nil, false
	}
	return pool.TryGet(h.ID)
}

// FindUnitByHandle resolves a unit handle.
func (w *World) FindUnitByHandle(h GameObjectHandle) (*Unit, bool) {
	if h.Kind != ObjectKindUnit {
		return nil, false
	}
	return w.units.TryGet(h.ID)
}

// FindBuildingAtCell resolves the building occupying a map cell, if any.
func (w *World) FindBuildingAtCell(tm *TileMap, c Cell) (*Building, bool) {
	t := tm.BaseTileAt(c, LayerObjects)
	if t == nil || !t.Handle.IsValid() || !t.Handle.Kind.Intersects(ObjectKindBuildings) {
		return nil, false
	}
	return w.FindBuildingByHandle(t.Handle)
}

// ForEachBuilding visits every live building, producers first, houses last.
// Returning false stops.
func (w *World) ForEachBuilding(visit func(*Building) bool) {
	stopped := false
	for _, pool := range []*SpawnPool[*Building]{w.producers, w.storages, w.services, w.houses} {
		if stopped {
			return
		}
		pool.ForEach(func(b *Building) bool {
			if !visit(b) {
				stopped = true
				return false
			}
			return true
		})
	}
}

// ForEachBuildingOfKind visits live buildings whose kind intersects the mask.
func (w *World) ForEachBuildingOfKind(mask BuildingKind, visit func(*Building) bool) {
	w.ForEachBuilding(func(b *Building) bool {
		if !b.Kind.Intersects(mask) {
			return true
		}
		return visit(b)
	})
}

// ForEachUnit visits every live unit in slot order.
func (w *World) ForEachUnit(visit func(*Unit) bool) {
	w.units.ForEach(visit)
}

// BuildingCount returns the number of live buildings matching the mask.
func (w *World) BuildingCount(mask BuildingKind) int {
	n := 0
	w.ForEachBuildingOfKind(mask, func(*Building) bool {
		n++
		return true
	})
	return n
}

// UnitCount returns the number of live units.
func (w *World) UnitCount() int { return w.units.Count() }

// HasServiceCoverage reports whether every kind in the wanted mask has a
// staffed service building whose effect radius reaches the given range.
func (w *World) HasServiceCoverage(r CellRange, wanted BuildingKind) bool {
	covered := BuildingKind(0)
	w.ForEachBuildingOfKind(wanted&BuildingKindServices, func(b *Building) bool {
		svc, ok := b.Behavior.(*ServiceState)
		if !ok || !svc.Workers().HasMinRequired() {
			return true
		}
		if b.IsNear(r, svc.EffectRadius()) {
			covered |= b.Kind
		}
		return covered != wanted
	})
	return covered == wanted
}

// FindNearestBuilding returns the building of the wanted kinds with the
// smallest Manhattan distance from the cell, ignoring road connectivity.
func (w *World) FindNearestBuilding(from Cell, mask BuildingKind) *Building {
	var best *Building
	bestDist := 0
	w.ForEachBuildingOfKind(mask, func(b *Building) bool {
		d := from.ManhattanDistance(b.BaseCell)
		if best == nil || d < bestDist {
			best = b
			bestDist = d
		}
		return true
	})
	return best
}

type worldSaveState struct {
	Producers *SpawnPool[*Building] `json:"producers"`
	Storages  *SpawnPool[*Building] `json:"storages"`
	Services  *SpawnPool[*Building] `json:"services"`
	Houses    *SpawnPool[*Building] `json:"houses"`
	Units     *SpawnPool[*Unit]     `json:"units"`
	Treasury  Treasury              `json:"treasury"`
}

// MarshalJSON serializes every pool plus the treasury.
func (w *World) MarshalJSON() ([]byte, error) {
	return json.Marshal(&worldSaveState{
		Producers: w.producers,
		Storages:  w.storages,
		Services:  w.services,
		Houses:    w.houses,
		Units:     w.units,
		Treasury:  w.treasury,
	})
}

// UnmarshalJSON restores the pools. PostLoad must run afterwards to resolve
// config pointers and re-link map tiles.
func (w *World) UnmarshalJSON(data []byte) error {
	fresh := NewWorld()
	save := worldSaveState{
		Producers: fresh.producers,
		Storages:  fresh.storages,
		Services:  fresh.services,
		Houses:    fresh.houses,
		Units:     fresh.units,
	}
	if err := json.Unmarshal(data, &save); err != nil {
		return err
	}
	w.producers = save.Producers
	w.storages = save.Storages
	w.services = save.Services
	w.houses = save.Houses
	w.units = save.Units
	w.treasury = save.Treasury
	return nil
}

// PostLoad re-resolves config pointers and re-links buildings and units to
// their map tiles after deserialization.
func (w *World) PostLoad(tm *TileMap, bc *BuildingConfigs, uc *UnitConfigs) error {
	var firstErr error
	w.ForEachBuilding(func(b *Building) bool {
		if err := b.Behavior.PostLoad(b, bc); err != nil {
			firstErr = err
			return false
		}
		b.roadLink = InvalidCell
		if t := tm.BaseTileAt(b.BaseCell, LayerObjects); t != nil {
			t.Handle = b.Handle()
		}
		return true
	})
	if firstErr != nil {
		return firstErr
	}

	var unitErr error
	w.ForEachUnit(func(u *Unit) bool {
		cfg := uc.FindByTileDefName(u.Name)
		if cfg == nil {
			unitErr = fmt.Errorf("unit %q has no config", u.Name)
			return false
		}
		u.config = cfg
		handle := u.Handle()
		if head := tm.TileAt(u.Cell, LayerObjects); head != nil {
			head.VisitStack(func(t *Tile) bool {
				if t.Handle == handle {
					u.attachTile(t)
					return false
				}
				return true
			})
		}
		if u.tile == nil {
			unitErr = fmt.Errorf("unit %s at (%d,%d) has no map tile", u.Name, u.Cell.X, u.Cell.Y)
			return false
		}
		return true
	})
	return unitErr
}

// Reset despawns everything and zeroes the treasury.
func (w *World) Reset() {
	w.producers.Reset()
	w.storages.Reset()
	w.services.Reset()
	w.houses.Reset()
	w.units.Reset()
	w.treasury = Treasury{}
}
