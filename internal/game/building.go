package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildingKind is a bitflag enum identifying concrete building types. Masks
// of several kinds express queries like "any storage".
type BuildingKind uint32

const (
	BuildingKindHouse BuildingKind = 1 << iota
	BuildingKindRiceFarm
	BuildingKindLumberMill
	BuildingKindSmelter
	BuildingKindGranary
	BuildingKindStorageYard
	BuildingKindWell
	BuildingKindMarket
	BuildingKindTaxOffice
)

// Archetype masks.
const (
	BuildingKindProducers = BuildingKindRiceFarm | BuildingKindLumberMill | BuildingKindSmelter
	BuildingKindStorages  = BuildingKindGranary | BuildingKindStorageYard
	BuildingKindServices  = BuildingKindWell | BuildingKindMarket | BuildingKindTaxOffice
)

// Intersects reports whether any bit of mask is set in k.
func (k BuildingKind) Intersects(mask BuildingKind) bool {
	return k&mask != 0
}

var buildingKindNames = []struct {
	kind BuildingKind
	name string
}{
	{BuildingKindHouse, "house"},
	{BuildingKindRiceFarm, "rice_farm"},
	{BuildingKindLumberMill, "lumber_mill"},
	{BuildingKindSmelter, "smelter"},
	{BuildingKindGranary, "granary"},
	{BuildingKindStorageYard, "storage_yard"},
	{BuildingKindWell, "well"},
	{BuildingKindMarket, "market"},
	{BuildingKindTaxOffice, "tax_office"},
}

// String returns kind names, pipe-joined for masks.
func (k BuildingKind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	for _, n := range buildingKindNames {
		if k.Intersects(n.kind) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalJSON encodes the mask as a pipe-joined name string.
func (k BuildingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a pipe-joined name string back into a mask.
func (k *BuildingKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "none" {
		*k = 0
		return nil
	}
	var mask BuildingKind
	for _, name := range strings.Split(s, "|") {
		found := false
		for _, n := range buildingKindNames {
			if n.name == name {
				mask |= n.kind
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown building kind %q", name)
		}
	}
	*k = mask
	return nil
}

// BuildingArchetypeKind selects one of the four behavior archetypes.
type BuildingArchetypeKind uint8

const (
	ArchetypeProducer BuildingArchetypeKind = iota
	ArchetypeStorage
	ArchetypeService
	ArchetypeHouse
)

// String returns the archetype name.
func (a BuildingArchetypeKind) String() string {
	switch a {
	case ArchetypeProducer:
		return "producer"
	case ArchetypeStorage:
		return "storage"
	case ArchetypeService:
		return "service"
	default:
		return "house"
	}
}

// objectKind maps the archetype to its handle pool bit.
func (a BuildingArchetypeKind) objectKind() GameObjectKind {
	switch a {
	case ArchetypeProducer:
		return ObjectKindProducer
	case ArchetypeStorage:
		return ObjectKindStorage
	case ArchetypeService:
		return ObjectKindService
	default:
		return ObjectKindHouse
	}
}

// BuildingBehavior is the common contract every archetype implements. The
// owning Building is passed in so state structs stay self-contained.
type BuildingBehavior interface {
	ArchetypeKind() BuildingArchetypeKind

	// Update runs one simulation tick for the building.
	Update(b *Building, q *Query)
	// VisitedBy handles a task unit arriving at the building.
	VisitedBy(b *Building, u *Unit, q *Query)
	// PostLoad re-resolves config pointers after deserialization.
	PostLoad(b *Building, bc *BuildingConfigs) error

	IsStockFull() bool
	AvailableResources(kind ResourceKind) int
	ReceivableResources(kind ResourceKind) int
	// ReceiveResources stores up to n units, returning how many fit.
	ReceiveResources(kind ResourceKind, n int) int
	// RemoveResources takes up to n units, returning how many were taken.
	RemoveResources(kind ResourceKind, n int) int

	Workers() *Workers
	ActiveRunner() GenerationalIndex
	ActivePatrol() GenerationalIndex

	// Tally accumulates this building into the per-tick world stats.
	Tally(stats *WorldStats, b *Building)
}

// Building is one placed structure. The tile map owns its tile; the world's
// archetype pool owns this record; the two cross-reference through the
// game-object handle and the base cell.
type Building struct {
	Name     string            `json:"name"`
	Kind     BuildingKind      `json:"kind"`
	BaseCell Cell              `json:"base_cell"`
	Size     Size              `json:"size"`
	ID       GenerationalIndex `json:"id"`

	Behavior BuildingBehavior `json:"-"`

	// roadLink caches the bordering road cell; InvalidCell until discovered.
	roadLink Cell
}

// SpawnedID implements Poolable.
func (b *Building) SpawnedID() GenerationalIndex { return b.ID }

// SetSpawnedID implements Poolable.
func (b *Building) SetSpawnedID(id GenerationalIndex) { b.ID = id }

// Handle returns the building's game-object handle.
func (b *Building) Handle() GameObjectHandle {
	return GameObjectHandle{Kind: b.Behavior.ArchetypeKind().objectKind(), ID: b.ID}
}

// CellRange returns the inclusive footprint.
func (b *Building) CellRange() CellRange {
	return RangeForSize(b.BaseCell, b.Size)
}

// RoadLink returns the cached bordering road cell, re-discovering it from the
// graph when unset. InvalidCell means the building touches no road.
func (b *Building) RoadLink(g *Graph) Cell {
	if !b.roadLink.IsValid() || !g.NodeKindAt(b.roadLink).Intersects(RoadLikeNodes) {
		b.roadLink = g.FindNearestRoadLink(b.CellRange())
	}
	return b.roadLink
}

// InvalidateRoadLink drops the cached road link so the next query re-scans.
func (b *Building) InvalidateRoadLink() {
	b.roadLink = InvalidCell
}

// IsNear reports whether any cell of the building's range lies within radius
// (Chebyshev) of the other range.
func (b *Building) IsNear(other CellRange, radius int) bool {
	r := b.CellRange()
	dx := 0
	if r.End.X < other.Start.X {
		dx = other.Start.X - r.End.X
	} else if other.End.X < r.Start.X {
		dx = r.Start.X - other.End.X
	}
	dy := 0
	if r.End.Y < other.Start.Y {
		dy = other.Start.Y - r.End.Y
	} else if other.End.Y < r.Start.Y {
		dy = r.Start.Y - other.End.Y
	}
	return maxInt(dx, dy) <= radius
}

type buildingSaveState struct {
	Name      string                `json:"name"`
	Kind      BuildingKind          `json:"kind"`
	BaseCell  Cell                  `json:"base_cell"`
	Size      Size                  `json:"size"`
	ID        GenerationalIndex     `json:"id"`
	Archetype BuildingArchetypeKind `json:"archetype"`
	State     json.RawMessage       `json:"state"`
}

// MarshalJSON flattens the building plus its archetype state.
func (b *Building) MarshalJSON() ([]byte, error) {
	state, err := json.Marshal(b.Behavior)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", b.Name, err)
	}
	return json.Marshal(&buildingSaveState{
		Name:      b.Name,
		Kind:      b.Kind,
		BaseCell:  b.BaseCell,
		Size:      b.Size,
		ID:        b.ID,
		Archetype: b.Behavior.ArchetypeKind(),
		State:     state,
	})
}

// UnmarshalJSON restores the building and re-creates its archetype state.
// Config pointers stay unresolved until PostLoad runs.
func (b *Building) UnmarshalJSON(data []byte) error {
	var save buildingSaveState
	if err := json.Unmarshal(data, &save); err != nil {
		return err
	}
	b.Name = save.Name
	b.Kind = save.Kind
	b.BaseCell = save.BaseCell
	b.Size = save.Size
	b.ID = save.ID
	b.roadLink = InvalidCell

	switch save.Archetype {
	case ArchetypeProducer:
		b.Behavior = &ProducerState{}
	case ArchetypeStorage:
		b.Behavior = &StorageState{}
	case ArchetypeService:
		b.Behavior = &ServiceState{}
	case ArchetypeHouse:
		b.Behavior = &HouseState{}
	default:
		return fmt.Errorf("building %s: unknown archetype %d", save.Name, save.Archetype)
	}
	return json.Unmarshal(save.State, b.Behavior)
}
