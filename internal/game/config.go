package game

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kamstrup/intmap"
)

// HouseLevelConfig describes one step of the house upgrade ladder.
type HouseLevelConfig struct {
	Name              string       `json:"name"`
	TileDefName       string       `json:"tile_def_name"`
	MaxPopulation     int          `json:"max_population"`
	TaxGenerated      int          `json:"tax_generated"` // gold per stock tick, scaled by residents
	ResourcesRequired ResourceKind `json:"resources_required"`
	ServicesRequired  BuildingKind `json:"services_required"`
	StockCapacity     int          `json:"stock_capacity"`

	tileDefNameHash StringHash
}

// ProducerConfig describes a resource-producing building.
type ProducerConfig struct {
	Name                    string       `json:"name"`
	TileDefName             string       `json:"tile_def_name"`
	Kind                    BuildingKind `json:"kind"`
	MinWorkers              int          `json:"min_workers"`
	MaxWorkers              int          `json:"max_workers"`
	ProductionOutput        ResourceKind `json:"production_output"`
	ProductionFrequencySecs float64      `json:"production_output_frequency_secs"`
	ProductionCapacity      int          `json:"production_capacity"`
	ResourcesRequired       ResourceKind `json:"resources_required"` // input kinds, empty for raw producers
	InputCapacity           int          `json:"input_capacity"`
	FetchFromKinds          BuildingKind `json:"fetch_from_storage_kinds"` // where runners pull inputs from

	tileDefNameHash StringHash
}

// StorageConfig describes a slot-based storage building.
type StorageConfig struct {
	Name          string       `json:"name"`
	TileDefName   string       `json:"tile_def_name"`
	Kind          BuildingKind `json:"kind"`
	MinWorkers    int          `json:"min_workers"`
	MaxWorkers    int          `json:"max_workers"`
	NumSlots      int          `json:"num_slots"`
	SlotCapacity  int          `json:"slot_capacity"`
	AcceptedKinds ResourceKind `json:"accepted_kinds"`

	tileDefNameHash StringHash
}

// ServiceMode selects what a service building maintains.
type ServiceMode string

const (
	ServiceModeNone     ServiceMode = "none"
	ServiceModeStock    ServiceMode = "stock"
	ServiceModeTreasury ServiceMode = "treasury"
)

// ServiceConfig describes a coverage-providing building.
type ServiceConfig struct {
	Name                 string       `json:"name"`
	TileDefName          string       `json:"tile_def_name"`
	Kind                 BuildingKind `json:"kind"`
	MinWorkers           int          `json:"min_workers"`
	MaxWorkers           int          `json:"max_workers"`
	Mode                 ServiceMode  `json:"mode"`
	EffectRadius         int          `json:"effect_radius"`
	StockUpdateFrequency float64      `json:"stock_update_frequency_secs"`
	PatrolFrequencySecs  float64      `json:"patrol_frequency_secs"`
	PatrolDistance       int          `json:"patrol_distance"`
	AcceptedKinds        ResourceKind `json:"accepted_kinds"`
	StockCapacity        int          `json:"stock_capacity"`
	PatrolUnitName       string       `json:"patrol_unit_name"`

	tileDefNameHash StringHash
}

// UnitConfig describes a walking unit.
type UnitConfig struct {
	Name          string  `json:"name"`
	TileDefName   string  `json:"tile_def_name"`
	MovementSpeed float64 `json:"movement_speed"` // cells per second

	tileDefNameHash StringHash
}

// configRef locates a building config by archetype and slice index.
type configRef struct {
	archetype BuildingArchetypeKind
	index     int
}

// BuildingConfigs is the immutable config registry, indexed by tile-def name
// hash after load.
type BuildingConfigs struct {
	HouseLevels []HouseLevelConfig `json:"house_levels"`
	Producers   []ProducerConfig   `json:"producer_configs"`
	Storages    []StorageConfig    `json:"storage_configs"`
	Services    []ServiceConfig    `json:"service_configs"`

	byTileDefHash *intmap.Map[uint64, configRef]
}

// UnitConfigs is the unit config registry.
type UnitConfigs struct {
	Units []UnitConfig `json:"unit_configs"`

	byTileDefHash *intmap.Map[uint64, int]
}

// PostLoad computes name hashes and builds the lookup indices. Must run after
// decoding and before any lookup.
func (bc *BuildingConfigs) PostLoad() error {
	count := len(bc.HouseLevels) + len(bc.Producers) + len(bc.Storages) + len(bc.Services)
	bc.byTileDefHash = intmap.New[uint64, configRef](count * 2)

	put := func(name string, ref configRef) error {
		h := HashString(name)
		if _, exists := bc.byTileDefHash.Get(uint64(h)); exists {
			return fmt.Errorf("duplicate tile_def_name %q in building configs", name)
		}
		bc.byTileDefHash.Put(uint64(h), ref)
		return nil
	}

	for i := range bc.HouseLevels {
		c := &bc.HouseLevels[i]
		c.tileDefNameHash = HashString(c.TileDefName)
		if err := put(c.TileDefName, configRef{ArchetypeHouse, i}); err != nil {
			return err
		}
	}
	for i := range bc.Producers {
		c := &bc.Producers[i]
		c.tileDefNameHash = HashString(c.TileDefName)
		if err := put(c.TileDefName, configRef{ArchetypeProducer, i}); err != nil {
			return err
		}
	}
	for i := range bc.Storages {
		c := &bc.Storages[i]
		c.tileDefNameHash = HashString(c.TileDefName)
		if err := put(c.TileDefName, configRef{ArchetypeStorage, i}); err != nil {
			return err
		}
	}
	for i := range bc.Services {
		c := &bc.Services[i]
		c.tileDefNameHash = HashString(c.TileDefName)
		if err := put(c.TileDefName, configRef{ArchetypeService, i}); err != nil {
			return err
		}
	}
	return nil
}

// FindForTileDef returns the archetype and config index registered for a tile
// def, or false if the def is not a configured building.
func (bc *BuildingConfigs) FindForTileDef(def *TileDef) (BuildingArchetypeKind, int, bool) {
	if def == nil || bc.byTileDefHash == nil {
		return 0, 0, false
	}
	ref, ok := bc.byTileDefHash.Get(uint64(def.NameHash))
	if !ok {
		return 0, 0, false
	}
	return ref.archetype, ref.index, true
}

// HouseLevel returns the level config at index, or nil past the ladder top.
func (bc *BuildingConfigs) HouseLevel(level int) *HouseLevelConfig {
	if level < 0 || level >= len(bc.HouseLevels) {
		return nil
	}
	return &bc.HouseLevels[level]
}

// PostLoad builds the unit lookup index.
func (uc *UnitConfigs) PostLoad() error {
	uc.byTileDefHash = intmap.New[uint64, int](len(uc.Units) * 2)
	for i := range uc.Units {
		c := &uc.Units[i]
		c.tileDefNameHash = HashString(c.TileDefName)
		if _, exists := uc.byTileDefHash.Get(uint64(c.tileDefNameHash)); exists {
			return fmt.Errorf("duplicate tile_def_name %q in unit configs", c.TileDefName)
		}
		uc.byTileDefHash.Put(uint64(c.tileDefNameHash), i)
	}
	return nil
}

// FindByTileDefName returns the unit config for a tile-def name, or nil.
func (uc *UnitConfigs) FindByTileDefName(name string) *UnitConfig {
	if uc.byTileDefHash == nil {
		return nil
	}
	i, ok := uc.byTileDefHash.Get(uint64(HashString(name)))
	if !ok {
		return nil
	}
	return &uc.Units[i]
}

// LoadBuildingConfigs decodes a JSON config file and indexes it.
func LoadBuildingConfigs(path string) (*BuildingConfigs, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path comes from the launcher
	if err != nil {
		return nil, fmt.Errorf("building configs: %w", err)
	}
	var bc BuildingConfigs
	if err := json.Unmarshal(data, &bc); err != nil {
		return nil, fmt.Errorf("building configs %s: %w", path, err)
	}
	if err := bc.PostLoad(); err != nil {
		return nil, err
	}
	return &bc, nil
}

// LoadUnitConfigs decodes a JSON unit config file and indexes it.
func LoadUnitConfigs(path string) (*UnitConfigs, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path comes from the launcher
	if err != nil {
		return nil, fmt.Errorf("unit configs: %w", err)
	}
	var uc UnitConfigs
	if err := json.Unmarshal(data, &uc); err != nil {
		return nil, fmt.Errorf("unit configs %s: %w", path, err)
	}
	if err := uc.PostLoad(); err != nil {
		return nil, err
	}
	return &uc, nil
}

// DefaultBuildingConfigs returns the compiled-in config table matching the
// builtin tile sets. Presets and tests run on these.
func DefaultBuildingConfigs() *BuildingConfigs {
	bc := &BuildingConfigs{
		HouseLevels: []HouseLevelConfig{
			{
				Name: "hovel", TileDefName: "house0",
				MaxPopulation: 4, TaxGenerated: 1,
				ResourcesRequired: ResourceRice,
				ServicesRequired:  0,
				StockCapacity:     4,
			},
			{
				Name: "cottage", TileDefName: "house1",
				MaxPopulation: 10, TaxGenerated: 2,
				ResourcesRequired: ResourceRice,
				ServicesRequired:  BuildingKindWell,
				StockCapacity:     8,
			},
			{
				Name: "villa", TileDefName: "house2",
				MaxPopulation: 24, TaxGenerated: 4,
				ResourcesRequired: ResourceRice | ResourceWine,
				ServicesRequired:  BuildingKindWell | BuildingKindMarket,
				StockCapacity:     16,
			},
		},
		Producers: []ProducerConfig{
			{
				Name: "rice_farm", TileDefName: "rice_farm", Kind: BuildingKindRiceFarm,
				MinWorkers: 0, MaxWorkers: 6,
				ProductionOutput: ResourceRice, ProductionFrequencySecs: 2,
				ProductionCapacity: 5,
			},
			{
				Name: "lumber_mill", TileDefName: "lumber_mill", Kind: BuildingKindLumberMill,
				MinWorkers: 0, MaxWorkers: 8,
				ProductionOutput: ResourceWood, ProductionFrequencySecs: 3,
				ProductionCapacity: 5,
			},
			{
				Name: "smelter", TileDefName: "smelter", Kind: BuildingKindSmelter,
				MinWorkers: 0, MaxWorkers: 8,
				ProductionOutput: ResourceMetal, ProductionFrequencySecs: 4,
				ProductionCapacity: 5,
				ResourcesRequired: ResourceWood, InputCapacity: 4,
				FetchFromKinds: BuildingKindStorages,
			},
		},
		Storages: []StorageConfig{
			{
				Name: "granary", TileDefName: "granary", Kind: BuildingKindGranary,
				MinWorkers: 0, MaxWorkers: 6,
				NumSlots: 4, SlotCapacity: 8,
				AcceptedKinds: FoodResources | ResourceWine,
			},
			{
				Name: "storage_yard", TileDefName: "storage_yard", Kind: BuildingKindStorageYard,
				MinWorkers: 0, MaxWorkers: 6,
				NumSlots: 4, SlotCapacity: 8,
				AcceptedKinds: AllResources &^ ResourceGold,
			},
		},
		Services: []ServiceConfig{
			{
				Name: "well", TileDefName: "well", Kind: BuildingKindWell,
				MinWorkers: 0, MaxWorkers: 0,
				Mode: ServiceModeNone, EffectRadius: 4,
			},
			{
				Name: "market", TileDefName: "market", Kind: BuildingKindMarket,
				MinWorkers: 0, MaxWorkers: 5,
				Mode: ServiceModeStock, EffectRadius: 6,
				StockUpdateFrequency: 4,
				PatrolFrequencySecs:  6, PatrolDistance: 8,
				AcceptedKinds: FoodResources | ResourceWine, StockCapacity: 8,
				PatrolUnitName: "patrol",
			},
			{
				Name: "tax_office", TileDefName: "tax_office", Kind: BuildingKindTaxOffice,
				MinWorkers: 0, MaxWorkers: 4,
				Mode: ServiceModeTreasury, EffectRadius: 8,
				PatrolFrequencySecs: 8, PatrolDistance: 10,
				PatrolUnitName: "patrol",
			},
		},
	}
	if err := bc.PostLoad(); err != nil {
		panic(err) // compiled-in table, never fails
	}
	return bc
}

// DefaultUnitConfigs returns the compiled-in unit table.
func DefaultUnitConfigs() *UnitConfigs {
	uc := &UnitConfigs{
		Units: []UnitConfig{
			{Name: "runner", TileDefName: "runner", MovementSpeed: 2},
			{Name: "patrol", TileDefName: "patrol", MovementSpeed: 1.5},
			{Name: "settler", TileDefName: "settler", MovementSpeed: 1.5},
		},
	}
	if err := uc.PostLoad(); err != nil {
		panic(err)
	}
	return uc
}
