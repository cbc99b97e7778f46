package game

import "fmt"

const (
	// houseStockFrequencySecs paces eating and shopping.
	houseStockFrequencySecs = 4.0
	// houseUpgradeFrequencySecs paces upgrade and downgrade evaluation.
	houseUpgradeFrequencySecs = 5.0
	// houseShoppingRadius is how far houses reach into storage directly when
	// no market covers them.
	houseShoppingRadius = 8
	// houseShortfallLimit is how many failed stock ticks trigger a downgrade.
	houseShortfallLimit = 4
	// houseGrowthResidents is how many residents each arriving settler adds.
	houseGrowthResidents = 2
)

// houseStockKinds is everything houses consume, across all levels.
const houseStockKinds = FoodResources | ResourceWine

// HouseState is the behavior of residential buildings. Houses eat from their
// stock, shop from covering markets or nearby storage, accrue tax when
// satisfied, and climb the level ladder when the next level's demands are met.
type HouseState struct {
	Level          int           `json:"level"`
	Pop            Population    `json:"population"`
	Stock          BuildingStock `json:"stock"`
	TaxAccrued     int           `json:"tax_accrued"`
	ShortfallTicks int           `json:"shortfall_ticks"`
	StockTimer     UpdateTimer   `json:"stock_timer"`
	UpgradeTimer   UpdateTimer   `json:"upgrade_timer"`

	// HasRoomToUpgrade goes false when every candidate footprint for the next
	// level is blocked; map edits near the house raise it again.
	HasRoomToUpgrade bool `json:"has_room_to_upgrade"`

	configs *BuildingConfigs
}

// NewHouseState creates house state at the given ladder level.
func NewHouseState(bc *BuildingConfigs, level int) *HouseState {
	cfg := bc.HouseLevel(level)
	return &HouseState{
		Level:            level,
		Pop:              Population{Max: cfg.MaxPopulation},
		Stock:            NewBuildingStock(houseStockKinds, cfg.StockCapacity),
		StockTimer:       NewUpdateTimer(houseStockFrequencySecs),
		UpgradeTimer:     NewUpdateTimer(houseUpgradeFrequencySecs),
		HasRoomToUpgrade: true,
		configs:          bc,
	}
}

// ArchetypeKind implements BuildingBehavior.
func (h *HouseState) ArchetypeKind() BuildingArchetypeKind { return ArchetypeHouse }

// LevelConfig returns the config of the house's current level.
func (h *HouseState) LevelConfig() *HouseLevelConfig {
	return h.configs.HouseLevel(h.Level)
}

// PostLoad re-resolves the config registry and validates the level.
func (h *HouseState) PostLoad(b *Building, bc *BuildingConfigs) error {
	h.configs = bc
	if bc.HouseLevel(h.Level) == nil {
		return fmt.Errorf("house %q has invalid level %d", b.Name, h.Level)
	}
	return nil
}

// Update runs one tick: eat and shop on the stock timer, evaluate the level
// ladder on the upgrade timer.
func (h *HouseState) Update(b *Building, q *Query) {
	if h.StockTimer.Tick(q.DeltaTime()) {
		h.stockTick(b, q)
	}
	if h.UpgradeTimer.Tick(q.DeltaTime()) {
		h.evaluateLevel(b, q)
	}
}

// stockTick consumes one unit of each required kind, restocks shortfalls, and
// accrues tax when the household is satisfied.
func (h *HouseState) stockTick(b *Building, q *Query) {
	if h.Pop.Count == 0 {
		return
	}
	cfg := h.LevelConfig()

	satisfied := true
	ForEachResourceKind(cfg.ResourcesRequired, func(k ResourceKind) bool {
		if _, taken := h.Stock.Stock.Remove(k, 1); taken == 0 {
			satisfied = false
		}
		return true
	})

	h.shop(b, q)

	if satisfied {
		h.ShortfallTicks = 0
		h.TaxAccrued += cfg.TaxGenerated
	} else {
		h.ShortfallTicks++
	}
}

// shop tops the stock up: covering markets first, then storage buildings
// within walking distance of the house.
func (h *HouseState) shop(b *Building, q *Query) {
	cfg := h.LevelConfig()
	wanted := cfg.ResourcesRequired
	if next := h.configs.HouseLevel(h.Level + 1); next != nil {
		wanted |= next.ResourcesRequired
	}

	ForEachResourceKind(wanted, func(k ResourceKind) bool {
		need := h.Stock.Receivable(k)
		if need == 0 {
			return true
		}
		q.World().ForEachBuildingOfKind(BuildingKindMarket, func(m *Building) bool {
			svc, ok := m.Behavior.(*ServiceState)
			if !ok || !m.IsNear(b.CellRange(), svc.EffectRadius()) {
				return true
			}
			got := svc.RemoveResources(k, need)
			if got > 0 {
				h.Stock.Receive(k, got)
				need -= got
			}
			return need > 0
		})
		if need > 0 {
			q.World().ForEachBuildingOfKind(BuildingKindStorages, func(st *Building) bool {
				if !st.IsNear(b.CellRange(), houseShoppingRadius) {
					return true
				}
				got := st.Behavior.RemoveResources(k, need)
				if got > 0 {
					h.Stock.Receive(k, got)
					need -= got
				}
				return need > 0
			})
		}
		return true
	})
}

// evaluateLevel walks the ladder: upgrade when the next level's demands are
// already met, downgrade after a sustained shortfall.
func (h *HouseState) evaluateLevel(b *Building, q *Query) {
	if h.ShortfallTicks >= houseShortfallLimit && h.Level > 0 {
		if err := TryDowngradeHouse(b, h, q); err != nil {
			q.Log().Warnf(LogChannelHouse, "%s downgrade: %v", b.Name, err)
		}
		return
	}
	next := h.configs.HouseLevel(h.Level + 1)
	if next == nil || !h.meetsLevelDemands(b, q, next) {
		return
	}
	if err := TryUpgradeHouse(b, h, q); err != nil {
		q.Log().Infof(LogChannelHouse, "%s upgrade blocked: %v", b.Name, err)
	}
}

// meetsLevelDemands reports whether the house could sustain the given level
// right now: residents present, required kinds stocked, services covering.
func (h *HouseState) meetsLevelDemands(b *Building, q *Query, cfg *HouseLevelConfig) bool {
	if h.Pop.Count == 0 {
		return false
	}
	met := true
	ForEachResourceKind(cfg.ResourcesRequired, func(k ResourceKind) bool {
		if h.Stock.Stock.Count(k) == 0 {
			met = false
			return false
		}
		return true
	})
	if !met {
		return false
	}
	if cfg.ServicesRequired != 0 && !q.World().HasServiceCoverage(b.CellRange(), cfg.ServicesRequired) {
		return false
	}
	return true
}

// applyLevel rebuilds the population cap and stock capacities for a new
// level, preserving stored goods up to the new capacity.
func (h *HouseState) applyLevel(level int) {
	cfg := h.configs.HouseLevel(level)
	h.Level = level
	h.Pop.Max = cfg.MaxPopulation
	h.Pop.Count = minInt(h.Pop.Count, h.Pop.Max)

	old := h.Stock.Stock
	h.Stock = NewBuildingStock(houseStockKinds, cfg.StockCapacity)
	ForEachResourceKind(houseStockKinds, func(k ResourceKind) bool {
		h.Stock.Receive(k, old.Count(k))
		return true
	})
	h.ShortfallTicks = 0
	h.HasRoomToUpgrade = true
}

// CollectTax drains and returns the accrued tax.
func (h *HouseState) CollectTax() int {
	gold := h.TaxAccrued
	h.TaxAccrued = 0
	return gold
}

// VisitedBy moves arriving settlers in.
func (h *HouseState) VisitedBy(b *Building, u *Unit, q *Query) {
	moved := h.Pop.Add(houseGrowthResidents)
	if moved > 0 {
		q.Log().Infof(LogChannelHouse, "%s welcomed %d settlers (%d/%d)",
			b.Name, moved, h.Pop.Count, h.Pop.Max)
	}
}

// IsStockFull implements BuildingBehavior.
func (h *HouseState) IsStockFull() bool { return h.Stock.IsFull() }

// AvailableResources implements BuildingBehavior; houses never give goods out.
func (h *HouseState) AvailableResources(kind ResourceKind) int { return 0 }

// ReceivableResources implements BuildingBehavior.
func (h *HouseState) ReceivableResources(kind ResourceKind) int {
	return h.Stock.Receivable(kind)
}

// ReceiveResources implements BuildingBehavior.
func (h *HouseState) ReceiveResources(kind ResourceKind, n int) int {
	return h.Stock.Receive(kind, n)
}

// RemoveResources implements BuildingBehavior; houses never give goods out.
func (h *HouseState) RemoveResources(kind ResourceKind, n int) int { return 0 }

// Workers implements BuildingBehavior; houses employ nobody.
func (h *HouseState) Workers() *Workers { return nil }

// ActiveRunner implements BuildingBehavior.
func (h *HouseState) ActiveRunner() GenerationalIndex { return InvalidIndex() }

// ActivePatrol implements BuildingBehavior.
func (h *HouseState) ActivePatrol() GenerationalIndex { return InvalidIndex() }

// Tally implements BuildingBehavior.
func (h *HouseState) Tally(stats *WorldStats, b *Building) {
	stats.HouseCount++
	stats.Population += h.Pop.Count
	stats.HousingRoom += h.Pop.Max
	stats.AddStored(&h.Stock.Stock)
}
