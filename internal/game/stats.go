package game

// WorldStats is the per-tick census of the settlement. The simulation rebuilds
// it at the end of every tick; readers treat it as a snapshot.
type WorldStats struct {
	Population    int `json:"population"`
	HousingRoom   int `json:"housing_room"` // max residents across all houses
	WorkersHired  int `json:"workers_hired"`
	WorkersWanted int `json:"workers_wanted"` // sum of per-building max workers

	HouseCount    int `json:"house_count"`
	ProducerCount int `json:"producer_count"`
	StorageCount  int `json:"storage_count"`
	ServiceCount  int `json:"service_count"`
	UnitCount     int `json:"unit_count"`
	TaskCount     int `json:"task_count"`

	TreasuryGold int `json:"treasury_gold"`

	// StoredResources totals every building stock, indexed by resource bit.
	StoredResources [ResourceKindCount]int `json:"stored_resources"`
}

// StoredCount returns the settlement-wide stored total of one kind.
func (s *WorldStats) StoredCount(kind ResourceKind) int {
	if !kind.IsSingle() {
		return 0
	}
	return int(s.StoredResources[kind.bitIndex()])
}

// AddStored accumulates a building stock into the resource totals.
func (s *WorldStats) AddStored(stock *ResourceStock) {
	for i, c := range stock.Counts {
		s.StoredResources[i] += int(c)
	}
}

// TallyStats rebuilds the census from the live world.
func (w *World) TallyStats(stats *WorldStats, taskCount int) {
	*stats = WorldStats{
		UnitCount:    w.UnitCount(),
		TaskCount:    taskCount,
		TreasuryGold: w.treasury.Gold,
	}
	w.ForEachBuilding(func(b *Building) bool {
		b.Behavior.Tally(stats, b)
		if wk := b.Behavior.Workers(); wk != nil {
			stats.WorkersHired += wk.Count
			stats.WorkersWanted += wk.Max
		}
		return true
	})
	w.ForEachUnit(func(u *Unit) bool {
		stats.AddStored(&u.Inventory)
		return true
	})
}
