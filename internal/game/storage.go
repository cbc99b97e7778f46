package game

import "fmt"

// StorageSlot holds one resource kind. An empty slot has kind zero and can be
// claimed by any accepted kind.
type StorageSlot struct {
	Kind  ResourceKind `json:"kind"`
	Count int          `json:"count"`
}

// StorageState is the behavior of slot-based storage buildings: granaries and
// storage yards. Runners deliver into it and fetch from it.
type StorageState struct {
	Work            Workers       `json:"workers"`
	Slots           []StorageSlot `json:"slots"`
	EmploymentTimer UpdateTimer   `json:"employment_timer"`

	cfg *StorageConfig
}

// NewStorageState creates storage state from its config.
func NewStorageState(cfg *StorageConfig) *StorageState {
	return &StorageState{
		Work:            Workers{Min: cfg.MinWorkers, Max: cfg.MaxWorkers},
		Slots:           make([]StorageSlot, cfg.NumSlots),
		EmploymentTimer: NewUpdateTimer(employmentFrequencySecs),
		cfg:             cfg,
	}
}

// ArchetypeKind implements BuildingBehavior.
func (s *StorageState) ArchetypeKind() BuildingArchetypeKind { return ArchetypeStorage }

// Config returns the storage's config record.
func (s *StorageState) Config() *StorageConfig { return s.cfg }

// PostLoad re-resolves the config pointer by building name.
func (s *StorageState) PostLoad(b *Building, bc *BuildingConfigs) error {
	for i := range bc.Storages {
		if bc.Storages[i].Name == b.Name {
			s.cfg = &bc.Storages[i]
			return nil
		}
	}
	return fmt.Errorf("storage %q has no config", b.Name)
}

// Update keeps the labor pool topped up. Storage is passive otherwise.
func (s *StorageState) Update(b *Building, q *Query) {
	if s.EmploymentTimer.Tick(q.DeltaTime()) {
		hireWorkers(&s.Work, q)
	}
}

// VisitedBy exchanges cargo with an arriving runner: deliveries unload into
// slots, fetch runners load their shopping list out.
func (s *StorageState) VisitedBy(b *Building, u *Unit, q *Query) {
	task, ok := q.Tasks().TryGet(u.TaskID)
	if !ok {
		return
	}
	switch task.Kind {
	case TaskDeliverToStorage:
		s.unloadFrom(u, q)
	case TaskFetchFromStorage:
		s.loadInto(u, task, q)
	}
}

// unloadFrom moves as much of the runner's inventory into slots as fits.
func (s *StorageState) unloadFrom(u *Unit, q *Query) {
	ForEachResourceKind(u.Inventory.Accepted, func(k ResourceKind) bool {
		n := u.Inventory.Count(k)
		if n == 0 {
			return true
		}
		accepted := s.ReceiveResources(k, n)
		if accepted > 0 {
			u.Inventory.Remove(k, accepted)
		}
		return true
	})
}

// loadInto fills the runner with the task's shopping list, most-wanted first.
func (s *StorageState) loadInto(u *Unit, task *Task, q *Query) {
	for _, item := range task.FetchList.Items() {
		free := unitCarryCapacity - u.Inventory.TotalCount()
		if free <= 0 {
			return
		}
		want := minInt(item.Wanted-u.Inventory.Count(item.Kind), free)
		if want <= 0 {
			continue
		}
		taken := s.RemoveResources(item.Kind, want)
		if taken > 0 {
			u.Inventory.Add(item.Kind, taken)
		}
	}
}

// IsStockFull reports whether every slot is claimed and at capacity.
func (s *StorageState) IsStockFull() bool {
	for i := range s.Slots {
		if s.Slots[i].Kind == 0 || s.Slots[i].Count < s.cfg.SlotCapacity {
			return false
		}
	}
	return true
}

// AvailableResources sums the stored count of one kind over all slots.
func (s *StorageState) AvailableResources(kind ResourceKind) int {
	total := 0
	for i := range s.Slots {
		if s.Slots[i].Kind == kind {
			total += s.Slots[i].Count
		}
	}
	return total
}

// ReceivableResources sums the remaining room for one kind: partially filled
// slots of that kind plus unclaimed slots.
func (s *StorageState) ReceivableResources(kind ResourceKind) int {
	if s.cfg == nil || !kind.Intersects(s.cfg.AcceptedKinds) {
		return 0
	}
	room := 0
	for i := range s.Slots {
		switch s.Slots[i].Kind {
		case kind:
			room += s.cfg.SlotCapacity - s.Slots[i].Count
		case 0:
			room += s.cfg.SlotCapacity
		}
	}
	return room
}

// ReceiveResources stores up to n units, claiming empty slots as needed.
// Existing slots of the kind fill before new slots are claimed.
func (s *StorageState) ReceiveResources(kind ResourceKind, n int) int {
	if s.cfg == nil || !kind.Intersects(s.cfg.AcceptedKinds) {
		return 0
	}
	accepted := 0
	fill := func(claimEmpty bool) {
		for i := range s.Slots {
			if accepted >= n {
				return
			}
			slot := &s.Slots[i]
			if slot.Kind != kind && !(claimEmpty && slot.Kind == 0) {
				continue
			}
			take := minInt(n-accepted, s.cfg.SlotCapacity-slot.Count)
			if take <= 0 {
				continue
			}
			slot.Kind = kind
			slot.Count += take
			accepted += take
		}
	}
	fill(false)
	fill(true)
	return accepted
}

// RemoveResources takes up to n units, releasing slots that empty out.
func (s *StorageState) RemoveResources(kind ResourceKind, n int) int {
	taken := 0
	for i := range s.Slots {
		if taken >= n {
			break
		}
		slot := &s.Slots[i]
		if slot.Kind != kind || slot.Count == 0 {
			continue
		}
		take := minInt(n-taken, slot.Count)
		slot.Count -= take
		taken += take
		if slot.Count == 0 {
			slot.Kind = 0
		}
	}
	return taken
}

// Workers implements BuildingBehavior.
func (s *StorageState) Workers() *Workers { return &s.Work }

// ActiveRunner implements BuildingBehavior.
func (s *StorageState) ActiveRunner() GenerationalIndex { return InvalidIndex() }

// ActivePatrol implements BuildingBehavior.
func (s *StorageState) ActivePatrol() GenerationalIndex { return InvalidIndex() }

// Tally implements BuildingBehavior.
func (s *StorageState) Tally(stats *WorldStats, b *Building) {
	stats.StorageCount++
	for i := range s.Slots {
		if s.Slots[i].Kind != 0 {
			stats.StoredResources[s.Slots[i].Kind.bitIndex()] += s.Slots[i].Count
		}
	}
}
