package game

import "fmt"

func init() {
	RegisterTaskCallback("service_runner_done", serviceRunnerDone)
	RegisterTaskCallback("service_patrol_done", servicePatrolDone)
}

// ServiceState is the behavior of coverage-providing buildings. Wells just
// exist; markets keep a goods stock fed from storage and houses shop from it;
// tax offices walk patrols that collect accrued tax from houses.
type ServiceState struct {
	Work            Workers           `json:"workers"`
	Stock           BuildingStock     `json:"stock"`
	StockTimer      UpdateTimer       `json:"stock_timer"`
	PatrolTimer     UpdateTimer       `json:"patrol_timer"`
	EmploymentTimer UpdateTimer       `json:"employment_timer"`
	RunnerID        GenerationalIndex `json:"runner_id"`
	PatrolID        GenerationalIndex `json:"patrol_id"`

	cfg *ServiceConfig
}

// NewServiceState creates service state from its config.
func NewServiceState(cfg *ServiceConfig) *ServiceState {
	s := &ServiceState{
		Work:            Workers{Min: cfg.MinWorkers, Max: cfg.MaxWorkers},
		StockTimer:      NewUpdateTimer(cfg.StockUpdateFrequency),
		PatrolTimer:     NewUpdateTimer(cfg.PatrolFrequencySecs),
		EmploymentTimer: NewUpdateTimer(employmentFrequencySecs),
		RunnerID:        InvalidIndex(),
		PatrolID:        InvalidIndex(),
		cfg:             cfg,
	}
	if cfg.Mode == ServiceModeStock {
		s.Stock = NewBuildingStock(cfg.AcceptedKinds, cfg.StockCapacity)
	}
	return s
}

// ArchetypeKind implements BuildingBehavior.
func (s *ServiceState) ArchetypeKind() BuildingArchetypeKind { return ArchetypeService }

// Config returns the service's config record.
func (s *ServiceState) Config() *ServiceConfig { return s.cfg }

// EffectRadius returns the coverage radius in cells.
func (s *ServiceState) EffectRadius() int {
	if s.cfg == nil {
		return 0
	}
	return s.cfg.EffectRadius
}

// PostLoad re-resolves the config pointer by building name.
func (s *ServiceState) PostLoad(b *Building, bc *BuildingConfigs) error {
	for i := range bc.Services {
		if bc.Services[i].Name == b.Name {
			s.cfg = &bc.Services[i]
			return nil
		}
	}
	return fmt.Errorf("service %q has no config", b.Name)
}

// Update hires labor, restocks from storage, and sends out patrols.
func (s *ServiceState) Update(b *Building, q *Query) {
	if s.EmploymentTimer.Tick(q.DeltaTime()) {
		hireWorkers(&s.Work, q)
	}
	if !s.Work.HasMinRequired() && s.cfg.MinWorkers > 0 {
		return
	}
	if s.cfg.Mode == ServiceModeStock && s.StockTimer.Tick(q.DeltaTime()) {
		s.maybeRestock(b, q)
	}
	if s.PatrolTimer.Tick(q.DeltaTime()) {
		s.maybePatrol(b, q)
	}
}

// maybeRestock dispatches a fetch runner when any accepted kind has room.
func (s *ServiceState) maybeRestock(b *Building, q *Query) {
	if _, alive := q.World().units.TryGet(s.RunnerID); alive {
		return
	}
	s.RunnerID = InvalidIndex()

	var list ShoppingList
	ForEachResourceKind(s.cfg.AcceptedKinds, func(k ResourceKind) bool {
		list.Push(k, s.Stock.Receivable(k))
		return true
	})
	if list.IsEmpty() {
		return
	}
	u := q.Tasks().StartFetchFromStorage(q, b, runnerUnitName, list,
		BuildingKindStorages, "service_runner_done")
	if u != nil {
		s.RunnerID = u.ID
	}
}

// maybePatrol sends out a patrol unit when none is walking. Stocking services
// only patrol with goods on hand; an empty market has nothing to hawk.
func (s *ServiceState) maybePatrol(b *Building, q *Query) {
	if s.cfg.PatrolUnitName == "" {
		return
	}
	if s.cfg.Mode == ServiceModeStock && s.Stock.Stock.TotalCount() == 0 {
		return
	}
	if _, alive := q.World().units.TryGet(s.PatrolID); alive {
		return
	}
	s.PatrolID = InvalidIndex()

	u := q.Tasks().StartRandomizedPatrol(q, b, s.cfg.PatrolUnitName,
		s.cfg.PatrolDistance, "service_patrol_done")
	if u != nil {
		s.PatrolID = u.ID
	}
}

// serviceRunnerDone unloads a returning restock runner into the stock.
func serviceRunnerDone(owner *Building, u *Unit, task *Task, q *Query) bool {
	if owner == nil {
		return false
	}
	s, ok := owner.Behavior.(*ServiceState)
	if !ok {
		return false
	}
	s.RunnerID = InvalidIndex()
	ForEachResourceKind(u.Inventory.Accepted, func(k ResourceKind) bool {
		n := u.Inventory.Count(k)
		if n == 0 {
			return true
		}
		accepted := s.Stock.Receive(k, n)
		u.Inventory.Remove(k, n)
		if accepted < n {
			q.Log().Warnf(LogChannelBuilding, "%s: %d %s discarded on restock",
				owner.Name, n-accepted, k)
		}
		return true
	})
	return false
}

// servicePatrolDone banks collected tax and frees the patrol slot.
func servicePatrolDone(owner *Building, u *Unit, task *Task, q *Query) bool {
	if task.CollectedGold > 0 {
		q.Treasury().Earn(task.CollectedGold)
		q.Log().Infof(LogChannelBuilding, "patrol banked %d gold", task.CollectedGold)
	}
	if owner != nil {
		if s, ok := owner.Behavior.(*ServiceState); ok {
			s.PatrolID = InvalidIndex()
		}
	}
	return false
}

// VisitedBy is a no-op; services exchange goods through their stock methods.
func (s *ServiceState) VisitedBy(b *Building, u *Unit, q *Query) {}

// IsStockFull implements BuildingBehavior.
func (s *ServiceState) IsStockFull() bool {
	if s.cfg == nil || s.cfg.Mode != ServiceModeStock {
		return true
	}
	return s.Stock.IsFull()
}

// AvailableResources implements BuildingBehavior.
func (s *ServiceState) AvailableResources(kind ResourceKind) int {
	return s.Stock.Stock.Count(kind)
}

// ReceivableResources implements BuildingBehavior.
func (s *ServiceState) ReceivableResources(kind ResourceKind) int {
	return s.Stock.Receivable(kind)
}

// ReceiveResources implements BuildingBehavior.
func (s *ServiceState) ReceiveResources(kind ResourceKind, n int) int {
	return s.Stock.Receive(kind, n)
}

// RemoveResources implements BuildingBehavior.
func (s *ServiceState) RemoveResources(kind ResourceKind, n int) int {
	_, taken := s.Stock.Stock.Remove(kind, n)
	return taken
}

// Workers implements BuildingBehavior.
func (s *ServiceState) Workers() *Workers { return &s.Work }

// ActiveRunner implements BuildingBehavior.
func (s *ServiceState) ActiveRunner() GenerationalIndex { return s.RunnerID }

// ActivePatrol implements BuildingBehavior.
func (s *ServiceState) ActivePatrol() GenerationalIndex { return s.PatrolID }

// Tally implements BuildingBehavior.
func (s *ServiceState) Tally(stats *WorldStats, b *Building) {
	stats.ServiceCount++
	stats.AddStored(&s.Stock.Stock)
}
