package game

import "fmt"

// unitCarryCapacity is how many resource units a runner hauls per trip.
const unitCarryCapacity = 4

// employmentFrequencySecs is how often buildings re-check their labor pool.
const employmentFrequencySecs = 3.0

// runnerUnitName is the tile/config name of cargo runners.
const runnerUnitName = "runner"

func init() {
	RegisterTaskCallback("producer_runner_done", producerRunnerDone)
}

// ProducerState is the behavior of resource-producing buildings: farms,
// mills, and smelters. Output accumulates on a fixed timer and a single
// runner at a time hauls it to storage, or fetches missing inputs when
// there is nothing to ship.
type ProducerState struct {
	Work            Workers           `json:"workers"`
	InputStock      BuildingStock     `json:"input_stock"`
	OutputStock     BuildingStock     `json:"output_stock"`
	ProductionTimer UpdateTimer       `json:"production_timer"`
	EmploymentTimer UpdateTimer       `json:"employment_timer"`
	RunnerID        GenerationalIndex `json:"runner_id"`

	cfg *ProducerConfig
}

// NewProducerState creates producer state from its config.
func NewProducerState(cfg *ProducerConfig) *ProducerState {
	p := &ProducerState{
		Work:            Workers{Min: cfg.MinWorkers, Max: cfg.MaxWorkers},
		OutputStock:     NewBuildingStock(cfg.ProductionOutput, cfg.ProductionCapacity),
		ProductionTimer: NewUpdateTimer(cfg.ProductionFrequencySecs),
		EmploymentTimer: NewUpdateTimer(employmentFrequencySecs),
		RunnerID:        InvalidIndex(),
		cfg:             cfg,
	}
	if cfg.ResourcesRequired != 0 {
		p.InputStock = NewBuildingStock(cfg.ResourcesRequired, cfg.InputCapacity)
	}
	return p
}

// ArchetypeKind implements BuildingBehavior.
func (p *ProducerState) ArchetypeKind() BuildingArchetypeKind { return ArchetypeProducer }

// Config returns the producer's config record.
func (p *ProducerState) Config() *ProducerConfig { return p.cfg }

// PostLoad re-resolves the config pointer by building name.
func (p *ProducerState) PostLoad(b *Building, bc *BuildingConfigs) error {
	for i := range bc.Producers {
		if bc.Producers[i].Name == b.Name {
			p.cfg = &bc.Producers[i]
			return nil
		}
	}
	return fmt.Errorf("producer %q has no config", b.Name)
}

// Update runs one tick: hire labor, produce on the timer, and dispatch the
// runner when work is waiting and none is out.
func (p *ProducerState) Update(b *Building, q *Query) {
	if p.EmploymentTimer.Tick(q.DeltaTime()) {
		hireWorkers(&p.Work, q)
	}
	if p.ProductionTimer.Tick(q.DeltaTime()) && p.Work.HasMinRequired() {
		p.produce(b, q)
	}
	p.maybeDispatchRunner(b, q)
}

// produce converts one unit of every required input into one unit of output.
// A cycle missing any input kind stalls without consuming the others.
func (p *ProducerState) produce(b *Building, q *Query) {
	if p.OutputStock.Receivable(p.cfg.ProductionOutput) == 0 {
		return
	}
	if p.cfg.ResourcesRequired != 0 {
		ready := true
		ForEachResourceKind(p.cfg.ResourcesRequired, func(k ResourceKind) bool {
			if p.InputStock.Stock.Count(k) == 0 {
				ready = false
				return false
			}
			return true
		})
		if !ready {
			return
		}
		ForEachResourceKind(p.cfg.ResourcesRequired, func(k ResourceKind) bool {
			p.InputStock.Stock.Remove(k, 1)
			return true
		})
	}
	p.OutputStock.Receive(p.cfg.ProductionOutput, 1)
	q.Log().Infof(LogChannelBuilding, "%s produced 1 %s (%d stored)",
		b.Name, p.cfg.ProductionOutput, p.OutputStock.Stock.Count(p.cfg.ProductionOutput))
}

// maybeDispatchRunner sends stored output toward the nearest storage, or,
// with nothing waiting to ship, sends the runner out after missing inputs.
func (p *ProducerState) maybeDispatchRunner(b *Building, q *Query) {
	if _, alive := q.World().units.TryGet(p.RunnerID); alive {
		return
	}
	p.RunnerID = InvalidIndex()

	kind := p.cfg.ProductionOutput
	if stored := p.OutputStock.Stock.Count(kind); stored > 0 {
		cargo := minInt(stored, unitCarryCapacity)
		u := q.Tasks().StartDeliverToStorage(q, b, runnerUnitName, kind, cargo, "producer_runner_done")
		if u == nil {
			return
		}
		p.OutputStock.Stock.Remove(kind, cargo)
		p.RunnerID = u.ID
		return
	}
	p.maybeFetchInputs(b, q)
}

// maybeFetchInputs dispatches the runner to pull missing inputs from the
// configured storage kinds, largest shortfall first.
func (p *ProducerState) maybeFetchInputs(b *Building, q *Query) {
	if p.cfg.ResourcesRequired == 0 || p.cfg.FetchFromKinds == 0 {
		return
	}
	var list ShoppingList
	ForEachResourceKind(p.cfg.ResourcesRequired, func(k ResourceKind) bool {
		list.Push(k, p.InputStock.Receivable(k))
		return true
	})
	if list.IsEmpty() {
		return
	}
	u := q.Tasks().StartFetchFromStorage(q, b, runnerUnitName, list,
		p.cfg.FetchFromKinds, "producer_runner_done")
	if u != nil {
		p.RunnerID = u.ID
	}
}

// producerRunnerDone unloads a returning runner and frees the slot: fetched
// inputs land in the input stock, undeliverable output goes back where it
// came from.
func producerRunnerDone(owner *Building, u *Unit, task *Task, q *Query) bool {
	if owner == nil {
		return false // building demolished mid-trip; cargo is lost
	}
	p, ok := owner.Behavior.(*ProducerState)
	if !ok {
		return false
	}
	p.RunnerID = InvalidIndex()
	into := &p.OutputStock
	if task.Kind == TaskFetchFromStorage {
		into = &p.InputStock
	}
	ForEachResourceKind(u.Inventory.Accepted, func(k ResourceKind) bool {
		n := u.Inventory.Count(k)
		if n == 0 {
			return true
		}
		back := into.Receive(k, n)
		u.Inventory.Remove(k, n)
		if back < n {
			q.Log().Warnf(LogChannelBuilding, "%s: %d %s lost on runner return",
				owner.Name, n-back, k)
		}
		return true
	})
	return false
}

// VisitedBy accepts input deliveries from fetch runners.
func (p *ProducerState) VisitedBy(b *Building, u *Unit, q *Query) {
	if p.cfg.ResourcesRequired == 0 {
		return
	}
	ForEachResourceKind(p.cfg.ResourcesRequired, func(k ResourceKind) bool {
		n := u.Inventory.Count(k)
		if n == 0 {
			return true
		}
		accepted := p.InputStock.Receive(k, n)
		if accepted > 0 {
			u.Inventory.Remove(k, accepted)
		}
		return true
	})
}

// IsStockFull implements BuildingBehavior.
func (p *ProducerState) IsStockFull() bool { return p.OutputStock.IsFull() }

// AvailableResources implements BuildingBehavior.
func (p *ProducerState) AvailableResources(kind ResourceKind) int {
	return p.OutputStock.Stock.Count(kind)
}

// ReceivableResources reports room in the input stock.
func (p *ProducerState) ReceivableResources(kind ResourceKind) int {
	if p.cfg == nil || p.cfg.ResourcesRequired == 0 {
		return 0
	}
	return p.InputStock.Receivable(kind)
}

// ReceiveResources stores into the input stock.
func (p *ProducerState) ReceiveResources(kind ResourceKind, n int) int {
	if p.cfg == nil || p.cfg.ResourcesRequired == 0 {
		return 0
	}
	return p.InputStock.Receive(kind, n)
}

// RemoveResources takes from the output stock.
func (p *ProducerState) RemoveResources(kind ResourceKind, n int) int {
	_, taken := p.OutputStock.Stock.Remove(kind, n)
	return taken
}

// Workers implements BuildingBehavior.
func (p *ProducerState) Workers() *Workers { return &p.Work }

// ActiveRunner implements BuildingBehavior.
func (p *ProducerState) ActiveRunner() GenerationalIndex { return p.RunnerID }

// ActivePatrol implements BuildingBehavior.
func (p *ProducerState) ActivePatrol() GenerationalIndex { return InvalidIndex() }

// Tally implements BuildingBehavior.
func (p *ProducerState) Tally(stats *WorldStats, b *Building) {
	stats.ProducerCount++
	stats.AddStored(&p.InputStock.Stock)
	stats.AddStored(&p.OutputStock.Stock)
}

// hireWorkers tops a building's labor pool up from last tick's census slack.
// The census lags one tick, so brief over-hiring settles on the next pass.
func hireWorkers(w *Workers, q *Query) {
	stats := q.Stats()
	available := stats.Population - stats.WorkersHired
	if available > 0 && w.Count < w.Max {
		w.Add(available)
	}
	// Shed workers the population can no longer supply.
	if deficit := stats.WorkersHired - stats.Population; deficit > 0 && w.Count > 0 {
		w.Count = maxInt(0, w.Count-deficit)
	}
}
