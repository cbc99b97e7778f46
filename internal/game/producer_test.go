package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// With no road to any storage the farm keeps producing until its output stock
// caps, and never spawns a runner.
func TestProducerCapsWithoutStorage(t *testing.T) {
	ts := NewTestSim(WithGold(500), WithBuilding("rice_farm", 3, 3))
	ts.RunTicks(300) // 30s; production every 2s

	farm := ts.BuildingAt(3, 3)
	p := farm.Behavior.(*ProducerState)
	require.Equal(t, p.Config().ProductionCapacity, p.OutputStock.Stock.Count(ResourceRice))
	require.Equal(t, 0, ts.Sim.World().UnitCount())
	require.False(t, p.RunnerID.IsValid())
}

// An input-consuming producer converts one unit of input per cycle and stalls
// on an empty input stock.
func TestProducerConsumesInput(t *testing.T) {
	ts := NewTestSim()
	q := ts.Query()
	cfg := ProducerConfig{
		Name: "smelter", TileDefName: "smelter",
		ProductionOutput: ResourceMetal, ProductionFrequencySecs: 1,
		ProductionCapacity: 8,
		ResourcesRequired:  ResourceWood, InputCapacity: 4,
	}
	p := NewProducerState(&cfg)
	b := &Building{Name: cfg.Name}

	p.produce(b, q)
	require.Equal(t, 0, p.AvailableResources(ResourceMetal), "produced without input")

	require.Equal(t, 3, p.ReceiveResources(ResourceWood, 3))
	for i := 0; i < 5; i++ {
		p.produce(b, q)
	}
	require.Equal(t, 3, p.AvailableResources(ResourceMetal))
	require.Equal(t, 0, p.InputStock.Stock.Count(ResourceWood))
}

// A multi-input recipe needs every kind on hand and takes one of each per
// cycle; a missing kind stalls the cycle without draining the rest.
func TestProducerConsumesOneOfEachInput(t *testing.T) {
	ts := NewTestSim()
	q := ts.Query()
	cfg := ProducerConfig{
		Name: "workshop", TileDefName: "workshop",
		ProductionOutput: ResourceMetal, ProductionFrequencySecs: 1,
		ProductionCapacity: 8,
		ResourcesRequired:  ResourceWood | ResourceRice, InputCapacity: 4,
	}
	p := NewProducerState(&cfg)
	b := &Building{Name: cfg.Name}

	require.Equal(t, 2, p.ReceiveResources(ResourceWood, 2))
	p.produce(b, q)
	require.Equal(t, 0, p.AvailableResources(ResourceMetal), "produced with rice missing")
	require.Equal(t, 2, p.InputStock.Stock.Count(ResourceWood), "stalled cycle ate wood")

	require.Equal(t, 1, p.ReceiveResources(ResourceRice, 1))
	p.produce(b, q)
	require.Equal(t, 1, p.AvailableResources(ResourceMetal))
	require.Equal(t, 1, p.InputStock.Stock.Count(ResourceWood))
	require.Equal(t, 0, p.InputStock.Stock.Count(ResourceRice))
}

// A smelter with an empty furnace sends its runner out to a stocked yard for
// wood, and once the load lands it smelts and ships metal back to storage.
func TestProducerFetchesInputsFromStorage(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithBuilding("smelter", 1, 5),
		WithBuilding("storage_yard", 6, 5),
	)
	yard := ts.BuildingAt(6, 5)
	require.Equal(t, 8, ts.StockFor(yard, ResourceWood, 8))

	tick := ts.RunUntil(func(*TestSim) bool {
		return yard.Behavior.AvailableResources(ResourceMetal) > 0
	}, 1200)
	require.NotEqual(t, -1, tick, "smelter never turned fetched wood into metal")
	require.Less(t, yard.Behavior.AvailableResources(ResourceWood), 8, "no wood was fetched")
}

// Hiring draws from last tick's census slack and sheds workers when the
// population drops away.
func TestHireWorkersFollowsCensus(t *testing.T) {
	ts := NewTestSim()
	q := ts.Query()
	w := Workers{Min: 2, Max: 6}

	q.Stats().Population = 10
	q.Stats().WorkersHired = 4
	hireWorkers(&w, q)
	require.Equal(t, 6, w.Count, "should hire up to max from 6 available")

	q.Stats().Population = 3
	q.Stats().WorkersHired = 6
	hireWorkers(&w, q)
	require.Equal(t, 3, w.Count, "should shed the 3-worker deficit")
	require.True(t, w.HasMinRequired())
}
