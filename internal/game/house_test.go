package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// A stocked household eats one unit per required kind per stock tick and
// accrues tax while satisfied.
func TestHouseStockTickConsumesAndTaxes(t *testing.T) {
	ts := NewTestSim(WithBuilding("house0", 3, 3))
	q := ts.Query()
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)

	ts.MoveIn(house, 2)
	h.Stock.Receive(ResourceRice, 3)

	h.stockTick(house, q)
	require.Equal(t, 2, h.Stock.Stock.Count(ResourceRice))
	require.Equal(t, h.LevelConfig().TaxGenerated, h.TaxAccrued)
	require.Equal(t, 0, h.ShortfallTicks)
}

// An empty pantry counts as a shortfall and never accrues tax.
func TestHouseStockTickShortfall(t *testing.T) {
	ts := NewTestSim(WithBuilding("house0", 3, 3))
	q := ts.Query()
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	ts.MoveIn(house, 2)

	h.stockTick(house, q)
	h.stockTick(house, q)
	require.Equal(t, 2, h.ShortfallTicks)
	require.Equal(t, 0, h.TaxAccrued)
}

// An empty house neither eats nor taxes.
func TestHouseStockTickNeedsResidents(t *testing.T) {
	ts := NewTestSim(WithBuilding("house0", 3, 3))
	q := ts.Query()
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	h.Stock.Receive(ResourceRice, 2)

	h.stockTick(house, q)
	require.Equal(t, 2, h.Stock.Stock.Count(ResourceRice))
	require.Equal(t, 0, h.TaxAccrued)
}

// Houses shop from a covering market before reaching into raw storage.
func TestHouseShopsFromMarketFirst(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithBuilding("house0", 3, 3),
		WithBuilding("market", 5, 3),
	)
	q := ts.Query()
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	ts.MoveIn(house, 2)

	market := ts.BuildingAt(5, 3)
	ts.StockFor(market, ResourceRice, 6)

	h.stockTick(house, q)
	require.Equal(t, int(h.Stock.Capacities[ResourceRice.bitIndex()]),
		h.Stock.Stock.Count(ResourceRice), "pantry not topped up")
	require.Less(t, market.Behavior.AvailableResources(ResourceRice), 6)
}

// A sustained shortfall walks the house back down the ladder, shrinking its
// footprint to the lower level's tile.
func TestHouseDowngradesAfterShortfall(t *testing.T) {
	ts := NewTestSim(WithGold(500), WithBuilding("house1", 3, 3))
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	require.Equal(t, 1, h.Level)
	ts.MoveIn(house, 2)

	tick := ts.RunUntil(func(*TestSim) bool { return h.Level == 0 }, 600)
	require.NotEqual(t, -1, tick, "house never downgraded")
	require.Equal(t, Size{W: 1, H: 1}, house.Size)
	require.Equal(t, "hovel", house.Name)
	require.Nil(t, ts.Sim.TileMap().TileAt(Cell{X: 4, Y: 4}, LayerObjects),
		"freed footprint cell still occupied")
}

// Growing onto a neighboring same-level house merges the two households.
func TestHouseUpgradeMergesNeighbor(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithBuilding("house0", 3, 3),
		WithBuilding("house0", 4, 3),
	)
	q := ts.Query()
	left := ts.BuildingAt(3, 3)
	right := ts.BuildingAt(4, 3)
	ts.MoveIn(left, 2)
	ts.MoveIn(right, 3)
	right.Behavior.(*HouseState).TaxAccrued = 5

	h := left.Behavior.(*HouseState)
	require.NoError(t, TryUpgradeHouse(left, h, q))

	require.Equal(t, 1, h.Level)
	require.Equal(t, Size{W: 2, H: 2}, left.Size)
	require.Equal(t, 5, h.Pop.Count, "merged residents lost")
	require.Equal(t, 5, h.TaxAccrued, "merged tax lost")
	require.Equal(t, 1, ts.Sim.World().BuildingCount(BuildingKindHouse))

	// The absorbed house's old base cell now belongs to the merged footprint.
	require.Same(t, left, ts.BuildingAt(4, 3))
}

// The footprint absorbing a neighbor beats one covering open ground only,
// wherever the neighbor sits relative to the upgrading house.
func TestHouseUpgradePrefersMergingFootprint(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithBuilding("house0", 2, 3),
		WithBuilding("house0", 3, 3),
	)
	q := ts.Query()
	neighbor := ts.BuildingAt(2, 3)
	house := ts.BuildingAt(3, 3)
	ts.MoveIn(neighbor, 3)
	ts.MoveIn(house, 2)

	h := house.Behavior.(*HouseState)
	require.NoError(t, TryUpgradeHouse(house, h, q))

	require.Equal(t, Cell{X: 2, Y: 3}, house.BaseCell, "upgrade ignored the merging footprint")
	require.Equal(t, Size{W: 2, H: 2}, house.Size)
	require.Equal(t, 5, h.Pop.Count, "neighboring household lost")
	require.Equal(t, 1, ts.Sim.World().BuildingCount(BuildingKindHouse))
}

// A bigger house growing over a smaller one absorbs it: merging goes by
// footprint size, not by matching ladder level.
func TestHouseUpgradeAbsorbsSmallerHouse(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithBuilding("house1", 3, 3),
		WithBuilding("house0", 5, 3),
	)
	q := ts.Query()
	big := ts.BuildingAt(3, 3)
	small := ts.BuildingAt(5, 3)
	ts.MoveIn(big, 4)
	ts.MoveIn(small, 2)

	h := big.Behavior.(*HouseState)
	require.NoError(t, TryUpgradeHouse(big, h, q))

	require.Equal(t, 2, h.Level)
	require.Equal(t, Size{W: 3, H: 3}, big.Size)
	require.Equal(t, 6, h.Pop.Count, "smaller household lost in the merge")
	require.Equal(t, 1, ts.Sim.World().BuildingCount(BuildingKindHouse))
	require.Same(t, big, ts.BuildingAt(5, 3))
}
