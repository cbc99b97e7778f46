package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Settlers walk in from the spawn point and move into the house with room.
func TestSettlersMigrateIntoHouse(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithSpawnPoint(0, 5),
		WithBuilding("house0", 3, 3),
	)
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	require.Equal(t, 0, h.Pop.Count)

	tick := ts.RunUntil(func(*TestSim) bool {
		return h.Pop.Count >= houseGrowthResidents
	}, 2000)
	require.NotEqual(t, -1, tick, "no settlers ever arrived")
}

// Arrivals stop once every house is full.
func TestSettlersStopWhenHousingIsFull(t *testing.T) {
	ts := NewTestSim(
		WithGold(500),
		WithRoadRow(4, 0, 8),
		WithSpawnPoint(0, 5),
		WithBuilding("house0", 3, 3),
	)
	house := ts.BuildingAt(3, 3)
	h := house.Behavior.(*HouseState)
	h.Pop.Add(h.Pop.Max)

	ts.RunTicks(400)
	require.Equal(t, 0, ts.Sim.World().UnitCount(), "settler dispatched with no room anywhere")
	require.Equal(t, h.Pop.Max, h.Pop.Count)
}

// Without a spawn point on the map the system stays quiet.
func TestSettlersNeedSpawnPoint(t *testing.T) {
	ts := NewTestSim(WithGold(500), WithBuilding("house0", 3, 3))
	ts.RunTicks(400)
	require.Equal(t, 0, ts.Sim.World().UnitCount())
}
