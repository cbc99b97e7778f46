package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateTimerAccumulates(t *testing.T) {
	timer := NewUpdateTimer(1.0)
	require.False(t, timer.Tick(0.4))
	require.False(t, timer.Tick(0.4))
	require.True(t, timer.Tick(0.4))

	// The 0.2 overshoot carries into the next interval.
	require.False(t, timer.Tick(0.7))
	require.True(t, timer.Tick(0.1))
}

func TestUpdateTimerZeroFrequencyNeverFires(t *testing.T) {
	timer := NewUpdateTimer(0)
	for i := 0; i < 100; i++ {
		require.False(t, timer.Tick(10))
	}
}

func TestUpdateTimerReset(t *testing.T) {
	timer := NewUpdateTimer(1.0)
	timer.Tick(0.9)
	timer.Reset()
	require.False(t, timer.Tick(0.9))
	require.True(t, timer.Tick(0.1))
}

// Each Update advances the tick counter and rebuilds the census.
func TestSimulationUpdateRebuildsCensus(t *testing.T) {
	ts := NewTestSim(WithGold(250), WithBuilding("house0", 3, 3))
	house := ts.BuildingAt(3, 3)
	ts.MoveIn(house, 2)

	require.EqualValues(t, 0, ts.Sim.Tick())
	ts.RunTicks(3)
	require.EqualValues(t, 3, ts.Sim.Tick())

	stats := ts.Sim.Stats()
	require.Equal(t, 2, stats.Population)
	require.Equal(t, 1, stats.HouseCount)
	require.Equal(t, 250, stats.TreasuryGold)
}

// Fresh simulations carry distinct session ids; a loaded preset resets the
// world but keeps the session.
func TestSimulationSessionIdentity(t *testing.T) {
	a := NewSimulation(SimulationOptions{MapSize: Size{W: 9, H: 9}, Seed: 1})
	b := NewSimulation(SimulationOptions{MapSize: Size{W: 9, H: 9}, Seed: 1})
	require.NotEqual(t, a.SessionID(), b.SessionID())

	id := a.SessionID()
	require.NoError(t, a.LoadPreset(0))
	require.Equal(t, id, a.SessionID())
}

// Loading a preset into the wrong map size fails cleanly.
func TestLoadPresetSizeMismatch(t *testing.T) {
	sim := NewSimulation(SimulationOptions{MapSize: Size{W: 9, H: 9}, Seed: 1})
	require.Error(t, sim.LoadPreset(1)) // riverside is 12x12
	require.Error(t, sim.LoadPreset(99))
}
