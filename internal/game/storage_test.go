package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func granaryState() *StorageState {
	bc := DefaultBuildingConfigs()
	for i := range bc.Storages {
		if bc.Storages[i].Name == "granary" {
			return NewStorageState(&bc.Storages[i])
		}
	}
	panic("no granary config")
}

func TestStorageSpillsAcrossSlots(t *testing.T) {
	s := granaryState() // 4 slots x 8

	require.Equal(t, 10, s.ReceiveResources(ResourceRice, 10))
	require.Equal(t, 10, s.AvailableResources(ResourceRice))
	require.Equal(t, ResourceRice, s.Slots[0].Kind)
	require.Equal(t, 8, s.Slots[0].Count)
	require.Equal(t, 2, s.Slots[1].Count)

	// Room: top up the partial slot plus the two unclaimed ones.
	require.Equal(t, 6+8+8, s.ReceivableResources(ResourceRice))
}

func TestStorageFillsPartialSlotsBeforeClaiming(t *testing.T) {
	s := granaryState()
	s.ReceiveResources(ResourceWine, 3)
	s.ReceiveResources(ResourceRice, 2)

	// Wine tops up its existing slot; no second wine slot is claimed.
	require.Equal(t, 4, s.ReceiveResources(ResourceWine, 4))
	require.Equal(t, ResourceWine, s.Slots[0].Kind)
	require.Equal(t, 7, s.Slots[0].Count)
	require.Equal(t, ResourceRice, s.Slots[1].Kind)
	require.Equal(t, ResourceKind(0), s.Slots[2].Kind)
}

func TestStorageRejectsUnacceptedKind(t *testing.T) {
	s := granaryState()
	require.Equal(t, 0, s.ReceiveResources(ResourceWood, 5))
	require.Equal(t, 0, s.ReceivableResources(ResourceWood))
}

func TestStorageRemoveReleasesEmptySlots(t *testing.T) {
	s := granaryState()
	s.ReceiveResources(ResourceRice, 9) // slot0 full, slot1 holds 1

	require.Equal(t, 9, s.RemoveResources(ResourceRice, 12))
	require.Equal(t, 0, s.AvailableResources(ResourceRice))
	for i := range s.Slots {
		require.Equal(t, ResourceKind(0), s.Slots[i].Kind, "slot %d still claimed", i)
	}

	// A freed slot can be re-claimed by another kind.
	require.Equal(t, 5, s.ReceiveResources(ResourceWine, 5))
	require.Equal(t, ResourceWine, s.Slots[0].Kind)
}

func TestStorageIsStockFull(t *testing.T) {
	s := granaryState()
	require.False(t, s.IsStockFull())
	s.ReceiveResources(ResourceRice, 16)
	s.ReceiveResources(ResourceWine, 16)
	require.True(t, s.IsStockFull())
	require.Equal(t, 0, s.ReceiveResources(ResourceFish, 1))
}
