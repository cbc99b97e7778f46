package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceStockAddAndHas(t *testing.T) {
	s := NewResourceStock(ResourceRice | ResourceWood)
	require.False(t, s.Has(AllResources))

	s.Add(ResourceRice, 3)
	require.True(t, s.Has(ResourceRice))
	require.False(t, s.Has(ResourceWood))
	require.Equal(t, 3, s.Count(ResourceRice))
	require.Equal(t, 3, s.TotalCount())
}

func TestResourceStockAddUnacceptedPanics(t *testing.T) {
	s := NewResourceStock(ResourceRice)
	require.Panics(t, func() { s.Add(ResourceGold, 1) })
}

func TestResourceStockRemoveFirstNonZero(t *testing.T) {
	s := NewResourceStock(FoodResources)
	s.Add(ResourceMeat, 2)
	s.Add(ResourceFish, 5)

	// Rice is empty, so meat (the next bit) is taken first.
	kind, n := s.Remove(FoodResources, 10)
	require.Equal(t, ResourceMeat, kind)
	require.Equal(t, 2, n, "removal saturates at the stored count")
	require.Equal(t, 0, s.Count(ResourceMeat))
	require.Equal(t, 5, s.Count(ResourceFish))

	kind, n = s.Remove(FoodResources, 2)
	require.Equal(t, ResourceFish, kind)
	require.Equal(t, 2, n)
}

func TestResourceStockRemoveNothingStored(t *testing.T) {
	s := NewResourceStock(FoodResources)
	kind, n := s.Remove(FoodResources, 1)
	require.Equal(t, ResourceKind(0), kind)
	require.Equal(t, 0, n)
}

func TestResourceStockMergeFrom(t *testing.T) {
	dst := NewResourceStock(FoodResources)
	src := NewResourceStock(FoodResources | ResourceWood)
	src.Add(ResourceRice, 4)
	src.Add(ResourceWood, 2)

	dst.MergeFrom(&src)
	require.Equal(t, 4, dst.Count(ResourceRice))
	require.Equal(t, 0, src.Count(ResourceRice))
	require.Equal(t, 2, src.Count(ResourceWood), "unaccepted kinds stay behind")
}

func TestBuildingStockCapacity(t *testing.T) {
	bs := NewBuildingStock(ResourceRice, 10)
	require.Equal(t, 10, bs.Receivable(ResourceRice))
	require.Equal(t, 0, bs.Receivable(ResourceWood))

	accepted := bs.Receive(ResourceRice, 7)
	require.Equal(t, 7, accepted)
	accepted = bs.Receive(ResourceRice, 7)
	require.Equal(t, 3, accepted, "receive is clamped to remaining capacity")
	require.True(t, bs.IsFull())
}

func TestShoppingListCapAndSort(t *testing.T) {
	var sl ShoppingList
	sl.Push(ResourceRice, 2)
	sl.Push(ResourceWine, 8)
	sl.Push(ResourceWood, 5)
	sl.Push(ResourceMeat, 0) // ignored

	sl.SortByWantedDescending()
	items := sl.Items()
	require.Len(t, items, 3)
	require.Equal(t, ResourceWine, items[0].Kind)
	require.Equal(t, ResourceWood, items[1].Kind)
	require.Equal(t, ResourceRice, items[2].Kind)

	for i := 0; i < ResourceKindCount+3; i++ {
		sl.Push(ResourceFish, 1)
	}
	require.LessOrEqual(t, len(sl.Items()), ResourceKindCount)
}

func TestWorkersMinRequired(t *testing.T) {
	w := Workers{Min: 2, Max: 4}
	require.False(t, w.HasMinRequired())
	require.Equal(t, 3, w.Add(3))
	require.True(t, w.HasMinRequired())
	require.Equal(t, 1, w.Add(5), "hiring is clamped at max")
}

func TestTreasurySpend(t *testing.T) {
	tr := Treasury{Gold: 10}
	require.True(t, tr.Spend(4))
	require.Equal(t, 6, tr.Gold)
	require.False(t, tr.Spend(7))
	require.Equal(t, 6, tr.Gold, "failed spend leaves the balance untouched")
	tr.Earn(2)
	require.Equal(t, 8, tr.Gold)
}

func TestForEachResourceKindOrder(t *testing.T) {
	var seen []ResourceKind
	ForEachResourceKind(ResourceFish|ResourceRice|ResourceGold, func(k ResourceKind) bool {
		seen = append(seen, k)
		return true
	})
	require.Equal(t, []ResourceKind{ResourceRice, ResourceFish, ResourceGold}, seen)
}
