package game

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// ResourceKind is a bitflag enum of everything buildings stock and move.
type ResourceKind uint16

const (
	ResourceRice ResourceKind = 1 << iota
	ResourceMeat
	ResourceFish
	ResourceWine
	ResourceWood
	ResourceMetal
	ResourceGold
)

// ResourceKindCount is the number of distinct resource kinds.
const ResourceKindCount = 7

// AllResources matches every resource kind.
const AllResources ResourceKind = (1 << ResourceKindCount) - 1

// FoodResources matches the kinds houses eat.
const FoodResources = ResourceRice | ResourceMeat | ResourceFish

// Intersects reports whether any bit of mask is set in k.
func (k ResourceKind) Intersects(mask ResourceKind) bool {
	return k&mask != 0
}

// IsSingle reports whether exactly one kind bit is set.
func (k ResourceKind) IsSingle() bool {
	return k != 0 && k&(k-1) == 0
}

// bitIndex maps a single kind to its slot index.
func (k ResourceKind) bitIndex() int {
	return bits.TrailingZeros16(uint16(k))
}

// String returns kind names, pipe-joined for masks.
func (k ResourceKind) String() string {
	if k == 0 {
		return "none"
	}
	names := []struct {
		kind ResourceKind
		name string
	}{
		{ResourceRice, "rice"}, {ResourceMeat, "meat"}, {ResourceFish, "fish"},
		{ResourceWine, "wine"}, {ResourceWood, "wood"}, {ResourceMetal, "metal"},
		{ResourceGold, "gold"},
	}
	var parts []string
	for _, n := range names {
		if k.Intersects(n.kind) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalJSON encodes the mask as a pipe-joined name string.
func (k ResourceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a pipe-joined name string back into a mask.
func (k *ResourceKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseResourceKinds(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseResourceKinds parses a pipe-joined name string ("rice|wood") into a
// kind mask. "none" and the empty string parse to zero.
func ParseResourceKinds(s string) (ResourceKind, error) {
	if s == "" || s == "none" {
		return 0, nil
	}
	var mask ResourceKind
	for _, name := range strings.Split(s, "|") {
		switch name {
		case "rice":
			mask |= ResourceRice
		case "meat":
			mask |= ResourceMeat
		case "fish":
			mask |= ResourceFish
		case "wine":
			mask |= ResourceWine
		case "wood":
			mask |= ResourceWood
		case "metal":
			mask |= ResourceMetal
		case "gold":
			mask |= ResourceGold
		default:
			return 0, fmt.Errorf("unknown resource kind %q", name)
		}
	}
	return mask, nil
}

// ForEachResourceKind visits every single kind set in mask, lowest bit first.
func ForEachResourceKind(mask ResourceKind, visit func(ResourceKind) bool) {
	for rest := mask; rest != 0; {
		k := rest & (-rest) // lowest set bit
		rest &^= k
		if !visit(k) {
			return
		}
	}
}

// ResourceStock holds per-kind counts for an accepted set of kinds.
type ResourceStock struct {
	Accepted ResourceKind               `json:"accepted"`
	Counts   [ResourceKindCount]uint16 `json:"counts"`
}

// NewResourceStock creates an empty stock accepting the given kinds.
func NewResourceStock(accepted ResourceKind) ResourceStock {
	return ResourceStock{Accepted: accepted}
}

// AcceptsKind reports whether the stock can hold the kind at all.
func (s *ResourceStock) AcceptsKind(kind ResourceKind) bool {
	return kind.Intersects(s.Accepted)
}

// Has reports whether any kind in the mask has a non-zero count.
func (s *ResourceStock) Has(kinds ResourceKind) bool {
	found := false
	ForEachResourceKind(kinds&s.Accepted, func(k ResourceKind) bool {
		if s.Counts[k.bitIndex()] > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

// Count returns the stored count of one kind.
func (s *ResourceStock) Count(kind ResourceKind) int {
	if !kind.IsSingle() {
		return 0
	}
	return int(s.Counts[kind.bitIndex()])
}

// TotalCount sums the counts over every accepted kind.
func (s *ResourceStock) TotalCount() int {
	total := 0
	for _, c := range s.Counts {
		total += int(c)
	}
	return total
}

// Add stores n units of a single accepted kind. Adding an unaccepted kind is
// a programming error.
func (s *ResourceStock) Add(kind ResourceKind, n int) {
	if !kind.IsSingle() || !s.AcceptsKind(kind) {
		panic(fmt.Sprintf("resource stock does not accept %s", kind))
	}
	s.Counts[kind.bitIndex()] += uint16(n) // #nosec G115 -- stock counts stay small
}

// Remove takes up to n units of the first kind in the mask with a non-zero
// count, saturating at zero. Returns the kind removed and the count taken.
func (s *ResourceStock) Remove(kinds ResourceKind, n int) (ResourceKind, int) {
	var removedKind ResourceKind
	removed := 0
	ForEachResourceKind(kinds&s.Accepted, func(k ResourceKind) bool {
		i := k.bitIndex()
		if s.Counts[i] == 0 {
			return true
		}
		removed = minInt(n, int(s.Counts[i]))
		s.Counts[i] -= uint16(removed) // #nosec G115 -- bounded by the stored count
		removedKind = k
		return false
	})
	return removedKind, removed
}

// Clear zeroes every count.
func (s *ResourceStock) Clear() {
	s.Counts = [ResourceKindCount]uint16{}
}

// MergeFrom drains every accepted kind from other into this stock.
func (s *ResourceStock) MergeFrom(other *ResourceStock) {
	ForEachResourceKind(s.Accepted, func(k ResourceKind) bool {
		i := k.bitIndex()
		if other.AcceptsKind(k) && other.Counts[i] > 0 {
			s.Counts[i] += other.Counts[i]
			other.Counts[i] = 0
		}
		return true
	})
}

// BuildingStock is a ResourceStock with a per-kind capacity limit.
type BuildingStock struct {
	Stock      ResourceStock             `json:"stock"`
	Capacities [ResourceKindCount]uint16 `json:"capacities"`
}

// NewBuildingStock creates a stock accepting the given kinds, each capped at
// capacityPerKind.
func NewBuildingStock(accepted ResourceKind, capacityPerKind int) BuildingStock {
	bs := BuildingStock{Stock: NewResourceStock(accepted)}
	ForEachResourceKind(accepted, func(k ResourceKind) bool {
		bs.Capacities[k.bitIndex()] = uint16(capacityPerKind) // #nosec G115 -- config values are small
		return true
	})
	return bs
}

// Receivable returns how many more units of the kind fit.
func (bs *BuildingStock) Receivable(kind ResourceKind) int {
	if !kind.IsSingle() || !bs.Stock.AcceptsKind(kind) {
		return 0
	}
	i := kind.bitIndex()
	return int(bs.Capacities[i]) - int(bs.Stock.Counts[i])
}

// Receive stores up to n units, returning how many were accepted.
func (bs *BuildingStock) Receive(kind ResourceKind, n int) int {
	room := bs.Receivable(kind)
	accepted := minInt(n, room)
	if accepted > 0 {
		bs.Stock.Add(kind, accepted)
	}
	return accepted
}

// IsFull reports whether every accepted kind is at capacity.
func (bs *BuildingStock) IsFull() bool {
	full := true
	ForEachResourceKind(bs.Stock.Accepted, func(k ResourceKind) bool {
		if bs.Receivable(k) > 0 {
			full = false
			return false
		}
		return true
	})
	return full
}

// ShoppingItem is one entry of a shopping list.
type ShoppingItem struct {
	Kind   ResourceKind `json:"kind"`
	Wanted int          `json:"wanted"`
}

// ShoppingList is an ordered sequence of wanted resources, capped at one item
// per resource kind.
type ShoppingList struct {
	items []ShoppingItem
}

// Push appends an item. Lists never exceed ResourceKindCount entries.
func (sl *ShoppingList) Push(kind ResourceKind, wanted int) {
	if len(sl.items) >= ResourceKindCount || wanted <= 0 {
		return
	}
	sl.items = append(sl.items, ShoppingItem{Kind: kind, Wanted: wanted})
}

// Items returns the list entries in order.
func (sl *ShoppingList) Items() []ShoppingItem {
	return sl.items
}

// IsEmpty reports whether the list has no entries.
func (sl *ShoppingList) IsEmpty() bool {
	return len(sl.items) == 0
}

// Clear empties the list, keeping its allocation.
func (sl *ShoppingList) Clear() {
	sl.items = sl.items[:0]
}

// MarshalJSON encodes the list as its item array.
func (sl ShoppingList) MarshalJSON() ([]byte, error) {
	return json.Marshal(sl.items)
}

// UnmarshalJSON decodes an item array.
func (sl *ShoppingList) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &sl.items)
}

// SortByWantedDescending orders the largest shortfall first.
func (sl *ShoppingList) SortByWantedDescending() {
	sort.SliceStable(sl.items, func(i, j int) bool {
		return sl.items[i].Wanted > sl.items[j].Wanted
	})
}

// Workers tracks a building's labor pool.
type Workers struct {
	Count int `json:"count"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

// HasMinRequired reports whether the building can operate.
func (w Workers) HasMinRequired() bool {
	return w.Count >= w.Min
}

// Add employs up to n workers, returning how many were taken.
func (w *Workers) Add(n int) int {
	taken := minInt(n, w.Max-w.Count)
	if taken > 0 {
		w.Count += taken
	}
	return taken
}

// Population tracks residents of a house.
type Population struct {
	Count int `json:"count"`
	Max   int `json:"max"`
}

// Add moves up to n residents in, returning how many fit.
func (p *Population) Add(n int) int {
	taken := minInt(n, p.Max-p.Count)
	if taken > 0 {
		p.Count += taken
	}
	return taken
}

// HasRoom reports whether at least one more resident fits.
func (p Population) HasRoom() bool {
	return p.Count < p.Max
}

// Treasury is the session-wide gold counter.
type Treasury struct {
	Gold int `json:"gold"`
}

// CanAfford reports whether the treasury covers the cost.
func (t *Treasury) CanAfford(cost int) bool {
	return t.Gold >= cost
}

// Spend subtracts the cost if affordable, reporting success.
func (t *Treasury) Spend(cost int) bool {
	if !t.CanAfford(cost) {
		return false
	}
	t.Gold -= cost
	return true
}

// Earn adds gold.
func (t *Treasury) Earn(amount int) {
	t.Gold += amount
}
