package game

import (
	"encoding/json"
	"fmt"
	"math/bits"
)

const invalidGeneration = ^uint32(0)

// GenerationalIndex identifies a spawn-pool slot. Equality requires both the
// slot index and the generation the slot was spawned at.
type GenerationalIndex struct {
	Generation uint32 `json:"gen"`
	Index      uint32 `json:"idx"`
}

// InvalidIndex returns the reserved null index.
func InvalidIndex() GenerationalIndex {
	return GenerationalIndex{Generation: invalidGeneration, Index: ^uint32(0)}
}

// IsValid reports whether the index refers to a real slot.
func (gi GenerationalIndex) IsValid() bool {
	return gi.Generation != invalidGeneration && gi.Index != ^uint32(0)
}

// String formats the index for log output.
func (gi GenerationalIndex) String() string {
	if !gi.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%d:%d", gi.Index, gi.Generation)
}

// BitSet is a growable bit vector tracking live spawn-pool slots.
type BitSet struct {
	words []uint64
	size  int
}

// NewBitSet creates a bit set with the given number of bits, all zero.
func NewBitSet(size int) BitSet {
	return BitSet{words: make([]uint64, (size+63)/64), size: size}
}

// Len returns the number of bits.
func (b *BitSet) Len() int { return b.size }

// Get returns bit i.
func (b *BitSet) Get(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i/64]&(1<<(i%64)) != 0
}

// Set writes bit i.
func (b *BitSet) Set(i int, on bool) {
	if i < 0 || i >= b.size {
		return
	}
	if on {
		b.words[i/64] |= 1 << (i % 64)
	} else {
		b.words[i/64] &^= 1 << (i % 64)
	}
}

// Append grows the set by one zero bit.
func (b *BitSet) Append() {
	if b.size%64 == 0 {
		b.words = append(b.words, 0)
	}
	b.size++
}

// FirstZero returns the index of the lowest zero bit, or -1 if all are set.
func (b *BitSet) FirstZero() int {
	for w, word := range b.words {
		if word != ^uint64(0) {
			i := w*64 + bits.TrailingZeros64(^word)
			if i < b.size {
				return i
			}
		}
	}
	return -1
}

// CountOnes returns the number of set bits.
func (b *BitSet) CountOnes() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clear zeroes every bit.
func (b *BitSet) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Poolable is implemented by everything a SpawnPool can own.
type Poolable interface {
	SpawnedID() GenerationalIndex
	SetSpawnedID(GenerationalIndex)
}

// SpawnPool owns a reusable set of instances addressed by generational index.
// Slots are recycled lowest-index-first; the generation counter makes stale
// handles detectable after a slot is reused.
type SpawnPool[T Poolable] struct {
	instances   []T
	spawned     BitSet
	generation  uint32
	newInstance func() T
}

// NewSpawnPool creates a pool with the given initial capacity. newInstance
// allocates one default slot; it is also used to rebuild slots on load.
func NewSpawnPool[T Poolable](capacity int, newInstance func() T) *SpawnPool[T] {
	p := &SpawnPool[T]{
		instances:   make([]T, 0, capacity),
		spawned:     NewBitSet(0),
		newInstance: newInstance,
	}
	return p
}

// Spawn claims the lowest free slot (appending if none), bumps the pool
// generation, stamps the instance id, runs onSpawn, and marks the slot live.
func (p *SpawnPool[T]) Spawn(onSpawn func(T)) T {
	i := p.spawned.FirstZero()
	if i < 0 {
		i = len(p.instances)
		p.instances = append(p.instances, p.newInstance())
		p.spawned.Append()
	}
	p.generation++
	if p.generation == invalidGeneration {
		p.generation = 1
	}
	inst := p.instances[i]
	inst.SetSpawnedID(GenerationalIndex{Generation: p.generation, Index: uint32(i)}) // #nosec G115 -- pool sizes fit uint32
	if onSpawn != nil {
		onSpawn(inst)
	}
	p.spawned.Set(i, true)
	return inst
}

// Despawn releases an instance's slot. The instance must currently be live
// and identical to the slot occupant.
func (p *SpawnPool[T]) Despawn(inst T, onDespawn func(T)) error {
	id := inst.SpawnedID()
	i := int(id.Index)
	if !id.IsValid() || i >= len(p.instances) || !p.spawned.Get(i) {
		return fmt.Errorf("despawn of non-spawned instance %s", id)
	}
	if p.instances[i].SpawnedID() != id {
		return fmt.Errorf("despawn identity mismatch at slot %d", i)
	}
	if onDespawn != nil {
		onDespawn(inst)
	}
	p.spawned.Set(i, false)
	return nil
}

// TryGet resolves a generational index to its live instance.
func (p *SpawnPool[T]) TryGet(id GenerationalIndex) (T, bool) {
	var zero T
	i := int(id.Index)
	if !id.IsValid() || i >= len(p.instances) || !p.spawned.Get(i) {
		return zero, false
	}
	inst := p.instances[i]
	if inst.SpawnedID().Generation != id.Generation {
		return zero, false
	}
	return inst, true
}

// ForEach visits every live instance in slot order. Returning false stops.
func (p *SpawnPool[T]) ForEach(visit func(T) bool) {
	for i, inst := range p.instances {
		if !p.spawned.Get(i) {
			continue
		}
		if !visit(inst) {
			return
		}
	}
}

// Count returns the number of live instances.
func (p *SpawnPool[T]) Count() int {
	return p.spawned.CountOnes()
}

// Reset despawns everything and restarts the generation counter.
func (p *SpawnPool[T]) Reset() {
	p.instances = p.instances[:0]
	p.spawned = NewBitSet(0)
	p.generation = 0
}

type spawnPoolSaveState struct {
	SpawnedCount  int                 `json:"spawned_count"`
	InstanceCount int                 `json:"instance_count"`
	Generation    uint32              `json:"generation"`
	Instances     []spawnPoolSaveSlot `json:"instances"`
}

type spawnPoolSaveSlot struct {
	Index int             `json:"index"`
	Data  json.RawMessage `json:"data"`
}

// MarshalJSON writes the pool header followed by each live instance.
func (p *SpawnPool[T]) MarshalJSON() ([]byte, error) {
	state := spawnPoolSaveState{
		SpawnedCount:  p.Count(),
		InstanceCount: len(p.instances),
		Generation:    p.generation,
	}
	for i, inst := range p.instances {
		if !p.spawned.Get(i) {
			continue
		}
		data, err := json.Marshal(inst)
		if err != nil {
			return nil, fmt.Errorf("pool slot %d: %w", i, err)
		}
		state.Instances = append(state.Instances, spawnPoolSaveSlot{Index: i, Data: data})
	}
	return json.Marshal(&state)
}

// UnmarshalJSON rebuilds the pool from a saved header plus live instances.
func (p *SpawnPool[T]) UnmarshalJSON(data []byte) error {
	var state spawnPoolSaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Generation == invalidGeneration {
		return fmt.Errorf("pool save has reserved generation value")
	}
	if len(state.Instances) != state.SpawnedCount {
		return fmt.Errorf("pool save header mismatch: %d slots, %d expected",
			len(state.Instances), state.SpawnedCount)
	}
	p.instances = make([]T, state.InstanceCount)
	p.spawned = NewBitSet(state.InstanceCount)
	p.generation = state.Generation
	for i := range p.instances {
		p.instances[i] = p.newInstance()
	}
	for _, slot := range state.Instances {
		if slot.Index < 0 || slot.Index >= state.InstanceCount {
			return fmt.Errorf("pool save slot index %d out of range", slot.Index)
		}
		if err := json.Unmarshal(slot.Data, p.instances[slot.Index]); err != nil {
			return fmt.Errorf("pool slot %d: %w", slot.Index, err)
		}
		p.spawned.Set(slot.Index, true)
	}
	return nil
}
