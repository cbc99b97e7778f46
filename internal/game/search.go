package game

import (
	"container/heap"
	"math"
	"math/rand"
)

// Heuristic supplies the cost model for a path search.
type Heuristic interface {
	// Estimate is the admissible estimate from a node to the goal.
	Estimate(from, goal Cell) int
	// MovementCost is the exact cost of stepping between adjacent nodes.
	MovementCost(from, to Cell) int
}

// ManhattanHeuristic is the default: Manhattan estimate, uniform step cost.
type ManhattanHeuristic struct{}

func (ManhattanHeuristic) Estimate(from, goal Cell) int { return from.ManhattanDistance(goal) }
func (ManhattanHeuristic) MovementCost(Cell, Cell) int  { return 1 }

// WaypointBias adds a random per-step cost to a waypoint search so repeated
// patrols from the same start spread out instead of replaying one route.
type WaypointBias struct {
	Min int
	Max int
	Rng *rand.Rand
}

func (b *WaypointBias) sample() int {
	if b == nil || b.Rng == nil || b.Max <= b.Min {
		return 0
	}
	return b.Min + b.Rng.Intn(b.Max-b.Min+1)
}

// SearchResult reports whether a search succeeded.
type SearchResult uint8

const (
	PathNotFound SearchResult = iota
	PathFound
)

type frontierNode struct {
	cell     Cell
	priority int
	index    int // heap index
}

type frontier []*frontierNode

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].priority < f[j].priority }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i]; f[i].index = i; f[j].index = j }
func (f *frontier) Push(x interface{}) { n := x.(*frontierNode); n.index = len(*f); *f = append(*f, n) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*f = old[:len(old)-1]
	return n
}

var cardinalDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Search runs A* and bounded waypoint queries over a Graph, reusing its
// internal buffers across calls.
type Search struct {
	size      Size
	costSoFar []int
	cameFrom  []Cell
	open      frontier
	path      []Cell
}

// NewSearch creates a search sized for the given graph dimensions.
func NewSearch(size Size) *Search {
	n := size.W * size.H
	s := &Search{
		size:      size,
		costSoFar: make([]int, n),
		cameFrom:  make([]Cell, n),
	}
	s.reset()
	return s
}

// Path returns the node list produced by the last successful search, ordered
// start to goal with the start included. Valid until the next search call.
func (s *Search) Path() []Cell {
	return s.path
}

func (s *Search) reset() {
	for i := range s.costSoFar {
		s.costSoFar[i] = math.MaxInt
	}
	for i := range s.cameFrom {
		s.cameFrom[i] = InvalidCell
	}
	s.open = s.open[:0]
	s.path = s.path[:0]
}

func (s *Search) index(c Cell) int { return c.Y*s.size.W + c.X }

func (s *Search) buildPath(goal Cell) {
	for c := goal; c.IsValid(); c = s.cameFrom[s.index(c)] {
		s.path = append(s.path, c)
	}
	for i, j := 0, len(s.path)-1; i < j; i, j = i+1, j-1 {
		s.path[i], s.path[j] = s.path[j], s.path[i]
	}
}

// FindPath runs goal-directed A* over nodes whose kind intersects
// traversable. On PathFound the path is available via Path().
func (s *Search) FindPath(g *Graph, h Heuristic, traversable NodeKind, start, goal Cell) SearchResult {
	s.reset()
	if !g.InBounds(start) || !g.InBounds(goal) {
		return PathNotFound
	}
	if !g.NodeKindAt(start).Intersects(traversable) || !g.NodeKindAt(goal).Intersects(traversable) {
		return PathNotFound
	}

	s.costSoFar[s.index(start)] = 0
	heap.Push(&s.open, &frontierNode{cell: start, priority: h.Estimate(start, goal)})

	for s.open.Len() > 0 {
		cur := heap.Pop(&s.open).(*frontierNode).cell
		if cur == goal {
			s.buildPath(goal)
			return PathFound
		}
		curCost := s.costSoFar[s.index(cur)]
		for _, d := range cardinalDirs {
			next := cur.Add(d[0], d[1])
			if !g.InBounds(next) || !g.NodeKindAt(next).Intersects(traversable) {
				continue
			}
			newCost := curCost + h.MovementCost(cur, next)
			ni := s.index(next)
			if newCost >= s.costSoFar[ni] {
				continue
			}
			s.costSoFar[ni] = newCost
			s.cameFrom[ni] = cur
			heap.Push(&s.open, &frontierNode{cell: next, priority: newCost + h.Estimate(next, goal)})
		}
	}
	return PathNotFound
}

// FindWaypoints runs a bounded Dijkstra flood from start, returning via
// Path() the route to a node at roughly maxDistance. It stops at the first
// popped node whose Manhattan distance from start reaches the bound; if the
// flood exhausts first, the farthest node explored is used. bias may be nil.
func (s *Search) FindWaypoints(g *Graph, traversable NodeKind, start Cell, maxDistance int, bias *WaypointBias) SearchResult {
	s.reset()
	if !g.InBounds(start) || !g.NodeKindAt(start).Intersects(traversable) {
		return PathNotFound
	}

	s.costSoFar[s.index(start)] = 0
	heap.Push(&s.open, &frontierNode{cell: start})

	farthest := start
	farthestDist := 0

	for s.open.Len() > 0 {
		cur := heap.Pop(&s.open).(*frontierNode).cell
		dist := start.ManhattanDistance(cur)
		if dist >= maxDistance {
			s.buildPath(cur)
			return PathFound
		}
		if dist > farthestDist {
			farthest = cur
			farthestDist = dist
		}
		curCost := s.costSoFar[s.index(cur)]
		for _, d := range cardinalDirs {
			next := cur.Add(d[0], d[1])
			if !g.InBounds(next) || !g.NodeKindAt(next).Intersects(traversable) {
				continue
			}
			if start.ManhattanDistance(next) > maxDistance {
				continue
			}
			newCost := curCost + 1 + bias.sample()
			ni := s.index(next)
			if newCost >= s.costSoFar[ni] {
				continue
			}
			s.costSoFar[ni] = newCost
			s.cameFrom[ni] = cur
			heap.Push(&s.open, &frontierNode{cell: next, priority: newCost})
		}
	}

	s.buildPath(farthest)
	return PathFound
}

// FindPathToNode floods outward from start until it pops a node whose kind
// intersects goalKinds, returning the route to it.
func (s *Search) FindPathToNode(g *Graph, traversable, goalKinds NodeKind, start Cell) SearchResult {
	s.reset()
	if !g.InBounds(start) || !g.NodeKindAt(start).Intersects(traversable|goalKinds) {
		return PathNotFound
	}

	s.costSoFar[s.index(start)] = 0
	heap.Push(&s.open, &frontierNode{cell: start})

	for s.open.Len() > 0 {
		cur := heap.Pop(&s.open).(*frontierNode).cell
		if g.NodeKindAt(cur).Intersects(goalKinds) {
			s.buildPath(cur)
			return PathFound
		}
		curCost := s.costSoFar[s.index(cur)]
		for _, d := range cardinalDirs {
			next := cur.Add(d[0], d[1])
			if !g.InBounds(next) {
				continue
			}
			kind := g.NodeKindAt(next)
			if !kind.Intersects(traversable | goalKinds) {
				continue
			}
			newCost := curCost + 1
			ni := s.index(next)
			if newCost >= s.costSoFar[ni] {
				continue
			}
			s.costSoFar[ni] = newCost
			s.cameFrom[ni] = cur
			heap.Push(&s.open, &frontierNode{cell: next, priority: newCost})
		}
	}
	return PathNotFound
}
