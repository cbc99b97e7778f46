package game

// UnitDirection is the facing used to pick a unit's animation set. With iso y
// growing downward, the walk directions map to grid deltas: +x is SE, -x is
// NW, +y is SW, -y is NE.
type UnitDirection uint8

const (
	DirIdle UnitDirection = iota
	DirNE
	DirNW
	DirSE
	DirSW
)

// String returns the direction name.
func (d UnitDirection) String() string {
	switch d {
	case DirNE:
		return "NE"
	case DirNW:
		return "NW"
	case DirSE:
		return "SE"
	case DirSW:
		return "SW"
	default:
		return "idle"
	}
}

// DirectionBetween maps the grid delta from a to b onto a walk direction.
// Equal cells give DirIdle.
func DirectionBetween(a, b Cell) UnitDirection {
	dx := b.X - a.X
	dy := b.Y - a.Y
	switch {
	case absInt(dx) > absInt(dy):
		if dx > 0 {
			return DirSE
		}
		return DirNW
	case dy > 0:
		return DirSW
	case dy < 0:
		return DirNE
	default:
		return DirIdle
	}
}

// animSetNameForDirection returns the animation set hash for a direction.
func animSetNameForDirection(d UnitDirection) StringHash {
	switch d {
	case DirNE:
		return HashString(AnimWalkNE)
	case DirNW:
		return HashString(AnimWalkNW)
	case DirSE:
		return HashString(AnimWalkSE)
	case DirSW:
		return HashString(AnimWalkSW)
	default:
		return HashString(AnimIdle)
	}
}

// UnitNavGoal records where a path came from and where it leads, so blocked
// units can re-path and completion handlers can resolve the destination.
type UnitNavGoal struct {
	OriginKind          BuildingKind `json:"origin_kind"`
	OriginCell          Cell         `json:"origin_cell"`
	DestinationKind     BuildingKind `json:"destination_kind"`
	DestinationCell     Cell         `json:"destination_cell"`
	DestinationRoadLink Cell         `json:"destination_road_link"`
	IsBuildingGoal      bool         `json:"is_building_goal"`
}

// BuildingNavGoal describes a route between two buildings via the
// destination's road link.
func BuildingNavGoal(originKind BuildingKind, originCell Cell, dest *Building, destRoadLink Cell) *UnitNavGoal {
	return &UnitNavGoal{
		OriginKind:          originKind,
		OriginCell:          originCell,
		DestinationKind:     dest.Kind,
		DestinationCell:     dest.BaseCell,
		DestinationRoadLink: destRoadLink,
		IsBuildingGoal:      true,
	}
}

// TileNavGoal describes a route to a plain map cell.
func TileNavGoal(origin, destination Cell) *UnitNavGoal {
	return &UnitNavGoal{
		OriginCell:      origin,
		DestinationCell: destination,
		IsBuildingGoal:  false,
	}
}

// NavResultKind tags what a navigation step produced.
type NavResultKind uint8

const (
	NavIdle NavResultKind = iota
	NavMoving
	NavAdvancedCell
	NavReachedGoal
	NavPathBlocked
)

// NavResult is the outcome of one navigation step.
type NavResult struct {
	Kind      NavResultKind
	From      Cell // Moving only
	To        Cell // Moving: segment end; AdvancedCell/ReachedGoal: current cell
	Progress  float64
	Direction UnitDirection
}

// UnitNavigation advances a unit along a fixed path at a fixed segment
// duration. Callers commit cell changes to the tile map when a step reports
// AdvancedCell.
type UnitNavigation struct {
	Path            []Cell        `json:"path"`
	PathIndex       int           `json:"path_index"`
	Progress        float64       `json:"progress"` // 0..1 within the current segment
	Direction       UnitDirection `json:"direction"`
	Traversable     NodeKind      `json:"traversable"`
	SegmentDuration float64       `json:"segment_duration"`
	Goal            *UnitNavGoal  `json:"goal,omitempty"`
	Paused          bool          `json:"-"`
}

// SetMovementSpeed sets the segment duration from cells-per-second.
func (n *UnitNavigation) SetMovementSpeed(cellsPerSecond float64) {
	if cellsPerSecond > 0 {
		n.SegmentDuration = 1.0 / cellsPerSecond
	}
}

// IsFollowingPath reports whether there are segments left to walk.
func (n *UnitNavigation) IsFollowingPath() bool {
	return len(n.Path) > 0 && n.PathIndex+1 < len(n.Path)
}

// ResetPath drops the current path, keeping the goal.
func (n *UnitNavigation) ResetPath() {
	n.Path = n.Path[:0]
	n.PathIndex = 0
	n.Progress = 0
	n.Direction = DirIdle
}

// ResetPathAndGoal installs a new path (copied) and goal.
func (n *UnitNavigation) ResetPathAndGoal(path []Cell, goal *UnitNavGoal) {
	n.ResetPath()
	n.Goal = goal
	n.Path = append(n.Path, path...)
}

// Update advances the navigation by dt seconds against the current graph.
func (n *UnitNavigation) Update(g *Graph, dt float64) NavResult {
	if n.Paused || len(n.Path) == 0 || n.SegmentDuration <= 0 {
		return NavResult{Kind: NavIdle}
	}
	if n.PathIndex+1 >= len(n.Path) {
		return NavResult{Kind: NavReachedGoal, To: n.Path[n.PathIndex], Direction: n.Direction}
	}

	from := n.Path[n.PathIndex]
	to := n.Path[n.PathIndex+1]

	if !g.NodeKindAt(to).Intersects(n.Traversable) {
		return NavResult{Kind: NavPathBlocked, From: from, To: to, Direction: n.Direction}
	}

	n.Progress += dt / n.SegmentDuration
	if n.Progress >= 1.0 {
		n.PathIndex++
		n.Progress = 0
		// Look ahead for the next turn.
		if n.PathIndex+1 < len(n.Path) {
			n.Direction = DirectionBetween(to, n.Path[n.PathIndex+1])
		}
		return NavResult{Kind: NavAdvancedCell, To: to, Direction: n.Direction}
	}

	// Correct the heading on the first segment.
	if n.PathIndex == 0 {
		n.Direction = DirectionBetween(from, to)
	}
	return NavResult{Kind: NavMoving, From: from, To: to, Progress: n.Progress, Direction: n.Direction}
}
