package game

// settlerSpawnFrequencySecs paces new arrivals at the map edge.
const settlerSpawnFrequencySecs = 6.0

// settlerUnitName is the tile/config name of migrating settlers.
const settlerUnitName = "settler"

func init() {
	RegisterTaskCallback("settler_arrived", settlerArrived)
}

// SettlersSystem walks new settlers in from spawn-point tiles toward houses
// with room. One settler is in flight at a time.
type SettlersSystem struct {
	SpawnTimer UpdateTimer       `json:"spawn_timer"`
	SettlerID  GenerationalIndex `json:"settler_id"`
}

// NewSettlersSystem creates the system with the default spawn cadence.
func NewSettlersSystem() SettlersSystem {
	return SettlersSystem{
		SpawnTimer: NewUpdateTimer(settlerSpawnFrequencySecs),
		SettlerID:  InvalidIndex(),
	}
}

// Update fires the spawn timer and dispatches a settler when a house has room.
func (ss *SettlersSystem) Update(q *Query) {
	if !ss.SpawnTimer.Tick(q.DeltaTime()) {
		return
	}
	if _, alive := q.World().units.TryGet(ss.SettlerID); alive {
		return
	}
	ss.SettlerID = InvalidIndex()

	var dest *Building
	q.World().ForEachBuildingOfKind(BuildingKindHouse, func(b *Building) bool {
		if h, ok := b.Behavior.(*HouseState); ok && h.Pop.HasRoom() {
			dest = b
			return false
		}
		return true
	})
	if dest == nil {
		return
	}
	spawn, ok := ss.findSpawnPoint(q)
	if !ok {
		return
	}
	u := q.Tasks().StartMigrate(q, settlerUnitName, spawn, dest, "settler_arrived")
	if u != nil {
		ss.SettlerID = u.ID
	}
}

// findSpawnPoint returns the first settlers spawn cell on the map.
func (ss *SettlersSystem) findSpawnPoint(q *Query) (Cell, bool) {
	size := q.Graph().Size()
	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			c := Cell{X: x, Y: y}
			if q.Graph().NodeKindAt(c).Intersects(NodeSettlersSpawnPoint) {
				return c, true
			}
		}
	}
	return InvalidCell, false
}

// settlerArrived logs the arrival; the house moved the settlers in on visit.
func settlerArrived(owner *Building, u *Unit, task *Task, q *Query) bool {
	if owner == nil {
		q.Log().Warnf(LogChannelSystems, "settler arrived at a demolished house")
	}
	return false
}
