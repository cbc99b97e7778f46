package game

import (
	"fmt"
)

// TaskKind classifies what a dispatched unit is doing.
type TaskKind uint8

const (
	TaskDeliverToStorage TaskKind = iota
	TaskFetchFromStorage
	TaskRandomizedPatrol
	TaskMigrate // settler walking to a house; completes on arrival
)

// String returns the task kind name.
func (k TaskKind) String() string {
	switch k {
	case TaskDeliverToStorage:
		return "deliver_to_storage"
	case TaskFetchFromStorage:
		return "fetch_from_storage"
	case TaskRandomizedPatrol:
		return "randomized_patrol"
	default:
		return "migrate"
	}
}

// TaskPhase splits round-trip tasks into their two legs.
type TaskPhase uint8

const (
	TaskPhaseOutbound TaskPhase = iota
	TaskPhaseReturning
)

// Task is one dispatched unit errand. The owning building holds the unit by
// id; the task records the destination set, cargo list, and the name of the
// completion callback so the linkage survives save/load.
type Task struct {
	ID             GenerationalIndex `json:"id"`
	Kind           TaskKind          `json:"kind"`
	Phase          TaskPhase         `json:"phase"`
	UnitID         GenerationalIndex `json:"unit_id"`
	Owner          GameObjectHandle  `json:"owner"`
	OriginRoadLink Cell              `json:"origin_road_link"`
	TargetKinds    BuildingKind      `json:"target_kinds"`
	Destination    GameObjectHandle  `json:"destination"`
	FetchList      ShoppingList      `json:"fetch_list"`
	CallbackName   string            `json:"callback_name"`
	CollectedGold  int               `json:"collected_gold"`
	Failed         bool              `json:"failed"`
}

// SpawnedID implements Poolable.
func (t *Task) SpawnedID() GenerationalIndex { return t.ID }

// SetSpawnedID implements Poolable.
func (t *Task) SetSpawnedID(id GenerationalIndex) { t.ID = id }

// TaskCallback runs when a task finishes (or fails). Returning true keeps
// the task alive: the callback re-dispatched the unit on a new leg.
type TaskCallback func(owner *Building, u *Unit, task *Task, q *Query) bool

// taskCallbacks is the process-wide registry. Callbacks are registered by
// name at init time so tasks can reference them across save/load.
var taskCallbacks = map[string]TaskCallback{}

// RegisterTaskCallback installs a completion callback under a stable name.
// Double registration of a name is a programming error.
func RegisterTaskCallback(name string, fn TaskCallback) {
	if _, exists := taskCallbacks[name]; exists {
		panic(fmt.Sprintf("task callback %q registered twice", name))
	}
	taskCallbacks[name] = fn
}

// TaskManager owns every in-flight task in a generational pool.
type TaskManager struct {
	pool *SpawnPool[*Task]
}

// NewTaskManager creates an empty manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		pool: NewSpawnPool(64, func() *Task { return &Task{ID: InvalidIndex()} }),
	}
}

// Pool exposes the task pool for serialization.
func (tm *TaskManager) Pool() *SpawnPool[*Task] { return tm.pool }

// TryGet resolves a task id.
func (tm *TaskManager) TryGet(id GenerationalIndex) (*Task, bool) {
	return tm.pool.TryGet(id)
}

// Count returns the number of in-flight tasks.
func (tm *TaskManager) Count() int { return tm.pool.Count() }

// findDestination picks the building of the wanted kinds with the shortest
// road path from the given cell that passes the filter. Every road cell
// bordering a candidate counts as an entrance, so a building straddling a
// road stays reachable from whichever side still connects. Returns the
// building and the path to its road link.
func findDestination(q *Query, from Cell, targetKinds BuildingKind, filter func(*Building) bool) (*Building, []Cell) {
	var best *Building
	var bestPath []Cell
	q.World().ForEachBuildingOfKind(targetKinds, func(b *Building) bool {
		if filter != nil && !filter(b) {
			return true
		}
		for _, link := range q.Graph().FindRoadLinks(b.CellRange()) {
			if q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, RoadLikeNodes, from, link) != PathFound {
				continue
			}
			path := q.Search().Path()
			if best == nil || len(path) < len(bestPath) {
				best = b
				bestPath = append(bestPath[:0], path...)
			}
		}
		return true
	})
	return best, bestPath
}

// StartDeliverToStorage spawns a runner at the owner's road link carrying
// cargo, walking to the nearest storage that can receive it. Returns the
// unit, or nil when no road link or destination exists (soft failure).
func (tm *TaskManager) StartDeliverToStorage(q *Query, owner *Building, unitName string,
	cargoKind ResourceKind, cargoCount int, callbackName string) *Unit {

	var (
		link Cell
		dest *Building
		path []Cell
	)
	for _, l := range q.Graph().FindRoadLinks(owner.CellRange()) {
		dest, path = findDestination(q, l, BuildingKindStorages, func(b *Building) bool {
			return b.Behavior.ReceivableResources(cargoKind) > 0
		})
		if dest != nil {
			link = l
			break
		}
	}
	if dest == nil {
		return nil
	}

	u, err := q.World().SpawnUnit(q, unitName, link)
	if err != nil {
		q.Log().Warnf(LogChannelBuilding, "%s: failed to spawn runner: %v", owner.Name, err)
		return nil
	}
	u.Inventory.Add(cargoKind, cargoCount)

	task := tm.pool.Spawn(func(t *Task) {
		*t = Task{
			ID:             t.ID,
			Kind:           TaskDeliverToStorage,
			Phase:          TaskPhaseOutbound,
			UnitID:         u.ID,
			Owner:          owner.Handle(),
			OriginRoadLink: link,
			TargetKinds:    BuildingKindStorages,
			Destination:    dest.Handle(),
			CallbackName:   callbackName,
		}
	})
	u.TaskID = task.ID
	u.FollowPath(path, BuildingNavGoal(owner.Kind, owner.BaseCell, dest, path[len(path)-1]))
	return u
}

// StartFetchFromStorage spawns a runner to collect the shopping list from the
// nearest storage stocking any wanted kind.
func (tm *TaskManager) StartFetchFromStorage(q *Query, owner *Building, unitName string,
	list ShoppingList, targetKinds BuildingKind, callbackName string) *Unit {

	if list.IsEmpty() {
		return nil
	}
	list.SortByWantedDescending()
	stocksAnyWanted := func(b *Building) bool {
		for _, item := range list.Items() {
			if b.Behavior.AvailableResources(item.Kind) > 0 {
				return true
			}
		}
		return false
	}
	var (
		link Cell
		dest *Building
		path []Cell
	)
	for _, l := range q.Graph().FindRoadLinks(owner.CellRange()) {
		dest, path = findDestination(q, l, targetKinds, stocksAnyWanted)
		if dest != nil {
			link = l
			break
		}
	}
	if dest == nil {
		return nil
	}

	u, err := q.World().SpawnUnit(q, unitName, link)
	if err != nil {
		q.Log().Warnf(LogChannelBuilding, "%s: failed to spawn runner: %v", owner.Name, err)
		return nil
	}

	task := tm.pool.Spawn(func(t *Task) {
		*t = Task{
			ID:             t.ID,
			Kind:           TaskFetchFromStorage,
			Phase:          TaskPhaseOutbound,
			UnitID:         u.ID,
			Owner:          owner.Handle(),
			OriginRoadLink: link,
			TargetKinds:    targetKinds,
			Destination:    dest.Handle(),
			FetchList:      list,
			CallbackName:   callbackName,
		}
	})
	u.TaskID = task.ID
	u.FollowPath(path, BuildingNavGoal(owner.Kind, owner.BaseCell, dest, path[len(path)-1]))
	return u
}

// StartRandomizedPatrol spawns a patrol unit walking a biased random route of
// roughly maxDistance road cells and back.
func (tm *TaskManager) StartRandomizedPatrol(q *Query, owner *Building, unitName string,
	maxDistance int, callbackName string) *Unit {

	bias := &WaypointBias{Min: 0, Max: 2, Rng: q.Rng()}
	var (
		link Cell
		path []Cell
	)
	for _, l := range q.Graph().FindRoadLinks(owner.CellRange()) {
		if q.Search().FindWaypoints(q.Graph(), RoadLikeNodes, l, maxDistance, bias) != PathFound {
			continue
		}
		if p := q.Search().Path(); len(p) >= 2 {
			link = l
			path = append([]Cell(nil), p...)
			break
		}
	}
	if len(path) == 0 {
		return nil
	}

	u, err := q.World().SpawnUnit(q, unitName, link)
	if err != nil {
		q.Log().Warnf(LogChannelBuilding, "%s: failed to spawn patrol: %v", owner.Name, err)
		return nil
	}

	task := tm.pool.Spawn(func(t *Task) {
		*t = Task{
			ID:             t.ID,
			Kind:           TaskRandomizedPatrol,
			Phase:          TaskPhaseOutbound,
			UnitID:         u.ID,
			Owner:          owner.Handle(),
			OriginRoadLink: link,
			CallbackName:   callbackName,
		}
	})
	u.TaskID = task.ID
	u.FollowPath(path, TileNavGoal(link, path[len(path)-1]))
	return u
}

// StartMigrate walks a settler from a spawn point to the destination house.
// Settlers travel over open land as well as roads.
func (tm *TaskManager) StartMigrate(q *Query, unitName string, from Cell, dest *Building,
	callbackName string) *Unit {

	traversable := NodeEmptyLand | NodeVacantLot | RoadLikeNodes | NodeSettlersSpawnPoint
	goalCell := InvalidCell
	for _, l := range q.Graph().FindRoadLinks(dest.CellRange()) {
		if q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, traversable, from, l) == PathFound {
			goalCell = l
			break
		}
	}
	if !goalCell.IsValid() {
		goalCell = dest.BaseCell.Add(-1, 0)
		if q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, traversable, from, goalCell) != PathFound {
			return nil
		}
	}
	path := append([]Cell(nil), q.Search().Path()...)

	u, err := q.World().SpawnUnit(q, unitName, from)
	if err != nil {
		q.Log().Warnf(LogChannelSystems, "failed to spawn settler: %v", err)
		return nil
	}
	u.Nav.Traversable = traversable

	task := tm.pool.Spawn(func(t *Task) {
		*t = Task{
			ID:             t.ID,
			Kind:           TaskMigrate,
			Phase:          TaskPhaseOutbound,
			UnitID:         u.ID,
			Owner:          dest.Handle(),
			OriginRoadLink: from,
			Destination:    dest.Handle(),
			CallbackName:   callbackName,
		}
	})
	u.TaskID = task.ID
	u.FollowPath(path, BuildingNavGoal(0, from, dest, goalCell))
	return u
}

// onUnitReachedGoal advances the task state machine when a unit finishes its
// current path leg.
func (tm *TaskManager) onUnitReachedGoal(u *Unit, q *Query) {
	task, ok := tm.TryGet(u.TaskID)
	if !ok {
		q.Log().Warnf(LogChannelUnit, "unit %s has stale task id %s", u.Name, u.TaskID)
		u.TaskID = InvalidIndex()
		u.Nav.ResetPath()
		return
	}

	switch task.Phase {
	case TaskPhaseOutbound:
		tm.onOutboundArrival(u, task, q)
	case TaskPhaseReturning:
		tm.finish(u, task, q)
	}
}

func (tm *TaskManager) onOutboundArrival(u *Unit, task *Task, q *Query) {
	switch task.Kind {
	case TaskDeliverToStorage:
		if dest, ok := q.World().FindBuildingByHandle(task.Destination); ok {
			dest.Behavior.VisitedBy(dest, u, q)
		}
		// Leftover cargo: try the next storage with room before heading home.
		if u.Inventory.TotalCount() > 0 {
			if tm.redirectDeliver(u, task, q) {
				return
			}
			q.Log().Warnf(LogChannelBuilding, "runner %s returning with %d undeliverable units",
				u.Name, u.Inventory.TotalCount())
		}
		tm.beginReturn(u, task, q)

	case TaskFetchFromStorage:
		if dest, ok := q.World().FindBuildingByHandle(task.Destination); ok {
			dest.Behavior.VisitedBy(dest, u, q)
		}
		tm.beginReturn(u, task, q)

	case TaskRandomizedPatrol:
		tm.beginReturn(u, task, q)

	case TaskMigrate:
		if dest, ok := q.World().FindBuildingByHandle(task.Destination); ok {
			dest.Behavior.VisitedBy(dest, u, q)
		}
		tm.finish(u, task, q)
	}
}

// redirectDeliver re-routes a runner with leftover cargo to the next storage
// that can take any of it. Reports whether a new leg was dispatched.
func (tm *TaskManager) redirectDeliver(u *Unit, task *Task, q *Query) bool {
	prev := task.Destination
	dest, path := findDestination(q, u.Cell, task.TargetKinds, func(b *Building) bool {
		if b.Handle() == prev {
			return false
		}
		room := false
		ForEachResourceKind(u.Inventory.Accepted, func(k ResourceKind) bool {
			if u.Inventory.Count(k) > 0 && b.Behavior.ReceivableResources(k) > 0 {
				room = true
				return false
			}
			return true
		})
		return room
	})
	if dest == nil {
		return false
	}
	task.Destination = dest.Handle()
	u.FollowPath(path, BuildingNavGoal(0, u.Cell, dest, path[len(path)-1]))
	return true
}

// beginReturn routes the unit back to its origin road link.
func (tm *TaskManager) beginReturn(u *Unit, task *Task, q *Query) {
	task.Phase = TaskPhaseReturning
	if u.Cell == task.OriginRoadLink {
		tm.finish(u, task, q)
		return
	}
	if q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, u.Nav.Traversable, u.Cell, task.OriginRoadLink) != PathFound {
		q.Log().Warnf(LogChannelUnit, "unit %s cannot path home from (%d,%d)",
			u.Name, u.Cell.X, u.Cell.Y)
		task.Failed = true
		tm.finish(u, task, q)
		return
	}
	u.FollowPath(q.Search().Path(), TileNavGoal(u.Cell, task.OriginRoadLink))
}

// onUnitBlocked handles a unit whose next path cell became untraversable:
// re-path toward the current leg's destination, failing the task if no route
// remains.
func (tm *TaskManager) onUnitBlocked(u *Unit, q *Query) {
	task, ok := tm.TryGet(u.TaskID)
	if !ok {
		u.Nav.ResetPath()
		return
	}
	goal := u.Nav.Goal
	if goal != nil &&
		q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, u.Nav.Traversable, u.Cell, goal.DestinationRoadLink) == PathFound {
		u.FollowPath(q.Search().Path(), goal)
		return
	}
	if goal != nil && !goal.IsBuildingGoal &&
		q.Search().FindPath(q.Graph(), ManhattanHeuristic{}, u.Nav.Traversable, u.Cell, goal.DestinationCell) == PathFound {
		u.FollowPath(q.Search().Path(), goal)
		return
	}
	q.Log().Warnf(LogChannelUnit, "unit %s path blocked with no alternative", u.Name)
	task.Failed = true
	tm.finish(u, task, q)
}

// finish invokes the completion callback and, unless the callback kept the
// task alive, despawns the unit and releases the task slot.
func (tm *TaskManager) finish(u *Unit, task *Task, q *Query) {
	keepAlive := false
	if task.CallbackName != "" {
		fn, ok := taskCallbacks[task.CallbackName]
		if !ok {
			q.Log().Errorf(LogChannelSystems, "unknown task callback %q", task.CallbackName)
		} else {
			owner, _ := q.World().FindBuildingByHandle(task.Owner)
			keepAlive = fn(owner, u, task, q)
		}
	}
	if keepAlive {
		return
	}
	u.TaskID = InvalidIndex()
	q.World().DespawnUnit(q, u)
	if err := tm.pool.Despawn(task, nil); err != nil {
		q.Log().Errorf(LogChannelSystems, "task despawn: %v", err)
	}
}

// onUnitAdvanced lets patrol tasks act on every cell they pass: tax patrols
// collect accrued gold from houses within one cell of the route.
func (tm *TaskManager) onUnitAdvanced(u *Unit, q *Query) {
	task, ok := tm.TryGet(u.TaskID)
	if !ok || task.Kind != TaskRandomizedPatrol {
		return
	}
	owner, ok := q.World().FindBuildingByHandle(task.Owner)
	if !ok || !owner.Kind.Intersects(BuildingKindTaxOffice) {
		return
	}
	around := CellRange{Start: u.Cell.Add(-1, -1), End: u.Cell.Add(1, 1)}
	q.World().ForEachBuildingOfKind(BuildingKindHouse, func(b *Building) bool {
		if !b.CellRange().Intersects(around) {
			return true
		}
		if house, ok := b.Behavior.(*HouseState); ok {
			task.CollectedGold += house.CollectTax()
		}
		return true
	})
}
