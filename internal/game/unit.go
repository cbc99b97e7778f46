package game

// Unit is one walking game object: a runner hauling cargo, a service patrol,
// or an arriving settler. Units live in the world's unit pool; their tile
// stacks in the object layer of the map.
type Unit struct {
	Name      string            `json:"name"`
	ID        GenerationalIndex `json:"id"`
	Cell      Cell              `json:"cell"`
	Inventory ResourceStock     `json:"inventory"`
	Nav       UnitNavigation    `json:"nav"`
	Direction UnitDirection     `json:"direction"`
	TaskID    GenerationalIndex `json:"task_id"`

	config *UnitConfig
	tile   *Tile
}

// SpawnedID implements Poolable.
func (u *Unit) SpawnedID() GenerationalIndex { return u.ID }

// SetSpawnedID implements Poolable.
func (u *Unit) SetSpawnedID(id GenerationalIndex) { u.ID = id }

// Handle returns the unit's game-object handle.
func (u *Unit) Handle() GameObjectHandle {
	return GameObjectHandle{Kind: ObjectKindUnit, ID: u.ID}
}

// Config returns the unit's config record.
func (u *Unit) Config() *UnitConfig { return u.config }

// Tile returns the unit's map tile, nil between despawn and removal.
func (u *Unit) Tile() *Tile { return u.tile }

// setup initializes a freshly spawned unit on its tile.
func (u *Unit) setup(cfg *UnitConfig, cell Cell, tile *Tile) {
	u.Name = cfg.Name
	u.Cell = cell
	u.Inventory = NewResourceStock(AllResources)
	u.Nav = UnitNavigation{Traversable: RoadLikeNodes}
	u.Nav.SetMovementSpeed(cfg.MovementSpeed)
	u.Direction = DirIdle
	u.TaskID = InvalidIndex()
	u.config = cfg
	u.tile = tile
	tile.Handle = u.Handle()
}

// attachTile re-links the unit to its map tile, used by load and teleport.
func (u *Unit) attachTile(t *Tile) {
	u.tile = t
	if t != nil {
		t.Handle = u.Handle()
	}
}

// SetDirection updates the facing and swaps the tile's animation set.
func (u *Unit) SetDirection(d UnitDirection) {
	if d == u.Direction {
		return
	}
	u.Direction = d
	if u.tile != nil {
		u.tile.SetAnimSetByName(animSetNameForDirection(d))
	}
}

// FollowPath installs a path and goal; the unit starts walking next tick.
func (u *Unit) FollowPath(path []Cell, goal *UnitNavGoal) {
	u.Nav.ResetPathAndGoal(path, goal)
}

// Teleport moves the unit instantly, cancelling any in-flight path.
func (u *Unit) Teleport(tm *TileMap, dest Cell) error {
	if u.tile == nil {
		return ErrNoSuchTile
	}
	if err := tm.TryMoveTile(u.tile, dest); err != nil {
		return err
	}
	u.Cell = dest
	u.Nav.ResetPath()
	u.SetDirection(DirIdle)
	u.tile.IsoAdjust = Vec2{}
	return nil
}

// UpdateNavigation advances the unit one tick along its path, committing
// cell changes to the tile map and forwarding terminal results to the task
// manager.
func (u *Unit) UpdateNavigation(q *Query) {
	res := u.Nav.Update(q.Graph(), q.DeltaTime())
	switch res.Kind {
	case NavIdle:
		// Nothing to do.

	case NavMoving:
		u.SetDirection(res.Direction)
		if u.tile != nil {
			fromIso := CellToIso(res.From, BaseTileSize)
			toIso := CellToIso(res.To, BaseTileSize)
			at := LerpIso(fromIso, toIso, res.Progress)
			u.tile.IsoAdjust = Vec2{X: at.X - fromIso.X, Y: at.Y - fromIso.Y}
		}

	case NavAdvancedCell:
		if u.tile != nil {
			if err := q.TileMap().TryMoveTile(u.tile, res.To); err != nil {
				q.Log().Warnf(LogChannelUnit, "unit %s cannot enter (%d,%d): %v",
					u.Name, res.To.X, res.To.Y, err)
				q.Tasks().onUnitBlocked(u, q)
				return
			}
			u.tile.IsoAdjust = Vec2{}
		}
		u.Cell = res.To
		u.SetDirection(res.Direction)
		if u.TaskID.IsValid() {
			q.Tasks().onUnitAdvanced(u, q)
		}

	case NavReachedGoal:
		u.SetDirection(DirIdle)
		if u.tile != nil {
			u.tile.IsoAdjust = Vec2{}
		}
		if u.TaskID.IsValid() {
			q.Tasks().onUnitReachedGoal(u, q)
		} else {
			u.Nav.ResetPath()
		}

	case NavPathBlocked:
		q.Tasks().onUnitBlocked(u, q)
	}
}
