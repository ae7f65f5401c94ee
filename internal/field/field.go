package field

import "log"

// Position is a tile coordinate on the field, (0,0) at the top-left of the
// playable area. The field additionally carries a one-tile hidden border on
// every side (§4.2) that Position does not address directly — callers index
// only playable coordinates, and Field translates internally.
type Position struct {
	Col, Row int
}

// Direction mirrors the per-tile direction used by conveyor (Direction*)
// tile states, independent of any entity's facing.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Tile is one cell of the field (§3 Tile).
type Tile struct {
	State             StateIndex
	LifetimeRemaining *int
	reservations      map[any]int // multiset: entityID -> count
	Team              int
	Direction         Direction
	ignoredAttackers  map[any]bool
	Highlight         bool
}

func newTile(state StateIndex) Tile {
	return Tile{
		State:        state,
		reservations: make(map[any]int),
	}
}

// clone returns an independent copy of t, deep-copying its maps and
// lifetime pointer so mutating the clone never affects the original
// (internal/netplay rollback snapshots depend on this).
func (t Tile) clone() Tile {
	c := t
	c.reservations = make(map[any]int, len(t.reservations))
	for k, v := range t.reservations {
		c.reservations[k] = v
	}
	if t.ignoredAttackers != nil {
		c.ignoredAttackers = make(map[any]bool, len(t.ignoredAttackers))
		for k, v := range t.ignoredAttackers {
			c.ignoredAttackers[k] = v
		}
	}
	if t.LifetimeRemaining != nil {
		v := *t.LifetimeRemaining
		c.LifetimeRemaining = &v
	}
	return c
}

// ReservationCount returns how many times entityID currently holds a
// reservation on this tile (the multiset cardinality).
func (t *Tile) ReservationCount(entityID any) int {
	return t.reservations[entityID]
}

// Reserved reports whether any entity currently reserves this tile.
func (t *Tile) Reserved() bool {
	return len(t.reservations) > 0
}

// IgnoresAttacker reports whether entityID has been marked to ignore
// negative effects from this tile (e.g. after a deliberate tile change).
func (t *Tile) IgnoresAttacker(entityID any) bool {
	return t.ignoredAttackers[entityID]
}

// SetIgnoreAttacker marks or clears whether entityID ignores this tile's
// negative effects.
func (t *Tile) SetIgnoreAttacker(entityID any, ignore bool) {
	if ignore {
		if t.ignoredAttackers == nil {
			t.ignoredAttackers = make(map[any]bool)
		}
		t.ignoredAttackers[entityID] = true
	} else {
		delete(t.ignoredAttackers, entityID)
	}
}

// Field is the cols x rows battle grid, with a one-tile Hidden border on
// every side that no entity may enter (§4.2).
type Field struct {
	cols, rows int // playable dimensions, excluding the border
	tiles      [][]Tile
	registry   *TileStateRegistry
}

// New constructs a field of the given playable dimensions, backed by
// registry for state lookups. Every playable tile starts Normal; the border
// ring is Hidden.
func New(cols, rows int, registry *TileStateRegistry) *Field {
	f := &Field{
		cols:     cols,
		rows:     rows,
		registry: registry,
	}

	totalCols := cols + 2
	totalRows := rows + 2
	f.tiles = make([][]Tile, totalRows)
	for r := 0; r < totalRows; r++ {
		f.tiles[r] = make([]Tile, totalCols)
		for c := 0; c < totalCols; c++ {
			if r == 0 || c == 0 || r == totalRows-1 || c == totalCols-1 {
				f.tiles[r][c] = newTile(StateHidden)
			} else {
				f.tiles[r][c] = newTile(StateNormal)
			}
		}
	}
	return f
}

// Dimensions returns the playable (non-border) column and row counts.
func (f *Field) Dimensions() (cols, rows int) {
	return f.cols, f.rows
}

// InBounds reports whether pos addresses a playable (non-border) tile.
func (f *Field) InBounds(pos Position) bool {
	return pos.Col >= 0 && pos.Col < f.cols && pos.Row >= 0 && pos.Row < f.rows
}

// TileAt returns a pointer to the tile at pos. Out-of-bounds positions
// resolve to the border ring, which is always Hidden and read-only in
// practice (no operation ever targets it deliberately).
func (f *Field) TileAt(pos Position) *Tile {
	r := pos.Row + 1
	c := pos.Col + 1
	if r < 0 {
		r = 0
	} else if r >= len(f.tiles) {
		r = len(f.tiles) - 1
	}
	if c < 0 {
		c = 0
	} else if c >= len(f.tiles[r]) {
		c = len(f.tiles[r]) - 1
	}
	return &f.tiles[r][c]
}

// SetState consults the target state's ChangeRequest callback and, if it
// passes, replaces pos's state and resets its lifetime. A hole-like state
// may never be replaced by a walkable one while reservations are pending
// (§3 invariant, §4.2 set_state).
func (f *Field) SetState(pos Position, newState StateIndex) bool {
	tile := f.TileAt(pos)

	newDef, ok := f.registry.Get(newState)
	if !ok {
		log.Printf("field: SetState to unknown state index %d at %v", newState, pos)
		return false
	}

	oldDef, _ := f.registry.Get(tile.State)
	if oldDef != nil && oldDef.IsHole && !newDef.IsHole && tile.Reserved() {
		log.Printf("field: TileBlocked — refusing to fill hole at %v with %d pending reservation(s)", pos, len(tile.reservations))
		return false
	}

	if newDef.ChangeRequest != nil && !newDef.ChangeRequest(pos) {
		return false
	}

	tile.State = newState
	if newDef.MaxLifetime != nil {
		v := *newDef.MaxLifetime
		tile.LifetimeRemaining = &v
	} else {
		tile.LifetimeRemaining = nil
	}
	return true
}

// Reserve adds one reservation for entityID on pos (multiset semantics).
func (f *Field) Reserve(pos Position, entityID any) {
	tile := f.TileAt(pos)
	tile.reservations[entityID]++
}

// Release removes one reservation for entityID on pos. No-ops if entityID
// holds no reservation there.
func (f *Field) Release(pos Position, entityID any) {
	tile := f.TileAt(pos)
	if tile.reservations[entityID] <= 1 {
		delete(tile.reservations, entityID)
		return
	}
	tile.reservations[entityID]--
}

// Tick advances every tile's lifetime by one frame (§4.2 per-frame tick).
// A tile whose lifetime reaches zero reverts to its state's configured
// RevertsTo target.
func (f *Field) Tick() {
	for r := range f.tiles {
		for c := range f.tiles[r] {
			tile := &f.tiles[r][c]
			if tile.LifetimeRemaining == nil {
				continue
			}
			*tile.LifetimeRemaining--
			if *tile.LifetimeRemaining <= 0 {
				def, ok := f.registry.Get(tile.State)
				revertTo := tile.State
				if ok {
					revertTo = def.RevertsTo
				}
				tile.State = revertTo
				tile.LifetimeRemaining = nil
				if revertDef, ok := f.registry.Get(revertTo); ok && revertDef.MaxLifetime != nil {
					v := *revertDef.MaxLifetime
					tile.LifetimeRemaining = &v
				}
			}
		}
	}
}

// UpdateTiles runs every tile's per-frame Update callback (§4.2 dispatch
// order, first of two tile-level passes per frame).
func (f *Field) UpdateTiles() {
	for c := 0; c < f.cols; c++ {
		for r := 0; r < f.rows; r++ {
			pos := Position{Col: c, Row: r}
			tile := f.TileAt(pos)
			if def, ok := f.registry.Get(tile.State); ok && def.Update != nil {
				def.Update(f, pos)
			}
		}
	}
}

// Clone returns an independent copy of the field. The registry itself is
// shared (it is immutable for the lifetime of a battle once scripted
// packages finish registering their states), but every tile is
// deep-copied.
func (f *Field) Clone() *Field {
	out := &Field{
		cols:     f.cols,
		rows:     f.rows,
		registry: f.registry,
		tiles:    make([][]Tile, len(f.tiles)),
	}
	for r := range f.tiles {
		out.tiles[r] = make([]Tile, len(f.tiles[r]))
		for c := range f.tiles[r] {
			out.tiles[r][c] = f.tiles[r][c].clone()
		}
	}
	return out
}

// Registry exposes the field's tile-state registry for callers (primarily
// the simulation and scripting host) that need to look up definitions
// directly.
func (f *Field) Registry() *TileStateRegistry {
	return f.registry
}

// CalculateBonusDamage returns the bonus damage contributed by pos's
// current tile state for the given hit (§4.4 process_hit step 1).
func (f *Field) CalculateBonusDamage(pos Position, hit HitContext, currentDamage int) int {
	tile := f.TileAt(pos)
	def, ok := f.registry.Get(tile.State)
	if !ok || def.CalculateBonusDamage == nil {
		return 0
	}
	return def.CalculateBonusDamage(hit, currentDamage)
}
