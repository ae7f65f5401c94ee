// Package field implements the battle grid: the tile-state registry and the
// per-cell state (§4.2 of the design spec). The registry is process-wide for
// the lifetime of a single battle and is passed into the simulation as an
// explicit dependency rather than held as global mutable state (§9).
package field

// StateIndex identifies a row in the TileStateRegistry. Indices 0..17 are
// reserved for the built-in tile behaviors; scripted content packages may
// register additional indices above BuiltinStateCount.
type StateIndex int

// Built-in tile states, fixed by the design spec (§3 TileState).
const (
	StateNormal StateIndex = iota
	StateHole
	StateCracked
	StateBroken
	StateIce
	StateGrass
	StateLava
	StatePoison
	StateHoly
	StateDirectionUp
	StateDirectionDown
	StateDirectionLeft
	StateDirectionRight
	StateVolcano
	StateSea
	StateSand
	StateMetal
	StateHidden

	// BuiltinStateCount is the number of reserved built-in indices.
	BuiltinStateCount
)

// Element names the elemental affinity used for cleanse/resist interactions
// between tiles and entities.
type Element int

const (
	ElementNone Element = iota
	ElementFire
	ElementAqua
	ElementElec
	ElementWood
	ElementSword
	ElementWind
	ElementNull
	ElementCursor
	ElementPlant
	ElementBreak
)

// HitContext is the subset of HitProperties a tile's bonus-damage callback
// needs to see. It intentionally mirrors battle.HitProperties without
// importing the battle package, which depends on field instead.
type HitContext struct {
	Damage           int
	Element          Element
	SecondaryElement Element
	Flags            uint32
}

// ChangeRequestFunc is consulted before a tile transitions onto this state.
// Returning false vetoes the transition (§4.2 set_state).
type ChangeRequestFunc func(pos Position) bool

// UpdateFunc runs once per frame for every tile currently on this state.
type UpdateFunc func(f *Field, pos Position)

// EntityEnterFunc, EntityLeaveFunc, EntityStopFunc, EntityUpdateFunc fire on
// the movement and per-entity lifecycle events described in §4.2's callback
// dispatch order. EntityID is an opaque identifier; field does not know
// about entity.Store to avoid an import cycle, so callers pass whatever ID
// type their entity store uses, type-erased to `any`.
type EntityEnterFunc func(f *Field, pos Position, entityID any)
type EntityLeaveFunc func(f *Field, pos Position, entityID any)
type EntityStopFunc func(f *Field, pos Position, entityID any)
type EntityUpdateFunc func(f *Field, pos Position, entityID any)

// CalculateBonusDamageFunc computes additional damage contributed by
// standing on this tile when a hit lands (§4.4 process_hit step 1).
type CalculateBonusDamageFunc func(hit HitContext, currentDamage int) int

// TileState is one row of the registry: the default/flipped animation name
// (rendering detail retained only as a string tag — no rendering logic
// lives here), lifetime, and behavior callbacks.
type TileState struct {
	Name              string
	DefaultAnim       string
	FlippedAnim       string
	CleanserElement   *Element
	BlocksTeamChange  bool
	IsHole            bool
	MaxLifetime       *int // nil means the state never expires on its own
	RevertsTo         StateIndex

	ChangeRequest       ChangeRequestFunc
	Update              UpdateFunc
	EntityEnter         EntityEnterFunc
	EntityLeave         EntityLeaveFunc
	EntityStop          EntityStopFunc
	EntityUpdate        EntityUpdateFunc
	CalculateBonusDamage CalculateBonusDamageFunc
}

func intPtr(v int) *int { return &v }

// isSuperEffective reports whether a hit's primary or secondary element
// matches target, mirroring tile_state.rs's is_super_effective check used
// by several built-ins' CalculateBonusDamage callbacks.
func isSuperEffective(hit HitContext, target Element) bool {
	return hit.Element == target || hit.SecondaryElement == target
}

// brokenLifetime is how long a Broken tile stays impassable before
// reverting to Normal (tile_state.rs's BROKEN_LIFETIME; the exact frame
// count isn't in this retrieval pack, so this picks a value consistent
// with its role as a short-lived hole).
const brokenLifetime = 60

// TileStateRegistry holds every registered TileState for the lifetime of a
// battle. It is constructed once via NewDefaultRegistry and then extended by
// scripted content packages through Register.
type TileStateRegistry struct {
	states []TileState
}

// NewDefaultRegistry builds a registry pre-populated with the 18 built-in
// states (§3 TileState, "tile indices 0..17 are built-ins with fixed
// semantics").
func NewDefaultRegistry() *TileStateRegistry {
	r := &TileStateRegistry{states: make([]TileState, BuiltinStateCount, BuiltinStateCount+32)}

	r.states[StateNormal] = TileState{Name: "Normal", DefaultAnim: "normal", RevertsTo: StateNormal}

	r.states[StateHole] = TileState{Name: "Hole", DefaultAnim: "hole", IsHole: true, RevertsTo: StateHole}

	r.states[StateCracked] = TileState{
		Name: "Cracked", DefaultAnim: "cracked", RevertsTo: StateBroken,
		EntityLeave: crackedEntityLeave,
	}

	r.states[StateBroken] = TileState{
		Name: "Broken", DefaultAnim: "broken", IsHole: true,
		MaxLifetime: intPtr(brokenLifetime), RevertsTo: StateNormal,
	}

	r.states[StateIce] = TileState{Name: "Ice", DefaultAnim: "ice", RevertsTo: StateIce}

	grassCleanser := ElementWood
	r.states[StateGrass] = TileState{
		Name: "Grass", DefaultAnim: "grass", CleanserElement: &grassCleanser, RevertsTo: StateGrass,
		CalculateBonusDamage: func(hit HitContext, currentDamage int) int {
			if isSuperEffective(hit, ElementWood) {
				return currentDamage
			}
			return 0
		},
	}

	r.states[StateLava] = TileState{
		Name: "Lava", DefaultAnim: "lava", MaxLifetime: nil, RevertsTo: StateNormal,
		CalculateBonusDamage: func(hit HitContext, currentDamage int) int {
			if isSuperEffective(hit, ElementFire) {
				return currentDamage
			}
			return 0
		},
	}

	r.states[StatePoison] = TileState{Name: "Poison", DefaultAnim: "poison", RevertsTo: StatePoison}

	holyCleanser := ElementNull
	r.states[StateHoly] = TileState{
		Name: "Holy", DefaultAnim: "holy", CleanserElement: &holyCleanser, RevertsTo: StateHoly,
		CalculateBonusDamage: func(hit HitContext, currentDamage int) int {
			return -currentDamage / 2
		},
	}

	for _, d := range []StateIndex{StateDirectionUp, StateDirectionDown, StateDirectionLeft, StateDirectionRight} {
		r.states[d] = TileState{Name: "Direction", DefaultAnim: "conveyor", MaxLifetime: nil, RevertsTo: StateNormal}
	}

	r.states[StateVolcano] = TileState{Name: "Volcano", DefaultAnim: "volcano", RevertsTo: StateVolcano}
	r.states[StateSea] = TileState{
		Name: "Sea", DefaultAnim: "sea", RevertsTo: StateSea,
		CalculateBonusDamage: func(hit HitContext, currentDamage int) int {
			if isSuperEffective(hit, ElementAqua) {
				return currentDamage
			}
			return 0
		},
	}
	r.states[StateSand] = TileState{Name: "Sand", DefaultAnim: "sand", RevertsTo: StateSand}
	r.states[StateMetal] = TileState{Name: "Metal", DefaultAnim: "metal", RevertsTo: StateMetal}
	r.states[StateHidden] = TileState{Name: "Hidden", DefaultAnim: "hidden", IsHole: true, RevertsTo: StateHidden}

	return r
}

// crackedEntityLeave breaks a Cracked tile into Broken once the last
// entity standing on it leaves (tile_state.rs's entity_leave_callback).
// By the time this fires the leaving entity's own reservation has already
// been released (movement release happens at the start of the slide, not
// on arrival), so an empty reservation set here means nothing else is
// still standing on the tile.
func crackedEntityLeave(f *Field, pos Position, entityID any) {
	tile := f.TileAt(pos)
	if tile.State != StateCracked || tile.Reserved() {
		return
	}
	f.SetState(pos, StateBroken)
}

// Register adds a new, script-defined tile state and returns its index.
func (r *TileStateRegistry) Register(state TileState) StateIndex {
	r.states = append(r.states, state)
	return StateIndex(len(r.states) - 1)
}

// Get returns the TileState at idx, or the zero value and false if idx is
// out of range.
func (r *TileStateRegistry) Get(idx StateIndex) (*TileState, bool) {
	if idx < 0 || int(idx) >= len(r.states) {
		return nil, false
	}
	return &r.states[idx], true
}
