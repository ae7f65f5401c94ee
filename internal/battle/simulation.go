package battle

import (
	"battlecore/internal/arena"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// Simulation owns every piece of state a battle needs to be deterministically
// stepped: the field, the entity store, the action and aux-prop arenas, the
// PRNG, and the event log (§4 overview). internal/netplay's Coordinator
// holds one Simulation plus Snapshots keyed by frame for rollback;
// internal/cardselect drives it between turn boundaries.
type Simulation struct {
	Field    *field.Field
	Entities *entity.Store

	actions  *arena.Arena[*Action]
	auxProps *arena.Arena[*AuxProp]

	rng    *Rand
	frame  uint64
	events *EventLog

	Players map[int]*Player

	sequenceLock  map[entity.ID]arena.Index
	animationLock map[entity.ID]arena.Index

	WinCondition func(*Simulation) (ended bool, winnerTeam int)
	Ended        bool
	WinnerTeam   int
}

// NewSimulation constructs a battle over an already-populated field and
// entity store. seed fixes the PRNG so that two peers constructing a
// Simulation from the same (field, entities, seed) tuple step identically
// (§8 Determinism).
func NewSimulation(f *field.Field, entities *entity.Store, seed int64) *Simulation {
	s := &Simulation{
		Field:         f,
		Entities:      entities,
		actions:       arena.New[*Action](32),
		auxProps:      arena.New[*AuxProp](64),
		rng:           NewRand(seed),
		events:        NewEventLog(),
		Players:       make(map[int]*Player),
		sequenceLock:  make(map[entity.ID]arena.Index),
		animationLock: make(map[entity.ID]arena.Index),
		WinCondition:  defaultWinCondition,
	}
	installBuiltinTileBehaviors(f, s)
	return s
}

// Frame returns the number of completed Step calls.
func (s *Simulation) Frame() uint64 {
	return s.frame
}

// Events exposes the event log for observability and netplay diagnostics.
func (s *Simulation) Events() *EventLog {
	return s.events
}

// AttachAuxProp inserts ap into the simulation's aux-prop arena and records
// it on owner's Living component. Returns arena.Nil if owner has no Living
// component (aux props only ever apply to combat-relevant entities).
func (s *Simulation) AttachAuxProp(owner entity.ID, ap *AuxProp) arena.Index {
	living := s.Entities.Living(owner)
	if living == nil {
		return arena.Nil
	}
	ap.Owner = owner
	idx := s.auxProps.Insert(ap)
	ap.ID = idx
	living.AuxProps = append(living.AuxProps, idx)
	return idx
}

// Action resolves idx against the simulation's action arena. The
// scripting host uses this to turn a bridged action handle back into the
// live *Action a callback can mutate (§4.5 bridged object handles); a
// stale generation or freed slot reports ok=false rather than panicking.
func (s *Simulation) Action(idx arena.Index) (*Action, bool) {
	a, ok := s.actions.Get(idx)
	if !ok {
		return nil, false
	}
	return a, true
}

// QueueAction registers a newly created action for promotion to Executing
// on the next Step call (actions created mid-frame, e.g. by a card
// selection, always start life as Queued — §4.4 Action lifecycle).
func (s *Simulation) QueueAction(a *Action) arena.Index {
	a.Lifecycle = ActionQueued
	idx := s.actions.Insert(a)
	a.ID = idx
	return idx
}

// Step advances the simulation by exactly one frame, in the fixed order
// required for determinism (§4.4, §8): tile lifetimes and tile-update
// callbacks, movement resolution, stationary-entity callbacks, action
// execution and update, the end-of-frame action sweep, status-director
// ticking, the aux-prop deletion sweep, then the win-condition check.
// resimulating must be true whenever this call is a replay of a
// previously-stepped frame (internal/netplay rollback); it is passed to
// callbacks as Context.IsResimulation. ExecuteCB is kept from re-running by
// the action's own Executed flag, not by this parameter.
func (s *Simulation) Step(resimulating bool) {
	ctx := &Context{Sim: s, IsResimulation: resimulating}
	s.frame++

	s.Field.Tick()
	s.Field.UpdateTiles()

	stepMovements(ctx)
	stepStationaryEntityUpdates(ctx)

	s.stepActions(ctx)
	s.sweepActions(ctx)

	s.tickStatuses()
	s.sweepAuxProps()

	if s.WinCondition != nil && !s.Ended {
		if ended, winner := s.WinCondition(s); ended {
			s.Ended = true
			s.WinnerTeam = winner
			emitEvent(ctx, Event{Kind: EventBattleEnded, Damage: winner})
		}
	}
}

func (s *Simulation) stepActions(ctx *Context) {
	var queued []arena.Index
	s.actions.Iter(func(id arena.Index, pp **Action) bool {
		a := *pp
		switch a.Lifecycle {
		case ActionQueued:
			queued = append(queued, id)
		case ActionExecuting:
			a.RunUpdate(ctx)
			a.DerivedFrame++
			if a.stepCursorDone() {
				a.End()
			}
		}
		return true
	})

	// Promotion happens after the scan, one at a time in slot order, so a
	// lockout taken by an earlier action this same frame is visible to a
	// later one — two Queued actions on the same entity must never both
	// execute in the same frame (§4.4 Action lockout invariant).
	for _, id := range queued {
		a, ok := s.actions.Get(id)
		if !ok || !s.lockoutFree(a) {
			continue
		}
		s.lockAction(a)
		a.Execute(ctx)
	}
}

func (a *Action) stepCursorDone() bool {
	return len(a.Steps) > 0 && a.stepCursor >= len(a.Steps)
}

func (s *Simulation) lockoutFree(a *Action) bool {
	switch a.LockoutType {
	case LockoutSequence:
		_, locked := s.sequenceLock[a.OwnerEntity]
		return !locked
	case LockoutAnimation:
		_, locked := s.animationLock[a.OwnerEntity]
		return !locked
	default:
		return true
	}
}

func (s *Simulation) lockAction(a *Action) {
	switch a.LockoutType {
	case LockoutSequence:
		s.sequenceLock[a.OwnerEntity] = a.ID
	case LockoutAnimation:
		s.animationLock[a.OwnerEntity] = a.ID
	}
}

func (s *Simulation) unlockAction(a *Action) {
	switch a.LockoutType {
	case LockoutSequence:
		if cur, ok := s.sequenceLock[a.OwnerEntity]; ok && cur == a.ID {
			delete(s.sequenceLock, a.OwnerEntity)
		}
	case LockoutAnimation:
		if cur, ok := s.animationLock[a.OwnerEntity]; ok && cur == a.ID {
			delete(s.animationLock, a.OwnerEntity)
		}
	}
}

// sweepActions runs EndCB for every action that reached ActionEnded this
// frame, releases its lockout, and frees it from the arena (§4.4 "Ended
// actions are freed at end of frame, never carried into the next").
func (s *Simulation) sweepActions(ctx *Context) {
	var toFree []arena.Index
	s.actions.Iter(func(id arena.Index, pp **Action) bool {
		a := *pp
		if a.Lifecycle == ActionEnded {
			if a.EndCB != nil {
				a.EndCB(ctx, a)
			}
			s.unlockAction(a)
			a.Lifecycle = ActionFreed
			toFree = append(toFree, id)
		}
		return true
	})
	for _, id := range toFree {
		s.actions.Remove(id)
	}
}

// tickStatuses advances every living entity's StatusDirector by one frame.
func (s *Simulation) tickStatuses() {
	s.Entities.QueryLiving(func(_ *entity.Entity, l *entity.Living) {
		if l.StatusDirector != nil {
			l.StatusDirector.Tick()
		}
	})
}

// sweepAuxProps removes any aux prop marked pendingDelete (from
// DeletesOnActivation firing this frame) or flagged DeletesNextFrame,
// unlinking it from its owner's Living component first.
func (s *Simulation) sweepAuxProps() {
	var toFree []arena.Index
	s.auxProps.Iter(func(id arena.Index, pp **AuxProp) bool {
		p := *pp
		if p.pendingDelete || p.DeletesNextFrame {
			toFree = append(toFree, id)
		}
		return true
	})
	for _, id := range toFree {
		p, ok := s.auxProps.Get(id)
		if ok {
			if living := s.Entities.Living(p.Owner); living != nil {
				living.AuxProps = removeIndex(living.AuxProps, id)
			}
		}
		s.auxProps.Remove(id)
	}
}

func removeIndex(xs []arena.Index, target arena.Index) []arena.Index {
	out := xs[:0]
	for _, x := range xs {
		if x != target {
			out = append(out, x)
		}
	}
	return out
}

// defaultWinCondition declares the battle over once at most one team still
// has a living entity with Health > 0 (§4.4 win condition).
func defaultWinCondition(s *Simulation) (bool, int) {
	aliveTeams := make(map[int]bool)
	s.Entities.QueryLiving(func(e *entity.Entity, l *entity.Living) {
		if l.Health > 0 && !e.Deleted {
			aliveTeams[e.Team] = true
		}
	})
	if len(aliveTeams) > 1 {
		return false, -1
	}
	for team := range aliveTeams {
		return true, team
	}
	return true, -1 // no one left alive: a draw
}
