package battle

import (
	"github.com/google/uuid"

	"battlecore/internal/arena"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// Snapshot is a fully independent copy of a Simulation's state at one
// frame, suitable for retention in internal/netplay's rollback ring and
// later restoration (§4.6). It deliberately excludes the event log, which
// is derived history rather than state the simulation reads back.
type Snapshot struct {
	// ID uniquely identifies this particular capture, independent of
	// Frame: the coordinator's rollback ring keys snapshots by frame
	// number for lookup, but a frame can be captured more than once
	// across a session's resimulations, and the ID tells those captures
	// apart.
	ID uuid.UUID

	Field    *field.Field
	Entities *entity.Store
	Actions  *arena.Arena[*Action]
	AuxProps *arena.Arena[*AuxProp]
	RNG      *Rand
	Frame    uint64

	SequenceLock  map[entity.ID]arena.Index
	AnimationLock map[entity.ID]arena.Index

	// Players captures every peer's deck and confirmed state. A rollback
	// that spans a card-select resolution (internal/cardselect removes
	// confirmed cards from Player.Deck) must restore the deck as it stood
	// at the snapshotted frame, not as it stands now, or resimulation
	// replays card selection against the wrong hand.
	Players map[int]*Player

	Ended      bool
	WinnerTeam int
}

func cloneCardProperties(cp CardProperties) CardProperties {
	c := cp
	c.RangeOffsets = append([]entity.Position(nil), cp.RangeOffsets...)
	if cp.Movement != nil {
		m := *cp.Movement
		c.Movement = &m
	}
	return c
}

func clonePlayer(p *Player) *Player {
	c := *p
	c.Deck = make([]CardProperties, len(p.Deck))
	for i, cp := range p.Deck {
		c.Deck[i] = cloneCardProperties(cp)
	}
	if p.SelectedCard != nil {
		sc := cloneCardProperties(*p.SelectedCard)
		c.SelectedCard = &sc
	}
	return &c
}

func clonePlayers(players map[int]*Player) map[int]*Player {
	out := make(map[int]*Player, len(players))
	for slot, p := range players {
		out[slot] = clonePlayer(p)
	}
	return out
}

func cloneAction(a *Action) *Action {
	c := *a
	c.Steps = append([]Step(nil), a.Steps...)
	c.FrameCallbacks = append([]FrameCallback(nil), a.FrameCallbacks...)
	c.Attachments = append([]arena.Index(nil), a.Attachments...)
	return &c
}

func cloneAuxProp(p *AuxProp) *AuxProp {
	c := *p
	c.Requirements = make([]*Requirement, len(p.Requirements))
	for i, r := range p.Requirements {
		rc := *r
		c.Requirements[i] = &rc
	}
	c.Callbacks = append([]func(ctx *Context, owner entity.ID){}, p.Callbacks...)
	return &c
}

func cloneLockMap(m map[entity.ID]arena.Index) map[entity.ID]arena.Index {
	out := make(map[entity.ID]arena.Index, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot captures the simulation's current state as an independent copy.
func (s *Simulation) Snapshot() *Snapshot {
	return &Snapshot{
		ID:            uuid.New(),
		Field:         s.Field.Clone(),
		Entities:      s.Entities.Clone(),
		Actions:       s.actions.Clone(cloneAction),
		AuxProps:      s.auxProps.Clone(cloneAuxProp),
		RNG:           s.rng.Clone(),
		Frame:         s.frame,
		SequenceLock:  cloneLockMap(s.sequenceLock),
		AnimationLock: cloneLockMap(s.animationLock),
		Players:       clonePlayers(s.Players),
		Ended:         s.Ended,
		WinnerTeam:    s.WinnerTeam,
	}
}

// Restore replaces the simulation's entire state with an independent copy
// of snap, so later mutation of either the simulation or the retained
// snapshot cannot affect the other. internal/netplay calls this to rewind
// to a confirmed frame before resimulating forward with corrected input.
func (s *Simulation) Restore(snap *Snapshot) {
	s.Field = snap.Field.Clone()
	s.Entities = snap.Entities.Clone()
	s.actions = snap.Actions.Clone(cloneAction)
	s.auxProps = snap.AuxProps.Clone(cloneAuxProp)
	s.rng = snap.RNG.Clone()
	s.frame = snap.Frame
	s.sequenceLock = cloneLockMap(snap.SequenceLock)
	s.animationLock = cloneLockMap(snap.AnimationLock)
	s.Players = clonePlayers(snap.Players)
	s.Ended = snap.Ended
	s.WinnerTeam = snap.WinnerTeam
}
