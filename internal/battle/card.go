package battle

import (
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// CardProperties describes the static, content-authored shape of a single
// selectable card (§3 Card / Glossary). A card is turned into a concrete
// Action when the turn boundary resolves, after every player has
// confirmed and the slide-out has finished; nothing here
// changes once the card has been authored, so CardProperties is copied by
// value everywhere it travels.
type CardProperties struct {
	Name string

	Damage           int32
	HitFlags         HitFlag
	Element          field.Element
	SecondaryElement field.Element

	// RangeOffsets lists tile offsets (relative to the user, before facing
	// is applied) the card's hit check sweeps, in the order the hit
	// pipeline should apply them.
	RangeOffsets []entity.Position

	LockoutType    LockoutType
	AnimationState string

	// Duration bounds how many frames the resulting action's Executing
	// phase runs before End() is forced, independent of any step list.
	Duration int

	// Movement, when non-nil, gives the user a Movement toward the first
	// range offset in addition to the card's hits.
	Movement *entity.MovementKind
}

// Player is the component attached to a player-controlled entity (§5 Card
// select, §7 overworld boundary). It holds the player's Deck and the slot
// that owns it; internal/cardselect queues actions for the chosen Deck
// entries at the turn boundary and removes them from Deck. SelectedCard is
// not set by internal/cardselect.
type Player struct {
	Entity       entity.ID
	SlotID       int
	Deck         []CardProperties
	SelectedCard *CardProperties
	Confirmed    bool
}

// CreateActionFromCardProperties instantiates an Action from a card chosen
// for owner this turn (§4.4 "Action::create_from_card_properties").
func CreateActionFromCardProperties(ctx *Context, owner entity.ID, cp CardProperties) *Action {
	a := &Action{
		OwnerEntity:    owner,
		AnimationState: cp.AnimationState,
		LockoutType:    cp.LockoutType,
		Properties:     cp,
	}

	hp := HitProperties{
		Damage:           cp.Damage,
		Flags:            cp.HitFlags,
		Element:          cp.Element,
		SecondaryElement: cp.SecondaryElement,
		SourceEntity:     owner,
	}

	a.ExecuteCB = func(ctx *Context, act *Action) {
		origin, ok := ownerPosition(ctx, owner)
		if !ok {
			return
		}
		for _, offset := range cp.RangeOffsets {
			target := entity.Position{Col: origin.Col + offset.Col, Row: origin.Row + offset.Row}
			processHit(ctx, hp, target)
		}
		if cp.Movement != nil && len(cp.RangeOffsets) > 0 {
			dest := entity.Position{Col: origin.Col + cp.RangeOffsets[0].Col, Row: origin.Row + cp.RangeOffsets[0].Row}
			if e, err := ctx.Sim.Entities.Get(owner); err == nil {
				startMovement(ctx, e, act, dest, *cp.Movement, cp.Duration)
			}
		}
	}

	if cp.Duration > 0 {
		deadline := cp.Duration
		a.Steps = append(a.Steps, Step{Fn: func(ctx *Context, a *Action) bool {
			deadline--
			return deadline <= 0
		}})
	}

	ctx.Sim.QueueAction(a)
	return a
}

func ownerPosition(ctx *Context, owner entity.ID) (entity.Position, bool) {
	e, err := ctx.Sim.Entities.Get(owner)
	if err != nil {
		return entity.Position{}, false
	}
	return e.Position, true
}
