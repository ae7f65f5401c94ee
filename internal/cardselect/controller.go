// Package cardselect implements the turn-boundary card-selection loop
// (§4.7): while the simulation is paused between turns, each peer moves a
// cursor over their hand, builds up a list of cards to play this turn, and
// confirms. Once every peer has confirmed, selections resolve into queued
// actions and control returns to the battle simulation.
package cardselect

import (
	"sort"

	"battlecore/internal/battle"
)

// Button is one bit of a peer's per-frame input during card select. The
// coordinator's wire Input message carries a single int per frame for both
// battle turns and card-select turns (§4.6); during card select that int is
// this packed bitset rather than a chosen card slot.
type Button uint8

const (
	ButtonLeft Button = 1 << iota
	ButtonRight
	ButtonUp
	ButtonDown
	ButtonConfirm
	ButtonCancel
)

const (
	gridCols   = 7 // columns 0..6 (§4.7 "loops horizontally within 0..6")
	gridRows   = 3 // rows 0..2
	confirmCol = 5
	confirmRow = 0

	// SlideDuration is how many frames the slide-in and slide-out
	// animations each take, bracketing the interactive phase (§4.7).
	SlideDuration = 20
)

// Phase is where the controller currently sits in the turn-boundary
// sequence.
type Phase int

const (
	PhaseSlideIn Phase = iota
	PhaseSelecting
	PhaseSlideOut
	PhaseDone
)

// Selection is one peer's in-progress card pick (§4.7 Selection).
type Selection struct {
	Col, Row            int
	FormIndex           int
	SelectedFormIndex   *int
	SelectedCardIndices []int
	Confirmed           bool
}

// Controller drives one turn boundary across every peer in the battle. A
// fresh Controller is built each time the simulation yields between turns.
type Controller struct {
	Phase      Phase
	slideFrame int
	peers      []int
	selections map[int]*Selection
}

// NewController starts a new turn-boundary sequence for the given peer
// slots, each beginning with an empty Selection.
func NewController(peers []int) *Controller {
	sel := make(map[int]*Selection, len(peers))
	for _, p := range peers {
		sel[p] = &Selection{}
	}
	return &Controller{
		Phase:      PhaseSlideIn,
		peers:      append([]int(nil), peers...),
		selections: sel,
	}
}

// Selection returns slot's current selection, or nil if slot isn't part of
// this turn boundary.
func (c *Controller) Selection(slot int) *Selection {
	return c.selections[slot]
}

// ApplyInput satisfies internal/netplay's InputApplier interface so the
// rollback coordinator can drive card select exactly like a battle frame.
// Inputs outside PhaseSelecting are ignored — the slide animations are not
// interactive (§4.7 "ignore inputs while animating in + out").
func (c *Controller) ApplyInput(ctx *battle.Context, slot int, cardSlot int) {
	if c.Phase != PhaseSelecting {
		return
	}
	sel, ok := c.selections[slot]
	if !ok {
		return
	}
	player := ctx.Sim.Players[slot]
	if player == nil {
		return
	}

	buttons := Button(cardSlot)
	moveCursor(sel, buttons)

	if buttons&ButtonConfirm != 0 {
		c.confirm(sel, player)
	}
	if buttons&ButtonCancel != 0 {
		cancel(sel)
	}
}

func moveCursor(sel *Selection, buttons Button) {
	if buttons&ButtonLeft != 0 {
		sel.Col = wrap(sel.Col-1, gridCols)
	}
	if buttons&ButtonRight != 0 {
		sel.Col = wrap(sel.Col+1, gridCols)
	}
	if buttons&ButtonUp != 0 {
		sel.Row = wrap(sel.Row-1, gridRows)
	}
	if buttons&ButtonDown != 0 {
		sel.Row = wrap(sel.Row+1, gridRows)
	}
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// confirm applies a Confirm press at the cursor's current cell: the
// Confirm button cell sets Confirmed, any other cell appends that cell's
// card index to the selection if not already present (§4.7).
func (c *Controller) confirm(sel *Selection, player *battle.Player) {
	if sel.Col == confirmCol && sel.Row == confirmRow {
		sel.Confirmed = true
		return
	}

	idx := cardIndexAt(sel, player)
	if idx < 0 {
		return
	}
	for _, existing := range sel.SelectedCardIndices {
		if existing == idx {
			return
		}
	}
	sel.SelectedCardIndices = append(sel.SelectedCardIndices, idx)
}

// cancel pops the most recently selected card index, if any (§4.7).
func cancel(sel *Selection) {
	if n := len(sel.SelectedCardIndices); n > 0 {
		sel.SelectedCardIndices = sel.SelectedCardIndices[:n-1]
	}
}

// cardIndexAt maps the cursor's grid cell to a deck index, row-major, or
// -1 if the cell lies past the end of the player's deck.
func cardIndexAt(sel *Selection, player *battle.Player) int {
	idx := sel.Row*gridCols + sel.Col
	if idx < 0 || idx >= len(player.Deck) {
		return -1
	}
	return idx
}

// Step advances the turn-boundary state machine by one frame. Call it once
// per frame after every peer's ApplyInput for that frame has run. Returns
// true the frame the turn resolves, at which point the simulation should
// resume stepping normally.
func (c *Controller) Step(ctx *battle.Context) (done bool) {
	switch c.Phase {
	case PhaseSlideIn:
		c.slideFrame++
		if c.slideFrame >= SlideDuration {
			c.Phase = PhaseSelecting
			c.slideFrame = 0
		}

	case PhaseSelecting:
		if c.allConfirmed() {
			c.Phase = PhaseSlideOut
			c.slideFrame = 0
		}

	case PhaseSlideOut:
		c.slideFrame++
		if c.slideFrame >= SlideDuration {
			c.resolve(ctx)
			c.Phase = PhaseDone
			return true
		}
	}
	return false
}

func (c *Controller) allConfirmed() bool {
	for _, sel := range c.selections {
		if !sel.Confirmed {
			return false
		}
	}
	return true
}

// resolve turns every peer's selected card indices into queued actions, in
// reverse selection order, then removes them from the deck by descending
// index so removing one never shifts an index still pending removal
// (§4.7).
func (c *Controller) resolve(ctx *battle.Context) {
	for _, slot := range c.peers {
		sel := c.selections[slot]
		player := ctx.Sim.Players[slot]
		if sel == nil || player == nil {
			continue
		}

		for i := len(sel.SelectedCardIndices) - 1; i >= 0; i-- {
			idx := sel.SelectedCardIndices[i]
			if idx < 0 || idx >= len(player.Deck) {
				continue
			}
			battle.CreateActionFromCardProperties(ctx, player.Entity, player.Deck[idx])
		}

		descending := append([]int(nil), sel.SelectedCardIndices...)
		sort.Sort(sort.Reverse(sort.IntSlice(descending)))
		for _, idx := range descending {
			if idx < 0 || idx >= len(player.Deck) {
				continue
			}
			player.Deck = append(player.Deck[:idx], player.Deck[idx+1:]...)
		}
	}
}
