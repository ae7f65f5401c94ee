package cardselect

import (
	"testing"

	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

func newTestContext(t *testing.T) (*battle.Context, entity.ID, entity.ID) {
	t.Helper()
	f := field.New(6, 3, field.NewDefaultRegistry())
	store := entity.NewStore(8)

	p0 := store.Spawn(entity.Entity{Position: entity.Position{Col: 0, Row: 0}, Team: 0, OnField: true})
	store.AttachLiving(p0, &entity.Living{Health: 100, MaxHealth: 100, HitboxEnabled: true})

	p1 := store.Spawn(entity.Entity{Position: entity.Position{Col: 1, Row: 0}, Team: 1, OnField: true})
	store.AttachLiving(p1, &entity.Living{Health: 100, MaxHealth: 100, HitboxEnabled: true})

	sim := battle.NewSimulation(f, store, 7)
	sim.Players[0] = &battle.Player{Entity: p0, SlotID: 0, Deck: []battle.CardProperties{
		{Name: "a", Damage: 10, RangeOffsets: []entity.Position{{Col: 1, Row: 0}}},
		{Name: "b", Damage: 20, RangeOffsets: []entity.Position{{Col: 1, Row: 0}}},
	}}
	sim.Players[1] = &battle.Player{Entity: p1, SlotID: 1, Deck: []battle.CardProperties{
		{Name: "c", Damage: 5, RangeOffsets: []entity.Position{{Col: -1, Row: 0}}},
	}}

	return &battle.Context{Sim: sim}, p0, p1
}

func TestMoveCursorWrapsGrid(t *testing.T) {
	sel := &Selection{Col: 0, Row: 0}
	moveCursor(sel, ButtonLeft)
	if sel.Col != gridCols-1 {
		t.Fatalf("expected wrap to col %d, got %d", gridCols-1, sel.Col)
	}

	moveCursor(sel, ButtonUp)
	if sel.Row != gridRows-1 {
		t.Fatalf("expected wrap to row %d, got %d", gridRows-1, sel.Row)
	}
}

func TestConfirmOnCardAppendsIndexOnce(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	c := NewController([]int{0, 1})
	c.Phase = PhaseSelecting

	c.ApplyInput(ctx, 0, int(ButtonConfirm)) // cursor starts at (0,0) -> deck index 0
	c.ApplyInput(ctx, 0, int(ButtonConfirm)) // pressing again must not duplicate

	sel := c.Selection(0)
	if len(sel.SelectedCardIndices) != 1 || sel.SelectedCardIndices[0] != 0 {
		t.Fatalf("expected single selection [0], got %v", sel.SelectedCardIndices)
	}
}

func TestCancelPopsLastSelection(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	c := NewController([]int{0, 1})
	c.Phase = PhaseSelecting

	c.ApplyInput(ctx, 0, int(ButtonConfirm))
	moveCursor(c.Selection(0), ButtonRight)
	c.ApplyInput(ctx, 0, int(ButtonConfirm))
	if len(c.Selection(0).SelectedCardIndices) != 2 {
		t.Fatalf("expected 2 selections before cancel, got %d", len(c.Selection(0).SelectedCardIndices))
	}

	c.ApplyInput(ctx, 0, int(ButtonCancel))
	if len(c.Selection(0).SelectedCardIndices) != 1 {
		t.Fatalf("expected 1 selection after cancel, got %d", len(c.Selection(0).SelectedCardIndices))
	}
}

func TestConfirmOnConfirmCellSetsConfirmed(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	c := NewController([]int{0, 1})
	c.Phase = PhaseSelecting

	sel := c.Selection(0)
	sel.Col, sel.Row = confirmCol, confirmRow
	c.ApplyInput(ctx, 0, int(ButtonConfirm))

	if !sel.Confirmed {
		t.Fatal("expected selection to be confirmed")
	}
}

func TestStepResolvesOnceEveryoneConfirmed(t *testing.T) {
	ctx, p0, p1 := newTestContext(t)
	c := NewController([]int{0, 1})

	// Drive through the slide-in animation.
	for i := 0; i < SlideDuration; i++ {
		if c.Step(ctx) {
			t.Fatal("resolved during slide-in")
		}
	}
	if c.Phase != PhaseSelecting {
		t.Fatalf("expected PhaseSelecting after slide-in, got %v", c.Phase)
	}

	c.Selection(0).SelectedCardIndices = []int{0}
	c.Selection(0).Confirmed = true
	c.Selection(1).SelectedCardIndices = []int{0}
	c.Selection(1).Confirmed = true

	c.Step(ctx) // selecting -> slide-out
	if c.Phase != PhaseSlideOut {
		t.Fatalf("expected PhaseSlideOut, got %v", c.Phase)
	}

	var resolved bool
	for i := 0; i < SlideDuration; i++ {
		if c.Step(ctx) {
			resolved = true
			break
		}
	}
	if !resolved {
		t.Fatal("expected Step to report resolution by end of slide-out")
	}
	if c.Phase != PhaseDone {
		t.Fatalf("expected PhaseDone, got %v", c.Phase)
	}

	if len(ctx.Sim.Players[0].Deck) != 1 {
		t.Fatalf("expected player 0's deck to shrink to 1, got %d", len(ctx.Sim.Players[0].Deck))
	}
	if len(ctx.Sim.Players[1].Deck) != 0 {
		t.Fatalf("expected player 1's deck to shrink to 0, got %d", len(ctx.Sim.Players[1].Deck))
	}

	ctx.Sim.Step(false) // promote the queued actions so ExecuteCB runs

	living0 := ctx.Sim.Entities.Living(p1)
	if living0.Health != 90 {
		t.Fatalf("expected player 1 to take 10 damage from player 0's card, got health %d", living0.Health)
	}
	livingAttacker := ctx.Sim.Entities.Living(p0)
	if livingAttacker.Health != 95 {
		t.Fatalf("expected player 0 to take 5 damage from player 1's card, got health %d", livingAttacker.Health)
	}
}

func TestIgnoresInputOutsideSelectingPhase(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	c := NewController([]int{0, 1})
	// still in PhaseSlideIn
	c.ApplyInput(ctx, 0, int(ButtonConfirm))
	if len(c.Selection(0).SelectedCardIndices) != 0 {
		t.Fatal("expected input to be ignored during slide-in")
	}
}
