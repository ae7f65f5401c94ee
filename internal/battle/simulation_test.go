package battle

import (
	"testing"

	"battlecore/internal/entity"
	"battlecore/internal/field"
)

func newTestSimulation(t *testing.T) (*Simulation, entity.ID, entity.ID) {
	t.Helper()
	f := field.New(6, 6, field.NewDefaultRegistry())
	store := entity.NewStore(8)

	attacker := store.Spawn(entity.Entity{Position: entity.Position{Col: 0, Row: 0}, Team: 0, OnField: true})
	store.AttachLiving(attacker, &entity.Living{Health: 100, MaxHealth: 100, HitboxEnabled: true})

	defender := store.Spawn(entity.Entity{Position: entity.Position{Col: 1, Row: 0}, Team: 1, OnField: true})
	store.AttachLiving(defender, &entity.Living{Health: 100, MaxHealth: 100, HitboxEnabled: true})

	sim := NewSimulation(f, store, 42)
	return sim, attacker, defender
}

func TestStepAdvancesFrame(t *testing.T) {
	sim, _, _ := newTestSimulation(t)
	sim.Step(false)
	sim.Step(false)
	if sim.Frame() != 2 {
		t.Fatalf("expected frame 2, got %d", sim.Frame())
	}
}

func TestCardActionDealsDamageOnExecute(t *testing.T) {
	sim, attacker, defender := newTestSimulation(t)
	ctx := &Context{Sim: sim}

	card := CardProperties{
		Name:           "poke",
		Damage:         30,
		RangeOffsets:   []entity.Position{{Col: 1, Row: 0}},
		LockoutType:    LockoutSequence,
		AnimationState: "attack",
	}
	CreateActionFromCardProperties(ctx, attacker, card)

	sim.Step(false) // promotes Queued -> Executing, runs ExecuteCB

	living := sim.Entities.Living(defender)
	if living.Health != 70 {
		t.Fatalf("expected defender health 70, got %d", living.Health)
	}
}

func TestStatusImmunityBlocksDamage(t *testing.T) {
	sim, attacker, defender := newTestSimulation(t)
	ctx := &Context{Sim: sim}

	ap := &AuxProp{
		Requirements: []*Requirement{{Kind: ReqUnconditional}},
		Effect:       EffectStatusImmunity,
	}
	sim.AttachAuxProp(defender, ap)

	card := CardProperties{
		Damage:       50,
		RangeOffsets: []entity.Position{{Col: 1, Row: 0}},
	}
	CreateActionFromCardProperties(ctx, attacker, card)
	sim.Step(false)

	living := sim.Entities.Living(defender)
	if living.Health != 100 {
		t.Fatalf("expected immune defender to take no damage, got health %d", living.Health)
	}
}

func TestWinConditionFiresWhenOneTeamRemains(t *testing.T) {
	sim, _, defender := newTestSimulation(t)
	sim.Entities.Living(defender).Health = 0

	sim.Step(false)

	if !sim.Ended {
		t.Fatal("expected battle to end once only one team has living health")
	}
	if sim.WinnerTeam != 0 {
		t.Fatalf("expected team 0 to win, got %d", sim.WinnerTeam)
	}
}

func TestActionLockoutSerializesSequenceActions(t *testing.T) {
	sim, attacker, _ := newTestSimulation(t)
	ctx := &Context{Sim: sim}

	var secondExecuted bool
	first := CreateActionFromCardProperties(ctx, attacker, CardProperties{LockoutType: LockoutSequence, Duration: 2})
	second := &Action{OwnerEntity: attacker, LockoutType: LockoutSequence, ExecuteCB: func(ctx *Context, a *Action) {
		secondExecuted = true
	}}
	sim.QueueAction(second)

	sim.Step(false) // first promotes to Executing; second stays Queued (lockout held)
	if !first.Executed {
		t.Fatal("expected first action to execute")
	}
	if secondExecuted {
		t.Fatal("expected second sequence-locked action to wait")
	}

	sim.Step(false)
	sim.Step(false) // first action's 2-frame duration elapses, ends, frees the lock
	sim.Step(false) // second action should now be free to execute
	if !secondExecuted {
		t.Fatal("expected second action to execute once the lock was released")
	}
}
