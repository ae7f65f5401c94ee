package battle

import (
	"testing"

	"battlecore/internal/entity"
	"battlecore/internal/field"
)

func TestSortAuxPropsOrdersByEffectThenRequirementPriority(t *testing.T) {
	low := &AuxProp{Effect: EffectApplyStatus, Requirements: []*Requirement{{Kind: ReqUnconditional}}}
	high := &AuxProp{Effect: EffectApplyStatus, Requirements: []*Requirement{{Kind: ReqHPBelow}}}
	earliestEffect := &AuxProp{Effect: EffectStatusImmunity, Requirements: []*Requirement{{Kind: ReqHPBelow}}}

	props := []*AuxProp{high, low, earliestEffect}
	sortAuxProps(props)

	if props[0] != earliestEffect {
		t.Fatalf("expected lowest effect priority first, got %+v", props[0])
	}
	if props[1] != low || props[2] != high {
		t.Fatalf("expected requirement priority to break the tie within equal effect priority")
	}
}

func TestHPExpressionRequirementGatesOnThreshold(t *testing.T) {
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)
	e := store.Spawn(entity.Entity{Position: entity.Position{Col: 0, Row: 0}})
	store.AttachLiving(e, &entity.Living{Health: 10, MaxHealth: 100})

	sim := NewSimulation(f, store, 1)
	ctx := &Context{Sim: sim}

	req := &Requirement{Kind: ReqHPExpression, Expression: "Health < MaxHealth * 0.2"}
	if !req.evaluate(ctx, e, HitProperties{}, 0) {
		t.Fatal("expected expression to pass at 10/100 health")
	}

	store.Living(e).Health = 50
	if req.evaluate(ctx, e, HitProperties{}, 0) {
		t.Fatal("expected expression to fail at 50/100 health")
	}
}

func TestDecreaseHitDamageEffectAppliesExprDelta(t *testing.T) {
	sim, attacker, defender := newTestSimulation(t)
	ctx := &Context{Sim: sim}

	ap := &AuxProp{
		Requirements: []*Requirement{{Kind: ReqUnconditional}},
		Effect:       EffectDecreaseHitDamage,
		Params:       EffectParams{DamageExpr: "Damage * 0.5"},
	}
	sim.AttachAuxProp(defender, ap)

	card := CardProperties{Damage: 40, RangeOffsets: []entity.Position{{Col: 1, Row: 0}}}
	CreateActionFromCardProperties(ctx, attacker, card)
	sim.Step(false)

	living := sim.Entities.Living(defender)
	if living.Health != 80 {
		t.Fatalf("expected half of 40 damage (20) applied, health=80, got %d", living.Health)
	}
}

func TestTimerRequirementPassesOnceThenResets(t *testing.T) {
	r := &Requirement{Kind: ReqTimer, TimerInterval: 3}
	var passes int
	for i := 0; i < 6; i++ {
		if r.evaluate(nil, entity.ID{}, HitProperties{}, 0) {
			passes++
		}
	}
	if passes != 2 {
		t.Fatalf("expected the timer to pass exactly twice over 6 ticks at interval 3, got %d", passes)
	}
}
