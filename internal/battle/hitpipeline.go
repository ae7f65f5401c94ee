package battle

import (
	"battlecore/internal/entity"
)

// processHit runs the full hit pipeline against every living entity
// standing on target (§4.4 process_hit):
//
//  1. Seed currentDamage from hp.Damage, then add the tile's bonus damage.
//  2. Gather the defender's aux props, ordered by (effect_priority,
//     max_requirement_priority), and run them in three buckets:
//     before-hit (may grant immunity, zeroing the hit), on-hit (may scale
//     currentDamage up or down), after-hit (drain/recover/run against the
//     final damage number).
//  3. Apply currentDamage to Living.Health, clamped to zero, and emit
//     EventEntityDefeated when health reaches zero. The win condition is
//     evaluated later, at the end of Simulation.Step.
func processHit(ctx *Context, hp HitProperties, target entity.Position) {
	if !ctx.Field().InBounds(target) {
		return
	}

	tileCtx := toTileHitContext(hp, int(hp.Damage))
	baseDamage := int(hp.Damage) + ctx.Field().CalculateBonusDamage(target, tileCtx, int(hp.Damage))

	ctx.Entities().OnTile(target, func(e *entity.Entity) {
		living := ctx.Entities().Living(e.ID)
		if living == nil || !living.HitboxEnabled {
			return
		}
		applyHitToEntity(ctx, hp, e, living, baseDamage)
	})
}

func applyHitToEntity(ctx *Context, hp HitProperties, e *entity.Entity, living *entity.Living, baseDamage int) {
	props := ownerAuxProps(ctx, e.ID)
	sortAuxProps(props)

	currentDamage := baseDamage
	immune := false

	for _, p := range props {
		if p.Effect.Bucket() != BucketBeforeHit || !p.RequirementsPass(ctx, hp, currentDamage) {
			continue
		}
		switch p.Effect {
		case EffectStatusImmunity:
			immune = true
		case EffectApplyStatus:
			ensureStatusDirector(living).Apply(p.Params.StatusName, 0)
		case EffectRemoveStatus:
			ensureStatusDirector(living).Remove(p.Params.StatusName)
		}
		runAuxCallbacks(ctx, p, e.ID)
		consumeAuxProp(ctx, p)
	}

	if immune {
		emitEvent(ctx, Event{Kind: EventHitBlocked, Entity: e.ID, Damage: 0})
		return
	}

	for _, p := range props {
		if p.Effect.Bucket() != BucketOnHit || !p.RequirementsPass(ctx, hp, currentDamage) {
			continue
		}
		delta := evalDamageExpr(ctx, e.ID, &p.Params, currentDamage)
		switch p.Effect {
		case EffectIncreaseHitDamage:
			currentDamage += delta
		case EffectDecreaseHitDamage:
			currentDamage -= delta
		}
		if currentDamage < 0 {
			currentDamage = 0
		}
		runAuxCallbacks(ctx, p, e.ID)
		consumeAuxProp(ctx, p)
	}

	living.Health -= currentDamage
	if living.Health < 0 {
		living.Health = 0
	}
	emitEvent(ctx, Event{Kind: EventHitLanded, Entity: e.ID, Damage: currentDamage})

	for _, p := range props {
		if p.Effect.Bucket() != BucketAfterHit || !p.RequirementsPass(ctx, hp, currentDamage) {
			continue
		}
		delta := evalDamageExpr(ctx, e.ID, &p.Params, currentDamage)
		switch p.Effect {
		case EffectDecreaseDamageSum:
			living.Health += delta
		case EffectDrainHP:
			living.Health -= delta
		case EffectRecoverHP:
			living.Health += delta
		}
		if living.Health < 0 {
			living.Health = 0
		} else if living.Health > living.MaxHealth {
			living.Health = living.MaxHealth
		}
		runAuxCallbacks(ctx, p, e.ID)
		consumeAuxProp(ctx, p)
	}

	if hp.Drag != nil {
		startMovement(ctx, e, nil, *hp.Drag, entity.MovementSlide, 4)
	}

	if living.Health <= 0 {
		emitEvent(ctx, Event{Kind: EventEntityDefeated, Entity: e.ID})
	}
}

func ensureStatusDirector(living *entity.Living) *entity.StatusDirector {
	if living.StatusDirector == nil {
		living.StatusDirector = entity.NewStatusDirector()
	}
	return living.StatusDirector
}

func runAuxCallbacks(ctx *Context, p *AuxProp, owner entity.ID) {
	for _, fn := range p.Callbacks {
		if fn != nil {
			fn(ctx, owner)
		}
	}
}

func consumeAuxProp(ctx *Context, p *AuxProp) {
	if p.DeletesOnActivation {
		p.pendingDelete = true
	}
}

func evalDamageExpr(ctx *Context, owner entity.ID, params *EffectParams, currentDamage int) int {
	if params.DamageExpr == "" {
		return 0
	}
	if err := params.compileDamageExpr(); err != nil {
		return 0
	}
	env := envFor(ctx, owner, currentDamage)
	out, err := runExprAsFloat(params.damageProgram, env)
	if err != nil {
		return 0
	}
	return int(out)
}

// ownerAuxProps resolves an entity's attached AuxProps from its Living
// component into live pointers, silently skipping any index the simulation
// has since reclaimed.
func ownerAuxProps(ctx *Context, owner entity.ID) []*AuxProp {
	living := ctx.Entities().Living(owner)
	if living == nil {
		return nil
	}
	out := make([]*AuxProp, 0, len(living.AuxProps))
	for _, idx := range living.AuxProps {
		if p, ok := ctx.Sim.auxProps.Get(idx); ok {
			out = append(out, p)
		}
	}
	return out
}
