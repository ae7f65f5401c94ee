package battle

import (
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// Frame intervals for the built-in tile behaviors that need Living access
// (tile_state.rs's POISON_INTERVAL / GRASS_HEAL_INTERVAL /
// GRASS_SLOWED_HEAL_INTERVAL). The retrieval pack's filtered original
// source doesn't carry resources.rs, where these are actually defined, so
// these values approximate the original's cadence rather than reproduce it
// exactly; tests reference the constants rather than a literal frame count.
const (
	poisonInterval          = 10
	grassHealInterval       = 10
	grassSlowedHealInterval = 70
	grassHealThreshold      = 9
)

// installBuiltinTileBehaviors wires the built-in tile states that need
// entity/Living access into f's registry. field.NewDefaultRegistry only
// installs the behaviors that can be expressed purely in terms of
// HitContext and reservations; Poison and Grass need to read and mutate an
// entity's Living, which field can't see without importing entity, so
// battle installs them here once per simulation instead.
func installBuiltinTileBehaviors(f *field.Field, s *Simulation) {
	reg := f.Registry()

	if def, ok := reg.Get(field.StatePoison); ok {
		def.EntityEnter = func(_ *field.Field, _ field.Position, entityID any) {
			poisonHit(s, entityID)
		}
		def.EntityUpdate = func(_ *field.Field, _ field.Position, entityID any) {
			if frame := s.Frame(); frame > 0 && frame%poisonInterval == 0 {
				poisonHit(s, entityID)
			}
		}
	}

	if def, ok := reg.Get(field.StateGrass); ok {
		def.EntityUpdate = func(_ *field.Field, _ field.Position, entityID any) {
			grassHeal(s, entityID)
		}
	}
}

// poisonHit applies Poison's 1-damage tick through the normal hit pipeline
// so it still runs bonus-damage and aux-prop buckets and emits an event,
// matching tile_state.rs's use of Living::process_hit for poison damage.
func poisonHit(s *Simulation, entityID any) {
	id, ok := entityID.(entity.ID)
	if !ok {
		return
	}
	e, living, err := s.Entities.QueryOneMut(id)
	if err != nil || living == nil {
		return
	}
	processHit(&Context{Sim: s}, HitProperties{Damage: 1}, e.Position)
}

// grassHeal heals a Wood-element entity standing on Grass once per
// interval, slowing to grassSlowedHealInterval below grassHealThreshold HP
// (tile_state.rs's Grass entity_update_callback).
func grassHeal(s *Simulation, entityID any) {
	id, ok := entityID.(entity.ID)
	if !ok {
		return
	}
	e, living, err := s.Entities.QueryOneMut(id)
	if err != nil || living == nil {
		return
	}
	if field.Element(e.Element) != field.ElementWood || living.Health >= living.MaxHealth {
		return
	}

	interval := grassHealInterval
	if living.Health < grassHealThreshold {
		interval = grassSlowedHealInterval
	}

	if frame := s.Frame(); frame > 0 && int(frame)%interval == 0 {
		living.Health++
	}
}
