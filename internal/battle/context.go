package battle

import (
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// Context is threaded through every action, movement, and aux-prop callback
// so scripted and native code alike can reach the rest of the simulation
// without holding a package-level global (§9).
type Context struct {
	Sim *Simulation

	// IsResimulation is true while the rollback coordinator (internal/netplay)
	// is replaying already-executed frames after a late input arrives. Any
	// callback with observable side effects outside the simulation state
	// itself (sound cues, one-shot script hooks) must check this and skip
	// (§4.5 resimulation rule, §4.4 Action.execute_cb idempotence).
	IsResimulation bool
}

// Field is a convenience accessor mirroring how deeply the teacher's
// handlers reach into nested managers.
func (c *Context) Field() *field.Field {
	return c.Sim.Field
}

// Entities is a convenience accessor for the entity store.
func (c *Context) Entities() *entity.Store {
	return c.Sim.Entities
}

// Rand returns the simulation's deterministic PRNG. Every call site that
// needs randomness must draw from this source — never math/rand's global
// functions — or resimulation will diverge (§8 Determinism).
func (c *Context) Rand() *Rand {
	return c.Sim.rng
}
