package battle

import (
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"battlecore/internal/arena"
	"battlecore/internal/entity"
)

// RequirementKind orders a Requirement's evaluation priority. The numeric
// values ARE the priority (low to high) named in §3: Unconditional, Timer,
// HitProp, Body, HP-expression, HP-above, HP-below.
type RequirementKind int

const (
	ReqUnconditional RequirementKind = iota
	ReqTimer
	ReqHitProp
	ReqBody
	ReqHPExpression
	ReqHPAbove
	ReqHPBelow
)

// hpExprEnv is the variable set exposed to HP-expression requirements and
// damage-math effects (§4.4: "variables MaxHealth, Health, Damage — current
// values at evaluation time").
type hpExprEnv struct {
	MaxHealth float64
	Health    float64
	Damage    float64
}

// Requirement is one clause of an AuxProp's gate. All requirement kinds
// share the "reset on pass" rule for Timer: once its interval is consumed
// it cannot pass again until the interval elapses fresh (§3).
type Requirement struct {
	Kind RequirementKind

	// ReqTimer
	TimerInterval int
	timerCounter  int

	// ReqHitProp
	HitFlag HitFlag

	// ReqBody — an engine-side predicate; scripted content registers this
	// through the bridge rather than compiling arbitrary body logic.
	BodyCheck func(ctx *Context, owner entity.ID) bool

	// ReqHPExpression — boolean expr-lang expression over hpExprEnv.
	Expression string
	compiled   *vm.Program

	// ReqHPAbove / ReqHPBelow — fraction of MaxHealth, e.g. 0.5.
	ThresholdFrac float64
}

// Priority returns this requirement's ordering priority (§3 AuxProp
// ordering key's second component).
func (r *Requirement) Priority() int {
	return int(r.Kind)
}

// compile lazily compiles the expr-lang program for ReqHPExpression
// requirements. Safe to call repeatedly; compiles once.
func (r *Requirement) compile() error {
	if r.compiled != nil || r.Expression == "" {
		return nil
	}
	program, err := expr.Compile(r.Expression, expr.Env(hpExprEnv{}), expr.AsBool())
	if err != nil {
		return err
	}
	r.compiled = program
	return nil
}

func (r *Requirement) evaluate(ctx *Context, owner entity.ID, hit HitProperties, currentDamage int) bool {
	switch r.Kind {
	case ReqUnconditional:
		return true

	case ReqTimer:
		r.timerCounter++
		if r.timerCounter >= r.TimerInterval {
			r.timerCounter = 0
			return true
		}
		return false

	case ReqHitProp:
		return hit.Flags&r.HitFlag != 0

	case ReqBody:
		if r.BodyCheck == nil {
			return true
		}
		return r.BodyCheck(ctx, owner)

	case ReqHPExpression:
		if err := r.compile(); err != nil {
			log.Printf("auxprop: failed to compile HP-expression %q: %v", r.Expression, err)
			return false
		}
		env := envFor(ctx, owner, currentDamage)
		out, err := expr.Run(r.compiled, env)
		if err != nil {
			log.Printf("auxprop: HP-expression %q failed at runtime: %v", r.Expression, err)
			return false
		}
		b, _ := out.(bool)
		return b

	case ReqHPAbove, ReqHPBelow:
		living := ctx.Sim.Entities.Living(owner)
		if living == nil || living.MaxHealth == 0 {
			return false
		}
		frac := float64(living.Health) / float64(living.MaxHealth)
		if r.Kind == ReqHPAbove {
			return frac > r.ThresholdFrac
		}
		return frac < r.ThresholdFrac
	}
	return false
}

// runExprAsFloat executes a compiled expr-lang program and coerces its
// result to float64, accepting either an int or float64 return type.
func runExprAsFloat(program *vm.Program, env hpExprEnv) (float64, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, nil
	}
}

func envFor(ctx *Context, owner entity.ID, currentDamage int) hpExprEnv {
	living := ctx.Sim.Entities.Living(owner)
	env := hpExprEnv{Damage: float64(currentDamage)}
	if living != nil {
		env.Health = float64(living.Health)
		env.MaxHealth = float64(living.MaxHealth)
	}
	return env
}

// Effect is the action an AuxProp takes once its requirements pass. Its
// numeric value fixes both tie-break ordering and the before/on/after-hit
// bucket (§3: before-hit 0..2, on-hit 3..4, after-hit 5..).
type Effect int

const (
	EffectStatusImmunity Effect = iota
	EffectApplyStatus
	EffectRemoveStatus
	EffectIncreaseHitDamage
	EffectDecreaseHitDamage
	EffectDecreaseDamageSum
	EffectDrainHP
	EffectRecoverHP
	EffectNone
)

// Priority returns this effect's ordering priority (§3 AuxProp ordering
// key's first, dominant component).
func (e Effect) Priority() int {
	return int(e)
}

// Bucket classifies the effect into the three pipeline phases process_hit
// runs (§4.4 step 2).
type Bucket int

const (
	BucketBeforeHit Bucket = iota
	BucketOnHit
	BucketAfterHit
)

func (e Effect) Bucket() Bucket {
	switch {
	case e <= EffectRemoveStatus:
		return BucketBeforeHit
	case e <= EffectDecreaseHitDamage:
		return BucketOnHit
	default:
		return BucketAfterHit
	}
}

// EffectParams carries whichever of these the active Effect needs.
type EffectParams struct {
	StatusName      string
	DamageExpr      string // expr-lang expression producing a delta, env = hpExprEnv
	damageProgram   *vm.Program
	ImmuneToElement *fieldElementPlaceholder
}

// fieldElementPlaceholder avoids a hard dependency cycle between battle and
// field for the (rarely used) element-immunity case; it simply stores the
// int value of a field.Element.
type fieldElementPlaceholder struct {
	Value int
}

func (p *EffectParams) compileDamageExpr() error {
	if p.damageProgram != nil || p.DamageExpr == "" {
		return nil
	}
	program, err := expr.Compile(p.DamageExpr, expr.Env(hpExprEnv{}))
	if err != nil {
		return err
	}
	p.damageProgram = program
	return nil
}

// AuxProp is a per-entity conditional rule observing and/or modifying hits
// (§3 AuxProp, Glossary).
type AuxProp struct {
	ID     arena.Index
	Owner  entity.ID

	Requirements []*Requirement
	Effect       Effect
	Params       EffectParams
	Callbacks    []func(ctx *Context, owner entity.ID)

	DeletesOnActivation bool
	DeletesNextFrame    bool
	pendingDelete       bool
}

// MaxRequirementPriority returns the highest-priority requirement attached
// to this prop, the tie-break key in AuxProp global ordering.
func (a *AuxProp) MaxRequirementPriority() int {
	max := 0
	for _, r := range a.Requirements {
		if p := r.Priority(); p > max {
			max = p
		}
	}
	return max
}

// RequirementsPass reports whether every requirement clause currently
// passes for the given hit.
func (a *AuxProp) RequirementsPass(ctx *Context, hit HitProperties, currentDamage int) bool {
	for _, r := range a.Requirements {
		if !r.evaluate(ctx, a.Owner, hit, currentDamage) {
			return false
		}
	}
	return true
}

// sortAuxProps orders props by (effect_priority, max_requirement_priority)
// ascending, the determinism-critical ordering required by §8's AuxProp
// priority invariant.
func sortAuxProps(props []*AuxProp) {
	// Simple insertion sort: prop counts per entity are small (single
	// digits), and stability matters more than asymptotic complexity here.
	for i := 1; i < len(props); i++ {
		j := i
		for j > 0 && auxPropLess(props[j], props[j-1]) {
			props[j], props[j-1] = props[j-1], props[j]
			j--
		}
	}
}

func auxPropLess(a, b *AuxProp) bool {
	if a.Effect.Priority() != b.Effect.Priority() {
		return a.Effect.Priority() < b.Effect.Priority()
	}
	return a.MaxRequirementPriority() < b.MaxRequirementPriority()
}
