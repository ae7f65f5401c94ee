// Package battle implements the deterministic frame-stepped simulation
// (§4.4): actions, movement resolution, the hit pipeline, and the
// win-condition check, all driven by a fixed per-frame algorithm so that
// identical (seed, inputs) produce byte-identical state (§8 Determinism).
package battle

import (
	"battlecore/internal/arena"
	"battlecore/internal/entity"
)

// LockoutType controls how a newly queued action interacts with whatever is
// already executing on the same entity (§3 Action invariant).
type LockoutType int

const (
	// LockoutNone lets the action run alongside whatever else is active.
	LockoutNone LockoutType = iota
	// LockoutSequence queues behind the current action; only one Sequence
	// action executes at a time.
	LockoutSequence
	// LockoutAnimation takes over the entity's animation state exclusively;
	// only one Animation action executes at a time.
	LockoutAnimation
)

// ActionLifecycle is the state machine described in §4.4.
type ActionLifecycle int

const (
	ActionCreated ActionLifecycle = iota
	ActionQueued
	ActionExecuting
	ActionEnded
	ActionFreed
)

// FrameCallback fires when an action's derived animation frame reaches
// FrameIndex.
type FrameCallback struct {
	FrameIndex int
	Fn         func(ctx *Context, a *Action)
}

// Step is one entry in an action's sequential step list (§3 Action.steps).
// Only the first incomplete step's callback runs per frame; completion
// advances to the next step.
type Step struct {
	Fn        func(ctx *Context, a *Action) bool // returns true when complete
	Completed bool
}

// Action is a time-bounded behavior attached to an entity (§3 Action).
type Action struct {
	ID             arena.Index
	OwnerEntity    entity.ID
	SpriteIndex    arena.Index
	AnimationState string
	DerivedFrame   int

	FrameCallbacks []FrameCallback
	Steps          []Step
	stepCursor     int

	UpdateCB        func(ctx *Context, a *Action)
	AnimationEndCB  func(ctx *Context, a *Action)
	EndCB           func(ctx *Context, a *Action)
	ExecuteCB       func(ctx *Context, a *Action)
	CanMoveToCB     func(ctx *Context, a *Action, dest entity.Position) bool

	Attachments []arena.Index

	LockoutType LockoutType
	Lifecycle   ActionLifecycle
	Executed    bool // true once ExecuteCB has run; never re-run on resimulation
	AnimationEnded bool
	Ended          bool

	Properties CardProperties
}

// RunUpdate runs the action's update callback and its single active step,
// then fires any frame callback whose index equals the current derived
// frame (§4.4 frame algorithm step 3).
func (a *Action) RunUpdate(ctx *Context) {
	if a.Lifecycle != ActionExecuting {
		return
	}

	if a.UpdateCB != nil {
		a.UpdateCB(ctx, a)
	}

	if a.stepCursor < len(a.Steps) {
		step := &a.Steps[a.stepCursor]
		if !step.Completed && step.Fn != nil {
			if step.Fn(ctx, a) {
				step.Completed = true
				a.stepCursor++
			}
		}
	}

	for _, fc := range a.FrameCallbacks {
		if fc.FrameIndex == a.DerivedFrame && fc.Fn != nil {
			fc.Fn(ctx, a)
		}
	}
}

// Execute transitions the action to Executing and runs ExecuteCB exactly
// once: a call on an action whose Executed flag is already set returns
// without doing anything.
func (a *Action) Execute(ctx *Context) {
	if a.Executed {
		return
	}
	a.Lifecycle = ActionExecuting
	a.Executed = true
	if a.ExecuteCB != nil {
		a.ExecuteCB(ctx, a)
	}
}

// End marks the action as having finished execution (animation completion
// or an explicit end request). The end-of-frame sweep fires EndCB and frees
// the action once Ended is observed.
func (a *Action) End() {
	if a.Ended {
		return
	}
	a.Ended = true
	a.Lifecycle = ActionEnded
}
