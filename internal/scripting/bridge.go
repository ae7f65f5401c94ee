package scripting

import (
	"fmt"

	"github.com/dop251/goja"

	"battlecore/internal/arena"
	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// Bridge exposes a fixed set of engine-side functions into a VM's global
// scope: bridged getters/setters over entities, actions, and tiles, plus
// callback registration for actions (§4.5). Every function resolves its
// arena.Index argument fresh against whatever Context ctxFn returns, so a
// handle held by a script across frames fails cleanly (NotFound) once its
// generation goes stale instead of reading freed memory.
type Bridge struct {
	ctxFn func() *battle.Context
	host  *Host
}

// NewBridge builds a Bridge whose functions operate against the
// Context ctxFn returns at call time, and whose package lookups go
// through host.
func NewBridge(ctxFn func() *battle.Context, host *Host) *Bridge {
	return &Bridge{ctxFn: ctxFn, host: host}
}

// Bind installs every bridge function into vm's global scope.
func (b *Bridge) Bind(vm *VM) error {
	fns := map[string]interface{}{
		"entity_position":     b.entityPosition,
		"entity_set_position": b.entitySetPosition,
		"entity_health":       b.entityHealth,
		"entity_team":         b.entityTeam,
		"action_set_execute":  b.actionCallbackSetter(vm, slotExecute),
		"action_set_update":   b.actionCallbackSetter(vm, slotUpdate),
		"action_set_end":      b.actionCallbackSetter(vm, slotEnd),
		"action_end":          b.actionEnd,
		"tile_state":          b.tileState,
		"tile_set_state":      b.tileSetState,
		"is_resimulation":     b.isResimulation,
		"resolve_package":     b.resolvePackageFor(vm),
	}
	for name, fn := range fns {
		if err := vm.Bind(name, fn); err != nil {
			return fmt.Errorf("scripting: binding %s: %w", name, err)
		}
	}
	return nil
}

func (b *Bridge) entityPosition(id entity.ID) (entity.Position, error) {
	e, err := b.ctxFn().Entities().Get(id)
	if err != nil {
		return entity.Position{}, NotFound{Kind: KindEntity, ID: handleString(id)}
	}
	return e.Position, nil
}

func (b *Bridge) entitySetPosition(id entity.ID, pos entity.Position) error {
	e, err := b.ctxFn().Entities().Get(id)
	if err != nil {
		return NotFound{Kind: KindEntity, ID: handleString(id)}
	}
	e.Position = pos
	return nil
}

func (b *Bridge) entityHealth(id entity.ID) (int, error) {
	ctx := b.ctxFn()
	if !ctx.Entities().Exists(id) {
		return 0, NotFound{Kind: KindEntity, ID: handleString(id)}
	}
	living := ctx.Entities().Living(id)
	if living == nil {
		return 0, nil
	}
	return living.Health, nil
}

func (b *Bridge) entityTeam(id entity.ID) (int, error) {
	e, err := b.ctxFn().Entities().Get(id)
	if err != nil {
		return 0, NotFound{Kind: KindEntity, ID: handleString(id)}
	}
	return e.Team, nil
}

// callback slot names are namespaced by kind and action so one VM can
// register independent callbacks for every action handle it touches.
const (
	slotExecute = "execute"
	slotUpdate  = "update"
	slotEnd     = "end"
)

func actionSlot(kind string, idx arena.Index) string {
	return fmt.Sprintf("action:%s:%d:%d", kind, idx.Slot, idx.Generation)
}

// actionCallbackSetter returns a bridge function that registers a script
// function against one of an action's three callback hooks (§4.4
// Action.update_cb / execute_cb / end_cb) and wires the native Action
// field to invoke it through vm.Call. The native Go callback itself never
// skips on IsResimulation — §4.5 requires scripts to check
// is_resimulation() before their own non-snapshottable side effects,
// the engine's job is only to make that flag observable.
func (b *Bridge) actionCallbackSetter(vm *VM, kind string) func(idx arena.Index, fn goja.Callable) error {
	return func(idx arena.Index, fn goja.Callable) error {
		ctx := b.ctxFn()
		a, ok := ctx.Sim.Action(idx)
		if !ok {
			return NotFound{VMIndex: vm.Index(), Kind: KindAction, ID: handleString(idx)}
		}

		slot := actionSlot(kind, idx)
		vm.RegisterCallback(slot, fn)

		cb := func(ctx *battle.Context, act *battle.Action) {
			vm.Call(slot, act.ID, ctx.IsResimulation)
		}
		switch kind {
		case slotExecute:
			a.ExecuteCB = cb
		case slotUpdate:
			a.UpdateCB = cb
		case slotEnd:
			a.EndCB = cb
		}
		return nil
	}
}

func (b *Bridge) actionEnd(idx arena.Index) error {
	a, ok := b.ctxFn().Sim.Action(idx)
	if !ok {
		return NotFound{Kind: KindAction, ID: handleString(idx)}
	}
	a.End()
	return nil
}

func (b *Bridge) tileState(pos field.Position) (int, error) {
	ctx := b.ctxFn()
	if !ctx.Field().InBounds(pos) {
		return 0, NotFound{Kind: KindTile, ID: fmt.Sprintf("%d,%d", pos.Col, pos.Row)}
	}
	return int(ctx.Field().TileAt(pos).State), nil
}

func (b *Bridge) tileSetState(pos field.Position, state int) (bool, error) {
	ctx := b.ctxFn()
	if !ctx.Field().InBounds(pos) {
		return false, NotFound{Kind: KindTile, ID: fmt.Sprintf("%d,%d", pos.Col, pos.Row)}
	}
	return ctx.Field().SetState(pos, field.StateIndex(state)), nil
}

func (b *Bridge) isResimulation() bool {
	return b.ctxFn().IsResimulation
}

// resolvePackageFor returns a bridge function scoped to vm's own
// namespace — scripts cannot pass an arbitrary namespace to escape
// isolation, they can only ask "resolve this id for me" (§4.5).
func (b *Bridge) resolvePackageFor(vm *VM) func(category, id string) (interface{}, error) {
	return func(category, id string) (interface{}, error) {
		return b.host.ResolvePackage(vm, category, id)
	}
}

func handleString(idx arena.Index) string {
	return fmt.Sprintf("%d:%d", idx.Slot, idx.Generation)
}
