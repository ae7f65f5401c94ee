package battle

import (
	"battlecore/internal/entity"
)

// startMovement begins relocating e toward dest over duration frames,
// refusing a destination that is out of bounds or a hole tile that already
// holds a reservation, and consulting the entity's active action (if any)
// for a CanMoveToCB veto. An illegal destination
// cancels the movement outright rather than starting it (§4.4 "illegal
// moves are cancelled, never clamped").
func startMovement(ctx *Context, e *entity.Entity, act *Action, dest entity.Position, kind entity.MovementKind, duration int) bool {
	if !ctx.Field().InBounds(dest) {
		return false
	}
	tile := ctx.Field().TileAt(dest)
	def, ok := ctx.Field().Registry().Get(tile.State)
	if ok && def.IsHole && tile.Reserved() {
		return false
	}
	if act != nil && act.CanMoveToCB != nil && !act.CanMoveToCB(ctx, act, dest) {
		return false
	}

	ctx.Field().Release(e.Position, e.ID)
	ctx.Field().Reserve(dest, e.ID)

	e.Movement = &entity.Movement{
		Dest:     dest,
		Kind:     kind,
		Duration: duration,
		Source:   e.Position,
	}
	return true
}

// stepMovements advances every entity with an in-flight Movement by one
// frame (§4.4 frame algorithm, movement-resolution pass). A movement that
// completes this frame updates the entity's resting Position and fires the
// source tile's EntityLeave, then the destination tile's EntityEnter and
// EntityStop callbacks.
func stepMovements(ctx *Context) {
	ctx.Entities().QueryAll(func(e *entity.Entity) {
		if e.Movement == nil || e.Deleted {
			return
		}
		m := e.Movement
		m.Elapsed++
		if !m.Done() {
			return
		}

		leavePos := m.Source
		enterPos := m.Dest
		e.Position = enterPos
		e.Movement = nil

		if def, ok := ctx.Field().Registry().Get(ctx.Field().TileAt(leavePos).State); ok && def.EntityLeave != nil {
			def.EntityLeave(ctx.Field(), leavePos, e.ID)
		}
		if def, ok := ctx.Field().Registry().Get(ctx.Field().TileAt(enterPos).State); ok && def.EntityEnter != nil {
			def.EntityEnter(ctx.Field(), enterPos, e.ID)
		}
		if def, ok := ctx.Field().Registry().Get(ctx.Field().TileAt(enterPos).State); ok && def.EntityStop != nil {
			def.EntityStop(ctx.Field(), enterPos, e.ID)
		}
	})
}

// stepStationaryEntityUpdates fires EntityUpdate for entities that are
// on-field and not mid-movement; EntityStop fires from stepMovements on the
// frame a movement completes. The tile-level UpdateTiles pass is separate
// (§4.2 dispatch order).
func stepStationaryEntityUpdates(ctx *Context) {
	ctx.Entities().QueryAll(func(e *entity.Entity) {
		if !e.OnField || e.Deleted || e.Movement != nil {
			return
		}
		tile := ctx.Field().TileAt(e.Position)
		def, ok := ctx.Field().Registry().Get(tile.State)
		if !ok {
			return
		}
		if def.EntityUpdate != nil {
			def.EntityUpdate(ctx.Field(), e.Position, e.ID)
		}
	})
}
