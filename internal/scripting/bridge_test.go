package scripting

import (
	"testing"

	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

func newBridgeTestContext(t *testing.T) (*battle.Context, entity.ID) {
	t.Helper()
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)
	id := store.Spawn(entity.Entity{Position: entity.Position{Col: 1, Row: 1}, Team: 0, OnField: true})
	store.AttachLiving(id, &entity.Living{Health: 50, MaxHealth: 100})
	sim := battle.NewSimulation(f, store, 1)
	return &battle.Context{Sim: sim}, id
}

func TestEntityPositionAndSetPosition(t *testing.T) {
	ctx, id := newBridgeTestContext(t)
	b := NewBridge(func() *battle.Context { return ctx }, NewHost(4, 0))

	pos, err := b.entityPosition(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Col != 1 || pos.Row != 1 {
		t.Fatalf("expected (1,1), got %+v", pos)
	}

	if err := b.entitySetPosition(id, entity.Position{Col: 2, Row: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos, _ = b.entityPosition(id)
	if pos.Col != 2 || pos.Row != 3 {
		t.Fatalf("expected (2,3) after set, got %+v", pos)
	}
}

func TestEntityPositionNotFoundForStaleHandle(t *testing.T) {
	ctx, id := newBridgeTestContext(t)
	b := NewBridge(func() *battle.Context { return ctx }, NewHost(4, 0))

	ctx.Sim.Entities.Despawn(id)

	if _, err := b.entityPosition(id); err == nil {
		t.Fatal("expected NotFound for a despawned entity")
	} else if nf, ok := err.(NotFound); !ok || nf.Kind != KindEntity {
		t.Fatalf("expected entity NotFound, got %v", err)
	}
}

func TestActionCallbackSetterWiresExecuteCB(t *testing.T) {
	ctx, id := newBridgeTestContext(t)
	host := NewHost(4, 0)
	b := NewBridge(func() *battle.Context { return ctx }, host)

	a := &battle.Action{OwnerEntity: id}
	idx := ctx.Sim.QueueAction(a)

	vm := NewVM(NamespaceLocal, 0)
	if err := b.Bind(vm); err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	if err := vm.LoadScript(`
		var fired = false;
		function onExecute(handle, resim) { fired = true; }
	`); err != nil {
		t.Fatalf("unexpected script error: %v", err)
	}

	// Exercise action_set_execute the way a script would: call it from JS
	// with the handle and the just-defined function.
	if _, err := vm.runtime.RunString(`action_set_execute({Slot: 0, Generation: 1}, onExecute)`); err != nil {
		t.Fatalf("unexpected error invoking action_set_execute: %v", err)
	}

	got, ok2 := ctx.Sim.Action(idx)
	if !ok2 {
		t.Fatal("expected action still present")
	}
	if got.ExecuteCB == nil {
		t.Fatal("expected ExecuteCB to be wired")
	}

	got.Execute(ctx)

	firedVal := vm.runtime.Get("fired")
	if firedVal == nil || !firedVal.ToBoolean() {
		t.Fatal("expected the script's onExecute to have run")
	}
}
