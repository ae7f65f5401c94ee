package battle

import (
	"testing"

	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// TestCrackedBreaksOnSlideAway is the literal slide-off scenario: an entity
// standing on a Cracked tile slides away over 4 frames, and once it fully
// leaves, the tile it vacated breaks to Broken with no reservations left
// behind.
func TestCrackedBreaksOnSlideAway(t *testing.T) {
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)

	start := entity.Position{Col: 1, Row: 0}
	dest := entity.Position{Col: 2, Row: 0}

	e := store.Spawn(entity.Entity{Position: start, OnField: true})
	f.SetState(field.Position(start), field.StateCracked)
	f.Reserve(field.Position(start), e)

	sim := NewSimulation(f, store, 1)
	ctx := &Context{Sim: sim}

	ent, _, err := store.QueryOneMut(e)
	if err != nil {
		t.Fatalf("unexpected error resolving entity: %v", err)
	}
	if !startMovement(ctx, ent, nil, dest, entity.MovementSlide, 4) {
		t.Fatal("expected slide to start")
	}

	for i := 0; i < 4; i++ {
		sim.Step(false)
	}

	if got := f.TileAt(field.Position(start)).State; got != field.StateBroken {
		t.Errorf("expected vacated tile to break to Broken, got %d", got)
	}
	if f.TileAt(field.Position(start)).Reserved() {
		t.Error("expected vacated tile to have no reservations left")
	}
	if ent.Position != dest {
		t.Errorf("expected entity at %v, got %v", dest, ent.Position)
	}
}

// TestPoisonTick matches the documented scenario: entering a Poison tile
// costs 1 HP immediately, and another 1 HP every poisonInterval frames
// after that.
func TestPoisonTick(t *testing.T) {
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)

	pos := entity.Position{Col: 1, Row: 0}
	e := store.Spawn(entity.Entity{Position: pos, OnField: true})
	store.AttachLiving(e, &entity.Living{Health: 10, MaxHealth: 10, HitboxEnabled: true})

	sim := NewSimulation(f, store, 1)
	f.SetState(field.Position(pos), field.StatePoison)

	poisonDef, _ := f.Registry().Get(field.StatePoison)
	poisonDef.EntityEnter(f, field.Position(pos), e)

	if got := store.Living(e).Health; got != 9 {
		t.Fatalf("expected entering Poison to cost 1 HP, health=9, got %d", got)
	}

	for i := uint64(0); i < poisonInterval; i++ {
		sim.Step(false)
	}

	if got := store.Living(e).Health; got != 8 {
		t.Fatalf("expected health 10-1(enter)-1(interval)=8, got %d", got)
	}
}

// TestGrassHealsWoodEntity matches the documented scenario: a Wood entity
// below max health heals 1 HP on a Grass tile once grassSlowedHealInterval
// frames elapse (its health is below grassHealThreshold).
func TestGrassHealsWoodEntity(t *testing.T) {
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)

	pos := entity.Position{Col: 1, Row: 0}
	e := store.Spawn(entity.Entity{Position: pos, OnField: true, Element: int(field.ElementWood)})
	store.AttachLiving(e, &entity.Living{Health: 5, MaxHealth: 20, HitboxEnabled: true})

	sim := NewSimulation(f, store, 1)
	f.SetState(field.Position(pos), field.StateGrass)

	for i := uint64(0); i < grassSlowedHealInterval; i++ {
		sim.Step(false)
	}

	if got := store.Living(e).Health; got != 6 {
		t.Fatalf("expected Grass to heal Wood entity to 6, got %d", got)
	}
}
