package entity

import "testing"

func TestSpawnAndGet(t *testing.T) {
	s := NewStore(8)
	id := s.Spawn(Entity{Position: Position{Col: 1, Row: 2}, Spawned: true, OnField: true})

	e, err := s.Get(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Position != (Position{Col: 1, Row: 2}) {
		t.Errorf("unexpected position %v", e.Position)
	}
}

func TestDespawnReturnsNotFound(t *testing.T) {
	s := NewStore(8)
	id := s.Spawn(Entity{})
	s.Despawn(id)

	_, err := s.Get(id)
	if _, ok := err.(NotFound); !ok {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestQueryLivingExcludesNonLiving(t *testing.T) {
	s := NewStore(8)
	withLiving := s.Spawn(Entity{})
	s.AttachLiving(withLiving, &Living{Health: 10, MaxHealth: 10})
	withoutLiving := s.Spawn(Entity{})

	var seen []ID
	s.QueryLiving(func(e *Entity, l *Living) {
		seen = append(seen, e.ID)
	})

	if len(seen) != 1 || seen[0] != withLiving {
		t.Errorf("expected only %v, got %v", withLiving, seen)
	}

	var seenWithout []ID
	s.QueryWithoutLiving(func(e *Entity) {
		seenWithout = append(seenWithout, e.ID)
	})
	if len(seenWithout) != 1 || seenWithout[0] != withoutLiving {
		t.Errorf("expected only %v, got %v", withoutLiving, seenWithout)
	}
}

func TestOnTileFiltersDeletedAndOffField(t *testing.T) {
	s := NewStore(8)
	pos := Position{Col: 3, Row: 3}
	live := s.Spawn(Entity{Position: pos, OnField: true})
	s.Spawn(Entity{Position: pos, OnField: false})
	deleted := s.Spawn(Entity{Position: pos, OnField: true, Deleted: true})

	var found []ID
	s.OnTile(pos, func(e *Entity) { found = append(found, e.ID) })

	if len(found) != 1 || found[0] != live {
		t.Errorf("expected only %v, got %v (deleted was %v)", live, found, deleted)
	}
}

func TestStatusDirectorTick(t *testing.T) {
	d := NewStatusDirector()
	d.Apply("stun", 2)
	d.Apply("frozen", 0) // indefinite

	d.Tick()
	if !d.Has("stun") {
		t.Error("expected stun to still be active after one tick of two")
	}
	d.Tick()
	if d.Has("stun") {
		t.Error("expected stun to expire after two ticks")
	}
	if !d.Has("frozen") {
		t.Error("indefinite status must not expire from Tick alone")
	}
	d.Remove("frozen")
	if d.Has("frozen") {
		t.Error("expected explicit Remove to clear an indefinite status")
	}
}
