package field

import "testing"

func TestNewFieldBorderIsHidden(t *testing.T) {
	f := New(6, 3, NewDefaultRegistry())

	if tile := f.TileAt(Position{Col: -1, Row: 0}); tile.State != StateHidden {
		t.Errorf("expected border tile to be Hidden, got %d", tile.State)
	}
	if tile := f.TileAt(Position{Col: 0, Row: 0}); tile.State != StateNormal {
		t.Errorf("expected playable tile to start Normal, got %d", tile.State)
	}
}

func TestHoleRejectsFillWithReservations(t *testing.T) {
	f := New(3, 3, NewDefaultRegistry())
	pos := Position{Col: 1, Row: 1}

	if !f.SetState(pos, StateHole) {
		t.Fatal("expected SetState to Hole to succeed on an empty tile")
	}
	f.Reserve(pos, "entity-1")

	if f.SetState(pos, StateNormal) {
		t.Error("expected SetState to Normal to be rejected while reservations are pending")
	}
	if f.TileAt(pos).State != StateHole {
		t.Error("state must remain unchanged after a rejected transition")
	}

	f.Release(pos, "entity-1")
	if !f.SetState(pos, StateNormal) {
		t.Error("expected SetState to succeed once reservations are released")
	}
}

func TestChangeRequestCanVetoTransition(t *testing.T) {
	reg := NewDefaultRegistry()
	reg.states[StateMetal].ChangeRequest = func(pos Position) bool { return false }
	f := New(2, 2, reg)
	pos := Position{Col: 0, Row: 0}

	if f.SetState(pos, StateMetal) {
		t.Error("expected ChangeRequest returning false to veto the transition")
	}
}

func TestTickDecrementsAndRevertsBroken(t *testing.T) {
	f := New(2, 2, NewDefaultRegistry())
	pos := Position{Col: 0, Row: 0}

	if !f.SetState(pos, StateBroken) {
		t.Fatal("expected SetState to Broken to succeed")
	}
	if rem := f.TileAt(pos).LifetimeRemaining; rem == nil || *rem != brokenLifetime {
		t.Fatalf("expected lifetime %d, got %v", brokenLifetime, rem)
	}

	f.Tick()
	if rem := f.TileAt(pos).LifetimeRemaining; rem == nil || *rem != brokenLifetime-1 {
		t.Fatalf("expected lifetime %d after one tick, got %v", brokenLifetime-1, rem)
	}

	for i := 0; i < brokenLifetime-1; i++ {
		f.Tick()
	}
	if f.TileAt(pos).State != StateNormal {
		t.Errorf("expected Broken to revert to Normal, got %d", f.TileAt(pos).State)
	}
}

// TestCrackedEntityLeaveBreaksWhenUnoccupied exercises the actual built-in
// Cracked.EntityLeave callback directly at the field level: the literal
// slide-and-step scenario (a real Movement completing onto a Cracked tile)
// is covered in battle's tilebehavior_test.go, since simulating a slide
// needs the entity store and movement stepping that only battle wires
// together.
func TestCrackedEntityLeaveBreaksWhenUnoccupied(t *testing.T) {
	f := New(2, 2, NewDefaultRegistry())
	pos := Position{Col: 0, Row: 0}

	if !f.SetState(pos, StateCracked) {
		t.Fatal("expected SetState to Cracked to succeed")
	}

	def, ok := f.Registry().Get(StateCracked)
	if !ok || def.EntityLeave == nil {
		t.Fatal("expected Cracked to have an EntityLeave callback")
	}
	def.EntityLeave(f, pos, "entity-1")

	if f.TileAt(pos).State != StateBroken {
		t.Errorf("expected Cracked to break to Broken once the last entity leaves, got %d", f.TileAt(pos).State)
	}
}

func TestCrackedEntityLeaveStaysCrackedWhileStillReserved(t *testing.T) {
	f := New(2, 2, NewDefaultRegistry())
	pos := Position{Col: 0, Row: 0}
	f.SetState(pos, StateCracked)
	f.Reserve(pos, "entity-2")

	def, _ := f.Registry().Get(StateCracked)
	def.EntityLeave(f, pos, "entity-1")

	if f.TileAt(pos).State != StateCracked {
		t.Errorf("expected tile to stay Cracked while another entity still occupies it, got %d", f.TileAt(pos).State)
	}
}

func TestReservationMultisetSemantics(t *testing.T) {
	f := New(2, 2, NewDefaultRegistry())
	pos := Position{Col: 0, Row: 0}

	f.Reserve(pos, "e1")
	f.Reserve(pos, "e1")
	if c := f.TileAt(pos).ReservationCount("e1"); c != 2 {
		t.Fatalf("expected count 2, got %d", c)
	}

	f.Release(pos, "e1")
	if c := f.TileAt(pos).ReservationCount("e1"); c != 1 {
		t.Fatalf("expected count 1 after one release, got %d", c)
	}

	f.Release(pos, "e1")
	if f.TileAt(pos).Reserved() {
		t.Error("expected tile to have no reservations after releasing all")
	}
}
