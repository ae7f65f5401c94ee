package battle

import (
	"testing"

	"battlecore/internal/entity"
)

func TestSnapshotRestoreIsIndependentOfLiveMutation(t *testing.T) {
	sim, attacker, defender := newTestSimulation(t)
	ctx := &Context{Sim: sim}

	snap := sim.Snapshot()

	card := CardProperties{Damage: 40, RangeOffsets: []entity.Position{{Col: 1, Row: 0}}}
	CreateActionFromCardProperties(ctx, attacker, card)
	sim.Step(false)

	if sim.Entities.Living(defender).Health != 60 {
		t.Fatalf("expected live sim to take damage, got %d", sim.Entities.Living(defender).Health)
	}
	if snap.Entities.Living(defender).Health != 100 {
		t.Fatalf("expected snapshot to remain untouched at full health, got %d", snap.Entities.Living(defender).Health)
	}

	sim.Restore(snap)
	if sim.Entities.Living(defender).Health != 100 {
		t.Fatalf("expected restore to roll back the damage, got %d", sim.Entities.Living(defender).Health)
	}
	if sim.Frame() != 0 {
		t.Fatalf("expected restore to roll back the frame counter, got %d", sim.Frame())
	}
}

func TestSnapshotRandIsIndependentAfterRestore(t *testing.T) {
	sim, _, _ := newTestSimulation(t)
	snap := sim.Snapshot()

	first := sim.rng.Uint64()
	sim.Restore(snap)
	second := sim.rng.Uint64()

	if first != second {
		t.Fatalf("expected restoring a snapshot to replay the same PRNG sequence, got %d then %d", first, second)
	}
}
