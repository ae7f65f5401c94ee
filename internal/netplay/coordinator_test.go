package netplay

import (
	"testing"

	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

type recordingApplier struct {
	calls []appliedInput
}

type appliedInput struct {
	Frame    uint64
	Slot     int
	CardSlot int
}

func (r *recordingApplier) ApplyInput(ctx *battle.Context, slot int, cardSlot int) {
	r.calls = append(r.calls, appliedInput{Frame: ctx.Sim.Frame() + 1, Slot: slot, CardSlot: cardSlot})
}

func newTestCoordinator(t *testing.T) (*Coordinator, *recordingApplier) {
	t.Helper()
	f := field.New(4, 4, field.NewDefaultRegistry())
	store := entity.NewStore(4)
	sim := battle.NewSimulation(f, store, 7)
	applier := &recordingApplier{}
	hub := NewHub()
	coord := NewCoordinator(hub, sim, applier, 0, []int{0, 1})
	return coord, applier
}

func TestSubmitLocalInputConfirmsOnceEveryPeerReports(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	coord.SubmitLocalInput(1, 2)
	if coord.ConfirmedFrame() != 0 {
		t.Fatalf("expected frame 1 unconfirmed until peer 1 reports, got confirmed=%d", coord.ConfirmedFrame())
	}

	coord.handleRemoteInput(Input{SlotID: 1, Frame: 1, CardSlot: 3})
	if coord.ConfirmedFrame() != 1 {
		t.Fatalf("expected frame 1 confirmed once both slots reported, got %d", coord.ConfirmedFrame())
	}
}

func TestTickAppliesPredictedInputWhenPeerMissing(t *testing.T) {
	coord, applier := newTestCoordinator(t)

	coord.SubmitLocalInput(1, 5)
	coord.Tick()

	if len(applier.calls) != 1 {
		t.Fatalf("expected only the local slot's input to apply (peer 1 has no selection yet), got %d calls", len(applier.calls))
	}
	if applier.calls[0].Slot != 0 || applier.calls[0].CardSlot != 5 {
		t.Fatalf("unexpected applied input: %+v", applier.calls[0])
	}
}

func TestLateRemoteInputTriggersResimulation(t *testing.T) {
	coord, applier := newTestCoordinator(t)

	coord.SubmitLocalInput(1, 0)
	coord.Tick() // frame 1 steps with only the local input known

	coord.SubmitLocalInput(2, 0)
	coord.Tick() // frame 2

	// Peer 1's input for frame 1 arrives late, after frame 1 was already
	// stepped on a prediction of "no selection" (-1).
	coord.handleRemoteInput(Input{SlotID: 1, Frame: 1, CardSlot: 9})

	var sawFrame1SlotOne bool
	for _, c := range applier.calls {
		if c.Frame == 1 && c.Slot == 1 && c.CardSlot == 9 {
			sawFrame1SlotOne = true
		}
	}
	if !sawFrame1SlotOne {
		t.Fatalf("expected resimulation to reapply the corrected frame-1 input for slot 1, calls=%+v", applier.calls)
	}
	if coord.Sim.Frame() != 2 {
		t.Fatalf("expected resimulation to return the simulation to its original frame, got %d", coord.Sim.Frame())
	}
}
