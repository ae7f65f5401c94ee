package netplay

import (
	"log"
	"sort"

	"battlecore/internal/battle"
)

// InputApplier turns one peer's raw Input message into simulation state.
// internal/cardselect implements this by reading cardSlot as a packed
// Button bitset (cursor directions, confirm, cancel);
// netplay only knows slot numbers, never card content.
type InputApplier interface {
	ApplyInput(ctx *battle.Context, slot int, cardSlot int)
}

// Stepper is an optional extension of InputApplier for an applier that
// carries its own per-frame state machine — internal/cardselect.Controller
// implements it so its Phase/slideFrame progression can be kept in
// lockstep with resimulated frames. The live path already advances the
// applier itself once per frame (cmd/battleserver's battleLoop.step calls
// Controller.Step right after Coordinator.Tick); the resimulation loop
// below previously replayed every Simulation frame without a matching
// replay of that external call, leaving the controller's phase timer
// wherever it happened to be instead of where the corrected history says
// it should be (§8 rollback equivalence). stepApplier closes that gap by
// making the same advancement happen from inside the resimulation loop
// itself, where the live path's external caller has no visibility into
// individual replayed frames.
type Stepper interface {
	Step(ctx *battle.Context) bool
}

func (c *Coordinator) stepApplier(ctx *battle.Context) {
	if stepper, ok := c.Applier.(Stepper); ok {
		stepper.Step(ctx)
	}
}

// maxSnapshotHistory bounds how many past frames the Coordinator keeps a
// Snapshot for. A confirmed input older than this cannot trigger a
// rollback and is simply accepted as-is. The value matches the default of
// config.NetplayConfig.MaxRollbackFrames, but the Coordinator uses this
// constant and does not read the config field.
const maxSnapshotHistory = 128

// Coordinator drives one Simulation across a netplay session: it collects
// every peer's per-frame Input (local and remote), predicts missing
// input by repeating each slot's last known selection, and rolls the
// simulation back to resimulate whenever a late Input message corrects a
// frame that was already stepped on a prediction (§4.6 rollback netplay).
type Coordinator struct {
	Hub     *Hub
	Sim     *battle.Simulation
	Applier InputApplier

	localSlot int
	peers     []int

	// confirmed[frame][slot] holds every Input actually received for
	// that frame. predicted[slot] is the last Input used for that slot
	// when none had arrived yet.
	confirmed map[uint64]map[int]Input
	predicted map[int]Input

	snapshots map[uint64]*battle.Snapshot

	confirmedFrame uint64
}

// NewCoordinator builds a coordinator for a simulation already populated
// with every peer's entity and Player component. localSlot identifies
// which peer this process is; peers lists every slot (including
// localSlot) expected to send Input.
func NewCoordinator(hub *Hub, sim *battle.Simulation, applier InputApplier, localSlot int, peers []int) *Coordinator {
	c := &Coordinator{
		Hub:       hub,
		Sim:       sim,
		Applier:   applier,
		localSlot: localSlot,
		peers:     append([]int(nil), peers...),
		confirmed: make(map[uint64]map[int]Input),
		predicted: make(map[int]Input),
		snapshots: make(map[uint64]*battle.Snapshot),
	}
	for _, slot := range peers {
		c.predicted[slot] = Input{SlotID: slot, CardSlot: -1}
	}
	c.snapshots[sim.Frame()] = sim.Snapshot()
	return c
}

// SubmitLocalInput records this process's own selection for the upcoming
// frame, broadcasts it to every peer, and folds it into this frame's
// confirmed set immediately — the local input is never speculative to
// its own origin.
func (c *Coordinator) SubmitLocalInput(frame uint64, cardSlot int) {
	in := Input{SlotID: c.localSlot, Frame: frame, CardSlot: cardSlot}
	c.recordInput(frame, in)
	c.Hub.BroadcastExcept(c.localSlot, Envelope{Type: MsgInput, Payload: in})
}

// DrainRemoteInputs pulls every Envelope the hub's read goroutines have
// queued since the last call and applies Input messages, triggering a
// rollback if one corrects an already-stepped frame.
func (c *Coordinator) DrainRemoteInputs() {
	for _, msg := range c.Hub.Inbound.Drain(256) {
		// Envelope.Payload decodes off the wire as map[string]interface{};
		// decodeInput recovers the typed Input from it.
		input, ok := decodeInput(msg.Env)
		if !ok {
			continue
		}
		c.handleRemoteInput(input)
	}
}

func (c *Coordinator) handleRemoteInput(in Input) {
	alreadyStepped := in.Frame <= c.Sim.Frame()
	priorValue, hadConfirmed := c.confirmed[in.Frame][in.SlotID]
	needsRollback := alreadyStepped && (!hadConfirmed || priorValue != in)

	c.recordInput(in.Frame, in)

	if !needsRollback {
		return
	}
	snap, ok := c.nearestSnapshotAtOrBefore(in.Frame)
	if !ok {
		log.Printf("netplay: no snapshot available to resimulate frame %d, accepting drift", in.Frame)
		return
	}
	current := c.Sim.Frame()
	c.Sim.Restore(snap)
	for f := snap.Frame + 1; f <= current; f++ {
		c.applyFrameInputs(f, true)
		c.Sim.Step(true)
		c.stepApplier(&battle.Context{Sim: c.Sim, IsResimulation: true})
		c.captureSnapshot(f)
	}
}

// recordInput stores in under its frame/slot and, once every expected
// peer has a value for that frame, advances confirmedFrame.
func (c *Coordinator) recordInput(frame uint64, in Input) {
	byFrame, ok := c.confirmed[frame]
	if !ok {
		byFrame = make(map[int]Input, len(c.peers))
		c.confirmed[frame] = byFrame
	}
	byFrame[in.SlotID] = in
	c.predicted[in.SlotID] = in

	for len(c.confirmed[c.confirmedFrame+1]) == len(c.peers) {
		c.confirmedFrame++
		delete(c.confirmed, c.confirmedFrame-maxSnapshotHistory)
		delete(c.snapshots, c.confirmedFrame-maxSnapshotHistory)
	}
}

// applyFrameInputs feeds every slot's known-or-predicted Input for frame
// into the applier immediately before stepping that frame. resimulating
// is threaded into the Context so the applier's action construction can
// skip any non-idempotent one-shot side effect during replay.
func (c *Coordinator) applyFrameInputs(frame uint64, resimulating bool) {
	ctx := &battle.Context{Sim: c.Sim, IsResimulation: resimulating}
	slots := append([]int(nil), c.peers...)
	sort.Ints(slots)
	for _, slot := range slots {
		in, ok := c.confirmed[frame][slot]
		if !ok {
			in = c.predicted[slot]
		}
		if in.CardSlot >= 0 {
			c.Applier.ApplyInput(ctx, slot, in.CardSlot)
		}
	}
}

// Tick advances the simulation by exactly one frame: apply this frame's
// known/predicted inputs, step, then snapshot the result so a later
// rollback can restore to it.
func (c *Coordinator) Tick() {
	c.DrainRemoteInputs()
	next := c.Sim.Frame() + 1
	c.applyFrameInputs(next, false)
	c.Sim.Step(false)
	c.captureSnapshot(next)
}

func (c *Coordinator) captureSnapshot(frame uint64) {
	c.snapshots[frame] = c.Sim.Snapshot()
}

// nearestSnapshotAtOrBefore finds the snapshot to restore from before
// resimulating frame onward — the latest retained snapshot strictly
// before frame, so frame's own input is applied fresh rather than reused
// from before the correction arrived.
func (c *Coordinator) nearestSnapshotAtOrBefore(frame uint64) (*battle.Snapshot, bool) {
	if frame == 0 {
		return nil, false
	}
	for f := frame - 1; ; f-- {
		if snap, ok := c.snapshots[f]; ok {
			return snap, true
		}
		if f == 0 {
			return nil, false
		}
	}
}

// ConfirmedFrame reports the highest frame number for which every peer's
// input is known for certain (no prediction involved).
func (c *Coordinator) ConfirmedFrame() uint64 {
	return c.confirmedFrame
}

func decodeInput(env Envelope) (Input, bool) {
	if env.Type != MsgInput {
		return Input{}, false
	}
	switch p := env.Payload.(type) {
	case Input:
		return p, true
	case map[string]interface{}:
		in := Input{CardSlot: -1}
		if v, ok := p["slot_id"].(float64); ok {
			in.SlotID = int(v)
		}
		if v, ok := p["frame"].(float64); ok {
			in.Frame = uint64(v)
		}
		if v, ok := p["card_slot"].(float64); ok {
			in.CardSlot = int(v)
		}
		return in, true
	default:
		return Input{}, false
	}
}
