// Package netplay implements rollback netplay between two or more peers
// sharing one deterministic battle.Simulation (§4.6): confirmed-frame
// input exchange and resimulation when a peer's input for an already-
// stepped frame arrives late. The handshake and package-sync messages
// (Hello through Ready) are defined here; no code in this package sends
// or processes them.
//
// Framing itself is out of scope here — every message below travels as a
// single gorilla/websocket message, which already frames it; this package
// only defines what goes inside one.
package netplay

import (
	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// MessageType tags the payload carried in an Envelope.
type MessageType string

const (
	MsgHello           MessageType = "hello"
	MsgHelloAck        MessageType = "hello_ack"
	MsgHeartbeat       MessageType = "heartbeat"
	MsgPlayerSetup     MessageType = "player_setup"
	MsgPackageList     MessageType = "package_list"
	MsgMissingPackages MessageType = "missing_packages"
	MsgPackageZip      MessageType = "package_zip"
	MsgReady           MessageType = "ready"
	MsgInput           MessageType = "input"
	MsgAllDisconnected MessageType = "all_disconnected"
)

// Envelope is the single shape every netplay message takes on the wire.
// Payload is one of the Hello/.../Input structs below, chosen by Type.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hello opens a session: the connecting peer announces its protocol
// version and a session identifier so reconnects can resume (§4.6
// handshake step 1).
type Hello struct {
	SessionID       string `json:"session_id"`
	ProtocolVersion int    `json:"protocol_version"`
}

// HelloAck answers Hello with the slot the server assigned this peer.
type HelloAck struct {
	SlotID          int `json:"slot_id"`
	PeerCount       int `json:"peer_count"`
	MaxRollbackFrames int `json:"max_rollback_frames"`
}

// Heartbeat is exchanged on an idle connection so a dead peer is detected
// before it silently stalls the whole session (every peer blocks waiting
// for every other peer's input, so one dead peer freezes the match).
type Heartbeat struct {
	Frame uint64 `json:"frame"`
}

// CardSpec is the wire-safe projection of battle.CardProperties — every
// field of CardProperties has a JSON-safe type, so this is a direct
// mirror rather than a filtered subset.
type CardSpec struct {
	Name             string              `json:"name"`
	Damage           int32               `json:"damage"`
	HitFlags         battle.HitFlag      `json:"hit_flags"`
	Element          field.Element       `json:"element"`
	SecondaryElement field.Element       `json:"secondary_element"`
	RangeOffsets     []entity.Position   `json:"range_offsets"`
	LockoutType      battle.LockoutType  `json:"lockout_type"`
	AnimationState   string              `json:"animation_state"`
	Duration         int                 `json:"duration"`
	Movement         *entity.MovementKind `json:"movement,omitempty"`
}

// ToCardProperties rehydrates the CardSpec into a battle.CardProperties.
func (c CardSpec) ToCardProperties() battle.CardProperties {
	return battle.CardProperties{
		Name:             c.Name,
		Damage:           c.Damage,
		HitFlags:         c.HitFlags,
		Element:          c.Element,
		SecondaryElement: c.SecondaryElement,
		RangeOffsets:     c.RangeOffsets,
		LockoutType:      c.LockoutType,
		AnimationState:   c.AnimationState,
		Duration:         c.Duration,
		Movement:         c.Movement,
	}
}

// CardSpecFromProperties projects cp into its wire-safe form for a
// PlayerSetup message.
func CardSpecFromProperties(cp battle.CardProperties) CardSpec {
	return CardSpec{
		Name:             cp.Name,
		Damage:           cp.Damage,
		HitFlags:         cp.HitFlags,
		Element:          cp.Element,
		SecondaryElement: cp.SecondaryElement,
		RangeOffsets:     cp.RangeOffsets,
		LockoutType:      cp.LockoutType,
		AnimationState:   cp.AnimationState,
		Duration:         cp.Duration,
		Movement:         cp.Movement,
	}
}

// PlayerSetup carries the player's chosen deck and team before the field
// is constructed (§4.6 handshake step 2).
type PlayerSetup struct {
	SlotID int        `json:"slot_id"`
	Deck   []CardSpec `json:"deck"`
	Team   int        `json:"team"`
}

// PackageList is the set of scripted content package identifiers (name +
// content hash) this peer already has loaded, exchanged so peers can
// agree on one shared package set before the battle starts (§4.6 package
// sync, §5 Scripting host).
type PackageList struct {
	Packages []PackageRef `json:"packages"`
}

// PackageRef identifies one scripted content package.
type PackageRef struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// MissingPackages requests the named packages from whichever peer listed
// them, by name.
type MissingPackages struct {
	Names []string `json:"names"`
}

// PackageZip answers a MissingPackages request with one package's
// contents, base64-encoded in transit (handled by encoding/json's []byte
// marshaling).
type PackageZip struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Ready announces a peer has loaded every package in the agreed set and
// will begin sending Input messages from StartFrame.
type Ready struct {
	StartFrame uint64 `json:"start_frame"`
}

// Input carries one peer's input for a single simulation frame. Frame is
// the frame this input applies to, not the frame it was sent on — a peer
// running ahead sends Input for frames its local simulation hasn't
// stepped yet (§4.6 speculative execution).
type Input struct {
	SlotID   int    `json:"slot_id"`
	Frame    uint64 `json:"frame"`
	CardSlot int    `json:"card_slot"` // value handed to InputApplier (cardselect reads a Button bitset), or -1 for "no input yet"
}

// AllDisconnected is broadcast by the last peer standing once every other
// peer has dropped, so the session can be torn down on every remaining
// client instead of hanging.
type AllDisconnected struct{}
