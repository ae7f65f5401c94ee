package netplay

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// MaxPeersPerSession caps how many battle participants one session's Hub
// will accept — a battle is a handful of peers, not a spectator crowd, so
// this is small on purpose.
const MaxPeersPerSession = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PeerConn wraps one peer's websocket connection together with the slot
// the session assigned it.
type PeerConn struct {
	conn   *websocket.Conn
	SlotID int
}

func (p *PeerConn) send(env Envelope) error {
	return p.conn.WriteJSON(env)
}

// inboundMessage pairs a decoded Envelope with the slot it arrived from,
// so the coordinator's single consumer loop knows who sent what.
type inboundMessage struct {
	SlotID int
	Env    Envelope
}

// Hub owns every peer connection in one battle session and the single
// InboundQueue their read goroutines feed (§4.6). Unlike the teacher's
// spectator broadcast hub, a netplay Hub addresses individual peers by
// slot (Send) as well as broadcasting; the Coordinator relays each local
// Input to every other peer through BroadcastExcept.
type Hub struct {
	mu    sync.RWMutex
	peers map[int]*PeerConn

	Inbound *InboundQueue[inboundMessage]

	// OnDisconnect, if set, is called after a peer's connection closes —
	// for the rate limiter, or for session teardown once every peer is
	// gone.
	OnDisconnect func(slot int)
}

// NewHub builds an empty hub with room for a session's inbound traffic.
func NewHub() *Hub {
	return &Hub{
		peers:   make(map[int]*PeerConn),
		Inbound: NewInboundQueue[inboundMessage](1024),
	}
}

// PeerCount reports how many peers are currently connected.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Send delivers env to exactly one peer by slot. Returns false if that
// slot isn't connected.
func (h *Hub) Send(slot int, env Envelope) bool {
	h.mu.RLock()
	p, ok := h.peers[slot]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := p.send(env); err != nil {
		log.Printf("netplay: write to slot %d failed: %v", slot, err)
		return false
	}
	return true
}

// Broadcast delivers env to every connected peer.
func (h *Hub) Broadcast(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for slot, p := range h.peers {
		if err := p.send(env); err != nil {
			log.Printf("netplay: broadcast to slot %d failed: %v", slot, err)
		}
	}
}

// BroadcastExcept delivers env to every connected peer other than except —
// used to relay one peer's Input to its opponents without echoing it back.
func (h *Hub) BroadcastExcept(except int, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for slot, p := range h.peers {
		if slot == except {
			continue
		}
		if err := p.send(env); err != nil {
			log.Printf("netplay: broadcast to slot %d failed: %v", slot, err)
		}
	}
}

// Disconnect drops a peer's connection and reports whether any peer is
// still connected afterward.
func (h *Hub) Disconnect(slot int) (anyRemain bool) {
	h.mu.Lock()
	if p, ok := h.peers[slot]; ok {
		p.conn.Close()
		delete(h.peers, slot)
	}
	anyRemain = len(h.peers) > 0
	h.mu.Unlock()
	if h.OnDisconnect != nil {
		h.OnDisconnect(slot)
	}
	return anyRemain
}

// HandleUpgrade upgrades an incoming HTTP request to a websocket
// connection, assigns it the next free slot, and starts its read loop.
// Returns the assigned slot, or an error if the session is full or the
// upgrade failed.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) (int, error) {
	h.mu.Lock()
	if len(h.peers) >= MaxPeersPerSession {
		h.mu.Unlock()
		http.Error(w, "session full", http.StatusServiceUnavailable)
		return 0, errSessionFull
	}
	slot := nextFreeSlot(h.peers)
	h.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return 0, err
	}

	p := &PeerConn{conn: conn, SlotID: slot}
	h.mu.Lock()
	h.peers[slot] = p
	h.mu.Unlock()

	go h.readLoop(p)
	return slot, nil
}

func (h *Hub) readLoop(p *PeerConn) {
	defer func() {
		h.Disconnect(p.SlotID)
	}()
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("netplay: malformed message from slot %d: %v", p.SlotID, err)
			continue
		}
		if !h.Inbound.TryPush(inboundMessage{SlotID: p.SlotID, Env: env}) {
			log.Printf("netplay: inbound queue full, dropping message from slot %d", p.SlotID)
		}
	}
}

func nextFreeSlot(peers map[int]*PeerConn) int {
	for slot := 0; slot < MaxPeersPerSession; slot++ {
		if _, taken := peers[slot]; !taken {
			return slot
		}
	}
	return len(peers)
}

var errSessionFull = sessionFullError{}

type sessionFullError struct{}

func (sessionFullError) Error() string { return "netplay: session is full" }
