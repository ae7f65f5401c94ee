package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"battlecore/internal/battle"
	"battlecore/internal/entity"
	"battlecore/internal/field"
	"battlecore/internal/netplay"
)

// Session bundles everything one battle has in common across its peers:
// the websocket hub accepting their connections, the deterministic
// Simulation they share, and bookkeeping for the HTTP layer. The
// Coordinator that actually drives rollback isn't built here — it needs
// the card-select-resolved InputApplier, which cmd/battleserver wires in
// once the session's Simulation has at least one Player (§4.6).
type Session struct {
	ID        string
	Hub       *netplay.Hub
	Sim       *battle.Simulation
	CreatedAt time.Time

	connMu  sync.Mutex
	connIPs map[int]string
}

// trackConn records which address holds a given slot, so a later
// disconnect can release that address's WebSocketRateLimiter count.
func (s *Session) trackConn(slot int, ip string) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.connIPs == nil {
		s.connIPs = make(map[int]string)
	}
	s.connIPs[slot] = ip
}

// releaseConn forgets a slot's address and returns it for the caller to
// release on the rate limiter.
func (s *Session) releaseConn(slot int) string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	ip := s.connIPs[slot]
	delete(s.connIPs, slot)
	return ip
}

// SessionStore tracks every in-progress battle this server process hosts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create builds a new Session over a fresh field of the given size and
// registers it under a random ID.
func (s *SessionStore) Create(fieldWidth, fieldHeight int, seed int64) *Session {
	f := field.New(fieldWidth, fieldHeight, field.NewDefaultRegistry())
	store := entity.NewStore(32)
	sim := battle.NewSimulation(f, store, seed)

	sess := &Session{
		ID:        newSessionID(),
		Hub:       netplay.NewHub(),
		Sim:       sim,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get looks up a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove deletes a session, e.g. once every peer has disconnected.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count reports how many sessions are currently tracked.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns every currently tracked session ID. Used by cmd/battleserver's
// tick loop to discover sessions it hasn't started driving yet.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func newSessionID() string {
	return uuid.NewString()
}
