package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"battlecore/internal/config"
	"battlecore/internal/entity"
)

// Handler methods for routerHandlers.

func (h *routerHandlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FieldWidth  int   `json:"field_width"`
		FieldHeight int   `json:"field_height"`
		Seed        int64 `json:"seed"`
	}
	// A missing or empty body just takes the defaults below.
	_ = json.NewDecoder(r.Body).Decode(&req)

	battleCfg := config.DefaultBattle()
	if req.FieldWidth <= 0 {
		req.FieldWidth = battleCfg.FieldWidth
	}
	if req.FieldHeight <= 0 {
		req.FieldHeight = battleCfg.FieldHeight
	}

	sess := h.store.Create(req.FieldWidth, req.FieldHeight, req.Seed)
	writeJSON(w, map[string]interface{}{
		"id":         sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (h *routerHandlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"id":          sess.ID,
		"frame":       sess.Sim.Frame(),
		"peer_count":  sess.Hub.PeerCount(),
		"ended":       sess.Sim.Ended,
		"winner_team": sess.Sim.WinnerTeam,
	})
}

func (h *routerHandlers) handleGetSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, sess.Sim.Events().Recent(100))
}

// entitySnapshot is a flattened, JSON-friendly view of one live entity —
// deliberately not a dump of entity.Entity itself, since that would also
// need to serialize the arena's internal slot bookkeeping.
type entitySnapshot struct {
	Col           int  `json:"col"`
	Row           int  `json:"row"`
	Team          int  `json:"team"`
	OnField       bool `json:"on_field"`
	Health        int  `json:"health,omitempty"`
	MaxHealth     int  `json:"max_health,omitempty"`
	HitboxEnabled bool `json:"hitbox_enabled,omitempty"`
}

// handleGetSessionSnapshot exposes the live simulation's current frame for
// diagnosing desyncs without any rendering surface — the JSON
// introspection endpoint the observability supplement calls for.
func (h *routerHandlers) handleGetSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	var entities []entitySnapshot
	sess.Sim.Entities.QueryLiving(func(e *entity.Entity, l *entity.Living) {
		entities = append(entities, entitySnapshot{
			Col: e.Position.Col, Row: e.Position.Row, Team: e.Team, OnField: e.OnField,
			Health: l.Health, MaxHealth: l.MaxHealth, HitboxEnabled: l.HitboxEnabled,
		})
	})
	sess.Sim.Entities.QueryWithoutLiving(func(e *entity.Entity) {
		entities = append(entities, entitySnapshot{
			Col: e.Position.Col, Row: e.Position.Row, Team: e.Team, OnField: e.OnField,
		})
	})
	writeJSON(w, map[string]interface{}{
		"id":          sess.ID,
		"frame":       sess.Sim.Frame(),
		"ended":       sess.Sim.Ended,
		"winner_team": sess.Sim.WinnerTeam,
		"entities":    entities,
	})
}

func (h *routerHandlers) handleSessionWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	ip := GetClientIP(r)
	if h.wsLimiter != nil && !h.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_limit")
		writeError(w, "too many connections from this address", http.StatusTooManyRequests)
		return
	}

	slot, err := sess.Hub.HandleUpgrade(w, r)
	if err != nil {
		if h.wsLimiter != nil {
			h.wsLimiter.Release(ip)
		}
		RecordConnectionRejected("ws_session")
		return
	}

	if h.wsLimiter != nil {
		sess.trackConn(slot, ip)
		limiter := h.wsLimiter
		sess.Hub.OnDisconnect = func(slot int) {
			limiter.Release(sess.releaseConn(slot))
		}
	}
}

func (h *routerHandlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Remove(chi.URLParam(r, "id"))
	writeJSON(w, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
