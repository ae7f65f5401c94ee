package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server fronting every battle session this
// process hosts. Session websocket traffic is handled by each session's
// own internal/netplay.Hub rather than a single process-wide hub, since
// peers in one battle must never see another battle's messages.
type Server struct {
	store       *SessionStore
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	wsLimiter   *WebSocketRateLimiter
}

// NewServer creates a new API server with default production configuration.
//
// No network listener is opened until Start() is called. The rate
// limiter's cleanup goroutine starts here, in NewServer; Stop() ends it.
//
// For testing HTTP endpoints, use NewRouter() directly.
func NewServer(store *SessionStore) *Server {
	s := &Server{store: store}
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.wsLimiter = NewWebSocketRateLimiter(defaultMaxWSConnectionsPerIP)
	s.router = NewRouter(RouterConfig{
		Store:         store,
		RateLimiter:   s.rateLimiter,
		WSRateLimiter: s.wsLimiter,
	})
	return s
}

// Start begins the HTTP server. Call this method only once; to stop the
// server, signal the process.
func (s *Server) Start(addr string) error {
	log.Printf("battlecore API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(api.NewSessionStore())
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/sessions/" + id)
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
