package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and
// testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Store: api.NewSessionStore(),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Store holds every battle session this process hosts (required).
	Store *SessionStore

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default development origins.
	CORSOrigins []string

	// WSRateLimiter caps concurrent websocket connections per IP, separate
	// from the HTTP request-rate limiter above. If nil, a new one is
	// created with a generous per-IP cap — a battle only ever needs a
	// handful of concurrent connections per address.
	WSRateLimiter *WebSocketRateLimiter

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	store     *SessionStore
	wsLimiter *WebSocketRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It opens no network listeners, so it can be used in tests with
// httptest.NewServer. When cfg.RateLimiter is nil, the IPRateLimiter it
// builds starts its own cleanup goroutine; pass a limiter in to avoid that.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	wsLimiter := cfg.WSRateLimiter
	if wsLimiter == nil {
		wsLimiter = NewWebSocketRateLimiter(defaultMaxWSConnectionsPerIP)
	}

	h := &routerHandlers{store: cfg.Store, wsLimiter: wsLimiter}

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Get("/{id}", h.handleGetSession)
		r.Get("/{id}/events", h.handleGetSessionEvents)
		r.Get("/{id}/snapshot", h.handleGetSessionSnapshot)
		r.Get("/{id}/ws", h.handleSessionWebSocket)
		r.Delete("/{id}", h.handleDeleteSession)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// GetRateLimiterFromRouter returns cfg.RateLimiter when it is set. Otherwise
// it builds a new IPRateLimiter from cfg's rate-limit settings, which is a
// separate instance from the one NewRouter builds for the same cfg.
func GetRateLimiterFromRouter(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(rateLimitCfg)
}
