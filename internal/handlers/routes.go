package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/", h.handleHealth)

	// Control plane
	r.Post("/api/sessions", h.handleCreateSession)
	r.Post("/api/sessions/{sessionID}/join", h.handleJoinSession)
	r.Post("/api/players/reconnect", h.handleReconnect)
	r.Get("/api/sessions/{sessionID}/state", h.handleSessionState)
	r.Get("/api/sessions/{sessionID}/events", h.handleSessionEvents)
	r.Get("/api/sessions/{sessionID}/qr", h.handleSessionQR)

	// Game stream
	r.Get("/ws/{sessionID}/{playerToken}", h.handleWebSocket)

	return r
}
