// Package handlers is the service boundary: the HTTP control plane for
// session lifecycle and the WebSocket gateway for game traffic.
package handlers

import (
	"context"

	"github.com/abrezinsky/trackbet/internal/hub"
	"github.com/abrezinsky/trackbet/internal/models"
)

// Version reported by the health endpoint
const Version = "1.0.0"

// SessionServicer defines the session manager operations the gateway
// dispatches to
type SessionServicer interface {
	CreateSession(ctx context.Context) (string, error)
	Join(ctx context.Context, sessionID, name string) (string, error)
	Reconnect(ctx context.Context, token string) (sessionID, playerName string, err error)
	Identify(ctx context.Context, token string) (sessionID, playerName string, err error)
	PlaceBet(ctx context.Context, sessionID, playerName string, req *models.BetRequest) error
	RemoveBet(ctx context.Context, sessionID, playerName, spotKey string) error
	StartRace(ctx context.Context, sessionID string) (bool, error)
	EndRace(ctx context.Context, sessionID string, results *models.RaceResults) (bool, error)
	NextRace(ctx context.Context, sessionID string) (bool, error)
	Snapshot(ctx context.Context, sessionID string) (*models.Snapshot, error)
	SetConnected(ctx context.Context, sessionID, playerName string, connected bool)
	Events(ctx context.Context, sessionID string) ([]models.Event, error)
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Sessions SessionServicer
	Hub      *hub.Hub
	Log      HTTPLogger

	// BaseURL is the externally reachable address encoded into join QR
	// codes, e.g. http://192.168.1.20:8081
	BaseURL string
}

// New creates a new Handlers instance with all dependencies
func New(sessions SessionServicer, h *hub.Hub, log HTTPLogger, baseURL string) *Handlers {
	return &Handlers{
		Sessions: sessions,
		Hub:      h,
		Log:      log,
		BaseURL:  baseURL,
	}
}
