package repository

import (
	"context"

	"github.com/abrezinsky/trackbet/internal/models"
)

// SessionRepository defines durable session state operations. Sessions
// are keyed by their short code; a save replaces the session's players
// and bets atomically.
type SessionRepository interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SessionExists(ctx context.Context, id string) (bool, error)
}

// EventRepository defines the append-only game event log
type EventRepository interface {
	AppendEvent(ctx context.Context, event models.Event) error
	ListEvents(ctx context.Context, sessionID string) ([]models.Event, error)
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	SessionRepository
	EventRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
