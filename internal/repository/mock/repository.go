package mock

import (
	"context"

	"github.com/abrezinsky/trackbet/internal/models"
	"github.com/abrezinsky/trackbet/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for
// testing. This provides a flexible way to test error paths without
// complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveSessionError = errors.New("database error")
//	mgr := session.NewManager(log, mockRepo, rng, 0, 0)
//	_, err := mgr.CreateSession(ctx)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	SaveSessionError   error
	GetSessionError    error
	ListSessionsError  error
	DeleteSessionError error
	SessionExistsError error
	AppendEventError   error
	ListEventsError    error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{FullRepository: real}
}

func (m *Repository) SaveSession(ctx context.Context, session *models.Session) error {
	if m.SaveSessionError != nil {
		return m.SaveSessionError
	}
	return m.FullRepository.SaveSession(ctx, session)
}

func (m *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}
	return m.FullRepository.GetSession(ctx, id)
}

func (m *Repository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	if m.ListSessionsError != nil {
		return nil, m.ListSessionsError
	}
	return m.FullRepository.ListSessions(ctx)
}

func (m *Repository) DeleteSession(ctx context.Context, id string) error {
	if m.DeleteSessionError != nil {
		return m.DeleteSessionError
	}
	return m.FullRepository.DeleteSession(ctx, id)
}

func (m *Repository) SessionExists(ctx context.Context, id string) (bool, error) {
	if m.SessionExistsError != nil {
		return false, m.SessionExistsError
	}
	return m.FullRepository.SessionExists(ctx, id)
}

func (m *Repository) AppendEvent(ctx context.Context, event models.Event) error {
	if m.AppendEventError != nil {
		return m.AppendEventError
	}
	return m.FullRepository.AppendEvent(ctx, event)
}

func (m *Repository) ListEvents(ctx context.Context, sessionID string) ([]models.Event, error) {
	if m.ListEventsError != nil {
		return nil, m.ListEventsError
	}
	return m.FullRepository.ListEvents(ctx, sessionID)
}
