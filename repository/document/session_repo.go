package document

import (
	"context"
	"time"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

type sessionRepository struct {
	store repository.DocumentStore
}

// NewSessionRepository keeps sessions in their own collection, apart from profiles.
func NewSessionRepository(store repository.DocumentStore) repository.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) Get(ctx context.Context, handle string) (*domain.Session, error) {
	var session domain.Session
	if err := load(ctx, r.store, repository.CollectionSessions, handle, &session, domain.ErrSessionNotFound); err != nil {
		return nil, err
	}
	session.UserID = handle
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrInvalidPayload
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}
	return save(ctx, r.store, repository.CollectionSessions, session.UserID, session, false)
}
