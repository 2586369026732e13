package repository

import (
	"context"

	"github.com/fastygo/taskbot/domain"
)

// SessionRepository persists conversational state apart from the profile.
// Get returns domain.ErrSessionNotFound when nothing is stored.
type SessionRepository interface {
	Get(ctx context.Context, handle string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
}

// DeliveryLog remembers inbound message ids to suppress duplicate deliveries.
type DeliveryLog interface {
	// Seen reports whether id was already handled.
	Seen(ctx context.Context, id string) (bool, error)
	// Record marks id as handled.
	Record(ctx context.Context, id string) error
}
