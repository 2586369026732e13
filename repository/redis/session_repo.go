package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

type sessionRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
// Sessions idle for longer than ttl expire and read back as main.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &sessionRepository{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, handle string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, r.key(handle)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.StoreUnavailable(err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed session", err)
	}
	session.UserID = handle
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(session.UserID), payload, r.ttl).Err(); err != nil {
		return domain.StoreUnavailable(err)
	}
	return nil
}

func (r *sessionRepository) key(handle string) string {
	return fmt.Sprintf("%s%s", r.prefix, handle)
}
