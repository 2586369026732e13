package repository

import (
	"context"

	"github.com/fastygo/taskbot/domain"
)

type BroadcastRepository interface {
	Append(ctx context.Context, broadcast *domain.Broadcast) error
	List(ctx context.Context) ([]domain.Broadcast, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}
