package repository

import (
	"context"

	"github.com/fastygo/taskbot/domain"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, handle string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
}
