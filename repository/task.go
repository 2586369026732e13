package repository

import (
	"context"

	"github.com/fastygo/taskbot/domain"
)

type TaskFilter struct {
	UserID string
	Status domain.TaskStatus
	Date   string
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Save(ctx context.Context, task *domain.Task) error
}
