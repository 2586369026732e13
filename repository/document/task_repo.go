package document

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

type taskRepository struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

// NewTaskRepository stores tasks in the tasks collection.
func NewTaskRepository(store repository.DocumentStore, logger *zap.Logger) repository.TaskRepository {
	return &taskRepository{store: store, logger: nopIfNil(logger)}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := load(ctx, r.store, repository.CollectionTasks, id, &task, domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	if task.ID == "" {
		task.ID = id
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var (
		docs []repository.Document
		err  error
	)
	if filter.UserID != "" {
		docs, err = r.store.Where(ctx, repository.CollectionTasks, "userId", filter.UserID)
	} else {
		docs, err = r.store.GetAll(ctx, repository.CollectionTasks)
	}
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	decoded := decodeAll(docs, r.logger, repository.CollectionTasks, func(t *domain.Task, id string) {
		if t.ID == "" {
			t.ID = id
		}
	})
	tasks := decoded[:0]
	for _, task := range decoded {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Date != "" && task.Date != filter.Date {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return save(ctx, r.store, repository.CollectionTasks, task.ID, task, true)
}
