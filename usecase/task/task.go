package task

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/pkg/ids"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
)

// UseCase owns every mutation of tasks and of the profile counters derived from them.
// Mutations for one handle are serialized through the shared profile lock.
type UseCase struct {
	tasks  repository.TaskRepository
	users  repository.ProfileRepository
	locks  *keylock.Locker
	clock  usecase.Clock
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, users repository.ProfileRepository, locks *keylock.Locker, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = keylock.New()
	}
	return &UseCase{
		tasks:  tasks,
		users:  users,
		locks:  locks,
		clock:  clock,
		logger: logger,
	}
}

// CreateTask stores a pending task and bumps the owner's total.
func (uc *UseCase) CreateTask(ctx context.Context, owner, description string) (*domain.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.ErrInvalidFormat
	}

	unlock := uc.locks.Lock(owner)
	defer unlock()

	profile, err := uc.ownerProfile(ctx, owner)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Time()
	task := &domain.Task{
		ID:          ids.NewTaskID(),
		UserID:      owner,
		UserName:    profile.UserName,
		Description: description,
		Status:      domain.TaskPending,
		CreatedAt:   now,
		Date:        now.Format(domain.DateLayout),
	}
	if err := uc.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	profile.RecordTask(now)
	if err := uc.users.Save(ctx, profile); err != nil {
		return nil, err
	}

	uc.logger.Debug("task created", zap.String("user", owner), zap.String("task_id", task.ID))
	return task, nil
}

// CompleteTask marks an owned pending task completed and bumps the completed counter.
func (uc *UseCase) CompleteTask(ctx context.Context, owner, taskID string) (*domain.Task, error) {
	unlock := uc.locks.Lock(owner)
	defer unlock()

	task, err := uc.ownedTask(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Complete(uc.clock.Time()) {
		return nil, domain.ErrTaskAlreadyCompleted
	}
	if err := uc.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	profile, err := uc.users.GetByID(ctx, owner)
	switch {
	case err == nil:
		profile.RecordCompletion()
		if err := uc.users.Save(ctx, profile); err != nil {
			return nil, err
		}
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		uc.logger.Warn("completed task without owner profile", zap.String("user", owner))
	default:
		return nil, err
	}
	return task, nil
}

// EditTask rewrites the description of an owned pending task.
func (uc *UseCase) EditTask(ctx context.Context, owner, taskID, description string) (*domain.Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrInvalidFormat
	}

	unlock := uc.locks.Lock(owner)
	defer unlock()

	task, err := uc.ownedTask(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Rewrite(description, uc.clock.Time()) {
		return nil, domain.ErrTaskImmutable
	}
	if err := uc.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// AddStrike adds one strike to handle and returns the new count. Every call
// counts, so callers must not repeat it for the same infraction.
func (uc *UseCase) AddStrike(ctx context.Context, handle string) (int, error) {
	unlock := uc.locks.Lock(handle)
	defer unlock()

	profile, err := uc.users.GetByID(ctx, handle)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return 0, err
		}
		profile = domain.NewProfile(handle, uc.clock.Time())
	}
	profile.Strikes++
	profile.Touch(uc.clock.Time())
	if err := uc.users.Save(ctx, profile); err != nil {
		return 0, err
	}

	uc.logger.Info("strike added", zap.String("user", handle), zap.Int("strikes", profile.Strikes))
	return profile.Strikes, nil
}

// ListTasks returns the owner's tasks, newest first. An empty status means all.
func (uc *UseCase) ListTasks(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: owner, Status: status})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(tasks)
	return tasks, nil
}

// TasksForDate returns the owner's tasks dated date, newest first.
func (uc *UseCase) TasksForDate(ctx context.Context, owner, date string) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: owner, Date: date})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(tasks)
	return tasks, nil
}

func (uc *UseCase) ownedTask(ctx context.Context, owner, taskID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(owner) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) ownerProfile(ctx context.Context, owner string) (*domain.Profile, error) {
	profile, err := uc.users.GetByID(ctx, owner)
	if err == nil {
		return profile, nil
	}
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return domain.NewProfile(owner, uc.clock.Time()), nil
	}
	return nil, err
}

func sortNewestFirst(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
