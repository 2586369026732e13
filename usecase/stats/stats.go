package stats

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
)

// UseCase loads snapshots and feeds them to the pure aggregations.
// Reads are not synchronized with concurrent writers.
type UseCase struct {
	users  repository.ProfileRepository
	tasks  repository.TaskRepository
	clock  usecase.Clock
	logger *zap.Logger
}

func New(users repository.ProfileRepository, tasks repository.TaskRepository, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tasks:  tasks,
		clock:  clock,
		logger: logger,
	}
}

func (uc *UseCase) Leaderboard(ctx context.Context, period domain.Period) ([]domain.LeaderboardEntry, error) {
	profiles, tasks, err := uc.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Leaderboard(profiles, tasks, period, uc.clock.Time()), nil
}

func (uc *UseCase) TeamStats(ctx context.Context) (domain.TeamStats, error) {
	profiles, tasks, err := uc.snapshot(ctx)
	if err != nil {
		return domain.TeamStats{}, err
	}
	return TeamStats(profiles, tasks, uc.clock.Today()), nil
}

func (uc *UseCase) TeamMembers(ctx context.Context) ([]domain.TeamMember, error) {
	profiles, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return TeamMembers(profiles), nil
}

// UserProgress never fails for unknown handles; they read as all zeros.
func (uc *UseCase) UserProgress(ctx context.Context, handle string) (domain.Progress, error) {
	profile, err := uc.users.GetByID(ctx, handle)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.Progress{}, nil
		}
		return domain.Progress{}, err
	}
	return UserProgress(profile), nil
}

// Streak returns the current completion streak of handle in days.
func (uc *UseCase) Streak(ctx context.Context, handle string) (int, error) {
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: handle, Status: domain.TaskCompleted})
	if err != nil {
		return 0, err
	}
	return Streak(tasks, uc.clock.Time()), nil
}

func (uc *UseCase) snapshot(ctx context.Context) ([]domain.Profile, []domain.Task, error) {
	profiles, err := uc.users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, nil, err
	}
	return profiles, tasks, nil
}
