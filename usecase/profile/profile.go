package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
)

type UseCase struct {
	users  repository.ProfileRepository
	locks  *keylock.Locker
	clock  usecase.Clock
	logger *zap.Logger
}

// New wires the profile use case. locks must be the same instance the task
// use case holds so counter updates and profile edits never interleave.
func New(users repository.ProfileRepository, locks *keylock.Locker, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = keylock.New()
	}
	return &UseCase{
		users:  users,
		locks:  locks,
		clock:  clock,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, handle string) (*domain.Profile, error) {
	return uc.users.GetByID(ctx, handle)
}

func (uc *UseCase) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return uc.users.List(ctx)
}

// Register creates the profile for an unseen handle. An existing profile is returned untouched.
func (uc *UseCase) Register(ctx context.Context, handle string) (*domain.Profile, bool, error) {
	unlock := uc.locks.Lock(handle)
	defer unlock()

	existing, err := uc.users.GetByID(ctx, handle)
	if err == nil {
		return existing, false, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, false, err
	}

	profile := domain.NewProfile(handle, uc.clock.Time())
	if err := uc.users.Save(ctx, profile); err != nil {
		return nil, false, err
	}
	uc.logger.Info("user registered", zap.String("user", handle))
	return profile, true, nil
}

// Touch records activity and re-activates the profile. It fails with
// domain.ErrUserNotFound for unseen handles.
func (uc *UseCase) Touch(ctx context.Context, handle string) (*domain.Profile, error) {
	return uc.update(ctx, handle, func(p *domain.Profile) error {
		p.Touch(uc.clock.Time())
		p.SetActive(true)
		return nil
	})
}

func (uc *UseCase) Rename(ctx context.Context, handle, name string) (*domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidFormat
	}
	return uc.update(ctx, handle, func(p *domain.Profile) error {
		p.UserName = name
		p.Touch(uc.clock.Time())
		return nil
	})
}

// SetActive marks a profile active or inactive. Profiles are never deleted.
func (uc *UseCase) SetActive(ctx context.Context, handle string, active bool) (*domain.Profile, error) {
	return uc.update(ctx, handle, func(p *domain.Profile) error {
		p.SetActive(active)
		return nil
	})
}

func (uc *UseCase) update(ctx context.Context, handle string, mutate func(*domain.Profile) error) (*domain.Profile, error) {
	unlock := uc.locks.Lock(handle)
	defer unlock()

	profile, err := uc.users.GetByID(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := mutate(profile); err != nil {
		return nil, err
	}
	if err := uc.users.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
