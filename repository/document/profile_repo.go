package document

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

type profileRepository struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

// NewProfileRepository stores profiles in the users collection.
func NewProfileRepository(store repository.DocumentStore, logger *zap.Logger) repository.ProfileRepository {
	return &profileRepository{store: store, logger: nopIfNil(logger)}
}

func (r *profileRepository) GetByID(ctx context.Context, handle string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := load(ctx, r.store, repository.CollectionUsers, handle, &profile, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	if profile.UserID == "" {
		profile.UserID = handle
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	docs, err := r.store.GetAll(ctx, repository.CollectionUsers)
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	return decodeAll(docs, r.logger, repository.CollectionUsers, func(p *domain.Profile, id string) {
		if p.UserID == "" {
			p.UserID = id
		}
	}), nil
}

// Save merges so that dashboard-only fields on the document survive.
func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return domain.ErrInvalidPayload
	}
	return save(ctx, r.store, repository.CollectionUsers, profile.UserID, profile, true)
}
