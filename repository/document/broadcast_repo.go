package document

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

const settingsID = "bot"

type broadcastRepository struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

// NewBroadcastRepository stores the append-only broadcast history.
func NewBroadcastRepository(store repository.DocumentStore, logger *zap.Logger) repository.BroadcastRepository {
	return &broadcastRepository{store: store, logger: nopIfNil(logger)}
}

func (r *broadcastRepository) Append(ctx context.Context, broadcast *domain.Broadcast) error {
	if broadcast == nil {
		return domain.ErrInvalidPayload
	}
	return save(ctx, r.store, repository.CollectionBroadcasts, broadcast.ID, broadcast, false)
}

func (r *broadcastRepository) List(ctx context.Context) ([]domain.Broadcast, error) {
	docs, err := r.store.GetAll(ctx, repository.CollectionBroadcasts)
	if err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	return decodeAll(docs, r.logger, repository.CollectionBroadcasts, func(b *domain.Broadcast, id string) {
		if b.ID == "" {
			b.ID = id
		}
	}), nil
}

type settingsRepository struct {
	store repository.DocumentStore
}

// NewSettingsRepository reads and writes the settings/bot document.
func NewSettingsRepository(store repository.DocumentStore) repository.SettingsRepository {
	return &settingsRepository{store: store}
}

// Get returns empty settings when the document does not exist.
func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	errAbsent := errors.New("absent")
	if err := load(ctx, r.store, repository.CollectionSettings, settingsID, &settings, errAbsent); err != nil {
		if errors.Is(err, errAbsent) {
			return &domain.Settings{}, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	if settings == nil {
		return domain.ErrInvalidPayload
	}
	return save(ctx, r.store, repository.CollectionSettings, settingsID, settings, true)
}
