package broadcast

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/pkg/ids"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
	"github.com/fastygo/taskbot/usecase/replies"
)

const urgentPrefix = "🚨 URGENT: "

type Options struct {
	Urgent            bool
	IncludeMotivation bool
}

type Config struct {
	Concurrency int
	Timeout     time.Duration
}

// UseCase sends administrator announcements to every active user. Delivery
// runs in the background so callers return as soon as the record is stored.
type UseCase struct {
	users      repository.ProfileRepository
	broadcasts repository.BroadcastRepository
	sender     usecase.Sender
	clock      usecase.Clock
	logger     *zap.Logger
	cfg        Config

	inflight sync.WaitGroup
}

func New(
	users repository.ProfileRepository,
	broadcasts repository.BroadcastRepository,
	sender usecase.Sender,
	clock usecase.Clock,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &UseCase{
		users:      users,
		broadcasts: broadcasts,
		sender:     sender,
		clock:      clock,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start records the broadcast and begins delivery to the active users.
func (uc *UseCase) Start(ctx context.Context, message string, opts Options) (*domain.Broadcast, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrInvalidFormat
	}

	profiles, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.IsActive() {
			recipients = append(recipients, p.UserID)
		}
	}

	if opts.IncludeMotivation {
		message += "\n\n" + replies.Motivation()
	}
	if opts.Urgent {
		message = urgentPrefix + message
	}

	record := &domain.Broadcast{
		ID:         ids.NewBroadcastID(),
		Message:    message,
		Timestamp:  uc.clock.Time(),
		Recipients: len(recipients),
		Urgent:     opts.Urgent,
	}
	if err := uc.broadcasts.Append(ctx, record); err != nil {
		return nil, err
	}

	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		uc.deliver(record, recipients)
	}()
	return record, nil
}

// List returns up to limit broadcasts, newest first.
func (uc *UseCase) List(ctx context.Context, limit int) ([]domain.Broadcast, error) {
	records, err := uc.broadcasts.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (uc *UseCase) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *UseCase) deliver(record *domain.Broadcast, recipients []string) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.Timeout)
	defer cancel()

	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)
	for _, handle := range recipients {
		g.Go(func() error {
			if err := uc.sender.Send(ctx, handle, record.Message); err != nil {
				failed.Add(1)
				uc.logger.Warn("broadcast delivery failed",
					zap.String("broadcast_id", record.ID),
					zap.String("user", handle),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	uc.logger.Info("broadcast delivered",
		zap.String("broadcast_id", record.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int64("failed", failed.Load()))
}
