package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskbot/internal/infrastructure/buffer"
	"github.com/fastygo/taskbot/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ErrOutboxFull is returned when a message can neither be sent nor buffered
// because the buffer reached its configured size.
var ErrOutboxFull = errors.New("outbox: buffer full")

// OutboxConfig controls how frequently undelivered messages are retried.
type OutboxConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration

	// MaxBuffered caps the buffer; 0 means unbounded.
	MaxBuffered int
}

// Outbox delivers chat messages through the gateway. Messages the gateway
// rejects are kept in the buffer and retried on a schedule.
type Outbox struct {
	store   *buffer.Store
	gateway usecase.Sender
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     OutboxConfig
}

func NewOutbox(
	store *buffer.Store,
	gateway usecase.Sender,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg OutboxConfig,
) *Outbox {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Outbox{
		store:   store,
		gateway: gateway,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = o.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := o.Drain(ctx); err != nil {
			o.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return o
}

// Start launches the retry schedule.
func (o *Outbox) Start() {
	if o == nil || o.cron == nil {
		return
	}
	o.cron.Start()
	o.logger.Info("outbox started", zap.Duration("interval", o.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (o *Outbox) Stop(ctx context.Context) {
	if o == nil || o.cron == nil {
		return
	}
	stopCtx := o.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	o.logger.Info("outbox stopped")
}

// Send delivers a conversation reply.
func (o *Outbox) Send(ctx context.Context, handle, text string) error {
	return o.Deliver(ctx, buffer.Item{Recipient: handle, Text: text, Kind: buffer.KindReply})
}

// Deliver tries the gateway right away and falls back to the buffer. It only
// fails when the message could be neither sent nor buffered.
func (o *Outbox) Deliver(ctx context.Context, item buffer.Item) error {
	if o == nil || o.gateway == nil {
		return fmt.Errorf("outbox not configured")
	}

	if o.monitor == nil || o.monitor.IsOnline() {
		err := o.gateway.Send(ctx, item.Recipient, item.Text)
		if err == nil {
			return nil
		}
		o.logger.Warn("immediate delivery failed, buffering",
			zap.String("recipient", item.Recipient),
			zap.String("kind", string(item.Kind)),
			zap.Error(err))
		item.LastError = err.Error()
	}
	if o.store == nil {
		return fmt.Errorf("outbox: gateway unavailable and no buffer configured")
	}
	if o.cfg.MaxBuffered > 0 && o.Size() >= o.cfg.MaxBuffered {
		return ErrOutboxFull
	}
	return o.store.Enqueue(item)
}

// Drain retries buffered messages synchronously.
func (o *Outbox) Drain(ctx context.Context) error {
	if o == nil || o.store == nil {
		return nil
	}
	if removed, err := o.store.Purge(time.Now().Add(-o.cfg.Retention)); err != nil {
		o.logger.Warn("outbox purge failed", zap.Error(err))
	} else if removed > 0 {
		o.logger.Warn("dropped expired outbound messages", zap.Int("count", removed))
	}
	if o.monitor != nil && !o.monitor.IsOnline() {
		o.logger.Debug("skipping outbox drain (gateway offline)")
		return nil
	}

	items, err := o.store.Peek(o.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		sendErr := o.gateway.Send(ctx, item.Recipient, item.Text)
		if sendErr == nil {
			if err := o.store.Ack(item); err != nil {
				o.logger.Warn("failed to remove delivered message", zap.Error(err))
			}
			continue
		}

		o.logger.Error("outbound retry failed",
			zap.String("item_id", item.ID),
			zap.String("recipient", item.Recipient),
			zap.Int("retries", item.Retries+1),
			zap.Error(sendErr))

		if item.Retries+1 >= o.cfg.MaxRetries {
			o.logger.Warn("dropping outbound message (max retries reached)", zap.String("item_id", item.ID))
			_ = o.store.Ack(item)
			continue
		}
		if err := o.store.Retry(item, sendErr); err != nil {
			o.logger.Error("failed to requeue outbound message", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of undelivered messages.
func (o *Outbox) Size() int {
	if o == nil || o.store == nil {
		return 0
	}
	size, err := o.store.Size()
	if err != nil {
		return 0
	}
	return size
}
