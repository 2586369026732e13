package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskbot/repository"
)

type deliveryLog struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewDeliveryLog remembers inbound message ids for ttl.
func NewDeliveryLog(client *redislib.Client, ttl time.Duration) repository.DeliveryLog {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &deliveryLog{client: client, ttl: ttl}
}

func (l *deliveryLog) Seen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := l.client.Exists(ctx, deliveryKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *deliveryLog) Record(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return l.client.Set(ctx, deliveryKey(id), 1, l.ttl).Err()
}

func deliveryKey(id string) string {
	return "delivery:" + id
}
