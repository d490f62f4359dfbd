package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nftlend-backend/internal/domain/event"
)

// PublishObserver counts delivery outcomes.
type PublishObserver interface {
	ObservePublish(eventType string, err error)
}

// RedisPublisher broadcasts envelopes on a Pub/Sub channel. Delivery is best
// effort: failures are logged and counted, never returned.
type RedisPublisher struct {
	client   *redis.Client
	channel  string
	logger   *zap.Logger
	observer PublishObserver
	now      func() time.Time
}

func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger, observer PublishObserver) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger, observer: observer, now: time.Now}
}

func (p *RedisPublisher) Emit(ctx context.Context, e event.Event) {
	env := NewEnvelope(e, p.now())
	err := p.publish(ctx, env)
	if p.observer != nil {
		p.observer.ObservePublish(env.Type, err)
	}
	if err != nil {
		p.logger.Warn("publish event failed",
			zap.String("channel", p.channel),
			zap.String("type", env.Type),
			zap.String("event_id", env.ID),
			zap.Error(err))
	}
}

func (p *RedisPublisher) publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, b).Err()
}
