package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisDispatcher chains a local dispatcher with a Redis pub/sub channel so
// out-of-process subscribers (dashboards) can refresh on ticket changes.
// Publishing is best-effort: a Redis failure is logged and dropped.
type redisDispatcher struct {
	local   Dispatcher
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisDispatcher wraps local with Redis fan-out on the given channel.
// A nil client degrades to the local dispatcher alone.
func NewRedisDispatcher(local Dispatcher, client *redis.Client, channel string, logger *zap.Logger) Dispatcher {
	return &redisDispatcher{
		local:   local,
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (d *redisDispatcher) Publish(ctx context.Context, event Event) error {
	if err := d.local.Publish(ctx, event); err != nil {
		return err
	}
	if d.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("marshal event for fan-out", zap.Error(err), zap.String("event_id", event.ID))
		return nil
	}
	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		d.logger.Warn("redis fan-out publish failed",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

func (d *redisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.local.Subscribe(eventType, handler)
}
