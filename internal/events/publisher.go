package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Publisher broadcasts domain events to interested consumers. Publishing
// is best-effort everywhere it is called: failures are logged and never
// propagate into the calling operation.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

// Envelope wire format for published events
type Envelope struct {
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// RedisPublisher publishes events over Redis pub/sub channels
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the given channel
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "storefront.events"
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends one event envelope to the channel
func (p *RedisPublisher) Publish(ctx context.Context, event string, payload interface{}) {
	if p == nil || p.client == nil {
		return
	}
	body, err := json.Marshal(Envelope{
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		logger.Warnw("event_marshal_failed", "event", event, "error", err)
		return
	}
	if err := p.client.Publish(ctx, fmt.Sprintf("%s:%s", p.channel, event), body).Err(); err != nil {
		logger.Warnw("event_publish_failed", "event", event, "error", err)
	}
}

// NopPublisher drops every event, used when Redis is disabled
type NopPublisher struct{}

// Publish discards the event
func (NopPublisher) Publish(context.Context, string, interface{}) {}
