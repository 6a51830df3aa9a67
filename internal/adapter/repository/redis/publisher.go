package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/finledger/internal/domain"
)

// DefaultChannelPrefix is prepended to the aggregate type to form the channel name.
const DefaultChannelPrefix = "finledger:events:"

// EventPublisher publishes outbox events on Redis pub/sub channels, one
// channel per aggregate type.
type EventPublisher struct {
	client *redis.Client
	prefix string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client, prefix string) *EventPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	return &EventPublisher{client: client, prefix: prefix}
}

type eventMessage struct {
	ID            string         `json:"id"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Channel returns the channel an aggregate type is published on.
func (p *EventPublisher) Channel(aggregateType string) string {
	return p.prefix + aggregateType
}

// Publish sends the event.
func (p *EventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	raw, err := json.Marshal(eventMessage{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.Channel(event.AggregateType), raw).Err()
}
