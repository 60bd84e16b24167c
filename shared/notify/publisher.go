package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix is followed by the auction id: bid_events:{auctionID}
const ChannelPrefix = "bid_events:"

// Channel returns the pub/sub channel for an auction
func Channel(auctionID string) string {
	return ChannelPrefix + auctionID
}

// Publisher sends auction events to subscribers
type Publisher interface {
	Publish(ctx context.Context, auctionID string, event any) error
}

// RedisPublisher publishes events to Redis Pub/Sub.
// The broadcast service picks them up for WebSocket clients.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps an existing client
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish marshals event and publishes it on the auction channel
func (p *RedisPublisher) Publish(ctx context.Context, auctionID string, event any) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(auctionID), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Nop discards events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, string, any) error { return nil }
