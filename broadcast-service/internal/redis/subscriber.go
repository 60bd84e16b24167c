package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aaronwang/stay-auction/shared/notify"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Subscriber relays auction events published on Redis Pub/Sub
type Subscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
	log    logrus.FieldLogger
}

// NewSubscriber wraps an existing client
func NewSubscriber(client *redis.Client, log logrus.FieldLogger) *Subscriber {
	return &Subscriber{client: client, log: log}
}

// SubscribeAll subscribes to the events of every auction
func (s *Subscriber) SubscribeAll(ctx context.Context) error {
	s.pubsub = s.client.PSubscribe(ctx, notify.ChannelPrefix+"*")
	// wait for the subscription confirmation so no event published right
	// after startup is missed
	if _, err := s.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Message is an event received for one auction
type Message struct {
	AuctionID string
	Type      string
	Payload   string
}

// Listen forwards events to messageChan until ctx is cancelled.
// This is a blocking operation - run in a goroutine.
func (s *Subscriber) Listen(ctx context.Context, messageChan chan<- *Message) error {
	if s.pubsub == nil {
		return fmt.Errorf("not subscribed to any channel")
	}

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			parsed, err := Parse(msg.Channel, msg.Payload)
			if err != nil {
				s.log.WithError(err).WithField("channel", msg.Channel).Warn("ignoring event")
				continue
			}
			select {
			case messageChan <- parsed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Parse extracts the auction id from the channel name and the event type
// from the payload
func Parse(channel, payload string) (*Message, error) {
	auctionID, ok := strings.CutPrefix(channel, notify.ChannelPrefix)
	if !ok || auctionID == "" {
		return nil, fmt.Errorf("unexpected channel %q", channel)
	}

	var event struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event without type")
	}

	return &Message{AuctionID: auctionID, Type: event.Type, Payload: payload}, nil
}

// Close closes the subscription
func (s *Subscriber) Close() error {
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}
