package redis

import (
	"context"
	"testing"
	"time"

	"github.com/aaronwang/stay-auction/shared/logging"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/notify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		payload string
		want    *Message
		wantErr bool
	}{
		{
			name:    "highest_bid_changed",
			channel: "bid_events:a-1",
			payload: `{"type":"highest_bid_changed","price_per_night":150}`,
			want:    &Message{AuctionID: "a-1", Type: "highest_bid_changed", Payload: `{"type":"highest_bid_changed","price_per_night":150}`},
		},
		{name: "foreign_channel", channel: "other:a-1", payload: `{"type":"x"}`, wantErr: true},
		{name: "missing_auction", channel: "bid_events:", payload: `{"type":"x"}`, wantErr: true},
		{name: "not_json", channel: "bid_events:a-1", payload: `nope`, wantErr: true},
		{name: "untyped", channel: "bid_events:a-1", payload: `{"auction_id":"a-1"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.channel, tc.payload)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSubscriber_RelaysPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(client, logging.Discard())
	require.NoError(t, sub.SubscribeAll(ctx))
	defer sub.Close()

	messages := make(chan *Message, 4)
	go sub.Listen(ctx, messages)

	pub := notify.NewRedisPublisher(client)
	require.NoError(t, pub.Publish(ctx, "a-1", map[string]string{"auction_id": "a-1"}))
	require.NoError(t, pub.Publish(ctx, "a-1", models.HighestBidChangedEvent{
		Type:          models.EventHighestBidChanged,
		AuctionID:     "a-1",
		PricePerNight: 150,
	}))

	select {
	case msg := <-messages:
		require.Equal(t, "a-1", msg.AuctionID)
		require.Equal(t, models.EventHighestBidChanged, msg.Type, "untyped events are skipped")
	case <-time.After(2 * time.Second):
		t.Fatal("no event relayed")
	}
}

func TestSubscriber_ListenRequiresSubscription(t *testing.T) {
	sub := NewSubscriber(nil, logging.Discard())
	require.Error(t, sub.Listen(context.Background(), make(chan *Message)))
	require.NoError(t, sub.Close())
}
