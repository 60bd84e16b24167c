package models

import (
	"errors"
	"testing"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubmission(t *testing.T) {
	valid := `{
		"user_id": 7,
		"property_id": 42,
		"auction_id": "a-1",
		"bid_amount": 300,
		"bid_time": "2025-08-01T10:00:00Z",
		"check_in": "2025-08-25",
		"check_out": "2025-08-28",
		"allow_partial": true,
		"partial_awarded": false,
		"created_at": "2025-08-01T10:00:01Z"
	}`

	sub, err := DecodeSubmission([]byte(valid))
	require.NoError(t, err)
	require.Equal(t, int64(7), sub.UserID)
	require.Equal(t, int64(42), sub.PropertyID)
	require.Equal(t, "a-1", sub.AuctionID)
	require.Equal(t, int64(300), sub.BidAmount)
	require.Equal(t, "2025-08-25", sub.CheckIn.String())
	require.Equal(t, "2025-08-28", sub.CheckOut.String())
	require.True(t, sub.AllowPartial)
	require.Equal(t, time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC), sub.BidTime)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "not_json", body: `{`, field: "payload"},
		{name: "missing_user", body: `{"auction_id":"a","bid_amount":1,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-25","check_out":"2025-08-26"}`, field: "user_id"},
		{name: "fractional_amount", body: `{"user_id":1,"auction_id":"a","bid_amount":1.5,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-25","check_out":"2025-08-26"}`, field: "payload"},
		{name: "zero_amount", body: `{"user_id":1,"auction_id":"a","bid_amount":0,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-25","check_out":"2025-08-26"}`, field: "bid_amount"},
		{name: "bad_bid_time", body: `{"user_id":1,"auction_id":"a","bid_amount":1,"bid_time":"yesterday","check_in":"2025-08-25","check_out":"2025-08-26"}`, field: "bid_time"},
		{name: "bad_check_in", body: `{"user_id":1,"auction_id":"a","bid_amount":1,"bid_time":"2025-08-01T10:00:00Z","check_in":"25-08-2025","check_out":"2025-08-26"}`, field: "check_in"},
		{name: "missing_check_out", body: `{"user_id":1,"auction_id":"a","bid_amount":1,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-25"}`, field: "check_out"},
		{name: "inverted_range", body: `{"user_id":1,"auction_id":"a","bid_amount":1,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-26","check_out":"2025-08-26"}`, field: "check_out"},
		{name: "subject_breaking_auction_id", body: `{"user_id":1,"auction_id":"a.b","bid_amount":1,"bid_time":"2025-08-01T10:00:00Z","check_in":"2025-08-25","check_out":"2025-08-26"}`, field: "auction_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSubmission([]byte(tc.body))
			require.ErrorIs(t, err, biddingerrors.ErrInvalidBid)

			var verr *biddingerrors.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestBidSubmission_ToBid(t *testing.T) {
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	sub := BidSubmission{
		UserID:    1,
		AuctionID: "a-1",
		BidAmount: 300,
		BidTime:   now,
		CheckIn:   NewDate(2025, 8, 25),
		CheckOut:  NewDate(2025, 8, 28),
	}

	b := sub.ToBid("bid-1", now)
	require.Equal(t, "bid-1", b.ID)
	require.Equal(t, BidStatusActive, b.Status)
	require.Equal(t, 3, b.Nights)
	require.Equal(t, int64(100), b.PricePerNight)
	require.Equal(t, now, b.CreatedAt)
}
