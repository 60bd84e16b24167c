package models

import "time"

// Event types published on the bid_events channels
const (
	EventHighestBidChanged = "highest_bid_changed"
	EventWinnerDetermined  = "winner_determined"
)

// HighestBidChangedEvent is published after the settlement updater raises the
// recorded price of one or more nights.
// It is sent to Redis Pub/Sub for the WebSocket broadcast.
type HighestBidChangedEvent struct {
	Type          string    `json:"type"`
	EventID       string    `json:"event_id"`
	AuctionID     string    `json:"auction_id"`
	PropertyID    int64     `json:"property_id"`
	BidID         string    `json:"bid_id"`
	UserID        int64     `json:"user_id"`
	PricePerNight int64     `json:"price_per_night"`
	Nights        []Date    `json:"nights"`
	Timestamp     time.Time `json:"timestamp"`
}

// WinnerDeterminedEvent is published once an auction is closed
type WinnerDeterminedEvent struct {
	Type         string          `json:"type"`
	EventID      string          `json:"event_id"`
	AuctionID    string          `json:"auction_id"`
	WinnerUserID *int64          `json:"winner_user_id,omitempty"`
	Periods      []BookingPeriod `json:"periods"`
	Timestamp    time.Time       `json:"timestamp"`
}
