package models

import "time"

// CalendarEntry is the ledger row holding the highest recognised
// price per night for one property night within an auction
type CalendarEntry struct {
	PropertyID  int64     `json:"property_id"`
	AuctionID   string    `json:"auction_id"`
	Date        Date      `json:"date"`
	IsAvailable bool      `json:"is_available"`
	BidID       *string   `json:"bid_id,omitempty"`
	PriceAmount *int64    `json:"price_amount,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AcceptsPrice reports whether a bid at price should replace the recorded
// highest price. Booked nights never move.
func (e CalendarEntry) AcceptsPrice(price int64) bool {
	if !e.IsAvailable {
		return false
	}
	return e.PriceAmount == nil || *e.PriceAmount < price
}

// CalendarDay is one day of the property calendar view
type CalendarDay struct {
	Date         Date  `json:"date"`
	HighestBid   int64 `json:"highest_bid"`
	ActiveBids   int   `json:"active_bids"`
	MinimumToWin int64 `json:"minimum_to_win"`
	BasePrice    int64 `json:"base_price"`
	IsAvailable  bool  `json:"is_available"`
	IsBooked     bool  `json:"is_booked"`
}

// PropertyCalendar is the month view of a property within an auction
type PropertyCalendar struct {
	PropertyID int64         `json:"property_id"`
	AuctionID  string        `json:"auction_id"`
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Days       []CalendarDay `json:"days"`
}
