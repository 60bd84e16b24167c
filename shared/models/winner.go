package models

// NightWinner is the bid holding a single night of an auction
type NightWinner struct {
	Date          Date   `json:"date"`
	UserID        int64  `json:"user_id"`
	BidID         string `json:"bid_id"`
	PricePerNight int64  `json:"price_per_night"`
	TotalAmount   int64  `json:"total_amount"`
}

// BookingPeriod is a maximal run of consecutive nights won by one user.
// CheckOutWin is exclusive.
type BookingPeriod struct {
	AuctionID   string `json:"auction_id"`
	UserID      int64  `json:"user_id"`
	CheckInWin  Date   `json:"check_in_win"`
	CheckOutWin Date   `json:"check_out_win"`
	Amount      int64  `json:"amount"`
	Nights      int    `json:"nights"`
}

// BidAward records what a bid received when its auction closed
type BidAward struct {
	BidID          string    `json:"bid_id"`
	Status         BidStatus `json:"status"`
	NightsWon      int       `json:"nights_won"`
	PartialAwarded bool      `json:"partial_awarded"`
}

// Settlement is the outcome of closing an auction
type Settlement struct {
	AuctionID    string          `json:"auction_id"`
	WinnerUserID *int64          `json:"winner_user_id,omitempty"`
	Periods      []BookingPeriod `json:"periods"`
	Awards       []BidAward      `json:"awards"`
}
