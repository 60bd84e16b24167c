package models

// NightStatus is a bid's standing on a single night
type NightStatus string

// NightStatus constants
const (
	NightWin    NightStatus = "WIN"
	NightLose   NightStatus = "LOSE"
	NightNoData NightStatus = "NO_DATA"
)

// OverallStatus summarises a bid's standing across its nights
type OverallStatus string

// OverallStatus constants
const (
	OverallWinning OverallStatus = "WINNING"
	OverallLosing  OverallStatus = "LOSING"
	OverallTie     OverallStatus = "TIE"
)

// NightStanding compares the bid with the ledger's market price for one night
type NightStanding struct {
	Date                 Date        `json:"date"`
	BidPrice             int64       `json:"bid_price"`
	MarketPrice          *int64      `json:"market_price"`
	Status               NightStatus `json:"status"`
	Difference           *int64      `json:"difference"`
	DifferencePercentage *float64    `json:"difference_percentage"`
}

// StandingBid is the bid summary attached to a standing report
type StandingBid struct {
	BidID         string `json:"bid_id"`
	TotalAmount   int64  `json:"total_amount"`
	PricePerNight int64  `json:"price_per_night"`
	CheckIn       Date   `json:"check_in"`
	CheckOut      Date   `json:"check_out"`
	Nights        int    `json:"nights"`
}

// StandingSummary aggregates the per-night results
type StandingSummary struct {
	TotalNights   int           `json:"total_nights"`
	WinNights     int           `json:"win_nights"`
	LoseNights    int           `json:"lose_nights"`
	NoDataNights  int           `json:"no_data_nights"`
	WinRate       float64       `json:"win_rate"`
	OverallStatus OverallStatus `json:"overall_status"`
}

// Standing is the win/loss report of one user's bid in one auction
type Standing struct {
	UserID    int64            `json:"user_id"`
	AuctionID string           `json:"auction_id"`
	HasBid    bool             `json:"has_bid"`
	Bid       *StandingBid     `json:"bid_info,omitempty"`
	Summary   *StandingSummary `json:"summary,omitempty"`
	Nights    []NightStanding  `json:"daily_results,omitempty"`
	Insights  *Insights        `json:"insights,omitempty"`
}

// Insights grades a standing and suggests next steps
type Insights struct {
	PerformanceRating string   `json:"performance_rating"`
	Recommendations   []string `json:"recommendations"`
}
