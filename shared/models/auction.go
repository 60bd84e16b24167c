package models

import (
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

// AuctionStatus constants
const (
	AuctionStatusPending   AuctionStatus = "PENDING"
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusEnded     AuctionStatus = "ENDED"
	AuctionStatusCancelled AuctionStatus = "CANCELLED"
)

// AuctionObjective describes how the auction ranks bids
type AuctionObjective string

// AuctionObjective constants
const (
	ObjectiveHighestTotal    AuctionObjective = "HIGHEST_TOTAL"
	ObjectiveHighestPerNight AuctionObjective = "HIGHEST_PER_NIGHT"
	ObjectiveHybrid          AuctionObjective = "HYBRID"
)

// Auction represents the nightly auction for one property's date window.
// StartDate and EndDate are both inclusive nights.
type Auction struct {
	ID                string           `json:"id"`
	PropertyID        int64            `json:"property_id"`
	StartDate         Date             `json:"start_date"`
	EndDate           Date             `json:"end_date"`
	MinNights         int              `json:"min_nights"`
	MaxNights         int              `json:"max_nights"`
	StartingPrice     int64            `json:"starting_price"`
	BidIncrement      int64            `json:"bid_increment"`
	MinimumBid        int64            `json:"minimum_bid"`
	AuctionStartTime  time.Time        `json:"auction_start_time"`
	AuctionEndTime    time.Time        `json:"auction_end_time"`
	Objective         AuctionObjective `json:"objective"`
	Status            AuctionStatus    `json:"status"`
	TotalBids         int              `json:"total_bids"`
	CurrentHighestBid int64            `json:"current_highest_bid"`
	WinnerUserID      *int64           `json:"winner_user_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsOpen reports whether the auction still accepts bids
func (a Auction) IsOpen() bool {
	return a.Status == AuctionStatusPending || a.Status == AuctionStatusActive
}

// Covers reports whether the night d falls inside the auction window
func (a Auction) Covers(d Date) bool {
	return !d.Before(a.StartDate) && !d.After(a.EndDate)
}

// WindowEnd is the exclusive end of the auction window
func (a Auction) WindowEnd() Date {
	return a.EndDate.AddDays(1)
}

// CheckStay rejects a stay [checkIn, checkOut) that does not fit inside the
// auction window
func (a Auction) CheckStay(checkIn, checkOut Date) error {
	if checkIn.Before(a.StartDate) || !checkIn.Before(a.WindowEnd()) {
		return biddingerrors.Invalid("check_in",
			fmt.Sprintf("%s is outside auction window %s..%s", checkIn, a.StartDate, a.EndDate))
	}
	if checkOut.After(a.WindowEnd()) {
		return biddingerrors.Invalid("check_out",
			fmt.Sprintf("%s is past auction window end %s", checkOut, a.WindowEnd()))
	}
	return nil
}
