package models

import "time"

// BidStatus is the lifecycle state of a bid
type BidStatus string

// BidStatus constants
const (
	BidStatusActive   BidStatus = "ACTIVE"
	BidStatusAccepted BidStatus = "ACCEPTED"
	BidStatusDeclined BidStatus = "DECLINED"
)

// Bid represents a guest's bid on a range of nights.
// CheckOut is exclusive: the guest leaves on that morning.
type Bid struct {
	ID             string    `json:"id"`
	AuctionID      string    `json:"auction_id"`
	UserID         int64     `json:"user_id"`
	CheckIn        Date      `json:"check_in"`
	CheckOut       Date      `json:"check_out"`
	TotalAmount    int64     `json:"total_amount"`
	Nights         int       `json:"nights"`
	PricePerNight  int64     `json:"price_per_night"`
	AllowPartial   bool      `json:"allow_partial"`
	PartialAwarded bool      `json:"partial_awarded"`
	BidTime        time.Time `json:"bid_time"`
	Status         BidStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NightsBetween counts the nights in [checkIn, checkOut), never less than one
func NightsBetween(checkIn, checkOut Date) int {
	n := checkIn.DaysUntil(checkOut)
	if n < 1 {
		return 1
	}
	return n
}

// PricePerNight divides the total over the nights using integer division
func PricePerNight(total int64, nights int) int64 {
	if nights < 1 {
		nights = 1
	}
	return total / int64(nights)
}

// Recompute refreshes the derived Nights and PricePerNight fields
func (b *Bid) Recompute() {
	b.Nights = NightsBetween(b.CheckIn, b.CheckOut)
	b.PricePerNight = PricePerNight(b.TotalAmount, b.Nights)
}

// Covers reports whether the bid includes the night d
func (b Bid) Covers(d Date) bool {
	return !d.Before(b.CheckIn) && d.Before(b.CheckOut)
}

// OutranksForNight reports whether b beats other for a contested night.
// Higher price per night wins; ties go to the earlier bid_time, then the
// earlier created_at, then the smaller id.
func (b Bid) OutranksForNight(other Bid) bool {
	if b.PricePerNight != other.PricePerNight {
		return b.PricePerNight > other.PricePerNight
	}
	if !b.BidTime.Equal(other.BidTime) {
		return b.BidTime.Before(other.BidTime)
	}
	if !b.CreatedAt.Equal(other.CreatedAt) {
		return b.CreatedAt.Before(other.CreatedAt)
	}
	return b.ID < other.ID
}
