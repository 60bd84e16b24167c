package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
)

// BidSubmission is the queue payload a producer appends to the bid stream
type BidSubmission struct {
	SubmissionID   string    `json:"submission_id,omitempty"`
	UserID         int64     `json:"user_id"`
	PropertyID     int64     `json:"property_id"`
	AuctionID      string    `json:"auction_id"`
	BidAmount      int64     `json:"bid_amount"`
	BidTime        time.Time `json:"bid_time"`
	CheckIn        Date      `json:"check_in"`
	CheckOut       Date      `json:"check_out"`
	AllowPartial   bool      `json:"allow_partial"`
	PartialAwarded bool      `json:"partial_awarded"`
	CreatedAt      time.Time `json:"created_at"`
}

// rawSubmission mirrors BidSubmission with optional fields so missing values
// can be told apart from zero values
type rawSubmission struct {
	SubmissionID   *string `json:"submission_id"`
	UserID         *int64  `json:"user_id"`
	PropertyID     *int64  `json:"property_id"`
	AuctionID      *string `json:"auction_id"`
	BidAmount      *int64  `json:"bid_amount"`
	BidTime        *string `json:"bid_time"`
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	AllowPartial   *bool   `json:"allow_partial"`
	PartialAwarded *bool   `json:"partial_awarded"`
	CreatedAt      *string `json:"created_at"`
}

// DecodeSubmission parses and validates a queue payload.
// Any missing or malformed required field yields a ValidationError.
func DecodeSubmission(data []byte) (BidSubmission, error) {
	var raw rawSubmission
	if err := json.Unmarshal(data, &raw); err != nil {
		return BidSubmission{}, biddingerrors.Invalid("payload", fmt.Sprintf("undecodable JSON: %v", err))
	}

	var sub BidSubmission
	if raw.UserID == nil {
		return sub, biddingerrors.Invalid("user_id", "required")
	}
	sub.UserID = *raw.UserID
	if raw.AuctionID == nil {
		return sub, biddingerrors.Invalid("auction_id", "required")
	}
	sub.AuctionID = *raw.AuctionID
	if raw.BidAmount == nil {
		return sub, biddingerrors.Invalid("bid_amount", "required")
	}
	sub.BidAmount = *raw.BidAmount
	if raw.BidTime == nil {
		return sub, biddingerrors.Invalid("bid_time", "required")
	}
	bidTime, err := time.Parse(time.RFC3339, *raw.BidTime)
	if err != nil {
		return sub, biddingerrors.Invalid("bid_time", "must be RFC3339")
	}
	sub.BidTime = bidTime.UTC()

	if raw.CheckIn == nil {
		return sub, biddingerrors.Invalid("check_in", "required")
	}
	if sub.CheckIn, err = ParseDate(*raw.CheckIn); err != nil {
		return sub, biddingerrors.Invalid("check_in", err.Error())
	}
	if raw.CheckOut == nil {
		return sub, biddingerrors.Invalid("check_out", "required")
	}
	if sub.CheckOut, err = ParseDate(*raw.CheckOut); err != nil {
		return sub, biddingerrors.Invalid("check_out", err.Error())
	}

	if raw.SubmissionID != nil {
		sub.SubmissionID = *raw.SubmissionID
	}
	if raw.PropertyID != nil {
		sub.PropertyID = *raw.PropertyID
	}
	if raw.AllowPartial != nil {
		sub.AllowPartial = *raw.AllowPartial
	}
	if raw.PartialAwarded != nil {
		sub.PartialAwarded = *raw.PartialAwarded
	}
	if raw.CreatedAt != nil && *raw.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, *raw.CreatedAt)
		if err != nil {
			return sub, biddingerrors.Invalid("created_at", "must be RFC3339")
		}
		sub.CreatedAt = createdAt.UTC()
	}

	return sub, sub.Validate()
}

// Validate checks the business rules every submission must satisfy
func (s BidSubmission) Validate() error {
	switch {
	case s.UserID <= 0:
		return biddingerrors.Invalid("user_id", "must be positive")
	case strings.TrimSpace(s.AuctionID) == "":
		return biddingerrors.Invalid("auction_id", "must not be empty")
	case strings.ContainsAny(s.AuctionID, ". *>"):
		return biddingerrors.Invalid("auction_id", "contains reserved characters")
	case s.BidAmount <= 0:
		return biddingerrors.Invalid("bid_amount", "must be positive")
	case s.BidTime.IsZero():
		return biddingerrors.Invalid("bid_time", "required")
	case s.CheckIn.IsZero() || s.CheckOut.IsZero():
		return biddingerrors.Invalid("check_in", "check_in and check_out are required")
	case !s.CheckIn.Before(s.CheckOut):
		return biddingerrors.Invalid("check_out", "must be after check_in")
	case s.PropertyID < 0:
		return biddingerrors.Invalid("property_id", "must not be negative")
	}
	return nil
}

// ToBid maps the submission onto a fresh ACTIVE bid with derived fields set
func (s BidSubmission) ToBid(id string, now time.Time) Bid {
	bid := Bid{
		ID:             id,
		AuctionID:      s.AuctionID,
		UserID:         s.UserID,
		CheckIn:        s.CheckIn,
		CheckOut:       s.CheckOut,
		TotalAmount:    s.BidAmount,
		AllowPartial:   s.AllowPartial,
		PartialAwarded: s.PartialAwarded,
		BidTime:        s.BidTime,
		Status:         BidStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	bid.Recompute()
	return bid
}
