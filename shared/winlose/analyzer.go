package winlose

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/shopspring/decimal"
)

// Store is the read-only state the analyzer compares against
type Store interface {
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)
	GetActiveBid(ctx context.Context, auctionID string, userID int64) (*models.Bid, error)
	ListCalendarEntries(ctx context.Context, propertyID int64, auctionID string, from, to models.Date) ([]models.CalendarEntry, error)
}

// Analyzer reports how a user's bid stands against the recorded market price
type Analyzer struct {
	store Store
}

// NewAnalyzer creates an analyzer over store
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// Standing classifies every night of the user's ACTIVE bid as WIN, LOSE or
// NO_DATA. A user without a bid gets HasBid=false rather than an error.
func (a *Analyzer) Standing(ctx context.Context, userID int64, auctionID string) (*models.Standing, error) {
	auction, err := a.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	standing := &models.Standing{UserID: userID, AuctionID: auctionID}
	bid, err := a.store.GetActiveBid(ctx, auctionID, userID)
	if errors.Is(err, biddingerrors.ErrBidNotFound) {
		return standing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}

	entries, err := a.store.ListCalendarEntries(ctx, auction.PropertyID, auctionID, bid.CheckIn, bid.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	market := make(map[string]models.CalendarEntry, len(entries))
	for _, e := range entries {
		if e.PriceAmount != nil {
			market[e.Date.String()] = e
		}
	}

	standing.HasBid = true
	standing.Bid = &models.StandingBid{
		BidID:         bid.ID,
		TotalAmount:   bid.TotalAmount,
		PricePerNight: bid.PricePerNight,
		CheckIn:       bid.CheckIn,
		CheckOut:      bid.CheckOut,
		Nights:        bid.CheckIn.DaysUntil(bid.CheckOut),
	}

	summary := &models.StandingSummary{}
	standing.Nights = make([]models.NightStanding, 0, standing.Bid.Nights)
	models.EachNight(bid.CheckIn, bid.CheckOut, func(night models.Date) {
		ns := classify(night, *bid, market)
		switch ns.Status {
		case models.NightWin:
			summary.WinNights++
		case models.NightLose:
			summary.LoseNights++
		default:
			summary.NoDataNights++
		}
		standing.Nights = append(standing.Nights, ns)
	})

	summary.TotalNights = len(standing.Nights)
	summary.WinRate = WinRate(summary.WinNights, summary.TotalNights)
	summary.OverallStatus = Overall(summary.WinRate)
	standing.Summary = summary

	return standing, nil
}

// Insights extends Standing with a rating and recommendations
func (a *Analyzer) Insights(ctx context.Context, userID int64, auctionID string) (*models.Standing, error) {
	standing, err := a.Standing(ctx, userID, auctionID)
	if err != nil || !standing.HasBid {
		return standing, err
	}
	standing.Insights = &models.Insights{
		PerformanceRating: Rating(standing.Summary.WinRate),
		Recommendations:   Recommendations(*standing.Summary),
	}
	return standing, nil
}

// classify compares a night against its recorded price. A night whose
// recorded price belongs to the bid itself is won even after the bid was
// lowered below it.
func classify(night models.Date, bid models.Bid, market map[string]models.CalendarEntry) models.NightStanding {
	price := bid.PricePerNight
	ns := models.NightStanding{Date: night, BidPrice: price, Status: models.NightNoData}
	entry, ok := market[night.String()]
	if !ok {
		return ns
	}
	mp := *entry.PriceAmount
	held := entry.BidID != nil && *entry.BidID == bid.ID

	diff := price - mp
	pct := 0.0
	if mp > 0 {
		pct, _ = decimal.NewFromInt(diff).
			Div(decimal.NewFromInt(mp)).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			Float64()
	}

	ns.MarketPrice = &mp
	ns.Difference = &diff
	ns.DifferencePercentage = &pct
	ns.Status = models.NightLose
	if price >= mp || held {
		ns.Status = models.NightWin
	}
	return ns
}

// WinRate is won/total as a percentage rounded to one decimal
func WinRate(won, total int) float64 {
	if total == 0 {
		return 0
	}
	rate, _ := decimal.NewFromInt(int64(won)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		Float64()
	return rate
}

// Overall maps a win rate onto WINNING, LOSING or TIE around 50%
func Overall(winRate float64) models.OverallStatus {
	switch {
	case winRate > 50:
		return models.OverallWinning
	case winRate < 50:
		return models.OverallLosing
	default:
		return models.OverallTie
	}
}

// Rating grades a win rate
func Rating(winRate float64) string {
	switch {
	case winRate >= 80:
		return "EXCELLENT"
	case winRate >= 60:
		return "GOOD"
	case winRate >= 40:
		return "AVERAGE"
	default:
		return "POOR"
	}
}

// Recommendations suggests what to do next given a summary
func Recommendations(s models.StandingSummary) []string {
	var recs []string
	switch {
	case s.WinRate >= 80:
		recs = append(recs, "Excellent bidding strategy! Keep it up.")
	case s.WinRate >= 60:
		recs = append(recs, "Good performance. Consider minor optimizations.")
	case s.WinRate >= 40:
		recs = append(recs, "Average performance. Consider adjusting bid amount.")
	default:
		recs = append(recs, "Consider raising bid amount for better competitiveness.")
	}
	// unpriced nights count against the bidder here
	if s.TotalNights-s.WinNights > s.WinNights {
		recs = append(recs, "You're losing on most nights. Review market prices.")
	}
	return recs
}
