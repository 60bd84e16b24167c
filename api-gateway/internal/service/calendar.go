package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
)

// Calendar builds the month view of a property within an auction.
// Days outside the auction window are left out.
func (s *BiddingService) Calendar(ctx context.Context, propertyID int64, auctionID string, year, month int) (*models.PropertyCalendar, error) {
	if month < 1 || month > 12 {
		return nil, biddingerrors.Invalid("month", "must be between 1 and 12")
	}
	if year < 1 {
		return nil, biddingerrors.Invalid("year", "must be positive")
	}

	auction, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.PropertyID != propertyID {
		return nil, fmt.Errorf("auction %s for property %d: %w", auctionID, propertyID, biddingerrors.ErrAuctionNotFound)
	}

	from := models.NewDate(year, time.Month(month), 1)
	to := models.Date{Time: from.Time.AddDate(0, 1, 0)}
	if from.Before(auction.StartDate) {
		from = auction.StartDate
	}
	if end := auction.WindowEnd(); end.Before(to) {
		to = end
	}

	cal := &models.PropertyCalendar{
		PropertyID: propertyID,
		AuctionID:  auctionID,
		Year:       year,
		Month:      month,
		Days:       make([]models.CalendarDay, 0),
	}
	if !from.Before(to) {
		return cal, nil
	}

	entries, err := s.store.ListCalendarEntries(ctx, propertyID, auctionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	byDate := make(map[string]models.CalendarEntry, len(entries))
	for _, e := range entries {
		byDate[e.Date.String()] = e
	}

	bids, err := s.store.ListBids(ctx, auctionID, models.BidStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}

	models.EachNight(from, to, func(night models.Date) {
		cal.Days = append(cal.Days, calendarDay(*auction, night, byDate, bids))
	})
	return cal, nil
}

func calendarDay(auction models.Auction, night models.Date, entries map[string]models.CalendarEntry, bids []models.Bid) models.CalendarDay {
	day := models.CalendarDay{
		Date:        night,
		BasePrice:   auction.StartingPrice,
		IsAvailable: true,
	}

	if e, ok := entries[night.String()]; ok {
		day.IsAvailable = e.IsAvailable
		day.IsBooked = !e.IsAvailable
		if e.PriceAmount != nil {
			day.HighestBid = *e.PriceAmount
		}
	}

	for _, b := range bids {
		if b.Covers(night) {
			day.ActiveBids++
		}
	}

	if day.HighestBid > 0 {
		day.MinimumToWin = day.HighestBid + auction.BidIncrement
	} else {
		day.MinimumToWin = max(auction.MinimumBid, auction.StartingPrice)
	}
	return day
}
