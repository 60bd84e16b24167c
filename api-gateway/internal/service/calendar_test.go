package service

import (
	"context"
	"testing"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/stretchr/testify/require"
)

func TestCalendar_ClipsToAuctionWindow(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	addBid(t, store, "bid-a", 1, models.NewDate(2025, 8, 25), models.NewDate(2025, 8, 28), 300)
	addBid(t, store, "bid-b", 2, models.NewDate(2025, 8, 26), models.NewDate(2025, 8, 27), 150)

	price := int64(150)
	require.NoError(t, store.PutCalendarEntry(ctx, models.CalendarEntry{
		PropertyID: 42, AuctionID: "a-1", Date: models.NewDate(2025, 8, 26), IsAvailable: true, PriceAmount: &price,
	}))
	booked := int64(90)
	require.NoError(t, store.PutCalendarEntry(ctx, models.CalendarEntry{
		PropertyID: 42, AuctionID: "a-1", Date: models.NewDate(2025, 8, 31), IsAvailable: false, PriceAmount: &booked,
	}))

	cal, err := svc.Calendar(ctx, 42, "a-1", 2025, 8)
	require.NoError(t, err)
	require.Len(t, cal.Days, 7, "August 25 through 31")
	require.Equal(t, "2025-08-25", cal.Days[0].Date.String())

	require.Equal(t, models.CalendarDay{
		Date: models.NewDate(2025, 8, 25), ActiveBids: 1, MinimumToWin: 60, BasePrice: 50, IsAvailable: true,
	}, cal.Days[0])
	require.Equal(t, models.CalendarDay{
		Date: models.NewDate(2025, 8, 26), HighestBid: 150, ActiveBids: 2, MinimumToWin: 155, BasePrice: 50, IsAvailable: true,
	}, cal.Days[1])
	require.Equal(t, models.CalendarDay{
		Date: models.NewDate(2025, 8, 31), HighestBid: 90, MinimumToWin: 95, BasePrice: 50, IsBooked: true,
	}, cal.Days[6])

	sept, err := svc.Calendar(ctx, 42, "a-1", 2025, 9)
	require.NoError(t, err)
	require.Len(t, sept.Days, 2, "window ends on September 2")

	july, err := svc.Calendar(ctx, 42, "a-1", 2025, 7)
	require.NoError(t, err)
	require.Empty(t, july.Days)
}

func TestCalendar_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Calendar(ctx, 42, "a-1", 2025, 13)
	require.ErrorIs(t, err, biddingerrors.ErrInvalidBid)

	_, err = svc.Calendar(ctx, 42, "a-1", 0, 8)
	require.ErrorIs(t, err, biddingerrors.ErrInvalidBid)

	_, err = svc.Calendar(ctx, 7, "a-1", 2025, 8)
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)

	_, err = svc.Calendar(ctx, 42, "missing", 2025, 8)
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
}
