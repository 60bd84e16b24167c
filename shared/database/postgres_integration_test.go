//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgres(t *testing.T) *PostgresClient {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bidding"),
		postgres.WithUsername("bidding"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewPostgresClient(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema(ctx))
	return client
}

func TestPostgres_BidLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newPostgres(t)
	t0 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	auction := models.Auction{
		ID:               "a-1",
		PropertyID:       42,
		StartDate:        models.NewDate(2025, 8, 25),
		EndDate:          models.NewDate(2025, 8, 28),
		StartingPrice:    50,
		AuctionStartTime: t0,
		AuctionEndTime:   t0.Add(24 * time.Hour),
		Status:           models.AuctionStatusActive,
	}
	require.NoError(t, db.CreateAuction(ctx, &auction))

	stored, created, err := db.UpsertActiveBid(ctx, newBid("b-1", 7, 300, t0))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 3, stored.Nights)
	require.Equal(t, int64(100), stored.PricePerNight)

	stored, created, err = db.UpsertActiveBid(ctx, newBid("b-ignored", 7, 301, t0.Add(time.Minute)))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "b-1", stored.ID)
	require.Equal(t, int64(100), stored.PricePerNight)

	stored, created, err = db.UpsertActiveBid(ctx, newBid("b-stale", 7, 900, t0))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, int64(301), stored.TotalAmount)

	_, _, err = db.UpsertActiveBid(ctx, newBid("b-2", 8, 450, t0))
	require.NoError(t, err)

	a, err := db.GetAuction(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, 2, a.TotalBids)
	require.Equal(t, int64(150), a.CurrentHighestBid)

	price := int64(150)
	bidID := "b-2"
	require.NoError(t, db.PutCalendarEntry(ctx, models.CalendarEntry{
		PropertyID: 42, AuctionID: "a-1", Date: models.NewDate(2025, 8, 25),
		IsAvailable: true, BidID: &bidID, PriceAmount: &price,
	}))
	entries, err := db.ListCalendarEntries(ctx, 42, "a-1", models.NewDate(2025, 8, 25), models.NewDate(2025, 8, 26))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(150), *entries[0].PriceAmount)

	winner := int64(8)
	settlement := models.Settlement{
		AuctionID:    "a-1",
		WinnerUserID: &winner,
		Awards: []models.BidAward{
			{BidID: "b-2", Status: models.BidStatusAccepted, NightsWon: 3},
			{BidID: "b-1", Status: models.BidStatusDeclined},
		},
	}
	winners := []models.NightWinner{
		{Date: models.NewDate(2025, 8, 25), UserID: 8, BidID: "b-2", PricePerNight: 150},
		{Date: models.NewDate(2025, 8, 26), UserID: 8, BidID: "b-2", PricePerNight: 150},
		{Date: models.NewDate(2025, 8, 27), UserID: 8, BidID: "b-2", PricePerNight: 150},
	}
	require.NoError(t, db.CloseAuction(ctx, *a, settlement, winners))

	a, err = db.GetAuction(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, models.AuctionStatusEnded, a.Status)
	require.Equal(t, int64(8), *a.WinnerUserID)

	accepted, err := db.ListBids(ctx, "a-1", models.BidStatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	entry, err := db.GetCalendarEntry(ctx, 42, "a-1", models.NewDate(2025, 8, 27))
	require.NoError(t, err)
	require.False(t, entry.IsAvailable)

	require.ErrorIs(t, db.CloseAuction(ctx, *a, settlement, winners), biddingerrors.ErrAuctionClosed)

	_, err = db.GetActiveBid(ctx, "a-1", 7)
	require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)

	// a bid landing after the close is refused and leaves no trace
	_, _, err = db.UpsertActiveBid(ctx, newBid("b-late", 9, 900, t0))
	require.ErrorIs(t, err, biddingerrors.ErrAuctionClosed)
	_, err = db.GetActiveBid(ctx, "a-1", 9)
	require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)
}
