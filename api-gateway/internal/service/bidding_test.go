package service

import (
	"context"
	"testing"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/database"
	"github.com/aaronwang/stay-auction/shared/logging"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/stream"
	"github.com/aaronwang/stay-auction/shared/winner"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	published []models.BidSubmission
}

func (p *fakePublisher) PublishSubmission(_ context.Context, sub models.BidSubmission) (*stream.Receipt, error) {
	p.published = append(p.published, sub)
	return &stream.Receipt{SubmissionID: "sub-1", Sequence: uint64(len(p.published))}, nil
}

func newService(t *testing.T) (*BiddingService, *database.MemoryStore, *fakePublisher) {
	t.Helper()
	store := database.NewMemoryStore()
	a := models.Auction{
		ID:            "a-1",
		PropertyID:    42,
		StartDate:     models.NewDate(2025, 8, 25),
		EndDate:       models.NewDate(2025, 9, 2),
		StartingPrice: 50,
		BidIncrement:  5,
		MinimumBid:    60,
		Status:        models.AuctionStatusActive,
	}
	require.NoError(t, store.CreateAuction(context.Background(), &a))

	pub := &fakePublisher{}
	log := logging.Discard()
	svc := NewBiddingService(pub, store, winner.NewResolver(store, nil, log), log)
	return svc, store, pub
}

func addBid(t *testing.T, store *database.MemoryStore, id string, userID int64, checkIn, checkOut models.Date, total int64) {
	t.Helper()
	b := models.Bid{
		ID: id, AuctionID: "a-1", UserID: userID,
		CheckIn: checkIn, CheckOut: checkOut, TotalAmount: total, BidTime: t0,
	}
	_, _, err := store.UpsertActiveBid(context.Background(), b)
	require.NoError(t, err)
}

func TestBiddingService_SubmitBid(t *testing.T) {
	svc, _, pub := newService(t)
	sub := models.BidSubmission{
		UserID: 7, AuctionID: "a-1", BidAmount: 300, BidTime: t0,
		CheckIn: models.NewDate(2025, 8, 25), CheckOut: models.NewDate(2025, 8, 28),
	}

	receipt, err := svc.SubmitBid(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, "sub-1", receipt.SubmissionID)
	require.Len(t, pub.published, 1)

	sub.AuctionID = "missing"
	_, err = svc.SubmitBid(context.Background(), sub)
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
	require.Len(t, pub.published, 1, "unknown auctions are not queued")
}

func TestBiddingService_SubmitBidRejections(t *testing.T) {
	in, out := models.NewDate(2025, 8, 25), models.NewDate(2025, 8, 28)

	tests := []struct {
		name     string
		close    bool
		checkIn  models.Date
		checkOut models.Date
		wantErr  error
	}{
		{name: "ended_auction", close: true, checkIn: in, checkOut: out, wantErr: biddingerrors.ErrAuctionClosed},
		{name: "stay_past_window", checkIn: models.NewDate(2025, 9, 1), checkOut: models.NewDate(2025, 9, 5), wantErr: biddingerrors.ErrInvalidBid},
		{name: "stay_before_window", checkIn: models.NewDate(2025, 8, 1), checkOut: models.NewDate(2025, 8, 26), wantErr: biddingerrors.ErrInvalidBid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _, pub := newService(t)
			if tc.close {
				_, err := svc.CloseAuction(ctx, "a-1")
				require.NoError(t, err)
			}

			_, err := svc.SubmitBid(ctx, models.BidSubmission{
				UserID: 7, AuctionID: "a-1", BidAmount: 300, BidTime: t0,
				CheckIn: tc.checkIn, CheckOut: tc.checkOut,
			})
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, pub.published)
		})
	}
}

func TestBiddingService_Reads(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	addBid(t, store, "bid-a", 1, models.NewDate(2025, 8, 25), models.NewDate(2025, 8, 28), 300)
	addBid(t, store, "bid-b", 2, models.NewDate(2025, 8, 26), models.NewDate(2025, 8, 27), 150)

	bid, err := svc.GetActiveBid(ctx, "a-1", 2)
	require.NoError(t, err)
	require.Equal(t, "bid-b", bid.ID)

	_, err = svc.GetActiveBid(ctx, "a-1", 3)
	require.ErrorIs(t, err, biddingerrors.ErrBidNotFound)

	winners, err := svc.DailyWinners(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, winners, 3)

	periods, err := svc.BookingPeriods(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, periods, 3)

	standing, err := svc.Standing(ctx, "a-1", 1, true)
	require.NoError(t, err)
	require.True(t, standing.HasBid)
	require.NotNil(t, standing.Insights)

	settlement, err := svc.CloseAuction(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), *settlement.WinnerUserID)

	_, err = svc.CloseAuction(ctx, "a-1")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionClosed)
}
