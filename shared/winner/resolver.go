package winner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/notify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DailyWinners picks, for every night of the auction window, the covering bid
// with the highest price per night. Nights nobody bid on are absent.
func DailyWinners(auction models.Auction, bids []models.Bid) []models.NightWinner {
	winners := make([]models.NightWinner, 0)
	models.EachNight(auction.StartDate, auction.WindowEnd(), func(night models.Date) {
		var best *models.Bid
		for i := range bids {
			b := &bids[i]
			if !b.Covers(night) {
				continue
			}
			if best == nil || b.OutranksForNight(*best) {
				best = b
			}
		}
		if best == nil {
			return
		}
		winners = append(winners, models.NightWinner{
			Date:          night,
			UserID:        best.UserID,
			BidID:         best.ID,
			PricePerNight: best.PricePerNight,
			TotalAmount:   best.TotalAmount,
		})
	})
	return winners
}

// CoalescePeriods merges each user's won nights into maximal runs of
// consecutive nights. Users appear in order of their first won night and
// each user's periods are chronological.
func CoalescePeriods(auctionID string, winners []models.NightWinner) []models.BookingPeriod {
	var users []int64
	nights := make(map[int64][]models.NightWinner)
	for _, w := range winners {
		if _, seen := nights[w.UserID]; !seen {
			users = append(users, w.UserID)
		}
		nights[w.UserID] = append(nights[w.UserID], w)
	}

	periods := make([]models.BookingPeriod, 0)
	for _, user := range users {
		won := nights[user]
		sortByDate(won)

		start := 0
		for i := 1; i <= len(won); i++ {
			if i < len(won) && won[i-1].Date.AddDays(1).Equal(won[i].Date) {
				continue
			}
			periods = append(periods, period(auctionID, user, won[start:i]))
			start = i
		}
	}
	return periods
}

func period(auctionID string, userID int64, run []models.NightWinner) models.BookingPeriod {
	var amount int64
	for _, w := range run {
		amount += w.PricePerNight
	}
	return models.BookingPeriod{
		AuctionID:   auctionID,
		UserID:      userID,
		CheckInWin:  run[0].Date,
		CheckOutWin: run[len(run)-1].Date.AddDays(1),
		Amount:      amount,
		Nights:      len(run),
	}
}

func sortByDate(w []models.NightWinner) {
	sort.SliceStable(w, func(i, j int) bool { return w[i].Date.Before(w[j].Date) })
}

// Store is what the resolver reads and writes
type Store interface {
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)
	ListBids(ctx context.Context, auctionID string, status models.BidStatus) ([]models.Bid, error)
	CloseAuction(ctx context.Context, auction models.Auction, settlement models.Settlement, winners []models.NightWinner) error
}

// Resolver determines nightly winners and booking periods of an auction
type Resolver struct {
	store     Store
	publisher notify.Publisher
	log       logrus.FieldLogger
}

// NewResolver creates a resolver; publisher may be nil
func NewResolver(store Store, publisher notify.Publisher, log logrus.FieldLogger) *Resolver {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Resolver{store: store, publisher: publisher, log: log}
}

// load returns the auction and the bids that compete in it.
// Once an auction has ended only the accepted bids are considered, which
// reproduces the awarded result.
func (r *Resolver) load(ctx context.Context, auctionID string) (*models.Auction, []models.Bid, error) {
	auction, err := r.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}

	status := models.BidStatusActive
	if auction.Status == models.AuctionStatusEnded {
		status = models.BidStatusAccepted
	}
	bids, err := r.store.ListBids(ctx, auctionID, status)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list bids of auction %s: %w", auctionID, err)
	}
	return auction, bids, nil
}

// DailyWinners returns the winning bid of every night that has one
func (r *Resolver) DailyWinners(ctx context.Context, auctionID string) ([]models.NightWinner, error) {
	auction, bids, err := r.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return DailyWinners(*auction, bids), nil
}

// BookingPeriods returns the auction's winners coalesced into stays
func (r *Resolver) BookingPeriods(ctx context.Context, auctionID string) ([]models.BookingPeriod, error) {
	auction, bids, err := r.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return CoalescePeriods(auctionID, DailyWinners(*auction, bids)), nil
}

// Close settles an open auction: winning bids become ACCEPTED, the rest
// DECLINED, won nights are booked and the auction ends. The user with the
// largest awarded amount is recorded as the auction winner.
func (r *Resolver) Close(ctx context.Context, auctionID string) (*models.Settlement, error) {
	auction, bids, err := r.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.IsOpen() {
		return nil, fmt.Errorf("close auction %s in status %s: %w", auctionID, auction.Status, biddingerrors.ErrAuctionClosed)
	}

	winners := DailyWinners(*auction, bids)
	periods := CoalescePeriods(auctionID, winners)

	settlement := models.Settlement{
		AuctionID:    auctionID,
		WinnerUserID: topEarner(periods),
		Periods:      periods,
		Awards:       awards(bids, winners),
	}

	if err := r.store.CloseAuction(ctx, *auction, settlement, winners); err != nil {
		return nil, fmt.Errorf("failed to close auction %s: %w", auctionID, err)
	}

	log := r.log.WithFields(logrus.Fields{"auction_id": auctionID, "periods": len(periods)})
	if settlement.WinnerUserID != nil {
		log = log.WithField("winner_user_id", *settlement.WinnerUserID)
	}
	log.Info("auction closed")

	event := models.WinnerDeterminedEvent{
		Type:         models.EventWinnerDetermined,
		EventID:      uuid.NewString(),
		AuctionID:    auctionID,
		WinnerUserID: settlement.WinnerUserID,
		Periods:      periods,
		Timestamp:    time.Now().UTC(),
	}
	if err := r.publisher.Publish(ctx, auctionID, event); err != nil {
		r.log.WithError(err).WithField("auction_id", auctionID).Warn("failed to publish winner event")
	}

	return &settlement, nil
}

func awards(bids []models.Bid, winners []models.NightWinner) []models.BidAward {
	won := make(map[string]int)
	for _, w := range winners {
		won[w.BidID]++
	}

	out := make([]models.BidAward, 0, len(bids))
	for _, b := range bids {
		n := won[b.ID]
		award := models.BidAward{BidID: b.ID, Status: models.BidStatusDeclined, NightsWon: n}
		if n > 0 {
			award.Status = models.BidStatusAccepted
			award.PartialAwarded = n < b.Nights
		}
		out = append(out, award)
	}
	return out
}

// topEarner returns the user with the largest awarded amount; ties go to
// whoever won a night first
func topEarner(periods []models.BookingPeriod) *int64 {
	totals := make(map[int64]int64)
	var order []int64
	for _, p := range periods {
		if _, ok := totals[p.UserID]; !ok {
			order = append(order, p.UserID)
		}
		totals[p.UserID] += p.Amount
	}
	if len(order) == 0 {
		return nil
	}

	best := order[0]
	for _, u := range order[1:] {
		if totals[u] > totals[best] {
			best = u
		}
	}
	return &best
}
