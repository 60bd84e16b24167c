package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/database"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/mutex"
	"github.com/aaronwang/stay-auction/shared/notify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the updater writes through
type Store interface {
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)
	database.BidStore
	database.CalendarLedger
}

// Outcome reports what applying one submission changed
type Outcome struct {
	Bid     models.Bid
	Created bool
	// RaisedNights had their recorded price replaced by this bid
	RaisedNights []models.Date
	// ContendedNights could not be locked and were left untouched
	ContendedNights []models.Date
}

// Updater applies bid submissions to the bid store and calendar ledger
type Updater struct {
	store     Store
	locker    mutex.Locker
	publisher notify.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewUpdater wires an updater; publisher may be nil
func NewUpdater(store Store, locker mutex.Locker, publisher notify.Publisher, log logrus.FieldLogger) *Updater {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Updater{
		store:     store,
		locker:    locker,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LockKey is the mutex key guarding an auction's calendar entries
func LockKey(auctionID string) string {
	return "auction:" + auctionID
}

// Apply records the submission and raises the recorded price of every
// covered night it beats.
//
// The bid row is always persisted first. Nights whose lock could not be
// taken are reported through a *LockContentionError alongside a non-nil
// Outcome; redelivering the same submission retries them safely.
func (u *Updater) Apply(ctx context.Context, sub models.BidSubmission) (*Outcome, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	auction, err := u.store.GetAuction(ctx, sub.AuctionID)
	if err != nil {
		return nil, err
	}
	if !auction.IsOpen() {
		return nil, fmt.Errorf("auction %s is %s: %w", auction.ID, auction.Status, biddingerrors.ErrAuctionClosed)
	}
	if err := auction.CheckStay(sub.CheckIn, sub.CheckOut); err != nil {
		return nil, err
	}
	if sub.PropertyID != 0 && sub.PropertyID != auction.PropertyID {
		return nil, biddingerrors.Invalid("property_id",
			fmt.Sprintf("%d does not match auction property %d", sub.PropertyID, auction.PropertyID))
	}

	now := sub.CreatedAt
	if now.IsZero() {
		now = u.now()
	}
	bid, created, err := u.store.UpsertActiveBid(ctx, sub.ToBid(uuid.NewString(), now))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bid: %w", err)
	}

	log := u.log.WithFields(logrus.Fields{
		"auction_id": auction.ID,
		"user_id":    bid.UserID,
		"bid_id":     bid.ID,
	})

	out := &Outcome{Bid: bid, Created: created}
	for night := bid.CheckIn; night.Before(bid.CheckOut); night = night.AddDays(1) {
		raised, err := u.raiseNight(ctx, *auction, bid, night)
		switch {
		case errors.Is(err, biddingerrors.ErrLockContention):
			log.WithField("night", night.String()).Warn("calendar night contended, left for redelivery")
			out.ContendedNights = append(out.ContendedNights, night)
		case err != nil:
			return out, err
		case raised:
			out.RaisedNights = append(out.RaisedNights, night)
		}
	}

	log.WithFields(logrus.Fields{
		"created":         created,
		"price_per_night": bid.PricePerNight,
		"raised_nights":   len(out.RaisedNights),
	}).Info("bid applied")

	if len(out.RaisedNights) > 0 {
		u.announce(ctx, *auction, bid, out.RaisedNights)
	}

	if len(out.ContendedNights) > 0 {
		nights := make([]string, len(out.ContendedNights))
		for i, n := range out.ContendedNights {
			nights[i] = n.String()
		}
		return out, &biddingerrors.LockContentionError{AuctionID: auction.ID, Nights: nights}
	}
	return out, nil
}

// raiseNight runs the read-compare-write of one calendar entry under the
// auction lock
func (u *Updater) raiseNight(ctx context.Context, auction models.Auction, bid models.Bid, night models.Date) (bool, error) {
	raised := false
	err := u.locker.WithLock(ctx, LockKey(auction.ID), func(ctx context.Context) error {
		entry, err := u.store.GetCalendarEntry(ctx, auction.PropertyID, auction.ID, night)
		if err != nil {
			return err
		}
		if entry == nil {
			entry = &models.CalendarEntry{
				PropertyID:  auction.PropertyID,
				AuctionID:   auction.ID,
				Date:        night,
				IsAvailable: true,
			}
		}
		if !entry.AcceptsPrice(bid.PricePerNight) {
			return nil
		}

		bidID, price := bid.ID, bid.PricePerNight
		entry.BidID = &bidID
		entry.PriceAmount = &price
		if err := u.store.PutCalendarEntry(ctx, *entry); err != nil {
			return err
		}
		raised = true
		return nil
	})
	return raised, err
}

func (u *Updater) announce(ctx context.Context, auction models.Auction, bid models.Bid, nights []models.Date) {
	event := models.HighestBidChangedEvent{
		Type:          models.EventHighestBidChanged,
		EventID:       uuid.NewString(),
		AuctionID:     auction.ID,
		PropertyID:    auction.PropertyID,
		BidID:         bid.ID,
		UserID:        bid.UserID,
		PricePerNight: bid.PricePerNight,
		Nights:        nights,
		Timestamp:     u.now(),
	}
	if err := u.publisher.Publish(ctx, auction.ID, event); err != nil {
		u.log.WithError(err).WithField("auction_id", auction.ID).Warn("failed to publish highest bid event")
	}
}
