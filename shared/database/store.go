package database

import (
	"context"

	"github.com/aaronwang/stay-auction/shared/models"
)

// AuctionStore reads and closes auctions
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *models.Auction) error
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)
	// CloseAuction records a settlement atomically: bid awards, booked nights
	// and the ENDED status. It fails with ErrAuctionClosed if the auction is
	// no longer open.
	CloseAuction(ctx context.Context, auction models.Auction, settlement models.Settlement, winners []models.NightWinner) error
}

// BidStore holds at most one ACTIVE bid per (user, auction)
type BidStore interface {
	// UpsertActiveBid inserts bid or overwrites the user's ACTIVE bid in the
	// same auction, keeping its id and created_at. A submission older than the
	// stored one leaves the row untouched. The returned bid is the stored row;
	// created is true only on insert.
	UpsertActiveBid(ctx context.Context, bid models.Bid) (stored models.Bid, created bool, err error)
	GetActiveBid(ctx context.Context, auctionID string, userID int64) (*models.Bid, error)
	ListBids(ctx context.Context, auctionID string, status models.BidStatus) ([]models.Bid, error)
}

// CalendarLedger holds the highest recognised price per property night
type CalendarLedger interface {
	// GetCalendarEntry returns nil without error when no entry exists
	GetCalendarEntry(ctx context.Context, propertyID int64, auctionID string, date models.Date) (*models.CalendarEntry, error)
	PutCalendarEntry(ctx context.Context, entry models.CalendarEntry) error
	// ListCalendarEntries returns the entries in [from, to) ordered by date
	ListCalendarEntries(ctx context.Context, propertyID int64, auctionID string, from, to models.Date) ([]models.CalendarEntry, error)
}

// Store is the full persistence surface of the settlement core
type Store interface {
	AuctionStore
	BidStore
	CalendarLedger
	Close() error
}
