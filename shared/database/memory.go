package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
)

type ledgerKey struct {
	propertyID int64
	auctionID  string
	date       string
}

type activeKey struct {
	auctionID string
	userID    int64
}

// MemoryStore is a concurrency-safe in-memory implementation of Store
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]models.Auction
	bids     map[string]models.Bid
	active   map[activeKey]string // (auction, user) -> ACTIVE bid id
	ledger   map[ledgerKey]models.CalendarEntry
	order    []string // bid ids in insertion order
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]models.Auction),
		bids:     make(map[string]models.Bid),
		active:   make(map[activeKey]string),
		ledger:   make(map[ledgerKey]models.CalendarEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateAuction stores a copy of the auction
func (s *MemoryStore) CreateAuction(_ context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; ok {
		return biddingerrors.Storage("create auction", fmt.Errorf("auction %s already exists", a.ID))
	}
	if a.Status == "" {
		a.Status = models.AuctionStatusPending
	}
	if a.Objective == "" {
		a.Objective = models.ObjectiveHighestPerNight
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.UpdatedAt = a.CreatedAt
	s.auctions[a.ID] = *a
	return nil
}

// GetAuction returns a copy of the auction
func (s *MemoryStore) GetAuction(_ context.Context, auctionID string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return &a, nil
}

// UpsertActiveBid mirrors the Postgres upsert semantics
func (s *MemoryStore) UpsertActiveBid(_ context.Context, bid models.Bid) (models.Bid, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[bid.AuctionID]
	if !ok {
		return models.Bid{}, false, biddingerrors.Storage("upsert bid",
			fmt.Errorf("auction %s does not exist", bid.AuctionID))
	}
	if !auction.IsOpen() {
		return models.Bid{}, false, fmt.Errorf("upsert bid into auction %s in status %s: %w",
			auction.ID, auction.Status, biddingerrors.ErrAuctionClosed)
	}

	now := bid.CreatedAt
	if now.IsZero() {
		now = s.now()
	}

	key := activeKey{auctionID: bid.AuctionID, userID: bid.UserID}
	created := false
	var stored models.Bid
	if id, exists := s.active[key]; exists {
		stored = s.bids[id]
		if stored.BidTime.After(bid.BidTime) {
			return stored, false, nil
		}
		stored.CheckIn = bid.CheckIn
		stored.CheckOut = bid.CheckOut
		stored.TotalAmount = bid.TotalAmount
		stored.AllowPartial = bid.AllowPartial
		stored.PartialAwarded = bid.PartialAwarded
		stored.BidTime = bid.BidTime
		stored.UpdatedAt = now
	} else {
		stored = bid
		stored.Status = models.BidStatusActive
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.active[key] = stored.ID
		s.order = append(s.order, stored.ID)
		created = true
	}
	stored.Recompute()
	s.bids[stored.ID] = stored

	if created {
		auction.TotalBids++
	}
	if stored.PricePerNight > auction.CurrentHighestBid {
		auction.CurrentHighestBid = stored.PricePerNight
	}
	auction.UpdatedAt = s.now()
	s.auctions[auction.ID] = auction

	return stored, created, nil
}

// GetActiveBid returns the user's ACTIVE bid in the auction
func (s *MemoryStore) GetActiveBid(_ context.Context, auctionID string, userID int64) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[activeKey{auctionID: auctionID, userID: userID}]
	if !ok {
		return nil, fmt.Errorf("get bid of user %d in auction %s: %w", userID, auctionID, biddingerrors.ErrBidNotFound)
	}
	b := s.bids[id]
	return &b, nil
}

// ListBids returns bids in insertion order
func (s *MemoryStore) ListBids(_ context.Context, auctionID string, status models.BidStatus) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bids []models.Bid
	for _, id := range s.order {
		b := s.bids[id]
		if b.AuctionID == auctionID && b.Status == status {
			bids = append(bids, b)
		}
	}
	return bids, nil
}

// GetCalendarEntry returns a copy of the ledger row, or nil
func (s *MemoryStore) GetCalendarEntry(_ context.Context, propertyID int64, auctionID string, date models.Date) (*models.CalendarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.ledger[ledgerKey{propertyID, auctionID, date.String()}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// PutCalendarEntry inserts or replaces a ledger row
func (s *MemoryStore) PutCalendarEntry(_ context.Context, e models.CalendarEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putEntry(e)
	return nil
}

func (s *MemoryStore) putEntry(e models.CalendarEntry) {
	e.UpdatedAt = s.now()
	s.ledger[ledgerKey{e.PropertyID, e.AuctionID, e.Date.String()}] = e
}

// ListCalendarEntries returns the ledger rows in [from, to) ordered by date
func (s *MemoryStore) ListCalendarEntries(_ context.Context, propertyID int64, auctionID string, from, to models.Date) ([]models.CalendarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.CalendarEntry
	for k, e := range s.ledger {
		if k.propertyID != propertyID || k.auctionID != auctionID {
			continue
		}
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

// CloseAuction applies a settlement under the store lock
func (s *MemoryStore) CloseAuction(_ context.Context, auction models.Auction, settlement models.Settlement, winners []models.NightWinner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.auctions[auction.ID]
	if !ok {
		return fmt.Errorf("close auction %s: %w", auction.ID, biddingerrors.ErrAuctionNotFound)
	}
	if !current.IsOpen() {
		return fmt.Errorf("close auction %s in status %s: %w", auction.ID, current.Status, biddingerrors.ErrAuctionClosed)
	}

	now := s.now()
	for _, award := range settlement.Awards {
		b, ok := s.bids[award.BidID]
		if !ok || b.Status != models.BidStatusActive {
			continue
		}
		b.Status = award.Status
		b.PartialAwarded = award.PartialAwarded
		b.UpdatedAt = now
		s.bids[b.ID] = b
		delete(s.active, activeKey{auctionID: b.AuctionID, userID: b.UserID})
	}

	for _, w := range winners {
		bidID, price := w.BidID, w.PricePerNight
		s.putEntry(models.CalendarEntry{
			PropertyID:  current.PropertyID,
			AuctionID:   current.ID,
			Date:        w.Date,
			IsAvailable: false,
			BidID:       &bidID,
			PriceAmount: &price,
		})
	}

	current.Status = models.AuctionStatusEnded
	current.WinnerUserID = settlement.WinnerUserID
	current.UpdatedAt = now
	s.auctions[current.ID] = current
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresClient)(nil)
)
