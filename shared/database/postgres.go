package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	_ "github.com/lib/pq"
)

// PostgresClient implements Store on PostgreSQL
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens and pings a PostgreSQL connection pool
func NewPostgresClient(connStr string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresClient{db: db}, nil
}

// InitSchema creates the auction, bid and calendar tables.
// nights and price_per_night are derived by the database so they can never
// drift from the stored range and amount.
func (c *PostgresClient) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS auctions (
		id VARCHAR(64) PRIMARY KEY,
		property_id BIGINT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		min_nights INT NOT NULL DEFAULT 1,
		max_nights INT NOT NULL DEFAULT 0,
		starting_price BIGINT NOT NULL DEFAULT 0,
		bid_increment BIGINT NOT NULL DEFAULT 0,
		minimum_bid BIGINT NOT NULL DEFAULT 0,
		auction_start_time TIMESTAMPTZ NOT NULL,
		auction_end_time TIMESTAMPTZ NOT NULL,
		objective VARCHAR(32) NOT NULL DEFAULT 'HIGHEST_PER_NIGHT',
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		total_bids INT NOT NULL DEFAULT 0,
		current_highest_bid BIGINT NOT NULL DEFAULT 0,
		winner_user_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (end_date >= start_date)
	);

	CREATE TABLE IF NOT EXISTS bids (
		id VARCHAR(64) PRIMARY KEY,
		auction_id VARCHAR(64) NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		total_amount BIGINT NOT NULL CHECK (total_amount > 0),
		nights INT GENERATED ALWAYS AS (GREATEST(1, check_out - check_in)) STORED,
		price_per_night BIGINT GENERATED ALWAYS AS (total_amount / GREATEST(1, check_out - check_in)) STORED,
		allow_partial BOOLEAN NOT NULL DEFAULT FALSE,
		partial_awarded BOOLEAN NOT NULL DEFAULT FALSE,
		bid_time TIMESTAMPTZ NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_active_user_auction
		ON bids(user_id, auction_id) WHERE status = 'ACTIVE';
	CREATE INDEX IF NOT EXISTS idx_bids_auction_status ON bids(auction_id, status);

	CREATE TABLE IF NOT EXISTS calendar_availability (
		property_id BIGINT NOT NULL,
		auction_id VARCHAR(64) NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		bid_id VARCHAR(64),
		price_amount BIGINT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (property_id, auction_id, date)
	);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const auctionColumns = `id, property_id, start_date, end_date, min_nights, max_nights,
	starting_price, bid_increment, minimum_bid, auction_start_time, auction_end_time,
	objective, status, total_bids, current_highest_bid, winner_user_id, created_at, updated_at`

const bidColumns = `id, auction_id, user_id, check_in, check_out, total_amount, nights,
	price_per_night, allow_partial, partial_awarded, bid_time, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*models.Auction, error) {
	a := &models.Auction{}
	var winner sql.NullInt64
	err := row.Scan(
		&a.ID, &a.PropertyID, &a.StartDate, &a.EndDate, &a.MinNights, &a.MaxNights,
		&a.StartingPrice, &a.BidIncrement, &a.MinimumBid, &a.AuctionStartTime, &a.AuctionEndTime,
		&a.Objective, &a.Status, &a.TotalBids, &a.CurrentHighestBid, &winner, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winner.Valid {
		a.WinnerUserID = &winner.Int64
	}
	return a, nil
}

func scanBid(row rowScanner, extra ...any) (models.Bid, error) {
	var b models.Bid
	dest := []any{
		&b.ID, &b.AuctionID, &b.UserID, &b.CheckIn, &b.CheckOut, &b.TotalAmount, &b.Nights,
		&b.PricePerNight, &b.AllowPartial, &b.PartialAwarded, &b.BidTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return b, err
}

// CreateAuction inserts a new auction; zero timestamps default to now
func (c *PostgresClient) CreateAuction(ctx context.Context, a *models.Auction) error {
	if a.Status == "" {
		a.Status = models.AuctionStatusPending
	}
	if a.Objective == "" {
		a.Objective = models.ObjectiveHighestPerNight
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO auctions (id, property_id, start_date, end_date, min_nights, max_nights,
			starting_price, bid_increment, minimum_bid, auction_start_time, auction_end_time,
			objective, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := c.db.ExecContext(ctx, query,
		a.ID, a.PropertyID, a.StartDate, a.EndDate, a.MinNights, a.MaxNights,
		a.StartingPrice, a.BidIncrement, a.MinimumBid, a.AuctionStartTime, a.AuctionEndTime,
		a.Objective, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	return biddingerrors.Storage("create auction", err)
}

// GetAuction loads an auction by id
func (c *PostgresClient) GetAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, auctionID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return nil, biddingerrors.Storage("get auction", err)
	}
	return a, nil
}

// UpsertActiveBid writes the bid and the auction counters in one transaction
func (c *PostgresClient) UpsertActiveBid(ctx context.Context, bid models.Bid) (models.Bid, bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Bid{}, false, biddingerrors.Storage("begin upsert", err)
	}
	defer tx.Rollback()

	// The partial unique index is the arbiter; the WHERE on DO UPDATE drops
	// redeliveries carrying an older bid_time.
	query := `
		INSERT INTO bids (id, auction_id, user_id, check_in, check_out, total_amount,
			allow_partial, partial_awarded, bid_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'ACTIVE', $10, $10)
		ON CONFLICT (user_id, auction_id) WHERE status = 'ACTIVE' DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			total_amount = EXCLUDED.total_amount,
			allow_partial = EXCLUDED.allow_partial,
			partial_awarded = EXCLUDED.partial_awarded,
			bid_time = EXCLUDED.bid_time,
			updated_at = EXCLUDED.updated_at
		WHERE bids.bid_time <= EXCLUDED.bid_time
		RETURNING ` + bidColumns + `, (xmax = 0) AS inserted
	`
	now := bid.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var inserted bool
	stored, err := scanBid(tx.QueryRowContext(ctx, query,
		bid.ID, bid.AuctionID, bid.UserID, bid.CheckIn, bid.CheckOut, bid.TotalAmount,
		bid.AllowPartial, bid.PartialAwarded, bid.BidTime, now,
	), &inserted)

	if errors.Is(err, sql.ErrNoRows) {
		// stale redelivery: report what is stored
		existing, err := scanBid(tx.QueryRowContext(ctx,
			`SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 AND user_id = $2 AND status = 'ACTIVE'`,
			bid.AuctionID, bid.UserID))
		if err != nil {
			return models.Bid{}, false, biddingerrors.Storage("load active bid", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return models.Bid{}, false, biddingerrors.Storage("upsert bid", err)
	}

	increment := 0
	if inserted {
		increment = 1
	}
	// A close committed after the caller's status check leaves zero rows here
	res, err := tx.ExecContext(ctx, `
		UPDATE auctions
		SET total_bids = total_bids + $2,
		    current_highest_bid = GREATEST(current_highest_bid, $3),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ('PENDING', 'ACTIVE')
	`, stored.AuctionID, increment, stored.PricePerNight)
	if err != nil {
		return models.Bid{}, false, biddingerrors.Storage("update auction counters", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Bid{}, false, biddingerrors.Storage("update auction counters", err)
	}
	if n == 0 {
		return models.Bid{}, false, fmt.Errorf("upsert bid into auction %s: %w", stored.AuctionID, biddingerrors.ErrAuctionClosed)
	}

	if err := tx.Commit(); err != nil {
		return models.Bid{}, false, biddingerrors.Storage("commit upsert", err)
	}
	return stored, inserted, nil
}

// GetActiveBid returns the user's ACTIVE bid in the auction
func (c *PostgresClient) GetActiveBid(ctx context.Context, auctionID string, userID int64) (*models.Bid, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 AND user_id = $2 AND status = 'ACTIVE'`,
		auctionID, userID)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get bid of user %d in auction %s: %w", userID, auctionID, biddingerrors.ErrBidNotFound)
	}
	if err != nil {
		return nil, biddingerrors.Storage("get active bid", err)
	}
	return &b, nil
}

// ListBids returns the auction's bids in the given status, oldest first
func (c *PostgresClient) ListBids(ctx context.Context, auctionID string, status models.BidStatus) ([]models.Bid, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 AND status = $2 ORDER BY created_at, id`,
		auctionID, status)
	if err != nil {
		return nil, biddingerrors.Storage("list bids", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, biddingerrors.Storage("scan bid", err)
		}
		bids = append(bids, b)
	}
	return bids, biddingerrors.Storage("iterate bids", rows.Err())
}

func scanEntry(row rowScanner) (models.CalendarEntry, error) {
	var (
		e     models.CalendarEntry
		bidID sql.NullString
		price sql.NullInt64
	)
	if err := row.Scan(&e.PropertyID, &e.AuctionID, &e.Date, &e.IsAvailable, &bidID, &price, &e.UpdatedAt); err != nil {
		return e, err
	}
	if bidID.Valid {
		e.BidID = &bidID.String
	}
	if price.Valid {
		e.PriceAmount = &price.Int64
	}
	return e, nil
}

// GetCalendarEntry reads one ledger row
func (c *PostgresClient) GetCalendarEntry(ctx context.Context, propertyID int64, auctionID string, date models.Date) (*models.CalendarEntry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT property_id, auction_id, date, is_available, bid_id, price_amount, updated_at
		FROM calendar_availability
		WHERE property_id = $1 AND auction_id = $2 AND date = $3
	`, propertyID, auctionID, date)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, biddingerrors.Storage("get calendar entry", err)
	}
	return &e, nil
}

// PutCalendarEntry inserts or replaces one ledger row
func (c *PostgresClient) PutCalendarEntry(ctx context.Context, e models.CalendarEntry) error {
	return putEntry(ctx, c.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putEntry(ctx context.Context, db execer, e models.CalendarEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO calendar_availability (property_id, auction_id, date, is_available, bid_id, price_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (property_id, auction_id, date) DO UPDATE SET
			is_available = EXCLUDED.is_available,
			bid_id = EXCLUDED.bid_id,
			price_amount = EXCLUDED.price_amount,
			updated_at = CURRENT_TIMESTAMP
	`, e.PropertyID, e.AuctionID, e.Date, e.IsAvailable, e.BidID, e.PriceAmount)
	return biddingerrors.Storage("put calendar entry", err)
}

// ListCalendarEntries returns the ledger rows in [from, to)
func (c *PostgresClient) ListCalendarEntries(ctx context.Context, propertyID int64, auctionID string, from, to models.Date) ([]models.CalendarEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT property_id, auction_id, date, is_available, bid_id, price_amount, updated_at
		FROM calendar_availability
		WHERE property_id = $1 AND auction_id = $2 AND date >= $3 AND date < $4
		ORDER BY date
	`, propertyID, auctionID, from, to)
	if err != nil {
		return nil, biddingerrors.Storage("list calendar entries", err)
	}
	defer rows.Close()

	var entries []models.CalendarEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, biddingerrors.Storage("scan calendar entry", err)
		}
		entries = append(entries, e)
	}
	return entries, biddingerrors.Storage("iterate calendar entries", rows.Err())
}

// CloseAuction applies a settlement inside one transaction.
// The auction row is locked first so two concurrent closes serialise.
func (c *PostgresClient) CloseAuction(ctx context.Context, auction models.Auction, settlement models.Settlement, winners []models.NightWinner) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return biddingerrors.Storage("begin close", err)
	}
	defer tx.Rollback()

	var status models.AuctionStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM auctions WHERE id = $1 FOR UPDATE`, auction.ID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("close auction %s: %w", auction.ID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return biddingerrors.Storage("lock auction", err)
	}
	if status != models.AuctionStatusPending && status != models.AuctionStatusActive {
		return fmt.Errorf("close auction %s in status %s: %w", auction.ID, status, biddingerrors.ErrAuctionClosed)
	}

	for _, award := range settlement.Awards {
		_, err := tx.ExecContext(ctx, `
			UPDATE bids SET status = $2, partial_awarded = $3, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND status = 'ACTIVE'
		`, award.BidID, award.Status, award.PartialAwarded)
		if err != nil {
			return biddingerrors.Storage("award bid", err)
		}
	}

	for _, w := range winners {
		bidID, price := w.BidID, w.PricePerNight
		err := putEntry(ctx, tx, models.CalendarEntry{
			PropertyID:  auction.PropertyID,
			AuctionID:   auction.ID,
			Date:        w.Date,
			IsAvailable: false,
			BidID:       &bidID,
			PriceAmount: &price,
		})
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE auctions SET status = 'ENDED', winner_user_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, auction.ID, settlement.WinnerUserID)
	if err != nil {
		return biddingerrors.Storage("end auction", err)
	}

	return biddingerrors.Storage("commit close", tx.Commit())
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	return c.db.Close()
}
