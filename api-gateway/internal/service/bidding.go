package service

import (
	"context"
	"fmt"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/stream"
	"github.com/aaronwang/stay-auction/shared/winlose"
	"github.com/aaronwang/stay-auction/shared/winner"
	"github.com/sirupsen/logrus"
)

// SubmissionPublisher appends submissions to the bid stream
type SubmissionPublisher interface {
	PublishSubmission(ctx context.Context, sub models.BidSubmission) (*stream.Receipt, error)
}

// Store is the read side the gateway serves from, plus the close flow
type Store interface {
	winner.Store
	winlose.Store
}

// BiddingService handles the gateway side of bidding: it queues
// submissions and answers reads from the settled state
type BiddingService struct {
	publisher SubmissionPublisher
	store     Store
	resolver  *winner.Resolver
	analyzer  *winlose.Analyzer
	log       logrus.FieldLogger
}

// NewBiddingService creates a new bidding service
func NewBiddingService(publisher SubmissionPublisher, store Store, resolver *winner.Resolver, log logrus.FieldLogger) *BiddingService {
	return &BiddingService{
		publisher: publisher,
		store:     store,
		resolver:  resolver,
		analyzer:  winlose.NewAnalyzer(store),
		log:       log,
	}
}

// SubmitBid queues a submission for the settlement worker.
// The bid is applied asynchronously; the receipt only proves it was queued.
func (s *BiddingService) SubmitBid(ctx context.Context, sub models.BidSubmission) (*stream.Receipt, error) {
	auction, err := s.store.GetAuction(ctx, sub.AuctionID)
	if err != nil {
		return nil, err
	}
	if !auction.IsOpen() {
		return nil, fmt.Errorf("auction %s is %s: %w", auction.ID, auction.Status, biddingerrors.ErrAuctionClosed)
	}
	if err := auction.CheckStay(sub.CheckIn, sub.CheckOut); err != nil {
		return nil, err
	}

	receipt, err := s.publisher.PublishSubmission(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"auction_id":    sub.AuctionID,
		"user_id":       sub.UserID,
		"submission_id": receipt.SubmissionID,
		"sequence":      receipt.Sequence,
	}).Info("bid queued")
	return receipt, nil
}

// GetActiveBid returns the user's current bid in the auction
func (s *BiddingService) GetActiveBid(ctx context.Context, auctionID string, userID int64) (*models.Bid, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.GetActiveBid(ctx, auctionID, userID)
}

// BookingPeriods returns the winners coalesced into stays
func (s *BiddingService) BookingPeriods(ctx context.Context, auctionID string) ([]models.BookingPeriod, error) {
	return s.resolver.BookingPeriods(ctx, auctionID)
}

// DailyWinners returns the winner of every night
func (s *BiddingService) DailyWinners(ctx context.Context, auctionID string) ([]models.NightWinner, error) {
	return s.resolver.DailyWinners(ctx, auctionID)
}

// CloseAuction settles an auction
func (s *BiddingService) CloseAuction(ctx context.Context, auctionID string) (*models.Settlement, error) {
	settlement, err := s.resolver.Close(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("close auction: %w", err)
	}
	return settlement, nil
}

// Standing reports the user's win/loss position, with insights on request
func (s *BiddingService) Standing(ctx context.Context, auctionID string, userID int64, insights bool) (*models.Standing, error) {
	if insights {
		return s.analyzer.Insights(ctx, userID, auctionID)
	}
	return s.analyzer.Standing(ctx, userID, auctionID)
}
