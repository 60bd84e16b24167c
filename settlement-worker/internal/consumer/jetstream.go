package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/settlement-worker/internal/settlement"
	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Delivery is the part of a JetStream message the consumer acts on
type Delivery interface {
	Data() []byte
	Subject() string
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// Applier applies one decoded submission
type Applier interface {
	Apply(ctx context.Context, sub models.BidSubmission) (*settlement.Outcome, error)
}

// Disposition is what happened to a delivery
type Disposition string

// Disposition constants
const (
	Acked      Disposition = "ack"
	Redeliver  Disposition = "nak"
	Terminated Disposition = "term"
)

// Config tunes the consumer loop
type Config struct {
	Concurrency     int
	RedeliveryDelay time.Duration
	ApplyTimeout    time.Duration
}

// JetStreamConsumer drains bid submissions from a durable pull consumer
type JetStreamConsumer struct {
	cons    jetstream.Consumer
	applier Applier
	cfg     Config
	log     logrus.FieldLogger
}

// NewJetStreamConsumer creates a consumer over an existing durable consumer
func NewJetStreamConsumer(cons jetstream.Consumer, applier Applier, cfg Config, log logrus.FieldLogger) *JetStreamConsumer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RedeliveryDelay <= 0 {
		cfg.RedeliveryDelay = time.Second
	}
	if cfg.ApplyTimeout <= 0 {
		cfg.ApplyTimeout = 10 * time.Second
	}
	return &JetStreamConsumer{cons: cons, applier: applier, cfg: cfg, log: log}
}

// Start runs the worker loops until ctx is cancelled
func (c *JetStreamConsumer) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			return c.drain(ctx, worker)
		})
	}
	c.log.WithField("workers", c.cfg.Concurrency).Info("consuming bid submissions")
	return g.Wait()
}

func (c *JetStreamConsumer) drain(ctx context.Context, worker int) error {
	iter, err := c.cons.Messages()
	if err != nil {
		return fmt.Errorf("failed to open message iterator: %w", err)
	}
	defer iter.Stop()
	stop := context.AfterFunc(ctx, iter.Stop)
	defer stop()

	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
				return nil
			}
			return fmt.Errorf("worker %d: failed to fetch message: %w", worker, err)
		}
		c.Handle(ctx, msg)
	}
}

// Handle decodes and applies one delivery and settles it.
// Bad payloads and submissions for unknown or closed auctions are terminated
// so they are never redelivered; transient failures are redelivered after a
// delay.
func (c *JetStreamConsumer) Handle(ctx context.Context, msg Delivery) Disposition {
	log := c.log.WithField("subject", msg.Subject())

	sub, err := models.DecodeSubmission(msg.Data())
	if err != nil {
		log.WithError(err).Error("dropping malformed submission")
		return c.settle(log, msg, Terminated)
	}
	log = log.WithFields(logrus.Fields{"auction_id": sub.AuctionID, "user_id": sub.UserID})

	applyCtx, cancel := context.WithTimeout(ctx, c.cfg.ApplyTimeout)
	defer cancel()

	_, err = c.applier.Apply(applyCtx, sub)
	switch {
	case err == nil:
		return c.settle(log, msg, Acked)
	case errors.Is(err, biddingerrors.ErrInvalidBid),
		errors.Is(err, biddingerrors.ErrAuctionNotFound),
		errors.Is(err, biddingerrors.ErrAuctionClosed):
		log.WithError(err).Warn("dropping unappliable submission")
		return c.settle(log, msg, Terminated)
	case errors.Is(err, biddingerrors.ErrLockContention):
		log.WithError(err).Warn("bid recorded, contended nights left for redelivery")
		return c.settle(log, msg, Redeliver)
	default:
		log.WithError(err).Error("failed to apply submission")
		return c.settle(log, msg, Redeliver)
	}
}

func (c *JetStreamConsumer) settle(log logrus.FieldLogger, msg Delivery, d Disposition) Disposition {
	var err error
	switch d {
	case Acked:
		err = msg.Ack()
	case Redeliver:
		err = msg.NakWithDelay(c.cfg.RedeliveryDelay)
	case Terminated:
		err = msg.Term()
	}
	if err != nil {
		log.WithError(err).WithField("disposition", string(d)).Error("failed to settle message")
	}
	return d
}
