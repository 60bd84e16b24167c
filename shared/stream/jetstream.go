package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// SubjectPrefix is followed by the auction id: bids.submitted.{auctionID}
const SubjectPrefix = "bids.submitted"

// Config describes the bid submission stream and its durable consumer
type Config struct {
	StreamName   string
	MaxAge       time.Duration
	ConsumerName string
	MaxDeliver   int
	AckWait      time.Duration
	// DuplicateWindow is how long JetStream remembers submission ids
	DuplicateWindow time.Duration
}

// DefaultConfig returns the production stream settings
func DefaultConfig() Config {
	return Config{
		StreamName:      "BID_SUBMISSIONS",
		MaxAge:          7 * 24 * time.Hour,
		ConsumerName:    "settlement",
		MaxDeliver:      20,
		AckWait:         30 * time.Second,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Subject returns the subject submissions for auctionID are published on
func Subject(auctionID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, auctionID)
}

// EnsureStream creates the stream if needed and updates it otherwise
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg Config) (jetstream.Stream, error) {
	s, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Bid submissions awaiting settlement",
		Subjects:    []string{SubjectPrefix + ".*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      cfg.MaxAge,
		Duplicates:  cfg.DuplicateWindow,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}
	return s, nil
}

// EnsureConsumer creates the durable pull consumer used by the settlement worker.
// Delivery resumes from the first unacknowledged submission after a restart.
func EnsureConsumer(ctx context.Context, s jetstream.Stream, cfg Config) (jetstream.Consumer, error) {
	c, err := s.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		Description:   "Applies bid submissions to the bid store and calendar ledger",
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		FilterSubject: SubjectPrefix + ".*",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update consumer: %w", err)
	}
	return c, nil
}

// Receipt identifies a published submission
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Sequence     uint64 `json:"sequence"`
	Duplicate    bool   `json:"duplicate"`
}

// Publisher appends bid submissions to the stream
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a JetStream context on conn and makes sure the stream exists
func NewPublisher(ctx context.Context, conn *nats.Conn, cfg Config) (*Publisher, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if _, err := EnsureStream(ctx, js, cfg); err != nil {
		return nil, err
	}
	return &Publisher{js: js}, nil
}

// PublishSubmission validates and appends sub, waiting for the server ack.
// A missing submission id is generated; the id doubles as the message id so
// the server drops retried publishes within the duplicate window.
func (p *Publisher) PublishSubmission(ctx context.Context, sub models.BidSubmission) (*Receipt, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	ack, err := p.js.Publish(ctx, Subject(sub.AuctionID), data, jetstream.WithMsgID(sub.SubmissionID))
	if err != nil {
		return nil, fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	return &Receipt{
		SubmissionID: sub.SubmissionID,
		Sequence:     ack.Sequence,
		Duplicate:    ack.Duplicate,
	}, nil
}
