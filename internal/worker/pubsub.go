package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/itinerary"
)

const jobTypeAttr = "job_type"

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	ProjectID    string
	Subscription string
	Processor    *Processor
	Logger       zerolog.Logger

	// MaxOutstanding bounds concurrently processed jobs. Default: 10
	MaxOutstanding int
}

// Consumer pulls jobs from a Pub/Sub subscription and feeds them to a
// Processor. Jobs that fail permanently are acked; everything else that fails
// is nacked for redelivery.
type Consumer struct {
	client       *pubsub.Client
	sub          *pubsub.Subscriber
	subscription string
	processor    *Processor
	log          zerolog.Logger
}

// NewConsumer connects to Pub/Sub. Close releases the client.
func NewConsumer(ctx context.Context, cfg ConsumerConfig) (*Consumer, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for %s: %w", cfg.ProjectID, err)
	}

	if cfg.MaxOutstanding <= 0 {
		cfg.MaxOutstanding = 10
	}
	sub := client.Subscriber(cfg.Subscription)
	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstanding
	// Long trips take several model round trips per chunk.
	sub.ReceiveSettings.MaxExtension = 15 * time.Minute

	return &Consumer{
		client:       client,
		sub:          sub,
		subscription: cfg.Subscription,
		processor:    cfg.Processor,
		log:          cfg.Logger.With().Str("subscription", cfg.Subscription).Logger(),
	}, nil
}

// Run receives messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("consuming jobs")
	return c.sub.Receive(ctx, c.receive)
}

func (c *Consumer) Close() error {
	return c.client.Close()
}

func (c *Consumer) receive(ctx context.Context, msg *pubsub.Message) {
	log := c.log.With().
		Str("message_id", msg.ID).
		Str("job_type", msg.Attributes[jobTypeAttr]).
		Int("delivery_attempt", deliveryAttempt(msg)).
		Logger()
	started := time.Now()

	err := c.processor.Process(ctx, msg.Data)
	var permanent *backoff.PermanentError
	switch {
	case err == nil:
		log.Info().Dur("duration", time.Since(started)).Msg("job done")
		msg.Ack()
	case errors.As(err, &permanent):
		log.Warn().Err(permanent.Err).Msg("job dropped")
		msg.Ack()
	default:
		log.Error().Err(err).Dur("duration", time.Since(started)).Msg("job failed, will be redelivered")
		msg.Nack()
	}
}

// deliveryAttempt is 0 unless the subscription has a dead-letter policy.
func deliveryAttempt(msg *pubsub.Message) int {
	if msg.DeliveryAttempt == nil {
		return 0
	}
	return *msg.DeliveryAttempt
}

// Publisher enqueues jobs for the worker.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Publisher
}

// NewPublisher publishes to topic in projectID.
func NewPublisher(ctx context.Context, projectID, topic string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for %s: %w", projectID, err)
	}
	return &Publisher{client: client, topic: client.Publisher(topic)}, nil
}

// EnqueueGeneration queues a generate_itinerary job and returns its ID.
func (p *Publisher) EnqueueGeneration(ctx context.Context, userID string, req itinerary.TripRequest) (string, error) {
	job := JobMessage{
		JobType: JobGenerateItinerary,
		JobID:   newJobID(),
		UserID:  userID,
		Request: &req,
	}
	if err := p.publish(ctx, job); err != nil {
		return "", err
	}
	return job.JobID, nil
}

// EnqueueWarm queues a warm_images job. Empty places warms the defaults.
func (p *Publisher) EnqueueWarm(ctx context.Context, places []string) error {
	return p.publish(ctx, JobMessage{JobType: JobWarmImages, JobID: newJobID(), Places: places})
}

func (p *Publisher) publish(ctx context.Context, job JobMessage) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode %s job: %w", job.JobType, err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{jobTypeAttr: job.JobType},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s job: %w", job.JobType, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

func newJobID() string {
	return "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
