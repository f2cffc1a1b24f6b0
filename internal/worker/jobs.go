package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// Job types carried in JobMessage.JobType.
const (
	JobGenerateItinerary = "generate_itinerary"
	JobWarmImages        = "warm_images"
)

// JobMessage is the payload of every worker message.
type JobMessage struct {
	JobType string                 `json:"job_type"`
	JobID   string                 `json:"job_id,omitempty"`
	UserID  string                 `json:"user_id,omitempty"`
	Request *itinerary.TripRequest `json:"request,omitempty"`
	Places  []string               `json:"places,omitempty"`
}

// Generator runs the itinerary pipeline.
type Generator interface {
	Generate(ctx context.Context, req itinerary.TripRequest) (*itinerary.Itinerary, error)
}

// Processor executes decoded jobs. It has no Pub/Sub dependency so it can be
// driven directly in tests.
type Processor struct {
	generator Generator
	trips     *trip.Service
	warm      *WarmJob
	logger    zerolog.Logger
}

// ProcessorConfig holds configuration for the Processor.
type ProcessorConfig struct {
	Generator Generator
	Trips     *trip.Service
	Warm      *WarmJob
	Logger    zerolog.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		generator: cfg.Generator,
		trips:     cfg.Trips,
		warm:      cfg.Warm,
		logger:    cfg.Logger,
	}
}

// Process runs the job encoded in data. A nil error or a
// *backoff.PermanentError means the message must not be redelivered; any other
// error asks for redelivery.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return backoff.Permanent(fmt.Errorf("parsing job message: %w", err))
	}

	switch msg.JobType {
	case JobGenerateItinerary:
		return p.generateItinerary(ctx, msg)
	case JobWarmImages:
		return p.warmImages(ctx, msg)
	default:
		return backoff.Permanent(fmt.Errorf("unknown job type %q", msg.JobType))
	}
}

func (p *Processor) generateItinerary(ctx context.Context, msg JobMessage) error {
	if msg.UserID == "" || msg.Request == nil {
		return backoff.Permanent(errors.New("generate_itinerary job needs user_id and request"))
	}

	logger := p.logger.With().
		Str("job_id", msg.JobID).
		Str("user_id", msg.UserID).
		Str("destination", msg.Request.Destination).
		Logger()

	startTime := time.Now()
	it, err := p.generator.Generate(ctx, *msg.Request)
	if err != nil {
		// Model output that failed validation is nacked like any other
		// pipeline failure; only refused input is dropped.
		if errors.Is(err, itinerary.ErrInvalidInput) {
			logger.Warn().Err(err).Msg("itinerary request rejected")
			return backoff.Permanent(err)
		}
		return fmt.Errorf("generating itinerary: %w", err)
	}

	saved, err := p.trips.Save(ctx, msg.UserID, it)
	if err != nil {
		var vErr *trip.ValidationError
		if errors.As(err, &vErr) {
			return backoff.Permanent(err)
		}
		return err
	}

	logger.Info().
		Str("itinerary_id", saved.ID).
		Int("days", len(saved.Days)).
		Dur("duration", time.Since(startTime)).
		Msg("itinerary generated")
	return nil
}

func (p *Processor) warmImages(ctx context.Context, msg JobMessage) error {
	if p.warm == nil {
		return backoff.Permanent(errors.New("image warming is not configured"))
	}

	var targets []WarmTarget
	if len(msg.Places) > 0 {
		targets = TargetsFromPlaces(msg.Places)
	}

	result := p.warm.Run(ctx, targets)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("warming images: %w", err)
	}
	if result.Failed > result.Searched+result.Fallbacks {
		return fmt.Errorf("too many warm failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}
