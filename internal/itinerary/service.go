package itinerary

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

const tracerName = "github.com/wanderplan/wanderplan/internal/itinerary"

// Config holds configuration for the itinerary service.
type Config struct {
	// TextGen is the text generation provider (required).
	TextGen textgen.Generator

	// Images attaches image URLs. Optional; without it no images are attached.
	Images ImageLookup

	// MaxDays caps trip length. Values outside 1..MaxDays mean MaxDays.
	MaxDays int

	// ChunkSize is how many days are expanded concurrently per checkpoint.
	// Default: DefaultChunkSize
	ChunkSize int

	// Retry configures retries of routing and day expansion calls.
	// Default: resilience.DefaultRetryConfig()
	Retry *resilience.RetryConfig

	// Metrics is optional.
	Metrics *telemetry.PipelineMetrics

	// Now is the clock used for date formatting and activity ids.
	Now func() time.Time

	Logger zerolog.Logger
}

// Service runs the itinerary generation pipeline. It holds no per-run state
// and is safe for concurrent use.
type Service struct {
	gen       textgen.Generator
	images    ImageLookup
	maxDays   int
	chunkSize int
	retry     resilience.RetryConfig
	metrics   *telemetry.PipelineMetrics
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService creates a new itinerary service.
func NewService(cfg Config) *Service {
	if cfg.MaxDays <= 0 || cfg.MaxDays > MaxDays {
		cfg.MaxDays = MaxDays
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	if cfg.Images == nil {
		cfg.Images = noImages{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Service{
		gen:       cfg.TextGen,
		images:    cfg.Images,
		maxDays:   cfg.MaxDays,
		chunkSize: cfg.ChunkSize,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}

	onRetry := retry.OnRetry
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("text generation attempt failed, retrying")
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}
	s.retry = retry

	return s
}

// MaxDays returns the configured trip length cap.
func (s *Service) MaxDays() int {
	return s.maxDays
}

type noImages struct{}

func (noImages) ImageFor(context.Context, string, string) string { return "" }
