package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/imagery"
)

// ImageLookup resolves a place to an image URL. It never fails.
type ImageLookup interface {
	ImageFor(ctx context.Context, place, fallback string) string
}

// WarmJob pre-fills the image cache for popular destinations so the first
// generation touching them skips the photo search.
type WarmJob struct {
	config WarmConfig
	images ImageLookup
	logger zerolog.Logger

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics.
type WarmMetrics struct {
	mu sync.RWMutex

	TotalRuns int64
	Searched  int64
	Fallbacks int64
	Failed    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config WarmConfig
	Images ImageLookup
	Logger zerolog.Logger
}

// NewWarmJob creates a new warm job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultWarmTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WarmJob{
		config:  config,
		images:  cfg.Images,
		logger:  cfg.Logger,
		metrics: &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Total     int

	// Searched counts places that resolved through a photo search.
	Searched int
	// Fallbacks counts places that only got a static image.
	Fallbacks int
	// Failed counts places that were not looked up (canceled) or came back empty.
	Failed int
}

// Run warms every target. A nil targets slice warms the configured defaults.
func (j *WarmJob) Run(ctx context.Context, targets []WarmTarget) *WarmResult {
	if targets == nil {
		targets = j.config.Ordered()
	}

	startTime := time.Now()
	result := &WarmResult{
		StartTime: startTime,
		Total:     len(targets),
	}

	j.logger.Info().
		Int("total_places", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting image warm job")

	targetsChan := make(chan WarmTarget, len(targets))
	resultsChan := make(chan warmOutcome, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, t := range targets {
		targetsChan <- t
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	processed := 0
	for o := range resultsChan {
		processed++
		switch o {
		case warmSearched:
			result.Searched++
		case warmFallback:
			result.Fallbacks++
		default:
			result.Failed++
		}
	}
	// Targets never picked up because the context ended.
	result.Failed += result.Total - processed

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("searched", result.Searched).
		Int("fallbacks", result.Fallbacks).
		Int("failed", result.Failed).
		Msg("image warm job completed")

	return result
}

type warmOutcome int

const (
	warmFailed warmOutcome = iota
	warmSearched
	warmFallback
)

func (j *WarmJob) warmWorker(ctx context.Context, targets <-chan WarmTarget, results chan<- warmOutcome) {
	for t := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmTarget(ctx, t)
		}
	}
}

func (j *WarmJob) warmTarget(ctx context.Context, t WarmTarget) warmOutcome {
	lookupCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	url := j.images.ImageFor(lookupCtx, t.Place, t.Country)
	switch {
	case url == "":
		j.logger.Warn().Str("place", t.Place).Msg("no image for place")
		return warmFailed
	case imagery.IsStaticImage(url):
		j.logger.Debug().Str("place", t.Place).Msg("warmed with static fallback")
		return warmFallback
	default:
		return warmSearched
	}
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.Searched += int64(result.Searched)
	j.metrics.Fallbacks += int64(result.Fallbacks)
	j.metrics.Failed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		Searched:        j.metrics.Searched,
		Fallbacks:       j.metrics.Fallbacks,
		Failed:          j.metrics.Failed,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"searched":          m.Searched,
		"fallbacks":         m.Fallbacks,
		"failed":            m.Failed,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
