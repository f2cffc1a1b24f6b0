// Package main provides the entrypoint for the WanderPlan worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wanderplan/wanderplan/internal/bootstrap"
	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "wanderplan-worker"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := bootstrap.Logger(&cfg, serviceName, Version)
	logger.Info().Str("build_time", BuildTime).Msg("starting WanderPlan worker")

	if cfg.PubSubProjectID == "" || cfg.PubSubSubscription == "" {
		logger.Fatal().Msg("PUBSUB_PROJECT_ID and PUBSUB_SUBSCRIPTION are required")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	services, err := bootstrap.New(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if closeErr := services.Close(closeCtx); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close services")
		}
	}()

	warmJob := worker.NewWarmJob(worker.WarmJobConfig{
		Config: worker.DefaultWarmConfig(),
		Images: services.Images,
		Logger: logger.With().Str("job", worker.JobWarmImages).Logger(),
	})

	consumer, err := worker.NewConsumer(ctx, worker.ConsumerConfig{
		ProjectID:    cfg.PubSubProjectID,
		Subscription: cfg.PubSubSubscription,
		Processor: worker.NewProcessor(worker.ProcessorConfig{
			Generator: services.Itinerary,
			Trips:     services.Trips,
			Warm:      warmJob,
			Logger:    logger,
		}),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize pubsub consumer")
	}
	defer func() {
		if closeErr := consumer.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close pubsub client")
		}
	}()

	// Worker also exposes a health endpoint for Cloud Run
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"warm":    warmJob.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until ctx is canceled
	receiveErr := make(chan error, 1)
	go func() {
		receiveErr <- consumer.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutting down worker")
	case err := <-receiveErr:
		logger.Error().Err(err).Msg("pubsub receive stopped")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("health server forced to shutdown")
	}

	logger.Info().Msg("worker stopped")
}
