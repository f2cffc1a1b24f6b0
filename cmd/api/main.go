// Package main provides the entrypoint for the WanderPlan API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wanderplan/wanderplan/internal/api"
	"github.com/wanderplan/wanderplan/internal/api/handler"
	"github.com/wanderplan/wanderplan/internal/api/middleware"
	"github.com/wanderplan/wanderplan/internal/auth"
	"github.com/wanderplan/wanderplan/internal/bootstrap"
	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "wanderplan-api"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Setup structured logging
	logger := bootstrap.Logger(&cfg, serviceName, Version)

	logger.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting WanderPlan API")

	// Initialize OpenTelemetry
	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		logger.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	services, err := bootstrap.New(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := services.Close(closeCtx); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close services")
		}
	}()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token verification")
	}

	// Background generation is optional
	var jobs handler.JobQueue
	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		publisher, err := worker.NewPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize pubsub publisher")
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close pubsub publisher")
			}
		}()
		jobs = publisher
		logger.Info().Str("topic", cfg.PubSubTopic).Msg("pubsub publisher initialized")
	} else {
		logger.Warn().Msg("PUBSUB_PROJECT_ID/PUBSUB_TOPIC not set - :enqueue is disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      logger,
		ServiceName: serviceName,
		Metrics:     metrics,
		CORSOrigins: cfg.CORSOrigins,
		RequireTLS:  cfg.RequireTLS,
		Tokens:      jwtService,
		Generator:   services.Itinerary,
		Trips:       services.Trips,
		Jobs:        jobs,
		Images:      services.Images,
		Registry:    services.Registry,
		Checks:      services.Checks,
	})

	// Create HTTP server. Synchronous generation of a long trip takes minutes.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
