// Package api provides the HTTP API for WanderPlan.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/api/handler"
	"github.com/wanderplan/wanderplan/internal/api/middleware"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	CORSOrigins []string
	RequireTLS  bool

	Tokens    middleware.TokenValidator
	Generator handler.ItineraryGenerator
	Trips     *trip.Service
	Jobs      handler.JobQueue // optional
	Images    handler.ImageLookup
	Registry  *resilience.Registry
	Checks    []handler.DependencyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "wanderplan-api"
	}

	// Global middleware - order matters
	r.Use(middleware.CORS(cfg.CORSOrigins)) // Answer preflights before anything else
	r.Use(middleware.RequestID)             // Generate/propagate request ID
	r.Use(middleware.Tracing(serviceName))  // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Checks)
	itineraryHandler := handler.NewItineraryHandler(cfg.Generator, cfg.Trips, cfg.Jobs, cfg.Logger)
	tripHandler := handler.NewTripHandler(cfg.Trips, cfg.Logger)
	var warm handler.WarmQueue
	if cfg.Jobs != nil {
		warm = cfg.Jobs
	}
	imageHandler := handler.NewImageHandler(cfg.Images, warm)

	authMiddleware := middleware.Auth(cfg.Tokens)

	// Rate limits per endpoint category, keyed by user once authenticated
	generationRateLimit := middleware.RateLimitByUser(middleware.GenerationRateLimit) // 10 req/min
	expensiveRateLimit := middleware.RateLimitByUser(middleware.ExpensiveRateLimit)   // 30 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)     // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Generation endpoints - model calls, strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(generationRateLimit)
			r.Post("/itineraries:generate", itineraryHandler.GenerateItinerary)
			r.Post("/itineraries:enqueue", itineraryHandler.EnqueueItinerary)
			r.Post("/activities:generate", itineraryHandler.GenerateActivity)
		})

		// Image lookup
		r.With(authMiddleware, expensiveRateLimit).Get("/images", imageHandler.GetImage)
		r.With(authMiddleware, standardRateLimit).Post("/images:warm", imageHandler.WarmImages)

		// Saved itineraries (authenticated)
		r.Route("/me/itineraries", func(r chi.Router) {
			r.Use(authMiddleware)
			r.With(standardRateLimit).Get("/", tripHandler.ListItineraries)
			r.With(standardRateLimit).Post("/", tripHandler.CreateItinerary)
			r.Route("/{itineraryId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", tripHandler.GetItinerary)
				r.With(standardRateLimit).Put("/", tripHandler.UpdateItinerary)
				r.With(standardRateLimit).Delete("/", tripHandler.DeleteItinerary)
				r.With(standardRateLimit).Post("/reset", tripHandler.ResetItinerary)
				r.With(expensiveRateLimit).Get("/export.pdf", tripHandler.ExportItinerary)
			})
		})
	})

	return r
}
