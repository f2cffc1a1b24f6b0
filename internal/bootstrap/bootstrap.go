// Package bootstrap builds the services shared by the API and worker binaries
// from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderplan/wanderplan/internal/api/handler"
	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/database"
	"github.com/wanderplan/wanderplan/internal/imagery"
	"github.com/wanderplan/wanderplan/internal/imagery/unsplash"
	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
	"github.com/wanderplan/wanderplan/internal/textgen/gemini"
	"github.com/wanderplan/wanderplan/internal/textgen/openai"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// Logger builds the root logger for a binary.
func Logger(cfg *config.Config, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// Closer releases a resource built here.
type Closer func(ctx context.Context) error

// Services are the shared building blocks of both binaries.
type Services struct {
	Registry  *resilience.Registry
	Itinerary *itinerary.Service
	Images    *imagery.Service
	Trips     *trip.Service
	Checks    []handler.DependencyCheck

	closers []Closer
}

// Close releases every resource in reverse construction order.
func (s *Services) Close(ctx context.Context) error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New builds the text generator, image service, itinerary pipeline and saved
// itinerary store selected by cfg.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	s := &Services{Registry: resilience.NewRegistry()}

	gen, err := s.textGenerator(ctx, cfg, log)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	s.Images, err = s.imageService(ctx, cfg, log)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	pipelineMetrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("creating pipeline metrics: %w", err)
	}

	s.Itinerary = itinerary.NewService(itinerary.Config{
		TextGen:   gen,
		Images:    s.Images,
		MaxDays:   cfg.MaxDays,
		ChunkSize: cfg.ChunkSize,
		Metrics:   pipelineMetrics,
		Logger:    log.With().Str("component", "itinerary").Logger(),
	})

	repo, err := s.tripRepository(ctx, cfg, log)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Trips = trip.NewService(repo)

	return s, nil
}

func (s *Services) textGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (textgen.Generator, error) {
	switch cfg.TextGenProvider {
	case config.ProviderGemini:
		metrics, err := telemetry.NewProviderMetrics(gemini.ProviderName)
		if err != nil {
			return nil, fmt.Errorf("creating gemini metrics: %w", err)
		}
		client, err := gemini.NewClient(ctx, gemini.ClientConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Registry: s.Registry,
			Metrics:  metrics,
			Logger:   log.With().Str("provider", gemini.ProviderName).Logger(),
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		log.Info().Str("model", cfg.GeminiModel).Msg("gemini text generation initialized")
		return client, nil

	default:
		metrics, err := telemetry.NewProviderMetrics(openai.ProviderName)
		if err != nil {
			return nil, fmt.Errorf("creating openai metrics: %w", err)
		}
		httpCfg := resilience.DefaultClientConfig(openai.ProviderName)
		httpCfg.Timeout = openai.DefaultTimeout
		httpCfg.Registry = s.Registry
		client, err := openai.NewClient(openai.ClientConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: resilience.NewClient(httpCfg),
			Metrics:    metrics,
			Logger:     log.With().Str("provider", openai.ProviderName).Logger(),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", cfg.OpenAIModel).Msg("openai text generation initialized")
		return client, nil
	}
}

func (s *Services) imageService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*imagery.Service, error) {
	imgLog := log.With().Str("component", "imagery").Logger()

	var cache imagery.Cache = imagery.NewMemoryCache(cfg.ImageCacheTTL)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		cache = imagery.NewTieredCache(cache, imagery.NewRedisCache(client, "wanderplan:image:", cfg.ImageCacheTTL, imgLog))
		s.Checks = append(s.Checks, handler.DependencyCheck{
			Name: "redis",
			Fn:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		log.Info().Msg("redis image cache connected")
	}

	var searcher imagery.PhotoSearcher
	if cfg.UnsplashAccessKey != "" {
		httpCfg := resilience.DefaultClientConfig(unsplash.ProviderName)
		httpCfg.Registry = s.Registry
		searcher = unsplash.NewClient(unsplash.ClientConfig{
			AccessKey:  cfg.UnsplashAccessKey,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     imgLog,
		})
	} else {
		log.Warn().Msg("UNSPLASH_ACCESS_KEY not set - serving static images only")
	}

	metrics, err := telemetry.NewProviderMetrics(unsplash.ProviderName)
	if err != nil {
		return nil, fmt.Errorf("creating image metrics: %w", err)
	}

	return imagery.NewService(imagery.ServiceConfig{
		Searcher:       searcher,
		Cache:          cache,
		RequestSpacing: cfg.ImageRequestSpacing,
		Metrics:        metrics,
		Logger:         imgLog,
	}), nil
}

func (s *Services) tripRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (trip.Repository, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { pool.Close(); return nil })

		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		s.Checks = append(s.Checks, handler.DependencyCheck{Name: "postgres", Fn: pool.Ping})
		log.Info().
			Str("host", cfg.Database.Host).
			Str("database", cfg.Database.Database).
			Int("migrations_applied", applied).
			Msg("database connected")
		return trip.NewPostgresRepository(pool), nil

	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		s.closers = append(s.closers, client.Disconnect)
		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("pinging mongo: %w", err)
		}

		repo := trip.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("creating mongo indexes: %w", err)
		}
		s.Checks = append(s.Checks, handler.DependencyCheck{
			Name: "mongo",
			Fn:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})
		log.Info().Str("database", cfg.MongoDatabase).Msg("mongo connected")
		return repo, nil

	default:
		log.Warn().Msg("using in-memory itinerary store - saved itineraries are lost on restart")
		return trip.NewInMemoryRepository(), nil
	}
}
