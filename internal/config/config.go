// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wanderplan/wanderplan/internal/database"
	"github.com/wanderplan/wanderplan/internal/itinerary"
)

// Text generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Saved itinerary store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config holds all configuration values shared by the API server and the worker.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	OTelEnabled bool
	// OTelSampleRatio is the share of root traces kept, in (0, 1].
	OTelSampleRatio float64
	OTLPEndpoint    string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// CORSOrigins is the list of allowed browser origins.
	CORSOrigins []string
	// RequireTLS rejects requests a load balancer forwarded as plain HTTP.
	RequireTLS bool

	// TextGenProvider selects the model backend: "openai" or "gemini".
	TextGenProvider string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	GeminiAPIKey    string
	GeminiModel     string

	// UnsplashAccessKey is optional. Without it only static images are served.
	UnsplashAccessKey   string
	ImageCacheTTL       time.Duration
	ImageRequestSpacing time.Duration
	RedisURL            string

	StoreBackend  string
	Database      database.Config
	MongoURI      string
	MongoDatabase string

	PubSubProjectID    string
	PubSubTopic        string
	PubSubSubscription string

	MaxDays   int
	ChunkSize int
}

// Load reads configuration from the environment, after loading a .env file
// when one is present. The returned error lists every missing or invalid variable.
func Load() (Config, error) {
	_ = godotenv.Load()

	var problems []string
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			problems = append(problems, key+" (invalid duration)")
		}
		return d
	}
	ratio := func(key string, fallback float64) float64 {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			problems = append(problems, key+" (must be in (0, 1])")
			return fallback
		}
		return f
	}
	integer := func(key string, fallback int) int {
		v := os.Getenv(key)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			problems = append(problems, key+" (must be a positive integer)")
			return fallback
		}
		return n
	}

	cfg := Config{
		Port:                getEnv("APP_PORT", "8080"),
		Env:                 getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		OTelEnabled:         os.Getenv("OTEL_ENABLED") == "true",
		OTelSampleRatio:     ratio("OTEL_TRACES_SAMPLER_ARG", 1),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:           getEnv("JWT_ISSUER", "wanderplan"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "wanderplan-web"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RequireTLS:          os.Getenv("REQUIRE_TLS") == "true",
		TextGenProvider:     strings.ToLower(getEnv("TEXTGEN_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         os.Getenv("GEMINI_MODEL"),
		UnsplashAccessKey:   os.Getenv("UNSPLASH_ACCESS_KEY"),
		ImageCacheTTL:       duration("IMAGE_CACHE_TTL", "5m"),
		ImageRequestSpacing: duration("IMAGE_REQUEST_SPACING", "100ms"),
		RedisURL:            os.Getenv("REDIS_URL"),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		Database:            database.ConfigFromEnv(),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "wanderplan"),
		PubSubProjectID:     os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:         getEnv("PUBSUB_TOPIC", "wanderplan-jobs"),
		PubSubSubscription:  getEnv("PUBSUB_SUBSCRIPTION", "wanderplan-jobs-worker"),
		MaxDays:             min(integer("MAX_DAYS", itinerary.MaxDays), itinerary.MaxDays),
		ChunkSize:           integer("CHUNK_SIZE", itinerary.DefaultChunkSize),
	}

	switch cfg.TextGenProvider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY")
		}
	default:
		problems = append(problems, "TEXTGEN_PROVIDER (must be openai or gemini)")
	}

	switch cfg.StoreBackend {
	case StoreMemory, StorePostgres:
	case StoreMongo:
		if cfg.MongoURI == "" {
			problems = append(problems, "MONGO_URI")
		}
	default:
		problems = append(problems, "STORE_BACKEND (must be memory, postgres or mongo)")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("missing or invalid environment variables: %s", strings.Join(problems, ", "))
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
