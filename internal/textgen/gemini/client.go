// Package gemini implements textgen.Generator on Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

const (
	// ProviderName identifies this text generation provider.
	ProviderName = "gemini"

	// DefaultModel is the default Gemini model.
	DefaultModel = "gemini-1.5-flash"

	defaultTemperature = 0.7
	defaultMaxTokens   = 4000
)

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model name (optional, defaults to DefaultModel).
	Model string

	// CircuitBreaker overrides the default breaker settings.
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Registry receives the client's breaker when set.
	Registry *resilience.Registry

	// Metrics is optional.
	Metrics *telemetry.ProviderMetrics

	// Options are passed to genai.NewClient after the API key.
	Options []option.ClientOption

	// Logger is the logger to use.
	Logger zerolog.Logger
}

// Client generates text with Gemini.
type Client struct {
	api      *genai.Client
	model    string
	breaker  *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
	registry *resilience.Registry
	metrics  *telemetry.ProviderMetrics
	logger   zerolog.Logger
}

var _ textgen.Generator = (*Client)(nil)

// NewClient creates a new Gemini client. Call Close when done.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, textgen.ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	api, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	cbConfig := resilience.DefaultCircuitBreakerConfig(ProviderName)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	c := &Client{
		api:      api,
		model:    cfg.Model,
		breaker:  resilience.NewCircuitBreaker[*genai.GenerateContentResponse](cbConfig),
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	if c.registry != nil {
		c.registry.Register(ProviderName, c)
	}
	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// Generate runs one GenerateContent call and returns the concatenated text parts.
func (c *Client) Generate(ctx context.Context, req textgen.Request) (string, error) {
	m := c.api.GenerativeModel(c.model)

	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	m.SetTemperature(temperature)
	m.SetMaxOutputTokens(int32(maxTokens)) //nolint:gosec // bounded by config
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return m.GenerateContent(ctx, genai.Text(req.Prompt))
	})
	c.metrics.RecordRequest(req.OperationOr("generate_content"), time.Since(start), err)
	if err != nil {
		c.recordFailure(err)
		return "", classify(err)
	}
	c.recordSuccess()

	text := responseText(resp)
	if text == "" {
		return "", textgen.ErrEmptyResponse
	}

	c.logger.Debug().Str("operation", req.Operation).Str("model", c.model).Int("length", len(text)).Msg("gemini content generated")
	return text, nil
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

func classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return resilience.ErrCircuitOpen
	}

	wrapped := fmt.Errorf("gemini: %w", err)
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		return wrapped
	}

	switch apiErr.HTTPCode() {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return backoff.Permanent(wrapped)
	}
	switch apiErr.GRPCStatus().Code() {
	case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
		return backoff.Permanent(wrapped)
	}
	return wrapped
}
