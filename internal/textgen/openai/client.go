// Package openai implements textgen.Generator on the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

const (
	// ProviderName identifies this text generation provider.
	ProviderName = "openai"

	// DefaultModel supports the JSON object response format.
	DefaultModel = "gpt-3.5-turbo-1106"

	// DefaultTemperature is used when a request does not set one.
	DefaultTemperature = 0.7

	// DefaultMaxTokens is used when a request does not set one.
	DefaultMaxTokens = 4000

	// DefaultTimeout is the per-attempt HTTP timeout. Long completions
	// routinely take tens of seconds.
	DefaultTimeout = 90 * time.Second
)

// ClientConfig holds configuration for the OpenAI client.
type ClientConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the chat model (optional, defaults to DefaultModel).
	Model string

	// BaseURL overrides the API base URL, e.g. for a proxy or tests.
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with a generous timeout.
	HTTPClient *resilience.Client

	// Metrics is optional.
	Metrics *telemetry.ProviderMetrics

	// Logger is the logger to use.
	Logger zerolog.Logger
}

// Client generates text with OpenAI chat completions.
type Client struct {
	api     *goopenai.Client
	model   string
	metrics *telemetry.ProviderMetrics
	logger  zerolog.Logger
}

var _ textgen.Generator = (*Client)(nil)

// NewClient creates a new OpenAI client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, textgen.ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		httpCfg := resilience.DefaultClientConfig(ProviderName)
		httpCfg.Timeout = DefaultTimeout
		cfg.HTTPClient = resilience.NewClient(httpCfg)
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.HTTPClient = cfg.HTTPClient
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		api:     goopenai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Generate runs one chat completion and returns the message content.
// Client errors other than rate limiting are marked permanent so callers do not
// retry them.
func (c *Client) Generate(ctx context.Context, req textgen.Request) (string, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	c.metrics.RecordRequest(req.OperationOr("chat_completion"), time.Since(start), err)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", textgen.ErrEmptyResponse
	}

	c.logger.Debug().
		Str("operation", req.Operation).
		Str("model", c.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("openai: %w", err)
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return backoff.Permanent(wrapped)
		}
		return wrapped
	}
	return fmt.Errorf("executing request: %w", err)
}
