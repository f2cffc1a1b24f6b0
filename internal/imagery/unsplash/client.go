// Package unsplash implements imagery.PhotoSearcher on the Unsplash search API.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/imagery"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
)

const (
	// ProviderName identifies this photo provider.
	ProviderName = "unsplash"

	// DefaultBaseURL is the Unsplash API base URL.
	DefaultBaseURL = "https://api.unsplash.com"
)

// ErrMissingAccessKey is returned when searching without an access key.
var ErrMissingAccessKey = errors.New("unsplash access key is required")

// ClientConfig holds configuration for the Unsplash client.
type ClientConfig struct {
	// AccessKey is the Unsplash access key (required).
	AccessKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is an Unsplash API client.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

var _ imagery.PhotoSearcher = (*Client)(nil)

// NewClient creates a new Unsplash client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		accessKey:  cfg.AccessKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchPhotos returns landscape photos matching query, most relevant first.
func (c *Client) SearchPhotos(ctx context.Context, query string, perPage int) ([]imagery.Photo, error) {
	if c.accessKey == "" {
		return nil, ErrMissingAccessKey
	}
	if perPage <= 0 {
		perPage = 5
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")
	params.Set("order_by", "relevant")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	photos := make([]imagery.Photo, 0, len(body.Results))
	for _, r := range body.Results {
		if r.URLs.Regular == "" {
			continue
		}
		p := imagery.Photo{ID: r.ID, URL: r.URLs.Regular}
		if r.Location != nil {
			p.City = r.Location.City
			p.Country = r.Location.Country
		}
		photos = append(photos, p)
	}
	if len(photos) == 0 {
		return nil, imagery.ErrNoResults
	}

	c.logger.Debug().Str("query", query).Int("results", len(photos)).Msg("unsplash search finished")
	return photos, nil
}

type searchResponse struct {
	Total   int            `json:"total"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID   string `json:"id"`
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	Location *struct {
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"location"`
}
