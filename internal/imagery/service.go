package imagery

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wanderplan/wanderplan/internal/telemetry"
)

const (
	// DefaultRequestSpacing is the minimum gap between two photo searches.
	DefaultRequestSpacing = 100 * time.Millisecond

	defaultSearchTimeout = 5 * time.Second
	defaultPerPage       = 5
)

// ServiceConfig holds configuration for the image service.
type ServiceConfig struct {
	// Searcher is the photo search provider. Without one only static images
	// are returned.
	Searcher PhotoSearcher

	// Cache stores resolved URLs. Default: a MemoryCache with CacheTTL.
	Cache Cache

	// CacheTTL is used for the default cache.
	// Default: 5 minutes
	CacheTTL time.Duration

	// RequestSpacing is the minimum gap between photo searches, process wide.
	// Default: 100ms
	RequestSpacing time.Duration

	// SearchTimeout bounds a single photo search.
	// Default: 5 seconds
	SearchTimeout time.Duration

	// Metrics is optional.
	Metrics *telemetry.ProviderMetrics

	Logger zerolog.Logger
}

// Service resolves image URLs for places.
type Service struct {
	searcher      PhotoSearcher
	cache         Cache
	limiter       *rate.Limiter
	searchTimeout time.Duration
	strategies    []strategy
	metrics       *telemetry.ProviderMetrics
	logger        zerolog.Logger
}

// NewService creates a new image service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache(cfg.CacheTTL)
	}
	if cfg.RequestSpacing <= 0 {
		cfg.RequestSpacing = DefaultRequestSpacing
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}

	s := &Service{
		searcher:      cfg.Searcher,
		cache:         cfg.Cache,
		limiter:       rate.NewLimiter(rate.Every(cfg.RequestSpacing), 1),
		searchTimeout: cfg.SearchTimeout,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
	s.strategies = []strategy{
		{name: "place", resolve: s.searchPlace},
		{name: "city", resolve: s.searchCity},
		{name: "country", resolve: s.searchCountry},
		{name: "region", resolve: s.searchRegion},
		{name: "static", resolve: staticCountry},
	}
	return s
}

// lookup is one image request.
type lookup struct {
	place    string
	fallback string
}

// strategy resolves a lookup to a URL, returning "" when it has nothing.
type strategy struct {
	name    string
	resolve func(ctx context.Context, l lookup) string
}

// ImageFor returns an image URL for place, using fallback (a country or
// region) when nothing specific is found. It never fails: the last resort is a
// generic travel image.
//
// Results are cached per normalized place and fallback, so repeated lookups
// within the cache TTL issue no further searches.
func (s *Service) ImageFor(ctx context.Context, place, fallback string) string {
	l := lookup{place: strings.TrimSpace(place), fallback: strings.TrimSpace(fallback)}
	key := "image:" + normalizeKey(l.place) + "|" + normalizeKey(l.fallback)

	if url, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCacheHit("image_for")
		return url
	}
	s.metrics.RecordCacheMiss("image_for")

	for _, st := range s.strategies {
		if url := st.resolve(ctx, l); url != "" {
			s.logger.Debug().Str("place", l.place).Str("strategy", st.name).Msg("image resolved")
			s.cache.Set(ctx, key, url)
			return url
		}
	}

	url := DefaultImage(key)
	s.logger.Debug().Str("place", l.place).Str("fallback", l.fallback).Msg("using default image")
	s.cache.Set(ctx, key, url)
	return url
}

func (s *Service) searchPlace(ctx context.Context, l lookup) string {
	if l.place == "" {
		return ""
	}
	return s.search(ctx, l.place+" landmark travel destination")
}

// searchCity handles "place, city" strings by searching the city alone.
func (s *Service) searchCity(ctx context.Context, l lookup) string {
	_, city, ok := strings.Cut(l.place, ",")
	city = strings.TrimSpace(city)
	if !ok || city == "" {
		return ""
	}
	return s.search(ctx, city+" landmark travel destination")
}

func (s *Service) searchCountry(ctx context.Context, l lookup) string {
	if l.fallback == "" {
		return ""
	}
	return s.search(ctx, l.fallback+" landmarks travel")
}

func (s *Service) searchRegion(ctx context.Context, l lookup) string {
	region, ok := countryRegions[canonicalCountry(l.fallback)]
	if !ok {
		// The fallback may itself be a region name.
		region = strings.ReplaceAll(normalizeKey(l.fallback), " ", "_")
	}
	term, ok := regionSearchTerms[region]
	if !ok {
		return ""
	}
	return s.search(ctx, term)
}

func staticCountry(_ context.Context, l lookup) string {
	if url := CountryImage(l.fallback, l.place); url != "" {
		return url
	}
	// "Kyoto, Japan" style places carry the country last.
	if i := strings.LastIndex(l.place, ","); i >= 0 {
		return CountryImage(l.place[i+1:], l.place)
	}
	return ""
}

// search runs one rate limited photo search and returns the best URL, or "" on
// any failure. Successful queries are cached on their own key.
func (s *Service) search(ctx context.Context, query string) string {
	if s.searcher == nil {
		return ""
	}

	key := "search:" + normalizeKey(query)
	if url, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCacheHit("search")
		return url
	}
	s.metrics.RecordCacheMiss("search")

	if err := s.limiter.Wait(ctx); err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	start := time.Now()
	photos, err := s.searcher.SearchPhotos(ctx, query, defaultPerPage)
	s.metrics.RecordRequest("search", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.searcher.Name()).Str("query", query).Msg("photo search failed")
		return ""
	}

	url := bestPhoto(photos)
	if url != "" {
		s.cache.Set(ctx, key, url)
	}
	return url
}

// bestPhoto prefers photos tagged with a location, keeping provider order otherwise.
func bestPhoto(photos []Photo) string {
	sorted := make([]Photo, 0, len(photos))
	for _, p := range photos {
		if p.URL != "" {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HasLocation() && !sorted[j].HasLocation()
	})
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0].URL
}
