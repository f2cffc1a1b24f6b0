package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/wanderplan/wanderplan/internal/api/models"
)

// RateLimitConfig is one rate-limit tier.
type RateLimitConfig struct {
	Name         string
	RequestLimit int
	WindowLength time.Duration
}

// Rate-limit tiers. Generation calls the text model several times per request
// and gets the tightest budget.
var (
	GenerationRateLimit = RateLimitConfig{Name: "generation", RequestLimit: 10, WindowLength: time.Minute}
	ExpensiveRateLimit  = RateLimitConfig{Name: "expensive", RequestLimit: 30, WindowLength: time.Minute}
	StandardRateLimit   = RateLimitConfig{Name: "standard", RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP (as resolved by chi's RealIP).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limit(cfg, httprate.KeyByRealIP)
}

// RateLimitByUser limits requests per authenticated user, falling back to the
// client IP for anonymous requests.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limit(cfg, keyByUserOrIP)
}

func limit(cfg RateLimitConfig, key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceeded answers with a 429 problem. httprate does not expose when the
// window resets, so Retry-After advertises a full window.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.WindowLength.Seconds())))
	detail := fmt.Sprintf("%s rate limit of %d requests per %s exceeded", cfg.Name, cfg.RequestLimit, cfg.WindowLength)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		writeProblem(w, r, models.NewTooManyRequests(GetRequestID(r.Context()), detail))
	}
}
