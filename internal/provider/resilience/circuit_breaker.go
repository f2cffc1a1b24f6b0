// Package resilience wraps calls to external providers (text generation, photo
// search) with circuit breakers, bounded retries and health bookkeeping.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultOpenTimeout = time.Minute

// CircuitBreakerConfig configures a provider breaker.
type CircuitBreakerConfig struct {
	// Name is the provider name shown on /v1/ops/status.
	Name string

	// MaxRequests probes are let through while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts. Zero keeps them until the
	// breaker trips.
	Interval time.Duration

	// Timeout is how long the breaker stays open before the first probe.
	Timeout time.Duration

	// ReadyToTrip decides when to open. Nil means DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultCircuitBreakerConfig trips at a 50% failure rate over at least five
// calls and probes again after a minute.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     defaultOpenTimeout,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip is TripOnFailureRatio(5, 0.5).
var DefaultReadyToTrip = TripOnFailureRatio(5, 0.5)

// TripOnFailureRatio opens the breaker once at least minRequests calls were
// seen and the failing share reaches ratio. A model that answers slowly but
// correctly never trips it; one that errors on every chunk does quickly.
func TripOnFailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests < minRequests {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= ratio
	}
}

// NewCircuitBreaker builds a breaker typed on the guarded call's result.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOpenTimeout
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	})
}
