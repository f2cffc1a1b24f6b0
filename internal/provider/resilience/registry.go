package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker exposes circuit breaker state. Client and the SDK-backed providers
// that keep their own breaker both satisfy it.
type Breaker interface {
	CircuitBreakerState() gobreaker.State
	CircuitBreakerCounts() gobreaker.Counts
}

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	Calls         uint64
	Failures      uint64
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports a closed circuit.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports a half-open circuit: the provider is being probed.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// Registry tracks every upstream provider for the ops status endpoint.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*providerEntry
}

type providerEntry struct {
	breaker     Breaker
	calls       uint64
	failures    uint64
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*providerEntry)}
}

// Register adds a provider. Registering a name again replaces the breaker and
// clears its history.
func (r *Registry) Register(name string, b Breaker) {
	r.mu.Lock()
	r.providers[name] = &providerEntry{breaker: b}
	r.mu.Unlock()
}

// RecordSuccess notes a completed call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.record(name, nil)
}

// RecordFailure notes a call that failed after retries. Unknown names are
// ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.record(name, err)
}

func (r *Registry) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return
	}
	p.calls++
	if err == nil {
		p.lastSuccess = time.Now()
		return
	}
	p.failures++
	p.lastFailure = time.Now()
	p.lastError = err.Error()
}

// GetHealth returns the health of one provider, or nil if it is unknown.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[name]; ok {
		return p.snapshot(name)
	}
	return nil
}

// GetAllHealth returns every provider sorted by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *providerEntry) snapshot(name string) *ProviderHealth {
	h := &ProviderHealth{
		Name:         name,
		CircuitState: p.breaker.CircuitBreakerState(),
		Counts:       p.breaker.CircuitBreakerCounts(),
		Calls:        p.calls,
		Failures:     p.failures,
		LastError:    p.lastError,
	}
	if !p.lastSuccess.IsZero() {
		t := p.lastSuccess
		h.LastSuccessAt = &t
	}
	if !p.lastFailure.IsZero() {
		t := p.lastFailure
		h.LastFailureAt = &t
	}
	return h
}
