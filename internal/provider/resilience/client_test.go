package resilience_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
)

// neverTrip keeps the breaker closed so retry behaviour can be observed alone.
func neverTrip(gobreaker.Counts) bool { return false }

func fastClient(name string, retries uint64, registry *resilience.Registry) *resilience.Client {
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.ReadyToTrip = neverTrip
	return resilience.NewClient(resilience.ClientConfig{
		Name:            name,
		Timeout:         2 * time.Second,
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		CircuitBreaker:  &cb,
		Registry:        registry,
	})
}

// scripted answers with statuses[i] on the i-th call and 200 afterwards.
func scripted(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			_, _ = w.Write([]byte(`{"error":"upstream"}`))
			return
		}
		_, _ = w.Write([]byte(`{"photos":[]}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func get(t *testing.T, client *resilience.Client, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return client.Do(req)
}

func TestClient_RetriesTransientStatuses(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
	}{
		{"first try", nil, 1},
		{"service unavailable", []int{http.StatusServiceUnavailable}, 2},
		{"rate limited then bad gateway", []int{http.StatusTooManyRequests, http.StatusBadGateway}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := scripted(t, tt.statuses...)
			registry := resilience.NewRegistry()

			resp, err := get(t, fastClient("photos", 3, registry), server.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())

			health := registry.GetHealth("photos")
			require.NotNil(t, health)
			assert.Equal(t, uint64(1), health.Calls)
			assert.Zero(t, health.Failures)
			assert.NotNil(t, health.LastSuccessAt)
		})
	}
}

func TestClient_ClientErrorsReturnedImmediately(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		server, calls := scripted(t, status)

		resp, err := get(t, fastClient("openai", 3, nil), server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load(), "status %d", status)
	}
}

func TestClient_ExhaustedRetriesHandBackLastResponse(t *testing.T) {
	server, calls := scripted(t, 500, 502, 503)
	registry := resilience.NewRegistry()

	resp, err := get(t, fastClient("openai", 2, registry), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"upstream"}`, string(body))
	assert.Equal(t, int32(3), calls.Load())

	health := registry.GetHealth("openai")
	assert.Equal(t, uint64(1), health.Failures)
	assert.Contains(t, health.LastError, "503")
}

func TestClient_HonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	start := time.Now()
	resp, err := get(t, fastClient("photos", 2, nil), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestClient_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prompt := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"Plan Lisbon"}]}`
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, strings.NewReader(prompt))
	require.NoError(t, err)

	resp, err := fastClient("openai", 3, nil).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{prompt, prompt}, bodies)
}

func TestClient_UnreplayableBodyIsNotRetried(t *testing.T) {
	server, calls := scripted(t, http.StatusBadGateway)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL,
		io.NopCloser(strings.NewReader(`{"q":"Kyoto"}`)))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := fastClient("photos", 3, nil).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BreakerOpensAndShortCircuits(t *testing.T) {
	server, calls := scripted(t, 500, 500, 500, 500)

	cb := resilience.DefaultCircuitBreakerConfig("openai")
	cb.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 }
	client := resilience.NewClient(resilience.ClientConfig{
		Name:            "openai",
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		CircuitBreaker:  &cb,
	})

	resp, err := get(t, client, server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	_, err = get(t, client, server.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not call out")
}

func TestClient_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	start := time.Now()
	_, err = fastClient("photos", 3, nil).Do(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTripOnFailureRatio(t *testing.T) {
	trip := resilience.TripOnFailureRatio(5, 0.5)

	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"too few calls", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"below ratio", gobreaker.Counts{Requests: 10, TotalFailures: 4}, false},
		{"at ratio", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"all failing", gobreaker.Counts{Requests: 5, TotalFailures: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trip(tt.counts))
			assert.Equal(t, tt.want, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := resilience.DefaultClientConfig("unsplash")

	assert.Equal(t, "unsplash", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(3), cfg.MaxRetries)
	require.NotNil(t, cfg.CircuitBreaker)
	assert.Equal(t, "unsplash", cfg.CircuitBreaker.Name)
	assert.Equal(t, time.Minute, cfg.CircuitBreaker.Timeout)
}
