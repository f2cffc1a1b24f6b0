package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling out when a provider's breaker is
// open or its half-open probe slot is taken.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// maxRetryAfter bounds how long a provider's Retry-After can stall a call.
const maxRetryAfter = 30 * time.Second

// ClientConfig configures Client. Zero durations and counts take defaults.
type ClientConfig struct {
	// Name is the provider name used for the breaker and the registry.
	Name string

	// Timeout bounds each attempt, not the whole call. Default 10s.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first. Default 3.
	MaxRetries uint64

	InitialInterval time.Duration // default 100ms
	MaxInterval     time.Duration // default 5s

	// CircuitBreaker overrides DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives the client on construction and a record of
	// every call's outcome.
	Registry *Registry

	Transport http.RoundTripper
	Logger    zerolog.Logger
}

// DefaultClientConfig returns the settings used for provider HTTP clients.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cb,
	}
}

func (c ClientConfig) withDefaults() ClientConfig {
	d := DefaultClientConfig(c.Name)
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.CircuitBreaker == nil {
		c.CircuitBreaker = d.CircuitBreaker
	}
	return c
}

// Client is an http.Client replacement for provider SDKs (go-openai takes it
// as its HTTPClient). Transport errors, 5xx and 429 responses are retried with
// exponential backoff behind a circuit breaker. Other responses, including
// 4xx, are returned as-is for the SDK to interpret.
type Client struct {
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	config   ClientConfig
	registry *Registry
	logger   zerolog.Logger
}

// NewClient creates a Client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()

	c := &Client{
		http:     &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		breaker:  NewCircuitBreaker[*http.Response](*cfg.CircuitBreaker), //nolint:bodyclose // type parameter
		config:   cfg,
		registry: cfg.Registry,
		logger:   cfg.Logger.With().Str("provider", cfg.Name).Logger(),
	}
	if c.registry != nil {
		c.registry.Register(cfg.Name, c)
	}
	return c
}

func (c *Client) Name() string {
	return c.config.Name
}

// Do sends req, retrying as described on Client. When retries run out on a
// retryable status, that last response is returned with a nil error so the
// caller can read the provider's error body. Requests with a body are only
// retried when req.GetBody is set.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	retries := c.config.MaxRetries
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		retries = 0
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.config.InitialInterval
	exp.MaxInterval = c.config.MaxInterval
	exp.MaxElapsedTime = 0
	policy := &hintedBackOff{BackOff: exp}

	var (
		last    *http.Response
		attempt int
	)
	operation := func() error {
		attempt++
		if last != nil {
			drainAndClose(last)
			last = nil
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			return c.send(ctx, req, attempt)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		last = resp

		var status *StatusError
		if errors.As(err, &status) {
			policy.hint = status.RetryAfter
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).
			Str("host", req.URL.Host).Msg("retrying provider request")
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
	if err == nil {
		c.record(nil)
		return last, nil
	}

	c.record(err)
	if ctx.Err() != nil {
		if last != nil {
			drainAndClose(last)
		}
		return nil, ctx.Err()
	}
	if last != nil {
		return last, nil
	}
	return nil, err
}

// send performs a single attempt. The returned error marks the attempt as
// failed for both the breaker and the retry loop.
func (c *Client) send(ctx context.Context, req *http.Request, attempt int) (*http.Response, error) {
	out := req.Clone(ctx)
	if attempt > 1 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		out.Body = body
	}

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, err
	}
	if retryableStatus(resp.StatusCode) {
		return resp, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp, nil
}

func (c *Client) record(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(c.config.Name, err)
		return
	}
	c.registry.RecordSuccess(c.config.Name)
}

// CircuitBreakerState implements Breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts implements Breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// StatusError is a retryable HTTP status from a provider.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return "provider responded " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// parseRetryAfter reads the delay-seconds form of Retry-After. HTTP dates and
// garbage yield zero.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

// hintedBackOff waits at least as long as the provider last asked for.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.hint > next {
		next = b.hint
	}
	b.hint = 0
	return next
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
