package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/wanderplan/wanderplan/internal/api/middleware"

// Metrics records per-route request counts, latency, and payload sizes.
type Metrics struct {
	duration metric.Float64Histogram
	count    metric.Int64Counter
	active   metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics registers the HTTP server instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	var (
		m    Metrics
		errs []error
	)
	collect := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	var err error
	m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time from first byte read to handler return"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60))
	collect("request duration", err)

	m.count, err = meter.Int64Counter("http.server.request.total",
		metric.WithUnit("{request}"),
		metric.WithDescription("Requests served, by route and status"))
	collect("request total", err)

	m.active, err = meter.Int64UpDownCounter("http.server.requests_in_flight",
		metric.WithUnit("{request}"),
		metric.WithDescription("Requests currently inside the handler chain"))
	collect("requests in flight", err)

	m.size, err = meter.Int64Histogram("http.server.response.size",
		metric.WithUnit("By"),
		metric.WithDescription("Response body bytes written"))
	collect("response size", err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

// Middleware wraps next with the instruments. Generation requests can run for
// tens of seconds, so the duration buckets extend to a minute.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			method := attribute.String("http.method", r.Method)
			m.active.Add(ctx, 1, metric.WithAttributes(method))
			defer m.active.Add(ctx, -1, metric.WithAttributes(method))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			// chi only knows the route pattern after routing.
			set := metric.WithAttributeSet(attribute.NewSet(
				method,
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.status_code", strconv.Itoa(rec.status)),
				attribute.String("http.status_class", fmt.Sprintf("%dxx", rec.status/100)),
			))
			m.duration.Record(ctx, time.Since(start).Seconds(), set)
			m.count.Add(ctx, 1, set)
			m.size.Record(ctx, rec.written, set)
		})
	}
}
