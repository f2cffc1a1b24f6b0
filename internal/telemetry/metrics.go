package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/wanderplan/wanderplan/internal/telemetry"

// instruments creates instruments on one meter and keeps the first error, so
// constructors can declare everything and check once.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) histogram(name, unit, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithUnit(unit), metric.WithDescription(desc))
	b.keep(err)
	return h
}

func (b *instruments) counter(name, unit, desc string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithUnit(unit), metric.WithDescription(desc))
	b.keep(err)
	return c
}

func (b *instruments) keep(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ProviderMetrics records calls made to one upstream provider (LLM or image
// search) and the hit rate of its cache.
type ProviderMetrics struct {
	name    string
	latency metric.Float64Histogram
	calls   metric.Int64Counter
	hits    metric.Int64Counter
	misses  metric.Int64Counter
}

// NewProviderMetrics creates instruments labelled with provider.
func NewProviderMetrics(provider string) (*ProviderMetrics, error) {
	b := &instruments{meter: Meter(meterName)}
	m := &ProviderMetrics{
		name:    provider,
		latency: b.histogram("provider.request.duration", "s", "Upstream call latency"),
		calls:   b.counter("provider.request.total", "{request}", "Upstream calls, including failures"),
		hits:    b.counter("provider.cache.hit", "{hit}", "Lookups answered from cache"),
		misses:  b.counter("provider.cache.miss", "{miss}", "Lookups that went upstream"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordRequest records one upstream call. A nil receiver is a no-op.
func (m *ProviderMetrics) RecordRequest(operation string, took time.Duration, err error) {
	if m == nil {
		return
	}
	set := attribute.NewSet(
		attribute.String("provider.name", m.name),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)
	// Cancelled callers still count.
	ctx := context.Background()
	m.latency.Record(ctx, took.Seconds(), metric.WithAttributeSet(set))
	m.calls.Add(ctx, 1, metric.WithAttributeSet(set))
}

// RecordCacheHit is a no-op on a nil receiver.
func (m *ProviderMetrics) RecordCacheHit(operation string) {
	if m != nil {
		m.hits.Add(context.Background(), 1, m.operation(operation))
	}
}

// RecordCacheMiss is a no-op on a nil receiver.
func (m *ProviderMetrics) RecordCacheMiss(operation string) {
	if m != nil {
		m.misses.Add(context.Background(), 1, m.operation(operation))
	}
}

func (m *ProviderMetrics) operation(op string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("provider.name", m.name),
		attribute.String("provider.operation", op),
	)
}

// PipelineMetrics records itinerary generation runs.
type PipelineMetrics struct {
	latency metric.Float64Histogram
	runs    metric.Int64Counter
	days    metric.Int64Counter
}

// NewPipelineMetrics creates the generation pipeline instruments.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	b := &instruments{meter: Meter(meterName)}
	m := &PipelineMetrics{
		latency: b.histogram("itinerary.generation.duration", "s", "End-to-end itinerary generation time"),
		runs:    b.counter("itinerary.generation.total", "{run}", "Generation runs by outcome"),
		days:    b.counter("itinerary.days.generated", "{day}", "Days delivered by successful runs"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordRun records one generation run. A nil receiver is a no-op.
func (m *PipelineMetrics) RecordRun(days int, took time.Duration, err error) {
	if m == nil {
		return
	}
	ctx := context.Background()
	outcome := metric.WithAttributes(attribute.Bool("error", err != nil))
	m.latency.Record(ctx, took.Seconds(), outcome)
	m.runs.Add(ctx, 1, outcome)
	if err == nil {
		m.days.Add(ctx, int64(days))
	}
}
