package itinerary

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

// PlanRoute produces the day-by-day skeleton for the whole trip in one call.
// Unparseable and malformed responses, and plans with a day count other than
// req.Days, are retried; once retries are exhausted
// a *resilience.RetryError wrapping the last *ResponseParseError or
// *ValidationError is returned.
func (s *Service) PlanRoute(ctx context.Context, req RouteRequest) (*RoutingPlan, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "itinerary.PlanRoute")
	defer span.End()
	span.SetAttributes(attribute.Int("itinerary.days", req.Days))

	prompt := routingPrompt(req)

	plan, err := resilience.Retry(ctx, s.retry, func(ctx context.Context, attempt int) (*RoutingPlan, error) {
		raw, err := s.gen.Generate(ctx, textgen.Request{
			Operation: OpPlanRoute,
			System:    systemPrompt,
			Prompt:    prompt,
			JSON:      true,
		})
		if err != nil {
			return nil, err
		}

		parsed, err := decodeResponse(raw)
		if err != nil {
			return nil, err
		}
		if !IsValidRoutingPlan(parsed) {
			return nil, &ValidationError{Message: "invalid routing plan structure", Payload: parsed}
		}

		p := routingPlanFrom(parsed)
		if req.Days > 0 && (len(p.Days) != req.Days || p.TotalDays != req.Days) {
			return nil, &ValidationError{
				Message: fmt.Sprintf("routing plan has %d days (totalDays %d), want %d", len(p.Days), p.TotalDays, req.Days),
				Payload: parsed,
			}
		}
		s.logger.Debug().Int("attempt", attempt).Str("country", p.Country).Int("days", len(p.Days)).Msg("routing plan generated")
		return &p, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("planning route: %w", err)
	}
	return plan, nil
}
