package itinerary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wanderplan/wanderplan/internal/telemetry"
)

// Generate runs the full pipeline for req: normalize, plan the route, expand
// every day in chunks, check the assembled days and attach images.
//
// Any failure is returned as a *ServiceError wrapping the first unrecoverable
// cause; a partial itinerary is never returned.
func (s *Service) Generate(ctx context.Context, req TripRequest) (*Itinerary, error) {
	start := time.Now()
	itin, err := s.generate(ctx, req)

	days := 0
	if itin != nil {
		days = len(itin.Days)
	}
	s.metrics.RecordRun(days, time.Since(start), err)

	if err != nil {
		s.logger.Error().Err(err).Str("destination", req.Destination).Int("duration", req.Duration).Msg("itinerary generation failed")
		return nil, err
	}

	s.logger.Info().
		Str("destination", itin.Destination).
		Int("days", len(itin.Days)).
		Dur("elapsed", time.Since(start)).
		Msg("itinerary generated")
	return itin, nil
}

func (s *Service) generate(ctx context.Context, req TripRequest) (*Itinerary, error) {
	if req.Duration < 1 || req.Duration > s.maxDays {
		return nil, &ServiceError{
			Message: "invalid trip request",
			Err:     invalidInput(fmt.Sprintf("duration must be between 1 and %d days", s.maxDays), req.Duration),
		}
	}
	if strings.TrimSpace(req.Destination) == "" {
		return nil, &ServiceError{Message: "invalid trip request", Err: invalidInput("destination is required", nil)}
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "itinerary.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("itinerary.duration", req.Duration))

	normalized, err := s.Normalize(ctx, req)
	if err != nil {
		return nil, &ServiceError{Message: "failed to normalize trip input", Err: err}
	}

	plan, err := s.PlanRoute(ctx, RouteRequest{
		Destination:    normalized.Destination,
		Days:           req.Duration,
		Dates:          normalized.Dates,
		Interests:      req.Interests,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		return nil, &ServiceError{Message: "failed to generate routing plan", Err: err}
	}
	if len(plan.Days) != req.Duration || plan.TotalDays != req.Duration {
		return nil, &ServiceError{
			Message: "failed to generate routing plan",
			Err: &ValidationError{
				Message: fmt.Sprintf("routing plan has %d days (totalDays %d), want %d", len(plan.Days), plan.TotalDays, req.Duration),
				Payload: plan,
			},
		}
	}

	days, err := s.expandAll(ctx, req, normalized, plan)
	if err != nil {
		return nil, &ServiceError{Message: "failed to generate itinerary days", Err: err}
	}

	if err := checkAssembled(days, req.Duration); err != nil {
		return nil, &ServiceError{Message: "generated itinerary is inconsistent", Err: err}
	}

	s.attachImages(ctx, days, plan.Country)

	return &Itinerary{
		Name:        normalized.SuggestedName,
		Destination: normalized.Destination,
		Country:     plan.Country,
		Date:        normalized.Dates,
		Duration:    req.Duration,
		Normalized:  *normalized,
		Metadata:    plan.Metadata,
		Days:        days,
	}, nil
}

// expandAll expands the plan's days chunkSize at a time. Each day's context
// comes from the routing plan only, so the days of a chunk run concurrently;
// results are placed by index.
func (s *Service) expandAll(ctx context.Context, req TripRequest, normalized *NormalizedInput, plan *RoutingPlan) ([]ItineraryDay, error) {
	days := make([]ItineraryDay, len(plan.Days))

	for chunkStart := 0; chunkStart < len(plan.Days); chunkStart += s.chunkSize {
		chunkEnd := min(chunkStart+s.chunkSize, len(plan.Days))

		g, gctx := errgroup.WithContext(ctx)
		for i := chunkStart; i < chunkEnd; i++ {
			g.Go(func() error {
				rd := plan.Days[i]
				dr := DayRequest{
					Day:            rd.Day,
					City:           rd.MainCity,
					Accommodation:  rd.SuggestedAccommodation,
					Dates:          normalized.Dates,
					Interests:      req.Interests,
					AdditionalInfo: req.AdditionalInfo,
				}
				if i > 0 {
					dr.PreviousCity = plan.Days[i-1].MainCity
					if rd.TravelFromPrevious != nil {
						dr.TravelInfo = *rd.TravelFromPrevious
					}
				}

				activities, err := s.ExpandDay(gctx, dr)
				if err != nil {
					return err
				}

				days[i] = ItineraryDay{
					ID:            fmt.Sprintf("day-%d", rd.Day),
					Day:           rd.Day,
					Location:      rd.MainCity,
					Accommodation: rd.SuggestedAccommodation,
					TravelInfo:    dr.TravelInfo,
					WeatherInfo:   rd.WeatherInfo,
					LocalEvents:   rd.LocalEvents,
					Activities:    activities,
					SuggestedName: normalized.SuggestedName,
					Corrections:   normalized.Corrections,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.logger.Debug().Int("from", chunkStart+1).Int("to", chunkEnd).Int("total", len(plan.Days)).Msg("day chunk expanded")
	}

	return days, nil
}

// checkAssembled enforces the output invariants: exactly want days numbered
// 1..want without repeats. days is sorted by day number in place.
func checkAssembled(days []ItineraryDay, want int) error {
	if len(days) != want {
		return &ValidationError{Message: fmt.Sprintf("assembled %d days, want %d", len(days), want), Payload: len(days)}
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	for i, d := range days {
		if d.Day != i+1 {
			return &ValidationError{Message: fmt.Sprintf("day numbers are not contiguous at position %d", i+1), Payload: d.Day}
		}
		if len(d.Activities) < MinActivitiesPerDay || len(d.Activities) > MaxActivitiesPerDay {
			return &ValidationError{Message: fmt.Sprintf("day %d has %d activities", d.Day, len(d.Activities)), Payload: d.Day}
		}
	}
	return nil
}

// attachImages fills day and activity image URLs. Lookups never fail, so this
// only ever degrades to defaults.
func (s *Service) attachImages(ctx context.Context, days []ItineraryDay, country string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.chunkSize)

	for i := range days {
		g.Go(func() error {
			day := &days[i]
			day.ImageURL = s.images.ImageFor(gctx, day.Location, country)
			for j := range day.Activities {
				a := &day.Activities[j]
				a.ImageURL = s.images.ImageFor(gctx, activityPlace(*a, day.Location), country)
			}
			return nil
		})
	}
	_ = g.Wait()
}
