package itinerary_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

func assertContiguous(t *testing.T, days []itinerary.ItineraryDay, want int) {
	t.Helper()
	require.Len(t, days, want)
	for i, d := range days {
		assert.Equal(t, i+1, d.Day)
		assert.GreaterOrEqual(t, len(d.Activities), itinerary.MinActivitiesPerDay)
		assert.LessOrEqual(t, len(d.Activities), itinerary.MaxActivitiesPerDay)
		for _, a := range d.Activities {
			assert.True(t, a.Type.Valid(), "activity type %q", a.Type)
			assert.NotEmpty(t, a.Title)
			assert.NotEmpty(t, a.Description)
		}
	}
}

func TestGenerate_NewYorkScenario(t *testing.T) {
	gen := newFakeGenerator(travelModel(3))
	images := &fakeImages{}
	svc := newService(t, gen, images, 0)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{
		Destination: "new yerk",
		Dates:       "aug",
		Duration:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, "New York", itin.Destination)
	assert.Equal(t, "United States", itin.Country)
	assert.Equal(t, "Big Apple Summer", itin.Name)
	assert.Equal(t, "August 2024", itin.Date)
	require.NotEmpty(t, itin.Normalized.Corrections)
	assert.Equal(t, "new yerk", itin.Normalized.Corrections[0].Original)
	assert.Equal(t, "New York", itin.Normalized.Corrections[0].Corrected)
	assert.NotEmpty(t, itin.Normalized.Corrections[0].Reason)
	assert.Equal(t, "USD", itin.Metadata.Currency)

	assertContiguous(t, itin.Days, 3)
	assert.Empty(t, itin.Days[0].TravelInfo)
	assert.Equal(t, "Amtrak train from New York", itin.Days[1].TravelInfo)
	assert.Equal(t, "Boston", itin.Days[1].Location)

	assert.Equal(t, 1, gen.count(itinerary.OpNormalizeInput))
	assert.Equal(t, 1, gen.count(itinerary.OpPlanRoute))
	assert.Equal(t, 3, gen.count(itinerary.OpExpandDay))

	for _, d := range itin.Days {
		assert.Equal(t, "https://images.test/"+d.Location, d.ImageURL)
		for _, a := range d.Activities {
			assert.True(t, strings.HasPrefix(a.ImageURL, "https://images.test/Place "), a.ImageURL)
		}
	}
}

func TestGenerate_RoutingUsesCorrectedDestination(t *testing.T) {
	gen := newFakeGenerator(travelModel(2))
	svc := newService(t, gen, nil, 0)

	_, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "new yerk", Duration: 2, Interests: "jazz"})
	require.NoError(t, err)

	route := gen.requests(itinerary.OpPlanRoute)
	require.Len(t, route, 1)
	assert.Contains(t, route[0].Prompt, "Create a 2-day travel routing plan for: New York.")
	assert.Contains(t, route[0].Prompt, "Traveler interests: jazz")
	assert.NotContains(t, route[0].Prompt, "new yerk")
	assert.NotContains(t, route[0].Prompt, "Additional requirements")
	assert.True(t, route[0].JSON)
}

func TestGenerate_InvalidDurationMakesNoCalls(t *testing.T) {
	for _, duration := range []int{-1, 0, itinerary.MaxDays + 1, 100} {
		gen := newFakeGenerator(travelModel(3))
		svc := newService(t, gen, nil, 0)

		itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "Paris", Duration: duration})

		assert.Nil(t, itin)
		var verr *itinerary.ValidationError
		require.ErrorAs(t, err, &verr, "duration %d", duration)
		assert.ErrorIs(t, err, itinerary.ErrInvalidInput)
		assert.Equal(t, 0, gen.total())
	}
}

func TestGenerate_SingleDayStillRoutes(t *testing.T) {
	gen := newFakeGenerator(travelModel(1))
	svc := newService(t, gen, nil, 0)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "Lisbon", Duration: 1})
	require.NoError(t, err)

	assertContiguous(t, itin.Days, 1)
	assert.Equal(t, 1, gen.count(itinerary.OpPlanRoute))
}

func TestGenerate_MaxDays(t *testing.T) {
	gen := newFakeGenerator(travelModel(itinerary.MaxDays))
	svc := newService(t, gen, nil, 0)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "Japan", Duration: itinerary.MaxDays})
	require.NoError(t, err)
	assertContiguous(t, itin.Days, itinerary.MaxDays)
}

func TestGenerate_RoutingPlanDayCountMismatch(t *testing.T) {
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpPlanRoute {
			return routingJSON(5, 5), nil
		}
		return travelModel(7)(req, n)
	})
	svc := newService(t, gen, nil, 0)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "Italy", Duration: 7})

	assert.Nil(t, itin)
	var serr *itinerary.ServiceError
	require.ErrorAs(t, err, &serr)
	var verr *itinerary.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, gen.count(itinerary.OpPlanRoute))
	assert.Equal(t, 0, gen.count(itinerary.OpExpandDay))
}

func TestGenerate_TotalDaysMismatch(t *testing.T) {
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpPlanRoute {
			return routingJSON(4, 5), nil
		}
		return travelModel(4)(req, n)
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "Italy", Duration: 4})
	assert.Error(t, err)
}

func TestGenerate_ChunkSizeDoesNotAffectOrdering(t *testing.T) {
	for _, chunk := range []int{1, 2, 3, 5, 7, 10} {
		gen := newFakeGenerator(travelModel(7))
		svc := newService(t, gen, nil, chunk)

		itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "East Coast", Duration: 7})
		require.NoError(t, err, "chunk %d", chunk)

		assertContiguous(t, itin.Days, 7)
		for i, d := range itin.Days {
			assert.Equal(t, cities[i%len(cities)], d.Location, "chunk %d", chunk)
		}
		assert.Equal(t, 7, gen.count(itinerary.OpExpandDay))
	}
}

func TestGenerate_DayFailureFailsRun(t *testing.T) {
	cause := errors.New("model overloaded")
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpExpandDay && strings.Contains(req.Prompt, "day 3 itinerary") {
			return "", cause
		}
		return travelModel(4)(req, n)
	})
	svc := newService(t, gen, &fakeImages{}, 0)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "East Coast", Duration: 4})

	assert.Nil(t, itin)
	var serr *itinerary.ServiceError
	require.ErrorAs(t, err, &serr)
	var rerr *resilience.RetryError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 3, rerr.Attempts)
	assert.ErrorIs(t, err, cause)
}

func TestGenerate_RetriesMalformedDay(t *testing.T) {
	var bad int
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpExpandDay && strings.Contains(req.Prompt, "day 2 itinerary") && bad < 2 {
			bad++
			if bad == 1 {
				return "not json at all", nil
			}
			return `{"activities":[{"title":"Only one","type":"dining","description":"x"}]}`, nil
		}
		return travelModel(2)(req, n)
	})
	svc := newService(t, gen, nil, 1)

	itin, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "East Coast", Duration: 2})
	require.NoError(t, err)

	assertContiguous(t, itin.Days, 2)
	assert.Equal(t, 4, gen.count(itinerary.OpExpandDay))
}

func TestGenerate_NormalizerFailure(t *testing.T) {
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpNormalizeInput {
			return `{"destination":"","corrections":[]}`, nil
		}
		return travelModel(2)(req, n)
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.Generate(context.Background(), itinerary.TripRequest{Destination: "???", Duration: 2})

	var verr *itinerary.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotErrorIs(t, err, itinerary.ErrInvalidInput)
	assert.Equal(t, 0, gen.count(itinerary.OpPlanRoute))
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := newFakeGenerator(func(req textgen.Request, n int) (string, error) {
		if req.Operation == itinerary.OpPlanRoute {
			cancel()
			return "", context.Canceled
		}
		return travelModel(3)(req, n)
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.Generate(ctx, itinerary.TripRequest{Destination: "Rome", Duration: 3})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.count(itinerary.OpPlanRoute))
	assert.Equal(t, 0, gen.count(itinerary.OpExpandDay))
}
