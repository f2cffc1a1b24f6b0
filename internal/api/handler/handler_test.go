package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/api/handler"
	"github.com/wanderplan/wanderplan/internal/api/middleware"
	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// tokenIsUser accepts any bearer token and uses it as the user ID.
type tokenIsUser struct{}

func (tokenIsUser) UserIDFromToken(token string) (string, error) {
	return token, nil
}

type fakeGenerator struct {
	itinerary *itinerary.Itinerary
	activity  *itinerary.Activity
	err       error
	calls     int
}

func (f *fakeGenerator) Generate(_ context.Context, req itinerary.TripRequest) (*itinerary.Itinerary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	it := *f.itinerary
	it.Destination = req.Destination
	return &it, nil
}

func (f *fakeGenerator) GenerateSingleActivity(context.Context, string, string) (*itinerary.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activity, nil
}

func (f *fakeGenerator) MaxDays() int { return itinerary.MaxDays }

type fakeQueue struct {
	userID string
	req    itinerary.TripRequest
	warmed [][]string
	err    error
}

func (q *fakeQueue) EnqueueGeneration(_ context.Context, userID string, req itinerary.TripRequest) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.userID = userID
	q.req = req
	return "job-1", nil
}

func (q *fakeQueue) EnqueueWarm(_ context.Context, places []string) error {
	if q.err != nil {
		return q.err
	}
	q.warmed = append(q.warmed, places)
	return nil
}

func sampleDays(n int) []itinerary.ItineraryDay {
	days := make([]itinerary.ItineraryDay, n)
	for i := range days {
		days[i] = itinerary.ItineraryDay{
			ID:            "day",
			Day:           i + 1,
			Location:      "Lisbon",
			Accommodation: "Alfama",
			Activities: []itinerary.Activity{
				{ID: "a1", Type: itinerary.ActivityExploration, Title: "Tram 28", Description: "Ride through the hills"},
				{ID: "a2", Type: itinerary.ActivityDining, Title: "Time Out Market", Description: "Lunch"},
				{ID: "a3", Type: itinerary.ActivityExploration, Title: "Belem Tower", Description: "Riverside walk"},
			},
		}
	}
	return days
}

func sampleItinerary() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		Name:        "Lisbon Weekend",
		Destination: "Lisbon",
		Country:     "Portugal",
		Duration:    2,
		Normalized:  itinerary.NormalizedInput{Destination: "Lisbon", SuggestedName: "Lisbon Weekend"},
		Days:        sampleDays(2),
	}
}

type testServer struct {
	router    http.Handler
	generator *fakeGenerator
	queue     *fakeQueue
	trips     *trip.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		generator: &fakeGenerator{itinerary: sampleItinerary()},
		queue:     &fakeQueue{},
		trips:     trip.NewService(trip.NewInMemoryRepository()),
	}

	gen := handler.NewItineraryHandler(ts.generator, ts.trips, ts.queue, zerolog.Nop())
	trips := handler.NewTripHandler(ts.trips, zerolog.Nop())

	r := chi.NewRouter()
	r.Use(middleware.Auth(tokenIsUser{}))
	r.Post("/itineraries:generate", gen.GenerateItinerary)
	r.Post("/itineraries:enqueue", gen.EnqueueItinerary)
	r.Post("/activities:generate", gen.GenerateActivity)
	r.Get("/me/itineraries", trips.ListItineraries)
	r.Post("/me/itineraries", trips.CreateItinerary)
	r.Get("/me/itineraries/{itineraryId}", trips.GetItinerary)
	r.Put("/me/itineraries/{itineraryId}", trips.UpdateItinerary)
	r.Delete("/me/itineraries/{itineraryId}", trips.DeleteItinerary)
	r.Post("/me/itineraries/{itineraryId}/reset", trips.ResetItinerary)
	r.Get("/me/itineraries/{itineraryId}/export.pdf", trips.ExportItinerary)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+user)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}
