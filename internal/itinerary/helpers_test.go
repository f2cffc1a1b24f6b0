package itinerary_test

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

// fakeGenerator answers text generation calls with a scripted handler and
// records every request.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []textgen.Request
	perOp   map[string]int
	handler func(req textgen.Request, n int) (string, error)
}

func newFakeGenerator(handler func(req textgen.Request, n int) (string, error)) *fakeGenerator {
	return &fakeGenerator{perOp: make(map[string]int), handler: handler}
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, req textgen.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.perOp[req.Operation]++
	n := f.perOp[req.Operation]
	f.mu.Unlock()

	return f.handler(req, n)
}

func (f *fakeGenerator) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perOp[op]
}

func (f *fakeGenerator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGenerator) requests(op string) []textgen.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []textgen.Request
	for _, c := range f.calls {
		if c.Operation == op {
			out = append(out, c)
		}
	}
	return out
}

// fakeImages returns a deterministic URL per place.
type fakeImages struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeImages) ImageFor(_ context.Context, place, _ string) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return "https://images.test/" + place
}

var cities = []string{"New York", "Boston", "Philadelphia", "Washington", "Baltimore", "Providence", "Hartford"}

func normalizationJSON() string {
	return `{
		"destination": "New York",
		"dates": "August 2024",
		"suggestedName": "Big Apple Summer",
		"corrections": [
			{"original": "new yerk", "corrected": "New York", "reason": "Corrected spelling of the city name"},
			{"original": "aug", "corrected": "August 2024", "reason": "Expanded month abbreviation"}
		]
	}`
}

func routingJSON(days, totalDays int) string {
	list := make([]map[string]any, 0, days)
	for i := 0; i < days; i++ {
		d := map[string]any{
			"main_city":               cities[i%len(cities)],
			"suggested_accommodation": "Downtown " + cities[i%len(cities)],
			"weather_info":            map[string]any{"temperature": "28°C", "conditions": []string{"sunny"}},
			"local_events":            []map[string]any{{"event_name": "Summer Stage", "event_description": "Outdoor concerts"}},
		}
		if i == 0 {
			d["travel_from_previous"] = nil
		} else {
			d["travel_from_previous"] = "Amtrak train from " + cities[(i-1)%len(cities)]
		}
		list = append(list, d)
	}

	b, _ := json.Marshal(map[string]any{
		"country":            "United States",
		"startLocation":      "New York",
		"totalDays":          totalDays,
		"recommendedSeasons": []string{"spring", "fall"},
		"timeZone":           "America/New_York",
		"currency":           "USD",
		"languages":          []string{"English"},
		"days":               list,
	})
	return string(b)
}

var dayPattern = regexp.MustCompile(`day (\d+) itinerary for ([^.\n]+)\.`)

func activitiesJSON(day int, city string, count int) string {
	types := []string{"exploration", "dining", "event", "accommodation"}
	list := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		list = append(list, map[string]any{
			"title":       fmt.Sprintf("%s stop %d-%d", city, day, i+1),
			"type":        types[i%len(types)],
			"description": "Something worth doing in " + city,
			"details": map[string]any{
				"rating":   4.5,
				"price":    "$$",
				"duration": "2 hours",
				"location": fmt.Sprintf("Place %d, %s", i+1, city),
				"tags":     []string{"popular"},
			},
		})
	}
	b, _ := json.Marshal(map[string]any{"activities": list})
	return string(b)
}

// travelModel answers every pipeline stage with well-formed output for a trip
// of the given length.
func travelModel(days int) func(req textgen.Request, n int) (string, error) {
	return func(req textgen.Request, _ int) (string, error) {
		switch req.Operation {
		case itinerary.OpNormalizeInput:
			return normalizationJSON(), nil
		case itinerary.OpPlanRoute:
			return routingJSON(days, days), nil
		case itinerary.OpExpandDay:
			m := dayPattern.FindStringSubmatch(req.Prompt)
			if m == nil {
				return "", fmt.Errorf("unexpected day prompt: %q", req.Prompt)
			}
			day, _ := strconv.Atoi(m[1])
			return activitiesJSON(day, m[2], 3+day%2), nil
		case itinerary.OpSingleActivity:
			return `{"title":"Sunrise at Top of the Rock","type":"exploration","description":"Watch the city wake up.","details":{"location":"Rockefeller Center, New York"}}`, nil
		}
		return "", fmt.Errorf("unexpected operation %q", req.Operation)
	}
}

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}
}

func newService(t *testing.T, gen textgen.Generator, images itinerary.ImageLookup, chunkSize int) *itinerary.Service {
	t.Helper()
	return itinerary.NewService(itinerary.Config{
		TextGen:   gen,
		Images:    images,
		ChunkSize: chunkSize,
		Retry:     fastRetry(),
		Now:       func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) },
		Logger:    zerolog.Nop(),
	})
}
