package itinerary_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

func TestExpandDay_FirstDayHasNoTravelFraming(t *testing.T) {
	gen := newFakeGenerator(travelModel(2))
	svc := newService(t, gen, nil, 0)

	_, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{
		Day:           1,
		City:          "Paris",
		Accommodation: "Le Marais",
	})
	require.NoError(t, err)

	reqs := gen.requests(itinerary.OpExpandDay)
	require.Len(t, reqs, 1)
	assert.NotContains(t, reqs[0].Prompt, "Coming from")
	assert.NotContains(t, reqs[0].Prompt, "Travel details")
	assert.Contains(t, reqs[0].Prompt, "Accommodation area: Le Marais")
}

func TestExpandDay_LaterDayIncludesTravelFraming(t *testing.T) {
	gen := newFakeGenerator(travelModel(2))
	svc := newService(t, gen, nil, 0)

	_, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{
		Day:           2,
		City:          "Lyon",
		PreviousCity:  "Paris",
		Accommodation: "Presqu'ile",
		TravelInfo:    "TGV, 2 hours",
		Dates:         "May 2025",
		Interests:     "food",
	})
	require.NoError(t, err)

	reqs := gen.requests(itinerary.OpExpandDay)
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Coming from: Paris")
	assert.Contains(t, reqs[0].Prompt, "Travel details: TGV, 2 hours")
	assert.Contains(t, reqs[0].Prompt, "Travel period: May 2025")
	assert.Contains(t, reqs[0].Prompt, "Traveler interests: food")
}

func TestExpandDay_AssignsUniqueIDs(t *testing.T) {
	gen := newFakeGenerator(travelModel(4))
	svc := newService(t, gen, nil, 0)

	activities, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{Day: 3, City: "Boston", Accommodation: "Back Bay"})
	require.NoError(t, err)
	require.Len(t, activities, 4)

	seen := make(map[string]bool)
	for _, a := range activities {
		assert.True(t, strings.HasPrefix(a.ID, "activity-3-1710072000000-"), a.ID)
		assert.Len(t, a.ID, len("activity-3-1710072000000-")+9)
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}

	require.NotNil(t, activities[0].Details)
	assert.Equal(t, "4.5", activities[0].Details.Rating)
	assert.Equal(t, "$$", activities[0].Details.Price)
	assert.Equal(t, []string{"popular"}, activities[0].Details.Tags)
}

func TestExpandDay_TruncatesExtraActivities(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return activitiesJSON(1, "Rome", 6), nil
	})
	svc := newService(t, gen, nil, 0)

	activities, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{Day: 1, City: "Rome", Accommodation: "Monti"})
	require.NoError(t, err)
	assert.Len(t, activities, itinerary.MaxActivitiesPerDay)
}

func TestExpandDay_TooFewActivitiesExhaustsRetries(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return activitiesJSON(1, "Rome", 2), nil
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{Day: 1, City: "Rome", Accommodation: "Monti"})

	var rerr *resilience.RetryError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 3, rerr.Attempts)
	var verr *itinerary.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, gen.count(itinerary.OpExpandDay))
}

func TestExpandDay_InvalidTypeRejected(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, n int) (string, error) {
		if n == 1 {
			return `{"activities":[
				{"title":"a","type":"shopping","description":"x"},
				{"title":"b","type":"dining","description":"x"},
				{"title":"c","type":"dining","description":"x"}]}`, nil
		}
		return activitiesJSON(1, "Rome", 3), nil
	})
	svc := newService(t, gen, nil, 0)

	activities, err := svc.ExpandDay(context.Background(), itinerary.DayRequest{Day: 1, City: "Rome", Accommodation: "Monti"})
	require.NoError(t, err)
	assert.Len(t, activities, 3)
	assert.Equal(t, 2, gen.count(itinerary.OpExpandDay))
}

func TestGenerateSingleActivity(t *testing.T) {
	gen := newFakeGenerator(travelModel(1))
	images := &fakeImages{}
	svc := newService(t, gen, images, 0)

	activity, err := svc.GenerateSingleActivity(context.Background(), "watch the sunrise somewhere high", "new   york")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(activity.ID, "ai-1710072000000-"), activity.ID)
	assert.Equal(t, itinerary.ActivityExploration, activity.Type)
	assert.Equal(t, "https://images.test/Rockefeller Center, New York", activity.ImageURL)

	reqs := gen.requests(itinerary.OpSingleActivity)
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "Generate a travel activity in new york based on: watch the sunrise somewhere high.")
	assert.Contains(t, reqs[0].Prompt, "in the morning")
}

func TestGenerateSingleActivity_NestedObject(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return `{"activity":{"title":"Jazz at Birdland","type":"event","description":"Late set."}}`, nil
	})
	svc := newService(t, gen, nil, 0)

	activity, err := svc.GenerateSingleActivity(context.Background(), "some live jazz tonight", "New York")
	require.NoError(t, err)
	assert.Equal(t, "Jazz at Birdland", activity.Title)
	assert.Equal(t, itinerary.ActivityEvent, activity.Type)
}

func TestGenerateSingleActivity_InputValidation(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		location string
		message  string
	}{
		{"missing location", "a long enough prompt", "", "prompt and current location are required"},
		{"missing prompt", "", "Paris", "prompt and current location are required"},
		{"short prompt", "museum", "Paris", "Could you provide more details about what you'd like to do?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newFakeGenerator(travelModel(1))
			svc := newService(t, gen, nil, 0)

			_, err := svc.GenerateSingleActivity(context.Background(), tt.prompt, tt.location)

			var verr *itinerary.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
			assert.ErrorIs(t, err, itinerary.ErrInvalidInput)
			assert.Equal(t, 0, gen.total())
		})
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"early breakfast near the park", "morning"},
		{"somewhere nice for dinner", "evening"},
		{"a quick lunch spot", "afternoon"},
		{"see a museum", "afternoon"},
		{"Sunset views over the river", "evening"},
		{"lateral thinking puzzles", "afternoon"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, itinerary.TimeOfDay(tt.prompt))
		})
	}
}
