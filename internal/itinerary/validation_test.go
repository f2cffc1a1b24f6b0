package itinerary_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/itinerary"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestIsValidRoutingPlan(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{
			name: "well formed with null first travel",
			json: routingJSON(3, 3),
			want: true,
		},
		{
			name: "missing days",
			json: `{"country":"France","startLocation":"Paris","totalDays":2}`,
			want: false,
		},
		{
			name: "empty days",
			json: `{"country":"France","startLocation":"Paris","totalDays":0,"days":[]}`,
			want: false,
		},
		{
			name: "first travel is a number",
			json: `{"country":"France","startLocation":"Paris","totalDays":1,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","travel_from_previous":42}]}`,
			want: false,
		},
		{
			name: "first travel omitted",
			json: `{"country":"France","startLocation":"Paris","totalDays":1,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais"}]}`,
			want: true,
		},
		{
			name: "later day travel null",
			json: `{"country":"France","startLocation":"Paris","totalDays":2,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","travel_from_previous":null},
				        {"main_city":"Lyon","suggested_accommodation":"Croix-Rousse","travel_from_previous":null}]}`,
			want: false,
		},
		{
			name: "totalDays as string",
			json: `{"country":"France","startLocation":"Paris","totalDays":"1",
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","travel_from_previous":null}]}`,
			want: false,
		},
		{
			name: "missing country",
			json: `{"startLocation":"Paris","totalDays":1,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","travel_from_previous":null}]}`,
			want: false,
		},
		{
			name: "weather conditions not strings",
			json: `{"country":"France","startLocation":"Paris","totalDays":1,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","weather_info":{"conditions":[1,2]}}]}`,
			want: false,
		},
		{
			name: "event without a name",
			json: `{"country":"France","startLocation":"Paris","totalDays":1,
				"days":[{"main_city":"Paris","suggested_accommodation":"Marais","local_events":[{"event_description":"x"}]}]}`,
			want: false,
		},
		{
			name: "not an object",
			json: `[1,2,3]`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itinerary.IsValidRoutingPlan(decode(t, tt.json)))
		})
	}
}

func TestIsValidActivity(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{"valid", `{"title":"Louvre","type":"exploration","description":"Art."}`, true},
		{"custom type", `{"title":"Note","type":"custom","description":"Pack an umbrella."}`, true},
		{"unknown type", `{"title":"Louvre","type":"museum","description":"Art."}`, false},
		{"empty title", `{"title":"  ","type":"dining","description":"Food."}`, false},
		{"missing description", `{"title":"Cafe","type":"dining"}`, false},
		{"details not object", `{"title":"Cafe","type":"dining","description":"x","details":"cheap"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itinerary.IsValidActivity(decode(t, tt.json)))
		})
	}
}

func TestIsValidDayActivities(t *testing.T) {
	assert.True(t, itinerary.IsValidDayActivities(decode(t, activitiesJSON(1, "Rome", 3))))
	assert.True(t, itinerary.IsValidDayActivities(decode(t, `{"activities":[]}`)))
	assert.False(t, itinerary.IsValidDayActivities(decode(t, `{"activities":{}}`)))
	assert.False(t, itinerary.IsValidDayActivities(decode(t, `{"items":[]}`)))
	assert.False(t, itinerary.IsValidDayActivities(decode(t,
		`{"activities":[{"title":"a","type":"dining","description":"x"},{"title":"b","type":"bogus","description":"x"}]}`)))
	assert.False(t, itinerary.IsValidDayActivities(nil))
}

func TestValidateDays(t *testing.T) {
	valid := []itinerary.ItineraryDay{
		{Day: 1, Activities: []itinerary.Activity{{Title: "a", Description: "b", Type: itinerary.ActivityDining}}},
		{Day: 2, Activities: []itinerary.Activity{{Title: "c", Description: "d", Type: itinerary.ActivityCustom}}},
	}
	assert.NoError(t, itinerary.ValidateDays(valid))

	gap := []itinerary.ItineraryDay{{Day: 1}, {Day: 3}}
	assert.ErrorIs(t, itinerary.ValidateDays(gap), itinerary.ErrInvalidInput)

	badType := []itinerary.ItineraryDay{
		{Day: 1, Activities: []itinerary.Activity{{Title: "a", Description: "b", Type: "shopping"}}},
	}
	assert.Error(t, itinerary.ValidateDays(badType))

	emptyTitle := []itinerary.ItineraryDay{
		{Day: 1, Activities: []itinerary.Activity{{Title: "", Description: "b", Type: itinerary.ActivityDining}}},
	}
	assert.Error(t, itinerary.ValidateDays(emptyTitle))
}
