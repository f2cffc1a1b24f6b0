// Package itinerary turns a trip request into a validated, ordered list of
// itinerary days using a text-generation model and an image lookup.
package itinerary

import (
	"context"
	"errors"
)

const (
	// MaxDays is the longest trip that can be generated.
	MaxDays = 30

	// DefaultChunkSize is how many days are expanded before each checkpoint.
	DefaultChunkSize = 5

	// MinActivitiesPerDay and MaxActivitiesPerDay bound a generated day.
	MinActivitiesPerDay = 3
	MaxActivitiesPerDay = 4
)

// Text generation operation labels.
const (
	OpNormalizeInput = "normalize_input"
	OpPlanRoute      = "plan_route"
	OpExpandDay      = "expand_day"
	OpSingleActivity = "single_activity"
)

// ErrInvalidInput marks validation errors caused by the caller rather than the model.
var ErrInvalidInput = errors.New("invalid input")

// ActivityType is the closed set of activity kinds.
type ActivityType string

const (
	ActivityDining        ActivityType = "dining"
	ActivityExploration   ActivityType = "exploration"
	ActivityEvent         ActivityType = "event"
	ActivityAccommodation ActivityType = "accommodation"
	ActivityCustom        ActivityType = "custom"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityDining, ActivityExploration, ActivityEvent, ActivityAccommodation, ActivityCustom:
		return true
	}
	return false
}

// ActivityDetails holds optional logistics for an activity.
type ActivityDetails struct {
	Rating                string   `json:"rating,omitempty"`
	Price                 string   `json:"price,omitempty"`
	Duration              string   `json:"duration,omitempty"`
	Location              string   `json:"location,omitempty"`
	Website               string   `json:"website,omitempty"`
	WeatherConsiderations string   `json:"weatherConsiderations,omitempty"`
	SeasonalNotes         string   `json:"seasonalNotes,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
}

// Activity is one concrete item within a day.
type Activity struct {
	ID          string           `json:"id"`
	Type        ActivityType     `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Details     *ActivityDetails `json:"details,omitempty"`
}

// Event is a local event happening on a given day.
type Event struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WeatherInfo is the expected weather for a day.
type WeatherInfo struct {
	Temperature string   `json:"temperature,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
}

// Correction records one change made to the user's input.
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

// ItineraryDay is one generated day.
type ItineraryDay struct {
	ID            string       `json:"id"`
	Day           int          `json:"day"`
	Location      string       `json:"location"`
	Accommodation string       `json:"accommodation"`
	TravelInfo    string       `json:"travelInfo,omitempty"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	WeatherInfo   *WeatherInfo `json:"weatherInfo,omitempty"`
	LocalEvents   []Event      `json:"localEvents,omitempty"`
	Activities    []Activity   `json:"activities"`
	SuggestedName string       `json:"suggestedName,omitempty"`
	Corrections   []Correction `json:"corrections,omitempty"`
}

// Metadata is trip-level context returned by the routing plan.
type Metadata struct {
	RecommendedSeasons []string `json:"recommendedSeasons,omitempty"`
	TimeZone           string   `json:"timeZone,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Languages          []string `json:"languages,omitempty"`
}

// TripRequest is the user-supplied input to a generation run.
type TripRequest struct {
	Destination    string `json:"destination"`
	Dates          string `json:"dates,omitempty"`
	Duration       int    `json:"duration"`
	Interests      string `json:"interests,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// NormalizedInput is the corrected form of a TripRequest.
type NormalizedInput struct {
	Destination   string       `json:"destination"`
	Dates         string       `json:"dates,omitempty"`
	SuggestedName string       `json:"suggestedName"`
	Corrections   []Correction `json:"corrections"`
}

// RoutingDay is one entry of the routing plan. TravelFromPrevious is nil only for day 1.
type RoutingDay struct {
	Day                    int
	MainCity               string
	SuggestedAccommodation string
	TravelFromPrevious     *string
	WeatherInfo            *WeatherInfo
	LocalEvents            []Event
}

// RoutingPlan is the day-by-day skeleton of a trip.
type RoutingPlan struct {
	Country       string
	StartLocation string
	TotalDays     int
	Metadata      Metadata
	Days          []RoutingDay
}

// RouteRequest is the input of the routing planner.
type RouteRequest struct {
	Destination    string
	Days           int
	Dates          string
	Interests      string
	AdditionalInfo string
}

// DayRequest is the input of the day expander. Empty strings mean absent.
type DayRequest struct {
	Day            int
	City           string
	PreviousCity   string
	Accommodation  string
	TravelInfo     string
	Dates          string
	Interests      string
	AdditionalInfo string
}

// Itinerary is the output of a successful generation run.
type Itinerary struct {
	Name        string          `json:"name"`
	Destination string          `json:"destination"`
	Country     string          `json:"country"`
	Date        string          `json:"date,omitempty"`
	Duration    int             `json:"duration"`
	Normalized  NormalizedInput `json:"normalized"`
	Metadata    Metadata        `json:"metadata"`
	Days        []ItineraryDay  `json:"days"`
}

// ImageLookup returns a usable image URL for a place. It must never fail;
// an empty string means no image.
type ImageLookup interface {
	ImageFor(ctx context.Context, place, fallback string) string
}
