// Package trip stores generated itineraries on behalf of users and lets
// them edit, reset and export those copies.
package trip

import (
	"errors"
	"time"

	"github.com/wanderplan/wanderplan/internal/itinerary"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("itinerary not found")
	ErrNotOwner     = errors.New("not authorized to modify this itinerary")
)

// SavedItinerary is a user's persisted copy of a generated itinerary.
// OriginalDays is the generated version and never changes after creation.
type SavedItinerary struct {
	ID             string                   `json:"id" bson:"_id"`
	UserID         string                   `json:"userId" bson:"userId"`
	Name           string                   `json:"name" bson:"name"`
	Description    string                   `json:"description,omitempty" bson:"description,omitempty"`
	Destination    string                   `json:"destination" bson:"destination"`
	Country        string                   `json:"country" bson:"country"`
	Date           string                   `json:"date" bson:"date"`
	NormalizedDate string                   `json:"normalizedDate,omitempty" bson:"normalizedDate,omitempty"`
	Duration       int                      `json:"duration" bson:"duration"`
	Days           []itinerary.ItineraryDay `json:"days" bson:"days"`
	OriginalDays   []itinerary.ItineraryDay `json:"originalDays" bson:"originalDays"`
	Metadata       *itinerary.Metadata      `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt      time.Time                `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt" bson:"updatedAt"`
}

// clone returns a copy that shares no slices with s.
func (s *SavedItinerary) clone() *SavedItinerary {
	cpy := *s
	cpy.Days = copyDays(s.Days)
	cpy.OriginalDays = copyDays(s.OriginalDays)
	if s.Metadata != nil {
		md := *s.Metadata
		cpy.Metadata = &md
	}
	return &cpy
}

func copyDays(days []itinerary.ItineraryDay) []itinerary.ItineraryDay {
	if days == nil {
		return nil
	}
	out := make([]itinerary.ItineraryDay, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Activities = append([]itinerary.Activity(nil), d.Activities...)
		out[i].LocalEvents = append([]itinerary.Event(nil), d.LocalEvents...)
		out[i].Corrections = append([]itinerary.Correction(nil), d.Corrections...)
		if d.WeatherInfo != nil {
			w := *d.WeatherInfo
			out[i].WeatherInfo = &w
		}
	}
	return out
}
