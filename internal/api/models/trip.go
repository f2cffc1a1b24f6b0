package models

import "github.com/wanderplan/wanderplan/internal/itinerary"

// SavedItinerary is a stored itinerary as returned by /v1/me/itineraries.
type SavedItinerary struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Description    string                   `json:"description,omitempty"`
	Destination    string                   `json:"destination"`
	Country        string                   `json:"country"`
	Date           string                   `json:"date"`
	NormalizedDate string                   `json:"normalizedDate,omitempty"`
	Duration       int                      `json:"duration"`
	Days           []itinerary.ItineraryDay `json:"days"`
	OriginalDays   []itinerary.ItineraryDay `json:"originalDays,omitempty"`
	Metadata       *itinerary.Metadata      `json:"metadata,omitempty"`
	CreatedAt      Timestamp                `json:"createdAt"`
	UpdatedAt      Timestamp                `json:"updatedAt"`
}

// PagedItineraries is a page of saved itineraries.
type PagedItineraries struct {
	Items []SavedItinerary  `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// ItineraryCreateRequest is the body of POST /v1/me/itineraries.
type ItineraryCreateRequest struct {
	Name           string                   `json:"name"`
	Description    string                   `json:"description,omitempty"`
	Destination    string                   `json:"destination"`
	Country        string                   `json:"country"`
	Date           string                   `json:"date"`
	NormalizedDate string                   `json:"normalizedDate,omitempty"`
	Duration       int                      `json:"duration"`
	Days           []itinerary.ItineraryDay `json:"days"`
	Metadata       *itinerary.Metadata      `json:"metadata,omitempty"`
}

// ItineraryUpdateRequest is the body of PUT /v1/me/itineraries/{itineraryId}.
// A non-null days array replaces every day.
type ItineraryUpdateRequest struct {
	Name        *string                  `json:"name,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Date        *string                  `json:"date,omitempty"`
	Days        []itinerary.ItineraryDay `json:"days,omitempty"`
}
