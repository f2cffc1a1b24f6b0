package models

import (
	"fmt"

	"github.com/wanderplan/wanderplan/internal/itinerary"
)

// GenerateItineraryRequest is the body of POST /v1/itineraries:generate and :enqueue.
type GenerateItineraryRequest struct {
	Destination    string `json:"destination"`
	Dates          string `json:"dates,omitempty"`
	Duration       int    `json:"duration"`
	Interests      string `json:"interests,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// TripRequest converts the body to the pipeline input.
func (r GenerateItineraryRequest) TripRequest() itinerary.TripRequest {
	return itinerary.TripRequest{
		Destination:    r.Destination,
		Dates:          r.Dates,
		Duration:       r.Duration,
		Interests:      r.Interests,
		AdditionalInfo: r.AdditionalInfo,
	}
}

// Validate returns field errors for obviously malformed requests.
func (r GenerateItineraryRequest) Validate(maxDays int) []FieldError {
	var errs []FieldError
	if r.Destination == "" {
		errs = append(errs, FieldError{Field: "destination", Message: "is required", Code: "REQUIRED"})
	}
	if r.Duration < 1 || r.Duration > maxDays {
		errs = append(errs, FieldError{Field: "duration", Message: fmt.Sprintf("must be between 1 and %d", maxDays), Code: "OUT_OF_RANGE"})
	}
	return errs
}

// GeneratedItinerary is the response of a synchronous generation run.
type GeneratedItinerary struct {
	Name           string                   `json:"name"`
	Destination    string                   `json:"destination"`
	Country        string                   `json:"country"`
	Date           string                   `json:"date"`
	NormalizedDate string                   `json:"normalizedDate"`
	Duration       int                      `json:"duration"`
	Corrections    []itinerary.Correction   `json:"corrections"`
	Days           []itinerary.ItineraryDay `json:"days"`
	Metadata       itinerary.Metadata       `json:"metadata"`
	// SavedID is set when the itinerary was stored for the caller.
	SavedID *string `json:"savedId,omitempty"`
}

// NewGeneratedItinerary builds the response body for it.
func NewGeneratedItinerary(it *itinerary.Itinerary) GeneratedItinerary {
	corrections := it.Normalized.Corrections
	if corrections == nil {
		corrections = []itinerary.Correction{}
	}
	return GeneratedItinerary{
		Name:           it.Name,
		Destination:    it.Destination,
		Country:        it.Country,
		Date:           it.Date,
		NormalizedDate: it.Normalized.Dates,
		Duration:       it.Duration,
		Corrections:    corrections,
		Days:           it.Days,
		Metadata:       it.Metadata,
	}
}

// GenerationJob is the response of POST /v1/itineraries:enqueue.
type GenerationJob struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// GenerateActivityRequest is the body of POST /v1/activities:generate.
type GenerateActivityRequest struct {
	Prompt          string `json:"prompt"`
	CurrentLocation string `json:"currentLocation"`
}

// WarmImagesRequest is the optional body of POST /v1/images:warm.
type WarmImagesRequest struct {
	Places []string `json:"places,omitempty"`
}

// WarmImagesJob is returned once a warm job is queued. Places is 0 when the
// default destinations are warmed.
type WarmImagesJob struct {
	Status string `json:"status"`
	Places int    `json:"places"`
}

// ImageResult is the response of GET /v1/images.
type ImageResult struct {
	Place   string `json:"place"`
	Country string `json:"country,omitempty"`
	URL     string `json:"url"`
}
