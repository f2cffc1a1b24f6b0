package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/api/response"
	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// ItineraryGenerator runs the generation pipeline.
type ItineraryGenerator interface {
	Generate(ctx context.Context, req itinerary.TripRequest) (*itinerary.Itinerary, error)
	GenerateSingleActivity(ctx context.Context, prompt, currentLocation string) (*itinerary.Activity, error)
	MaxDays() int
}

// JobQueue hands work to the background worker.
type JobQueue interface {
	EnqueueGeneration(ctx context.Context, userID string, req itinerary.TripRequest) (string, error)
	WarmQueue
}

// ItineraryHandler handles generation endpoints.
type ItineraryHandler struct {
	generator ItineraryGenerator
	trips     *trip.Service
	jobs      JobQueue
	log       zerolog.Logger
}

// NewItineraryHandler creates a new ItineraryHandler. jobs may be nil when
// no queue is configured.
func NewItineraryHandler(generator ItineraryGenerator, trips *trip.Service, jobs JobQueue, log zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{
		generator: generator,
		trips:     trips,
		jobs:      jobs,
		log:       log,
	}
}

// GenerateItinerary handles POST /v1/itineraries:generate. With ?save=true
// the result is also stored for the caller.
func (h *ItineraryHandler) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	var input models.GenerateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if fieldErrors := input.Validate(h.generator.MaxDays()); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid trip request", fieldErrors)
		return
	}

	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))

	it, err := h.generator.Generate(r.Context(), input.TripRequest())
	if err != nil {
		h.writeGenerationError(w, r, err)
		return
	}

	body := models.NewGeneratedItinerary(it)
	if save {
		saved, err := h.trips.Save(r.Context(), callerID(r), it)
		if err != nil {
			h.log.Error().Err(err).Str("destination", it.Destination).Msg("failed to save generated itinerary")
			response.InternalError(w, r, "itinerary was generated but could not be saved")
			return
		}
		body.SavedID = &saved.ID
	}

	response.JSON(w, r, http.StatusOK, body)
}

// EnqueueItinerary handles POST /v1/itineraries:enqueue - generate in the background.
func (h *ItineraryHandler) EnqueueItinerary(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		response.ServiceUnavailable(w, r, "background generation is not configured")
		return
	}

	var input models.GenerateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if fieldErrors := input.Validate(h.generator.MaxDays()); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid trip request", fieldErrors)
		return
	}

	jobID, err := h.jobs.EnqueueGeneration(r.Context(), callerID(r), input.TripRequest())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to enqueue itinerary generation")
		response.ServiceUnavailable(w, r, "could not queue itinerary generation")
		return
	}

	response.Accepted(w, r, "", models.GenerationJob{JobID: jobID, Status: "queued"})
}

// GenerateActivity handles POST /v1/activities:generate.
func (h *ItineraryHandler) GenerateActivity(w http.ResponseWriter, r *http.Request) {
	var input models.GenerateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	activity, err := h.generator.GenerateSingleActivity(r.Context(), input.Prompt, input.CurrentLocation)
	if err != nil {
		h.writeGenerationError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, activity)
}

func (h *ItineraryHandler) writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *itinerary.ValidationError
	if errors.Is(err, itinerary.ErrInvalidInput) && errors.As(err, &vErr) {
		response.BadRequest(w, r, vErr.Message, nil)
		return
	}

	if errors.Is(err, context.Canceled) {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("generation canceled by client")
		response.ServiceUnavailable(w, r, "request was canceled")
		return
	}

	h.log.Error().Err(err).Str("path", r.URL.Path).Msg("generation failed")

	detail := "itinerary generation failed"
	var sErr *itinerary.ServiceError
	if errors.As(err, &sErr) {
		detail = sErr.Message
	}
	response.GenerationFailed(w, r, detail)
}
