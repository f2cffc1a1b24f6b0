package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/api/response"
	"github.com/wanderplan/wanderplan/internal/trip"
)

// Pagination limits for GET /v1/me/itineraries.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// TripHandler handles saved itinerary endpoints.
type TripHandler struct {
	service *trip.Service
	log     zerolog.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service *trip.Service, log zerolog.Logger) *TripHandler {
	return &TripHandler{service: service, log: log}
}

// ListItineraries handles GET /v1/me/itineraries - newest first.
func (h *TripHandler) ListItineraries(w http.ResponseWriter, r *http.Request) {
	limit := DefaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageLimit {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{
				{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxPageLimit), Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = n
	}

	result, err := h.service.List(r.Context(), callerID(r), trip.ListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]models.SavedItinerary, 0, len(result.Items))
	for _, it := range result.Items {
		// Lists carry only the current days.
		api := toAPIItinerary(it)
		api.OriginalDays = nil
		items = append(items, api)
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	response.JSON(w, r, http.StatusOK, models.PagedItineraries{
		Items: items,
		Meta:  models.PagedResponseMeta{Limit: limit, NextCursor: nextCursor},
	})
}

// CreateItinerary handles POST /v1/me/itineraries.
func (h *TripHandler) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	var input models.ItineraryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	it, err := h.service.Create(r.Context(), callerID(r), trip.CreateInput{
		Name:           input.Name,
		Description:    input.Description,
		Destination:    input.Destination,
		Country:        input.Country,
		Date:           input.Date,
		NormalizedDate: input.NormalizedDate,
		Duration:       input.Duration,
		Days:           input.Days,
		Metadata:       input.Metadata,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/me/itineraries/"+it.ID, toAPIItinerary(it))
}

// GetItinerary handles GET /v1/me/itineraries/{itineraryId}.
func (h *TripHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	it, err := h.service.Get(r.Context(), callerID(r), chi.URLParam(r, "itineraryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toAPIItinerary(it))
}

// UpdateItinerary handles PUT /v1/me/itineraries/{itineraryId}.
func (h *TripHandler) UpdateItinerary(w http.ResponseWriter, r *http.Request) {
	var input models.ItineraryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	it, err := h.service.Update(r.Context(), callerID(r), chi.URLParam(r, "itineraryId"), trip.UpdateInput{
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date,
		Days:        input.Days,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toAPIItinerary(it))
}

// DeleteItinerary handles DELETE /v1/me/itineraries/{itineraryId}.
func (h *TripHandler) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), callerID(r), chi.URLParam(r, "itineraryId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ResetItinerary handles POST /v1/me/itineraries/{itineraryId}/reset.
func (h *TripHandler) ResetItinerary(w http.ResponseWriter, r *http.Request) {
	it, err := h.service.ResetDays(r.Context(), callerID(r), chi.URLParam(r, "itineraryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toAPIItinerary(it))
}

// ExportItinerary handles GET /v1/me/itineraries/{itineraryId}/export.pdf.
func (h *TripHandler) ExportItinerary(w http.ResponseWriter, r *http.Request) {
	doc, it, err := h.service.ExportPDF(r.Context(), callerID(r), chi.URLParam(r, "itineraryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Attachment(w, r, "application/pdf", pdfFilename(it.Name), doc)
}

func (h *TripHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *trip.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.BadRequest(w, r, "invalid itinerary", vErr.Errors)
	case errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, r, "itinerary not found")
	case errors.Is(err, trip.ErrNotOwner):
		response.Forbidden(w, r, "itinerary belongs to another user")
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("itinerary store error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func pdfFilename(name string) string {
	slug := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "itinerary"
	}
	return slug + ".pdf"
}

// toAPIItinerary converts a stored itinerary to its API form.
func toAPIItinerary(it *trip.SavedItinerary) models.SavedItinerary {
	return models.SavedItinerary{
		ID:             it.ID,
		Name:           it.Name,
		Description:    it.Description,
		Destination:    it.Destination,
		Country:        it.Country,
		Date:           it.Date,
		NormalizedDate: it.NormalizedDate,
		Duration:       it.Duration,
		Days:           it.Days,
		OriginalDays:   it.OriginalDays,
		Metadata:       it.Metadata,
		CreatedAt:      models.Timestamp(it.CreatedAt),
		UpdatedAt:      models.Timestamp(it.UpdatedAt),
	}
}
