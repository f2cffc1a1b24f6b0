package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/api/response"
)

// ImageLookup resolves a place to an image URL.
type ImageLookup interface {
	ImageFor(ctx context.Context, place, fallback string) string
}

// WarmQueue schedules image cache warming on the worker.
type WarmQueue interface {
	EnqueueWarm(ctx context.Context, places []string) error
}

// maxWarmPlaces bounds one warm request.
const maxWarmPlaces = 50

// ImageHandler handles image lookup endpoints.
type ImageHandler struct {
	images ImageLookup
	warm   WarmQueue
}

// NewImageHandler creates a new ImageHandler. warm may be nil when no queue is
// configured.
func NewImageHandler(images ImageLookup, warm WarmQueue) *ImageHandler {
	return &ImageHandler{images: images, warm: warm}
}

// GetImage handles GET /v1/images?place=&country=.
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(r.URL.Query().Get("place"))
	if place == "" {
		response.BadRequest(w, r, "invalid query parameter", []models.FieldError{
			{Field: "place", Message: "is required", Code: "REQUIRED"},
		})
		return
	}
	country := strings.TrimSpace(r.URL.Query().Get("country"))

	response.JSON(w, r, http.StatusOK, models.ImageResult{
		Place:   place,
		Country: country,
		URL:     h.images.ImageFor(r.Context(), place, country),
	})
}

// WarmImages handles POST /v1/images:warm. Without places the worker warms its
// default destination list.
func (h *ImageHandler) WarmImages(w http.ResponseWriter, r *http.Request) {
	if h.warm == nil {
		response.ServiceUnavailable(w, r, "background jobs are not configured")
		return
	}

	var input models.WarmImagesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, r, "invalid JSON body", nil)
			return
		}
	}

	places := make([]string, 0, len(input.Places))
	for _, p := range input.Places {
		if p = strings.TrimSpace(p); p != "" {
			places = append(places, p)
		}
	}
	if len(places) > maxWarmPlaces {
		response.BadRequest(w, r, "too many places", []models.FieldError{
			{Field: "places", Message: "must contain at most 50 entries", Code: "TOO_MANY"},
		})
		return
	}

	if err := h.warm.EnqueueWarm(r.Context(), places); err != nil {
		response.ServiceUnavailable(w, r, "could not queue image warming")
		return
	}
	response.Accepted(w, r, "", models.WarmImagesJob{Status: "queued", Places: len(places)})
}
