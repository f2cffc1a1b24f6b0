// Package response writes API responses: JSON bodies, RFC7807 problems and
// file attachments, each tagged with the request ID.
package response

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/wanderplan/wanderplan/internal/api/middleware"
	"github.com/wanderplan/wanderplan/internal/api/models"
)

// JSON writes data as a JSON body with the given status. A nil data writes
// headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, "", data)
}

// Created writes a 201 with a Location header pointing at the new resource.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	writeJSON(w, r, http.StatusCreated, location, data)
}

// Accepted writes a 202 for work handed to the background worker.
func Accepted(w http.ResponseWriter, r *http.Request, location string, data any) {
	writeJSON(w, r, http.StatusAccepted, location, data)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	tagRequest(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Attachment writes body as a download named filename.
func Attachment(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte) {
	tagRequest(w, r)
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, location string, data any) {
	tagRequest(w, r)
	w.Header().Set("Content-Type", "application/json")
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func tagRequest(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}
}

// Error writes problem with the request path as its instance.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400 with optional per-field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errors))
}

func Forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewForbidden(traceID(r), detail))
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// GenerationFailed writes a 502 for a model call that could not produce a
// usable answer.
func GenerationFailed(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewGenerationFailed(traceID(r), detail))
}

func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}
