package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wanderplan/wanderplan/internal/api/middleware"
	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/api/response"
)

const testRequestID = "req_response_test"

// serve runs write behind the RequestID middleware with a fixed incoming ID.
func serve(t *testing.T, method, path string, write http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, testRequestID)
	rec := httptest.NewRecorder()
	middleware.RequestID(write).ServeHTTP(rec, req)
	return rec
}

func TestSuccessResponses(t *testing.T) {
	body := map[string]string{"id": "itn_1"}

	tests := []struct {
		name         string
		write        http.HandlerFunc
		wantStatus   int
		wantLocation string
		wantBody     bool
	}{
		{
			name:       "json",
			write:      func(w http.ResponseWriter, r *http.Request) { response.JSON(w, r, http.StatusOK, body) },
			wantStatus: http.StatusOK,
			wantBody:   true,
		},
		{
			name:         "created",
			write:        func(w http.ResponseWriter, r *http.Request) { response.Created(w, r, "/v1/me/itineraries/itn_1", body) },
			wantStatus:   http.StatusCreated,
			wantLocation: "/v1/me/itineraries/itn_1",
			wantBody:     true,
		},
		{
			name:       "accepted without location",
			write:      func(w http.ResponseWriter, r *http.Request) { response.Accepted(w, r, "", body) },
			wantStatus: http.StatusAccepted,
			wantBody:   true,
		},
		{
			name:       "json nil data",
			write:      func(w http.ResponseWriter, r *http.Request) { response.JSON(w, r, http.StatusOK, nil) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no content",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NoContent(w, r) },
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodGet, "/v1/me/itineraries", tt.write)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Request-Id"); got != testRequestID {
				t.Errorf("X-Request-Id = %q, want %q", got, testRequestID)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if !tt.wantBody {
				if rec.Body.Len() != 0 {
					t.Errorf("expected empty body, got %q", rec.Body.String())
				}
				return
			}
			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got["id"] != "itn_1" {
				t.Errorf("body id = %q", got["id"])
			}
		})
	}
}

func TestJSON_NoRequestIDOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"status": "OK"})

	if got := rec.Header().Get("X-Request-Id"); got != "" {
		t.Errorf("expected no X-Request-Id, got %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestProblemResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      http.HandlerFunc
		wantStatus int
		wantType   string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "invalid trip", []models.FieldError{{Field: "days", Message: "too many", Code: "OUT_OF_RANGE"}})
			},
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeValidation,
		},
		{
			name:       "forbidden",
			write:      func(w http.ResponseWriter, r *http.Request) { response.Forbidden(w, r, "not your itinerary") },
			wantStatus: http.StatusForbidden,
			wantType:   models.ProblemTypeForbidden,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "itinerary not found") },
			wantStatus: http.StatusNotFound,
			wantType:   models.ProblemTypeNotFound,
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "store failed") },
			wantStatus: http.StatusInternalServerError,
			wantType:   models.ProblemTypeInternal,
		},
		{
			name:       "generation failed",
			write:      func(w http.ResponseWriter, r *http.Request) { response.GenerationFailed(w, r, "routing plan failed") },
			wantStatus: http.StatusBadGateway,
			wantType:   models.ProblemTypeGeneration,
		},
		{
			name:       "unavailable",
			write:      func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "queue disabled") },
			wantStatus: http.StatusServiceUnavailable,
			wantType:   models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodPost, "/v1/itineraries:generate", tt.write)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var problem models.Problem
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if problem.Type != tt.wantType {
				t.Errorf("type = %q, want %q", problem.Type, tt.wantType)
			}
			if problem.TraceID != testRequestID {
				t.Errorf("traceId = %q, want %q", problem.TraceID, testRequestID)
			}
			if problem.Instance != "/v1/itineraries:generate" {
				t.Errorf("instance = %q", problem.Instance)
			}
		})
	}
}

func TestAttachment(t *testing.T) {
	rec := serve(t, http.MethodGet, "/v1/me/itineraries/itn_1/export.pdf", func(w http.ResponseWriter, r *http.Request) {
		response.Attachment(w, r, "application/pdf", "kyoto-autumn.pdf", []byte("%PDF-1.3"))
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=kyoto-autumn.pdf" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "8" {
		t.Errorf("Content-Length = %q", cl)
	}
	if rec.Body.String() != "%PDF-1.3" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
