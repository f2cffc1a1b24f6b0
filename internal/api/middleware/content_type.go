package middleware

import (
	"mime"
	"net/http"

	"github.com/wanderplan/wanderplan/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers that stream other media (PDF export) set their own.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects request bodies that are not declared as JSON with a 415
// problem. Bodyless requests and requests without a Content-Type pass through.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			writeProblem(w, r, models.NewUnsupportedMediaType(GetRequestID(r.Context()),
				"request body must be application/json"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
