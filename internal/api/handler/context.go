package handler

import (
	"net/http"

	"github.com/wanderplan/wanderplan/internal/api/middleware"
)

// callerID returns the user authenticated by middleware.Auth. Every route
// that reaches a trip or generation handler sits behind Auth.
func callerID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
