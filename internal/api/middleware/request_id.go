// Package middleware provides HTTP middleware for the WanderPlan API.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// Client supplied IDs are echoed into logs and headers, so only short,
// printable values are accepted.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

type requestInfoKey struct{}

// requestInfo is created once per request. Inner middleware fill it in so
// outer middleware can report it after the handler returns.
type requestInfo struct {
	id     string
	userID string
}

// RequestID assigns every request an ID, reusing a well-formed X-Request-Id
// from the caller, and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = newRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// authenticatedUser returns the user recorded by Auth anywhere below the
// RequestID middleware, even after the handler has returned.
func authenticatedUser(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.userID
	}
	return ""
}
