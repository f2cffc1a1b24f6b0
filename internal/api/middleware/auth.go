package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/auth"
)

type userIDKey struct{}

// TokenValidator resolves a bearer token to the ID of the user it was issued to.
type TokenValidator interface {
	UserIDFromToken(token string) (string, error)
}

var (
	errNoCredentials = errors.New("missing authorization header")
	errNotBearer     = errors.New("invalid authorization header format")
	errEmptyToken    = errors.New("missing bearer token")
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoCredentials
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// Auth rejects requests without a valid access token and stores the caller's
// user ID in the request context for GetUserID.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, r, err.Error())
				return
			}

			userID, err := tokens.UserIDFromToken(token)
			if err != nil {
				writeUnauthorized(w, r, rejection(err))
				return
			}

			if info := infoFrom(r.Context()); info != nil {
				info.userID = userID
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
		})
	}
}

func rejection(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken):
		return "invalid access token"
	default:
		return "authentication failed"
	}
}

// writeProblem writes p for the current request. The response package imports
// this one, so middleware writes its problems directly.
func writeProblem(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.Instance = r.URL.Path
	p.Write(w)
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="wanderplan"`)
	writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), detail))
}

// GetUserID returns the authenticated user ID, or "" outside Auth.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
