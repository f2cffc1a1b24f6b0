package middleware_test

import (
	"io"
	"net/http"
	"strings"

	"github.com/wanderplan/wanderplan/internal/auth"
)

// staticTokens maps bearer tokens straight to user IDs.
type staticTokens map[string]string

func (s staticTokens) UserIDFromToken(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", auth.ErrInvalidAccessToken
}

func respond(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}
}

func bytesReader(s string) io.Reader {
	if s == "" {
		return http.NoBody
	}
	return strings.NewReader(s)
}
