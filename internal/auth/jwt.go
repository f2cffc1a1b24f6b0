// Package auth issues and verifies the bearer tokens that identify the
// owner of saved itineraries.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL applies when JWTConfig.TokenTTL is zero.
	DefaultTokenTTL = time.Hour

	// clockSkew is tolerated on exp and nbf between the issuer and the API.
	clockSkew = 30 * time.Second
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSigningKey  = errors.New("jwt signing key is required")
)

// JWTConfig configures token issuance and verification. Tokens are HS256
// signed; the subject claim carries the itinerary owner's user ID.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
}

// JWTService issues and verifies access tokens.
type JWTService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	s := &JWTService{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// GenerateAccessToken signs a token for userID and returns it with its expiry.
func (s *JWTService) GenerateAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, exp, nil
}

// ValidateAccessToken verifies signature, issuer, audience and lifetime.
// Expired tokens yield ErrAccessTokenExpired; every other failure wraps
// ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	return &claims, nil
}

// UserIDFromToken returns the subject of a valid token.
func (s *JWTService) UserIDFromToken(token string) (string, error) {
	claims, err := s.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	}
	return claims.Subject, nil
}
