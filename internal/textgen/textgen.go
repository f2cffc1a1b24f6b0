// Package textgen defines the text-generation contract the itinerary pipeline
// depends on. Provider implementations live in subpackages.
package textgen

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any content.
var ErrEmptyResponse = errors.New("empty response from text generation provider")

// ErrMissingAPIKey is returned by provider constructors without a credential.
var ErrMissingAPIKey = errors.New("text generation API key is required")

// Request is one text-generation call.
type Request struct {
	// Operation labels the call in logs and metrics, e.g. "plan_route".
	Operation string

	// System is the system instruction.
	System string

	// Prompt is the user prompt.
	Prompt string

	// JSON asks the provider to constrain output to a single JSON object.
	JSON bool

	// Temperature overrides the provider default when non-zero.
	Temperature float32

	// MaxTokens overrides the provider default when non-zero.
	MaxTokens int
}

// Generator produces text for a request.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// StripCodeFences removes a surrounding markdown code fence, which some models
// emit even in JSON mode.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// OperationOr returns req.Operation, or fallback when it is empty.
func (r Request) OperationOr(fallback string) string {
	if r.Operation == "" {
		return fallback
	}
	return r.Operation
}
