package itinerary

import (
	"context"
	"strings"

	"github.com/wanderplan/wanderplan/internal/textgen"
)

// Normalize corrects the destination and dates of req with one model call.
// It fails with a *ValidationError when the response has no destination.
func (s *Service) Normalize(ctx context.Context, req TripRequest) (*NormalizedInput, error) {
	raw, err := s.gen.Generate(ctx, textgen.Request{
		Operation:   OpNormalizeInput,
		System:      normalizationPrompt,
		Prompt:      normalizationInput(req),
		JSON:        true,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}
	m, _ := parsed.(map[string]any)

	destination := NormalizeLocation(str(m, "destination"))
	if destination == "" {
		return nil, &ValidationError{Message: "normalized input is missing a destination", Payload: parsed}
	}

	dates := strings.TrimSpace(str(m, "dates"))
	if dates == "" && strings.TrimSpace(req.Dates) != "" {
		dates = FormatDate(req.Dates, s.now())
	}

	name := strings.TrimSpace(str(m, "suggestedName"))
	if name == "" {
		name = FormatLocation(destination) + " Getaway"
	}

	out := &NormalizedInput{
		Destination:   destination,
		Dates:         dates,
		SuggestedName: name,
		Corrections:   correctionsFrom(m["corrections"]),
	}

	s.logger.Debug().
		Str("original", req.Destination).
		Str("destination", out.Destination).
		Int("corrections", len(out.Corrections)).
		Msg("input normalized")

	return out, nil
}

func correctionsFrom(x any) []Correction {
	list, _ := x.([]any)
	out := make([]Correction, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := Correction{
			Original:  str(m, "original"),
			Corrected: str(m, "corrected"),
			Reason:    str(m, "reason"),
		}
		if c.Original == "" || c.Corrected == "" || c.Original == c.Corrected {
			continue
		}
		out = append(out, c)
	}
	return out
}
