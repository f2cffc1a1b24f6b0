package itinerary_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan/internal/itinerary"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

func TestNormalize(t *testing.T) {
	gen := newFakeGenerator(travelModel(3))
	svc := newService(t, gen, nil, 0)

	out, err := svc.Normalize(context.Background(), itinerary.TripRequest{Destination: "new yerk", Dates: "aug", Duration: 3})
	require.NoError(t, err)

	assert.Equal(t, "New York", out.Destination)
	assert.Equal(t, "August 2024", out.Dates)
	assert.Equal(t, "Big Apple Summer", out.SuggestedName)
	require.Len(t, out.Corrections, 2)
	assert.Equal(t, itinerary.Correction{
		Original:  "new yerk",
		Corrected: "New York",
		Reason:    "Corrected spelling of the city name",
	}, out.Corrections[0])

	reqs := gen.requests(itinerary.OpNormalizeInput)
	require.Len(t, reqs, 1)
	var input map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Prompt), &input))
	assert.Equal(t, "new yerk", input["destination"])
	assert.Equal(t, "aug", input["dates"])
	assert.Nil(t, input["interests"])
	assert.Nil(t, input["additionalInfo"])
}

func TestNormalize_Fallbacks(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return `{"destination":"  Paris,   France ","dates":null,"corrections":[{"original":"paris","corrected":"paris"}, "junk"]}`, nil
	})
	svc := newService(t, gen, nil, 0)

	out, err := svc.Normalize(context.Background(), itinerary.TripRequest{Destination: "paris", Dates: "sep", Duration: 2})
	require.NoError(t, err)

	assert.Equal(t, "Paris, France", out.Destination)
	assert.Equal(t, "September 2024", out.Dates)
	assert.Equal(t, "Paris, France Getaway", out.SuggestedName)
	assert.Empty(t, out.Corrections)
}

func TestNormalize_MissingDestination(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return `{"dates":"May 2025"}`, nil
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.Normalize(context.Background(), itinerary.TripRequest{Destination: "x", Duration: 1})

	var verr *itinerary.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "normalized input is missing a destination", verr.Message)
}

func TestNormalize_UnparseableResponse(t *testing.T) {
	gen := newFakeGenerator(func(_ textgen.Request, _ int) (string, error) {
		return `{"destination":`, nil
	})
	svc := newService(t, gen, nil, 0)

	_, err := svc.Normalize(context.Background(), itinerary.TripRequest{Destination: "x", Duration: 1})

	var perr *itinerary.ResponseParseError
	assert.ErrorAs(t, err, &perr)
}
