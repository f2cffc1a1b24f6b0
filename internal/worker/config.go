// Package worker provides background job processing for WanderPlan.
package worker

import (
	"sort"
	"time"
)

// WarmTarget is a destination whose image is pre-fetched into the cache.
type WarmTarget struct {
	// Place is what the itinerary pipeline would look up (a city or landmark).
	Place string

	// Country is the fallback passed alongside Place.
	Country string

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// WarmConfig holds configuration for the image warm job.
type WarmConfig struct {
	// Targets are the destinations to warm.
	// If empty, uses DefaultWarmTargets.
	Targets []WarmTarget

	// Concurrency is the number of concurrent lookups. Searches are still
	// spaced by the image service's own limiter.
	// Default: 4
	Concurrency int

	// Timeout is the timeout for each lookup.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Targets:     DefaultWarmTargets(),
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// DefaultWarmTargets returns popular destinations, most requested first.
func DefaultWarmTargets() []WarmTarget {
	return []WarmTarget{
		{Place: "Paris", Country: "France", Priority: 1},
		{Place: "Rome", Country: "Italy", Priority: 1},
		{Place: "Tokyo", Country: "Japan", Priority: 1},
		{Place: "London", Country: "United Kingdom", Priority: 1},
		{Place: "New York", Country: "United States", Priority: 1},
		{Place: "Barcelona", Country: "Spain", Priority: 1},
		{Place: "Kyoto", Country: "Japan", Priority: 2},
		{Place: "Florence", Country: "Italy", Priority: 2},
		{Place: "Lisbon", Country: "Portugal", Priority: 2},
		{Place: "Amsterdam", Country: "Netherlands", Priority: 2},
		{Place: "Sydney", Country: "Australia", Priority: 2},
		{Place: "Berlin", Country: "Germany", Priority: 2},
		{Place: "Reykjavik", Country: "Iceland", Priority: 3},
		{Place: "Marrakech", Country: "Morocco", Priority: 3},
		{Place: "Bangkok", Country: "Thailand", Priority: 3},
		{Place: "Cape Town", Country: "South Africa", Priority: 3},
		{Place: "Cusco", Country: "Peru", Priority: 3},
		{Place: "Queenstown", Country: "New Zealand", Priority: 3},
	}
}

// Ordered returns the targets sorted by priority, keeping input order within a
// priority.
func (c WarmConfig) Ordered() []WarmTarget {
	out := make([]WarmTarget, len(c.Targets))
	copy(out, c.Targets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// TargetsFromPlaces builds priority-1 targets from free-form place names.
func TargetsFromPlaces(places []string) []WarmTarget {
	targets := make([]WarmTarget, 0, len(places))
	for _, p := range places {
		if p == "" {
			continue
		}
		targets = append(targets, WarmTarget{Place: p, Priority: 1})
	}
	return targets
}
