// Package models holds the JSON bodies exchanged by the WanderPlan API.
package models

import (
	"fmt"
	"time"
)

// PagedResponseMeta describes one page of a cursor-paginated list.
type PagedResponseMeta struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// HealthStatus is reported by the ops endpoints for the service, each
// subsystem, and each upstream provider.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp serialises as an RFC 3339 string in UTC.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(t).UTC().Format(time.RFC3339))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		return nil
	}
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("timestamp: expected JSON string, got %s", raw)
	}
	parsed, err := time.Parse(time.RFC3339, raw[1:len(raw)-1])
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}
