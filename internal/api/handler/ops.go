// Package handler provides HTTP handlers for the WanderPlan API.
package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/api/response"
	"github.com/wanderplan/wanderplan/internal/provider/resilience"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck probes one backing subsystem (database, cache).
type DependencyCheck struct {
	Name string
	Fn   func(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    []DependencyCheck
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, checks []DependencyCheck) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - every dependency must answer.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	failed := map[string]any{}
	for _, s := range subsystems {
		if s.Status != models.HealthStatusOK {
			failed[s.Name] = *s.Detail
		}
	}
	if len(failed) > 0 {
		health.Status = models.HealthStatusFail
		health.Details = failed
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.runChecks(r.Context()),
		Providers:  h.providerStatus(),
	}

	for _, s := range status.Subsystems {
		if s.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusFail
		}
	}
	if status.Status == models.HealthStatusOK {
		for _, p := range status.Providers {
			if p.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
				status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "provider:"+p.Provider)
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// runChecks probes every dependency in parallel. Each probe gets its own
// deadline so one hung store cannot hide the others.
func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, len(h.checks))

	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
			defer cancel()

			start := time.Now()
			err := c.Fn(checkCtx)

			s := models.SubsystemStatus{
				Name:      c.Name,
				Status:    models.HealthStatusOK,
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				detail := err.Error()
				s.Status = models.HealthStatusFail
				s.Detail = &detail
			}
			out[i] = s
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (h *OpsHandler) providerStatus() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:            ph.Name,
			CircuitState:        ph.CircuitState.String(),
			ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
		}
		switch {
		case ph.IsHealthy():
			ps.Status = models.HealthStatusOK
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		default:
			ps.Status = models.HealthStatusFail
		}
		if ph.LastSuccessAt != nil {
			ts := models.Timestamp(*ph.LastSuccessAt)
			ps.LastSuccessAt = &ts
		}
		if ph.LastFailureAt != nil {
			ts := models.Timestamp(*ph.LastFailureAt)
			ps.LastFailureAt = &ts
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}
