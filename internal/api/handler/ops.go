// Package handler provides HTTP handlers for the Sundose API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sundose/sundose/internal/api/models"
	"github.com/sundose/sundose/internal/api/response"
	"github.com/sundose/sundose/internal/exposure"
	"github.com/sundose/sundose/internal/provider/resilience"
	"github.com/sundose/sundose/internal/uvindex"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	cache     *uvindex.Service
	sessions  *exposure.Service

	// readyCheck pings hard dependencies (database). Nil means always ready.
	readyCheck func(ctx context.Context) error
}

// OpsConfig holds dependencies for the ops handler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Cache      *uvindex.Service
	Sessions   *exposure.Service
	ReadyCheck func(ctx context.Context) error
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:    cfg.Version,
		buildTime:  cfg.BuildTime,
		cache:      cfg.Cache,
		sessions:   cfg.Sessions,
		readyCheck: cfg.ReadyCheck,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			health := models.Health{
				Status: models.HealthStatusFail,
				Time:   models.Timestamp(time.Now()),
				Details: map[string]interface{}{
					"error": err.Error(),
				},
			}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - cache and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.cache != nil {
		stats := h.cache.CacheStats()
		cacheStatus := models.HealthStatusOK
		if stats.Entries > 0 && stats.FreshEntries == 0 {
			cacheStatus = models.HealthStatusDegraded
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "uv-cache",
			Status: cacheStatus,
		})
	}

	// Provider health comes from the resilient client registry, so circuit
	// breaker trips show up here without polling the provider.
	for _, ph := range resilience.GlobalRegistry.GetAllHealth() {
		providerStatus := models.HealthStatusOK
		switch {
		case ph.IsUnhealthy():
			providerStatus = models.HealthStatusFail
			status.Status = models.HealthStatusDegraded
		case ph.IsDegraded():
			providerStatus = models.HealthStatusDegraded
			status.Status = models.HealthStatusDegraded
		}

		ps := models.ProviderStatus{
			Provider: ph.Name,
			Status:   providerStatus,
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
		status.Providers = append(status.Providers, ps)
	}

	if h.sessions != nil {
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "exposure-tracking",
			Status: models.HealthStatusOK,
		})
		status.ActiveSessions = h.sessions.ActiveCount()
	}

	response.JSON(w, r, http.StatusOK, status)
}
