package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/services/audit"
	"github.com/wellirecord/connect/services/session"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse represents the application status response
type StatusResponse struct {
	Version     string             `json:"version"`
	Environment string             `json:"environment"`
	Storage     string             `json:"storage"`
	Uptime      string             `json:"uptime"`
	Roles       int                `json:"roles"`
	Sessions    session.StoreStats `json:"sessions"`
	Audit       AuditStatus        `json:"audit"`
}

// AuditStatus is the audit pipeline part of StatusResponse
type AuditStatus struct {
	Pending int   `json:"pending"`
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
}

// StatusSources supplies the values reported by the status endpoint
type StatusSources struct {
	Environment string
	Storage     string
	StartedAt   time.Time
	Table       *access.PermissionTable
	Sessions    interface{ Stats() session.StoreStats }
	Audit       interface{ GetStats() audit.Stats }
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	status StatusSources
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs on in-memory storage.
func NewHealthHandler(db *sql.DB, status StatusSources, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		status: status,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch {
	case h.db == nil:
		checks["database"] = "not_configured"
	case h.checkDatabase(ctx) != nil:
		checks["database"] = "unhealthy"
		allHealthy = false
	default:
		checks["database"] = "healthy"
	}

	if h.status.Audit != nil {
		if h.status.Audit.GetStats().Started {
			checks["audit"] = "healthy"
		} else {
			checks["audit"] = "stopped"
			allHealthy = false
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// HandleStatus handles GET /api/v1/status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Version:     Version,
		Environment: h.status.Environment,
		Storage:     h.status.Storage,
	}
	if !h.status.StartedAt.IsZero() {
		response.Uptime = time.Since(h.status.StartedAt).Round(time.Second).String()
	}
	if h.status.Table != nil {
		response.Roles = len(h.status.Table.Roles())
	}
	if h.status.Sessions != nil {
		response.Sessions = h.status.Sessions.Stats()
	}
	if h.status.Audit != nil {
		stats := h.status.Audit.GetStats()
		response.Audit = AuditStatus{
			Pending: stats.PendingEvents,
			Written: stats.Written,
			Dropped: stats.Dropped,
		}
	}

	_ = utils.WriteOK(w, response)
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		return err
	}

	return nil
}
