package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

// RolePermissions describes one row of the permission table
type RolePermissions struct {
	Role        models.Role   `json:"role"`
	DefaultView models.View   `json:"default_view"`
	Views       []models.View `json:"views"`
}

// PermissionHandler exposes the read-only permission table
type PermissionHandler struct {
	table  *access.PermissionTable
	logger *zap.Logger
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(table *access.PermissionTable, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{
		table:  table,
		logger: logger,
	}
}

// HandleListRoles handles GET /api/v1/roles
func (h *PermissionHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.table.Roles()
	rows := make([]RolePermissions, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, h.row(role))
	}
	_ = utils.WriteOK(w, rows)
}

// HandleRoleViews handles GET /api/v1/roles/{role}/views
func (h *PermissionHandler) HandleRoleViews(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil || !h.table.Knows(role) {
		_ = utils.WriteNotFound(w, "role not found")
		return
	}
	_ = utils.WriteOK(w, h.row(role))
}

func (h *PermissionHandler) row(role models.Role) RolePermissions {
	return RolePermissions{
		Role:        role,
		DefaultView: h.table.DefaultView(role),
		Views:       h.table.PermittedViews(role),
	}
}
