package access

import (
	"fmt"

	"github.com/wellirecord/connect/models"
)

// Controller enforces that a session's view stays within its role's
// permitted set. It holds no session state and is safe for concurrent use.
type Controller struct {
	table *PermissionTable
}

// NewController creates a controller over table
func NewController(table *PermissionTable) *Controller {
	return &Controller{table: table}
}

// Table returns the permission table the controller consults
func (c *Controller) Table() *PermissionTable {
	return c.table
}

// OnRoleChanged returns the view a session must show after switching to
// newRole: currentView when still permitted, otherwise the role's
// fallback view. It must be called at every point the role is mutated.
func (c *Controller) OnRoleChanged(newRole models.Role, currentView models.View) models.View {
	c.mustKnow(newRole)

	if c.table.Allows(newRole, currentView) {
		return currentView
	}
	return c.table.DefaultView(newRole)
}

// OnViewRequested grants requested when currentRole may see it. On denial
// it returns an *AccessDeniedError and the caller must leave state as is.
func (c *Controller) OnViewRequested(requested models.View, currentRole models.Role) (models.View, error) {
	c.mustKnow(currentRole)

	if !c.table.Allows(currentRole, requested) {
		return "", &AccessDeniedError{Role: currentRole, View: requested}
	}
	return requested, nil
}

// ResolveRenderTarget re-checks the (role, view) pair immediately before
// rendering. A view the role may not see resolves to
// models.ViewAccessDenied.
func (c *Controller) ResolveRenderTarget(currentRole models.Role, currentView models.View) models.View {
	if !c.table.Allows(currentRole, currentView) {
		return models.ViewAccessDenied
	}
	return currentView
}

// mustKnow panics on a role outside the table. Roles are parsed at the
// API boundary, so reaching this is a programming error.
func (c *Controller) mustKnow(role models.Role) {
	if !c.table.Knows(role) {
		panic(fmt.Sprintf("access: role %q is not in the permission table", role))
	}
}
