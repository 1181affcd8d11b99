package access

import (
	"fmt"
	"strings"

	"github.com/wellirecord/connect/models"
)

// PermissionTable is an immutable mapping from role to its ordered
// permitted views. The zero value is not usable; build one with
// NewPermissionTable or LoadTable.
type PermissionTable struct {
	views map[models.Role][]models.View
}

// NewPermissionTable validates policy and returns a table holding its own
// copy of it. The policy must cover every declared role with a non-empty,
// duplicate-free list of declared views.
func NewPermissionTable(policy map[models.Role][]models.View) (*PermissionTable, error) {
	for role := range policy {
		if !role.IsValid() {
			return nil, fmt.Errorf("permission table: unknown role %q", role)
		}
	}

	views := make(map[models.Role][]models.View, len(policy))
	for _, role := range models.AllRoles() {
		permitted, ok := policy[role]
		if !ok {
			return nil, fmt.Errorf("permission table: role %q has no entry", role)
		}
		if len(permitted) == 0 {
			return nil, fmt.Errorf("permission table: role %q has no permitted views", role)
		}

		seen := make(map[models.View]struct{}, len(permitted))
		for _, v := range permitted {
			if !v.IsValid() {
				return nil, fmt.Errorf("permission table: role %q lists unknown view %q", role, v)
			}
			if _, dup := seen[v]; dup {
				return nil, fmt.Errorf("permission table: role %q lists view %q twice", role, v)
			}
			seen[v] = struct{}{}
		}

		owned := make([]models.View, len(permitted))
		copy(owned, permitted)
		views[role] = owned
	}

	return &PermissionTable{views: views}, nil
}

// PermittedViews returns the ordered views role may access. The result is
// a copy. An undeclared role yields nil.
func (t *PermissionTable) PermittedViews(role models.Role) []models.View {
	permitted, ok := t.views[role]
	if !ok {
		return nil
	}
	out := make([]models.View, len(permitted))
	copy(out, permitted)
	return out
}

// Allows reports whether view is in role's permitted set
func (t *PermissionTable) Allows(role models.Role, view models.View) bool {
	for _, v := range t.views[role] {
		if v == view {
			return true
		}
	}
	return false
}

// DefaultView returns the first permitted view of role, or "" for an
// undeclared role.
func (t *PermissionTable) DefaultView(role models.Role) models.View {
	permitted := t.views[role]
	if len(permitted) == 0 {
		return ""
	}
	return permitted[0]
}

// Knows reports whether role has an entry in the table
func (t *PermissionTable) Knows(role models.Role) bool {
	_, ok := t.views[role]
	return ok
}

// Roles returns the roles in the table in declaration order
func (t *PermissionTable) Roles() []models.Role {
	roles := make([]models.Role, 0, len(t.views))
	for _, r := range models.AllRoles() {
		if _, ok := t.views[r]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// Snapshot returns a deep copy of the table as a plain map
func (t *PermissionTable) Snapshot() map[models.Role][]models.View {
	out := make(map[models.Role][]models.View, len(t.views))
	for role := range t.views {
		out[role] = t.PermittedViews(role)
	}
	return out
}

// CheckCoverage fails when any of the given renderable views is reachable
// by no role.
func (t *PermissionTable) CheckCoverage(renderable []models.View) error {
	reachable := make(map[models.View]struct{})
	for _, permitted := range t.views {
		for _, v := range permitted {
			reachable[v] = struct{}{}
		}
	}

	var missing []string
	for _, v := range renderable {
		if _, ok := reachable[v]; !ok {
			missing = append(missing, string(v))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("permission table: views reachable by no role: %s", strings.Join(missing, ", "))
	}
	return nil
}
