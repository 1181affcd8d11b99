package access

import (
	"context"
	"fmt"
	"os"

	"github.com/wellirecord/connect/models"
	"gopkg.in/yaml.v3"
)

// wildcardView expands to every declared view in declaration order
const wildcardView = "*"

// PolicySource supplies the role → views policy the table is built from
type PolicySource interface {
	Load(ctx context.Context) (map[models.Role][]models.View, error)
}

// DefaultPolicy returns the built-in dashboard policy
func DefaultPolicy() map[models.Role][]models.View {
	return map[models.Role][]models.View{
		models.RoleAdmin: models.AllViews(),
		models.RoleClinician: {
			models.ViewDashboard, models.ViewClinic, models.ViewLab, models.ViewPharmacy,
			models.ViewTelemedicine, models.ViewIdentity, models.ViewAnalytics, models.ViewSettings,
		},
		models.RoleLabTech: {
			models.ViewDashboard, models.ViewLab, models.ViewSystems, models.ViewSettings,
		},
		models.RolePharmacist: {
			models.ViewDashboard, models.ViewPharmacy, models.ViewIdentity, models.ViewSettings,
		},
		models.RoleTelemedicine: {
			models.ViewDashboard, models.ViewTelemedicine, models.ViewClinic, models.ViewIdentity, models.ViewSettings,
		},
		models.RoleRegulator: {
			models.ViewDashboard, models.ViewSystems, models.ViewIdentity, models.ViewAnalytics, models.ViewSettings,
		},
		models.RoleDeveloper: {
			models.ViewDashboard, models.ViewSystems, models.ViewDeveloper, models.ViewSettings,
		},
		models.RolePatient: {
			models.ViewDashboard, models.ViewIdentity, models.ViewSettings,
		},
	}
}

// StaticSource serves a fixed in-process policy
type StaticSource struct {
	Policy map[models.Role][]models.View
}

// Load returns the static policy, or the built-in one when none is set
func (s StaticSource) Load(context.Context) (map[models.Role][]models.View, error) {
	if s.Policy == nil {
		return DefaultPolicy(), nil
	}
	return s.Policy, nil
}

// FileSource reads the policy from a YAML document of the form
//
//	roles:
//	  admin: ["*"]
//	  patient: [dashboard, identity, settings]
type FileSource struct {
	Path string
}

type policyDocument struct {
	Roles map[string][]string `yaml:"roles"`
}

// Load reads and parses the policy file
func (s FileSource) Load(ctx context.Context) (map[models.Role][]models.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document
func ParsePolicy(data []byte) (map[models.Role][]models.View, error) {
	var doc policyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("policy defines no roles")
	}

	policy := make(map[models.Role][]models.View, len(doc.Roles))
	for rawRole, rawViews := range doc.Roles {
		role, err := models.ParseRole(rawRole)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}

		if len(rawViews) == 1 && rawViews[0] == wildcardView {
			policy[role] = models.AllViews()
			continue
		}

		views := make([]models.View, 0, len(rawViews))
		for _, rawView := range rawViews {
			if rawView == wildcardView {
				return nil, fmt.Errorf("policy: role %q mixes %q with explicit views", rawRole, wildcardView)
			}
			view, err := models.ParseView(rawView)
			if err != nil {
				return nil, fmt.Errorf("policy: role %q: %w", rawRole, err)
			}
			views = append(views, view)
		}
		policy[role] = views
	}

	return policy, nil
}

// LoadTable builds a PermissionTable from src
func LoadTable(ctx context.Context, src PolicySource) (*PermissionTable, error) {
	policy, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load access policy: %w", err)
	}
	return NewPermissionTable(policy)
}
