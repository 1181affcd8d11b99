package views

import (
	"context"
	"fmt"

	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

// IdentityModel is the content of the identity and consent view
type IdentityModel struct {
	Consents               []*models.ConsentRecord      `json:"consents"`
	ByStatus               map[models.ConsentStatus]int `json:"by_status"`
	SensitiveScopesEnabled int                          `json:"sensitive_scopes_enabled"`
}

// Identity renders the consent ledger
func (s *Set) Identity(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	consents, err := s.repos.Consents.List(ctx, repositories.ConsentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}

	model := &IdentityModel{
		Consents: consents,
		ByStatus: make(map[models.ConsentStatus]int),
	}
	for _, c := range consents {
		model.ByStatus[c.Status]++
		model.SensitiveScopesEnabled += c.SensitiveScopesEnabled()
	}

	return output(models.ViewIdentity, "Identity & Consent", model), nil
}
