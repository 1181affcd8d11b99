package access

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellirecord/connect/models"
)

const samplePolicy = `
roles:
  admin: ["*"]
  clinician: [dashboard, clinic, lab, pharmacy, telemedicine, identity, analytics, settings]
  lab_tech: [dashboard, lab, systems, settings]
  pharmacist: [dashboard, pharmacy, identity, settings]
  telemedicine: [dashboard, telemedicine, clinic, identity, settings]
  regulator: [dashboard, systems, identity, analytics, settings]
  developer: [settings, dashboard, systems, developer]
  patient: [dashboard, identity, settings]
`

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy([]byte(samplePolicy))
	require.NoError(t, err)

	assert.Equal(t, models.AllViews(), policy[models.RoleAdmin])
	assert.Equal(t, models.ViewSettings, policy[models.RoleDeveloper][0], "file order is preserved")

	table, err := NewPermissionTable(policy)
	require.NoError(t, err)
	assert.Equal(t, models.ViewSettings, table.DefaultView(models.RoleDeveloper))
}

func TestParsePolicy_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{name: "empty", doc: ``, errMsg: "defines no roles"},
		{name: "bad yaml", doc: "roles: [", errMsg: "failed to parse policy"},
		{name: "unknown role", doc: "roles:\n  nurse: [dashboard]\n", errMsg: `unknown role "nurse"`},
		{name: "unknown view", doc: "roles:\n  patient: [dashboard, billing]\n", errMsg: `unknown view "billing"`},
		{name: "mixed wildcard", doc: "roles:\n  admin: [dashboard, \"*\"]\n", errMsg: "mixes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))

	table, err := LoadTable(context.Background(), FileSource{Path: path})
	require.NoError(t, err)
	assert.True(t, table.Allows(models.RoleLabTech, models.ViewSystems))

	_, err = LoadTable(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read policy file")
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FileSource{Path: "unused"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticSource_Load(t *testing.T) {
	policy, err := StaticSource{}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)

	_, err = LoadTable(context.Background(), StaticSource{Policy: map[models.Role][]models.View{}})
	assert.Error(t, err, "an empty static policy is not total")
}
