package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestPermissionsTable(t *testing.T) {
	out, err := execute(t, "permissions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(models.AllRoles())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ROLE"))
	assert.Contains(t, out, "lab_tech")
	assert.Contains(t, out, "dashboard, lab, systems, settings")
}

func TestPermissionsYAMLRoundTrip(t *testing.T) {
	out, err := execute(t, "permissions", "-o", "yaml")
	require.NoError(t, err)

	policy, err := access.ParsePolicy([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, access.DefaultPolicy(), policy)
}

func TestPermissionsPolicyFile(t *testing.T) {
	var b strings.Builder
	b.WriteString("roles:\n")
	for _, role := range models.AllRoles() {
		b.WriteString("  " + string(role) + ": [settings, dashboard]\n")
	}
	b.WriteString("  admin_extra_comment_free: []\n")
	path := filepath.Join(t.TempDir(), "policy.yaml")

	// unknown role in the file is rejected
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	_, err := execute(t, "permissions", "--policy-file", path)
	require.Error(t, err)

	valid := strings.Replace(b.String(), "  admin_extra_comment_free: []\n", "", 1)
	require.NoError(t, os.WriteFile(path, []byte(valid), 0o600))
	out, err := execute(t, "permissions", "--policy-file", path)
	require.NoError(t, err)
	assert.Regexp(t, `patient\s+settings`, out)

	out, err = execute(t, "permissions", "check", "patient", "dashboard", "--policy-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")
}

func TestPermissionsCheck(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantOut    string
		wantDenied bool
		wantErr    bool
	}{
		{
			name:    "allowed",
			args:    []string{"permissions", "check", "lab_tech", "lab"},
			wantOut: "allowed: lab_tech may open lab",
		},
		{
			name:       "denied",
			args:       []string{"permissions", "check", "patient", "lab"},
			wantOut:    "denied: " + access.DenialMessage(models.RolePatient),
			wantDenied: true,
		},
		{
			name:    "unknown role",
			args:    []string{"permissions", "check", "janitor", "lab"},
			wantErr: true,
		},
		{
			name:    "sentinel is not a view",
			args:    []string{"permissions", "check", "admin", "access_denied"},
			wantErr: true,
		},
		{
			name:    "missing args",
			args:    []string{"permissions", "check", "admin"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			switch {
			case tt.wantDenied:
				assert.ErrorIs(t, err, errAccessDenied)
			case tt.wantErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, errAccessDenied)
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

func TestPermissionsUnknownFormat(t *testing.T) {
	_, err := execute(t, "permissions", "-o", "xml")
	assert.Error(t, err)
}

func TestDBSeedRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("ENVIRONMENT", "test")

	_, err := execute(t, "db", "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}
