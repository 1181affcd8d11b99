package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellirecord/connect/models"
)

func echoRenderer(view models.View) Renderer {
	return RendererFunc(func(ctx context.Context, rc RenderContext) (*Output, error) {
		return &Output{Title: string(view), Content: rc}, nil
	})
}

func fullSet() map[models.View]Renderer {
	m := make(map[models.View]Renderer)
	for _, v := range models.AllViews() {
		m[v] = echoRenderer(v)
	}
	return m
}

func TestNewDispatcher(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m map[models.View]Renderer)
		wantErr string
	}{
		{name: "complete", mutate: func(map[models.View]Renderer) {}},
		{
			name:    "missing view",
			mutate:  func(m map[models.View]Renderer) { delete(m, models.ViewLab) },
			wantErr: `no renderer for view "lab"`,
		},
		{
			name:    "sentinel registered",
			mutate:  func(m map[models.View]Renderer) { m[models.ViewAccessDenied] = echoRenderer("x") },
			wantErr: `undeclared view "access_denied"`,
		},
		{
			name:    "unknown view",
			mutate:  func(m map[models.View]Renderer) { m["billing"] = echoRenderer("billing") },
			wantErr: `undeclared view "billing"`,
		},
		{
			name:    "nil renderer",
			mutate:  func(m map[models.View]Renderer) { m[models.ViewSettings] = nil },
			wantErr: `nil renderer for view "settings"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fullSet()
			tt.mutate(m)

			d, err := NewDispatcher(m)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.AllViews(), d.Views())
		})
	}
}

func TestDispatcher_RenderEveryView(t *testing.T) {
	d, err := NewDispatcher(fullSet())
	require.NoError(t, err)

	for _, v := range models.AllViews() {
		out, err := d.Render(context.Background(), v, RenderContext{Role: models.RoleAdmin, Language: models.LanguageYoruba})
		require.NoError(t, err)
		assert.Equal(t, v, out.View)
		assert.Equal(t, string(v), out.Title)
		assert.False(t, out.Denied())
	}
}

func TestDispatcher_LanguageOnlyForDashboard(t *testing.T) {
	d, err := NewDispatcher(fullSet())
	require.NoError(t, err)
	rc := RenderContext{Role: models.RoleClinician, Language: models.LanguageHausa}

	out, err := d.Render(context.Background(), models.ViewDashboard, rc)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageHausa, out.Content.(RenderContext).Language)

	out, err = d.Render(context.Background(), models.ViewClinic, rc)
	require.NoError(t, err)
	assert.Empty(t, out.Content.(RenderContext).Language)
}

func TestDispatcher_RenderDenied(t *testing.T) {
	d, err := NewDispatcher(fullSet())
	require.NoError(t, err)

	out, err := d.Render(context.Background(), models.ViewAccessDenied, RenderContext{Role: models.RolePatient})
	require.NoError(t, err)
	assert.True(t, out.Denied())
	assert.Equal(t, AccessDeniedTitle, out.Title)
	assert.Equal(t, "Your current role (patient) does not have permission to view this module.", out.Message)
	assert.Nil(t, out.Content)
}

func TestDispatcher_RenderError(t *testing.T) {
	m := fullSet()
	boom := errors.New("boom")
	m[models.ViewLab] = RendererFunc(func(context.Context, RenderContext) (*Output, error) {
		return nil, boom
	})
	d, err := NewDispatcher(m)
	require.NoError(t, err)

	_, err = d.Render(context.Background(), models.ViewLab, RenderContext{Role: models.RoleLabTech})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_UnknownTargetPanics(t *testing.T) {
	d, err := NewDispatcher(fullSet())
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = d.Render(context.Background(), "billing", RenderContext{Role: models.RoleAdmin})
	})
}

func TestNewDispatcher_CopiesInput(t *testing.T) {
	m := fullSet()
	d, err := NewDispatcher(m)
	require.NoError(t, err)

	delete(m, models.ViewLab)
	_, err = d.Render(context.Background(), models.ViewLab, RenderContext{Role: models.RoleAdmin})
	assert.NoError(t, err)
}
