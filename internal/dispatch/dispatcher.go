// Package dispatch maps a resolved render target to the renderer that
// produces its view model.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/models"
)

// AccessDeniedTitle is the title of the output shown in place of a view
// the current role may not see.
const AccessDeniedTitle = "Access Denied"

// RenderContext is the session state a renderer may see. Only the
// dashboard renderer reads Language.
type RenderContext struct {
	Role     models.Role
	Language models.Language
}

// Output is a rendered view model
type Output struct {
	View    models.View `json:"view"`
	Title   string      `json:"title"`
	Content interface{} `json:"content,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Denied reports whether o is the access-denied output
func (o *Output) Denied() bool {
	return o.View == models.ViewAccessDenied
}

// Renderer produces the view model of one view
type Renderer interface {
	Render(ctx context.Context, rc RenderContext) (*Output, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(ctx context.Context, rc RenderContext) (*Output, error)

// Render calls f
func (f RendererFunc) Render(ctx context.Context, rc RenderContext) (*Output, error) {
	return f(ctx, rc)
}

// Dispatcher holds exactly one renderer per declared view
type Dispatcher struct {
	renderers map[models.View]Renderer
}

// NewDispatcher fails unless renderers covers every declared view and
// nothing else.
func NewDispatcher(renderers map[models.View]Renderer) (*Dispatcher, error) {
	var problems []string

	for view, r := range renderers {
		if !view.IsValid() {
			problems = append(problems, fmt.Sprintf("renderer registered for undeclared view %q", view))
			continue
		}
		if r == nil {
			problems = append(problems, fmt.Sprintf("nil renderer for view %q", view))
		}
	}

	for _, view := range models.AllViews() {
		if _, ok := renderers[view]; !ok {
			problems = append(problems, fmt.Sprintf("no renderer for view %q", view))
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid dispatcher: %s", strings.Join(problems, "; "))
	}

	copied := make(map[models.View]Renderer, len(renderers))
	for view, r := range renderers {
		copied[view] = r
	}
	return &Dispatcher{renderers: copied}, nil
}

// Views returns the renderable views in declaration order
func (d *Dispatcher) Views() []models.View {
	views := make([]models.View, 0, len(d.renderers))
	for _, view := range models.AllViews() {
		if _, ok := d.renderers[view]; ok {
			views = append(views, view)
		}
	}
	return views
}

// Render produces the output for target. The access-denied sentinel
// yields the fixed denial output. Any other target without a renderer is
// a programming error and panics.
func (d *Dispatcher) Render(ctx context.Context, target models.View, rc RenderContext) (*Output, error) {
	if target == models.ViewAccessDenied {
		return DeniedOutput(rc.Role), nil
	}

	r, ok := d.renderers[target]
	if !ok {
		panic(fmt.Sprintf("dispatch: no renderer for view %q", target))
	}

	if target != models.ViewDashboard {
		rc.Language = ""
	}

	out, err := r.Render(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", target, err)
	}
	if out.View == "" {
		out.View = target
	}
	return out, nil
}

// DeniedOutput is the output shown in place of a forbidden view
func DeniedOutput(role models.Role) *Output {
	return &Output{
		View:    models.ViewAccessDenied,
		Title:   AccessDeniedTitle,
		Message: access.DenialMessage(role),
	}
}
