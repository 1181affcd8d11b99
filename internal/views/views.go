// Package views builds the view model of every dashboard module from the
// entity repositories.
package views

import (
	"time"

	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const (
	defaultFeedLimit  = 5
	defaultNotesLimit = 10
)

// Set renders all modules against one set of repositories
type Set struct {
	repos           *repositories.Repositories
	now             func() time.Time
	feedLimit       int
	defaultLanguage models.Language
}

// Option configures a Set
type Option func(*Set)

// WithClock overrides the time source used for windowed metrics
func WithClock(now func() time.Time) Option {
	return func(s *Set) { s.now = now }
}

// WithFeedLimit sets how many activity entries the feeds show
func WithFeedLimit(n int) Option {
	return func(s *Set) {
		if n > 0 {
			s.feedLimit = n
		}
	}
}

// WithDefaultLanguage sets the language reported by the settings module
func WithDefaultLanguage(lang models.Language) Option {
	return func(s *Set) {
		if lang.IsValid() {
			s.defaultLanguage = lang
		}
	}
}

// New creates a Set over repos
func New(repos *repositories.Repositories, opts ...Option) *Set {
	s := &Set{
		repos:           repos,
		now:             time.Now,
		feedLimit:       defaultFeedLimit,
		defaultLanguage: models.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Renderers returns one renderer per declared view
func (s *Set) Renderers() map[models.View]dispatch.Renderer {
	return map[models.View]dispatch.Renderer{
		models.ViewDashboard:    dispatch.RendererFunc(s.Dashboard),
		models.ViewSystems:      dispatch.RendererFunc(s.Systems),
		models.ViewIdentity:     dispatch.RendererFunc(s.Identity),
		models.ViewAnalytics:    dispatch.RendererFunc(s.Analytics),
		models.ViewSettings:     dispatch.RendererFunc(s.Settings),
		models.ViewClinic:       dispatch.RendererFunc(s.Clinic),
		models.ViewLab:          dispatch.RendererFunc(s.Lab),
		models.ViewPharmacy:     dispatch.RendererFunc(s.Pharmacy),
		models.ViewTelemedicine: dispatch.RendererFunc(s.Telemedicine),
		models.ViewDeveloper:    dispatch.RendererFunc(s.Developer),
	}
}

func output(view models.View, title string, content interface{}) *dispatch.Output {
	return &dispatch.Output{View: view, Title: title, Content: content}
}
