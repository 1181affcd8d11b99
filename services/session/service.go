// Package session owns dashboard session state and keeps every session's
// view inside the permitted set of its role.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
	"github.com/wellirecord/connect/services"
	"go.uber.org/zap"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// Auditor accepts access events for asynchronous persistence
type Auditor interface {
	LogEvent(event *models.AccessEvent) error
}

// Config holds session service settings
type Config struct {
	TTL             time.Duration
	MaxSessions     int
	DefaultRole     models.Role
	DefaultLanguage models.Language
}

// CreateInput is the optional initial state of a new session
type CreateInput struct {
	Role     models.Role
	Language models.Language
}

// RoleChange describes the outcome of ChangeRole
type RoleChange struct {
	Session   *models.Session `json:"session"`
	Previous  models.View     `json:"previous_view"`
	Corrected bool            `json:"corrected"`
}

// NavItem is one entry of the navigation menu
type NavItem struct {
	View   models.View `json:"view"`
	Active bool        `json:"active"`
}

// Service manages dashboard sessions
type Service struct {
	store      *Store
	controller *access.Controller
	dispatcher *dispatch.Dispatcher
	auditor    Auditor
	events     repositories.AccessEventRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        Config

	// mu serializes read-modify-write of session state
	mu sync.Mutex
}

// NewService creates a new session Service
func NewService(
	cfg Config,
	controller *access.Controller,
	dispatcher *dispatch.Dispatcher,
	auditor Auditor,
	events repositories.AccessEventRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	if cfg.MaxSessions <= 0 {
		return nil, errors.New("max sessions must be positive")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if !controller.Table().Knows(cfg.DefaultRole) {
		return nil, fmt.Errorf("default role %q is not in the permission table", cfg.DefaultRole)
	}
	if !cfg.DefaultLanguage.IsValid() {
		return nil, fmt.Errorf("default language %q is not supported", cfg.DefaultLanguage)
	}

	s := &Service{
		controller: controller,
		dispatcher: dispatcher,
		auditor:    auditor,
		events:     events,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
	s.store = NewStore(cfg.MaxSessions, cfg.TTL, s.evicted)
	return s, nil
}

// Create starts a session. Zero fields of in take the configured defaults.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Session, error) {
	role := in.Role
	if role == "" {
		role = s.cfg.DefaultRole
	}
	if !role.IsValid() {
		return nil, services.ErrInvalidRole
	}

	lang := in.Language
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	if !lang.IsValid() {
		return nil, services.ErrInvalidLanguage
	}

	sess := models.NewSession(role, models.ViewDashboard, lang)
	sess.View = s.controller.OnRoleChanged(role, models.ViewDashboard)

	s.store.Put(sess)
	s.metrics.SetActiveSessions(s.store.Len())

	s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionSessionCreated, role, sess.View))
	if sess.View != models.ViewDashboard {
		s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionViewCorrected, role, sess.View).
			WithPrevious(models.ViewDashboard))
	}

	observability.FromContext(ctx, s.logger).Info("session created",
		zap.String("session_id", sess.ID.String()),
		zap.String("role", role.String()),
		zap.String("view", sess.View.String()))

	return sess, nil
}

// Get returns the current state of a session
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, ok := s.store.Get(id)
	s.metrics.RecordSessionLookup(ok)
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return sess, nil
}

// ChangeRole switches the session role and corrects the view when the new
// role may not see it.
func (s *Service) ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*RoleChange, error) {
	if !role.IsValid() {
		return nil, services.ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := sess.View
	sess.Role = role
	sess.View = s.controller.OnRoleChanged(role, previous)
	sess.Touch()
	s.store.Put(sess)

	corrected := sess.View != previous
	s.metrics.RecordRoleChange(role.String(), corrected)
	s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionRoleChanged, role, sess.View).
		WithPrevious(previous))
	if corrected {
		s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionViewCorrected, role, sess.View).
			WithPrevious(previous))
	}

	observability.FromContext(ctx, s.logger).Info("session role changed",
		zap.String("session_id", sess.ID.String()),
		zap.String("role", role.String()),
		zap.String("view", sess.View.String()),
		zap.Bool("corrected", corrected))

	return &RoleChange{Session: sess, Previous: previous, Corrected: corrected}, nil
}

// RequestView navigates to view. A denial returns a forbidden error
// carrying the denial message and leaves the session unchanged.
func (s *Service) RequestView(ctx context.Context, id uuid.UUID, view models.View) (*models.Session, error) {
	if !view.IsValid() {
		return nil, services.ErrInvalidView
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	granted, err := s.controller.OnViewRequested(view, sess.Role)
	if err != nil {
		var denied *access.AccessDeniedError
		if !errors.As(err, &denied) {
			return nil, services.WrapInternal("failed to check view access", err)
		}

		s.metrics.RecordAccessDecision("view_request", sess.Role.String(), view.String(), false)
		s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionViewDenied, sess.Role, view).
			WithPrevious(sess.View))

		observability.FromContext(ctx, s.logger).Warn("view request denied",
			zap.String("session_id", sess.ID.String()),
			zap.String("role", sess.Role.String()),
			zap.String("view", view.String()))

		return nil, services.NewDomainError(services.ErrorTypeForbidden, denied.Message(), err).
			WithDetail("role", sess.Role).
			WithDetail("view", view)
	}

	previous := sess.View
	sess.View = granted
	sess.Touch()
	s.store.Put(sess)

	s.metrics.RecordAccessDecision("view_request", sess.Role.String(), granted.String(), true)
	s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionViewGranted, sess.Role, granted).
		WithPrevious(previous))

	return sess, nil
}

// Refresh restarts the session's expiry without changing its state. Token
// holders call it to keep an idle session alive.
func (s *Service) Refresh(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Touch()
	s.store.Put(sess)
	return sess, nil
}

// ChangeLanguage sets the session display language
func (s *Service) ChangeLanguage(ctx context.Context, id uuid.UUID, lang models.Language) (*models.Session, error) {
	if !lang.IsValid() {
		return nil, services.ErrInvalidLanguage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Language = lang
	sess.Touch()
	s.store.Put(sess)
	return sess, nil
}

// Navigation lists the views the session role may open, in table order,
// marking the active one.
func (s *Service) Navigation(ctx context.Context, id uuid.UUID) ([]NavItem, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	permitted := s.controller.Table().PermittedViews(sess.Role)
	items := make([]NavItem, 0, len(permitted))
	for _, v := range permitted {
		items = append(items, NavItem{View: v, Active: v == sess.View})
	}
	return items, nil
}

// Render re-checks the session's view and renders it. A view the role may
// not see renders as the access-denied output rather than an error.
func (s *Service) Render(ctx context.Context, id uuid.UUID) (*dispatch.Output, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := s.controller.ResolveRenderTarget(sess.Role, sess.View)
	granted := target != models.ViewAccessDenied
	s.metrics.RecordAccessDecision("render", sess.Role.String(), sess.View.String(), granted)
	if !granted {
		s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionRenderDenied, sess.Role, sess.View))
	}

	start := time.Now()
	out, err := s.dispatcher.Render(ctx, target, dispatch.RenderContext{
		Role:     sess.Role,
		Language: sess.Language,
	})
	s.metrics.ObserveRender(target.String(), time.Since(start))
	if err != nil {
		observability.FromContext(ctx, s.logger).Error("render failed",
			zap.String("session_id", sess.ID.String()),
			zap.String("view", target.String()),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrRenderFailed.Message, err)
	}
	return out, nil
}

// End discards a session
func (s *Service) End(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.store.Delete(id)
	s.metrics.SetActiveSessions(s.store.Len())
	s.audit(ctx, models.NewAccessEvent(sess.ID, models.AccessActionSessionEnded, sess.Role, sess.View))

	observability.FromContext(ctx, s.logger).Info("session ended",
		zap.String("session_id", sess.ID.String()))
	return nil
}

// Events returns the recorded access events of a live session, newest first
func (s *Service) Events(ctx context.Context, id uuid.UUID, limit, offset int) ([]*models.AccessEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultEventsLimit
	}
	if limit > maxEventsLimit {
		limit = maxEventsLimit
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.events.GetBySessionID(ctx, id, limit, offset)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err)
	}
	return events, nil
}

// Stats returns session store statistics
func (s *Service) Stats() StoreStats {
	return s.store.Stats()
}

// evicted runs under the store lock when a session expires or is pushed
// out of a full store.
func (s *Service) evicted(sess *models.Session, reason EvictReason) {
	s.metrics.RecordSessionEvicted(string(reason))

	fields := []zap.Field{
		zap.String("session_id", sess.ID.String()),
		zap.String("role", sess.Role.String()),
		zap.String("reason", string(reason)),
	}
	if reason == EvictCapacity {
		s.logger.Warn("session evicted from full store", fields...)
		return
	}
	s.logger.Debug("session expired", fields...)
}

// audit hands an event to the auditor. Failures are logged, not returned.
func (s *Service) audit(ctx context.Context, event *models.AccessEvent) {
	info := requestInfoFrom(ctx)
	event.WithRequest(info.RequestID, info.IPAddress)

	if err := s.auditor.LogEvent(event); err != nil {
		observability.FromContext(ctx, s.logger).Warn("failed to record access event",
			zap.String("action", string(event.Action)),
			zap.Error(err))
	}
}
