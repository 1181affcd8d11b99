package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/middleware"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/services"
	"github.com/wellirecord/connect/services/session"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

// CreateSessionRequest represents a request to start a dashboard session.
// Both fields are optional.
type CreateSessionRequest struct {
	Role     models.Role     `json:"role,omitempty" validate:"omitempty,role"`
	Language models.Language `json:"language,omitempty" validate:"omitempty,language"`
}

// ChangeRoleRequest represents a request to switch the session role
type ChangeRoleRequest struct {
	Role models.Role `json:"role" validate:"required,role"`
}

// RequestViewRequest represents a navigation request
type RequestViewRequest struct {
	View models.View `json:"view" validate:"required,view"`
}

// ChangeLanguageRequest represents a request to switch the display language
type ChangeLanguageRequest struct {
	Language models.Language `json:"language" validate:"required,language"`
}

// SessionTokenResponse is returned when a session starts or is refreshed
type SessionTokenResponse struct {
	Session   *models.Session `json:"session"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SessionService defines the session operations used by the HTTP layer
type SessionService interface {
	Create(ctx context.Context, in session.CreateInput) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*session.RoleChange, error)
	RequestView(ctx context.Context, id uuid.UUID, view models.View) (*models.Session, error)
	ChangeLanguage(ctx context.Context, id uuid.UUID, lang models.Language) (*models.Session, error)
	Navigation(ctx context.Context, id uuid.UUID) ([]session.NavItem, error)
	Render(ctx context.Context, id uuid.UUID) (*dispatch.Output, error)
	Refresh(ctx context.Context, id uuid.UUID) (*models.Session, error)
	End(ctx context.Context, id uuid.UUID) error
	Events(ctx context.Context, id uuid.UUID, limit, offset int) ([]*models.AccessEvent, error)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(sessionID uuid.UUID) (string, time.Time, error)
}

// SessionHandler handles dashboard session HTTP requests
type SessionHandler struct {
	sessions     SessionService
	tokens       TokenIssuer
	secureCookie bool
	logger       *zap.Logger
}

// NewSessionHandler creates a new SessionHandler. secureCookie marks the
// session cookie Secure and should be set when serving over TLS.
func NewSessionHandler(sessions SessionService, tokens TokenIssuer, secureCookie bool, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleCreate handles POST /api/v1/sessions
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	logger := observability.FromContext(ctx, h.logger)

	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			HandleValidationError(w, err, logger)
			return
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, logger)
		return
	}

	sess, err := h.sessions.Create(ctx, session.CreateInput{Role: req.Role, Language: req.Language})
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	token, expiresAt, err := h.issueToken(w, sess.ID)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	_ = utils.WriteCreated(w, SessionTokenResponse{
		Session:   sess,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// HandleGet handles GET /api/v1/session
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(ctx, id)
	if err != nil {
		HandleServiceError(w, err, observability.FromContext(ctx, h.logger))
		return
	}
	_ = utils.WriteOK(w, sess)
}

// HandleRefresh handles POST /api/v1/session/refresh. It restarts the
// session's expiry and returns a fresh token.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}
	logger := observability.FromContext(ctx, h.logger)

	sess, err := h.sessions.Refresh(ctx, id)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	token, expiresAt, err := h.issueToken(w, id)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	_ = utils.WriteOK(w, SessionTokenResponse{
		Session:   sess,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// HandleChangeRole handles PUT /api/v1/session/role
func (h *SessionHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}
	logger := observability.FromContext(ctx, h.logger)

	var req ChangeRoleRequest
	if !decodeAndValidate(w, r, &req, logger) {
		return
	}

	change, err := h.sessions.ChangeRole(ctx, id, req.Role)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	if _, _, err := h.issueToken(w, id); err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	_ = utils.WriteOK(w, change)
}

// HandleRequestView handles PUT /api/v1/session/view.
// A view outside the role's permitted set is answered with 403.
func (h *SessionHandler) HandleRequestView(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}
	logger := observability.FromContext(ctx, h.logger)

	var req RequestViewRequest
	if !decodeAndValidate(w, r, &req, logger) {
		return
	}

	sess, err := h.sessions.RequestView(ctx, id, req.View)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	if _, _, err := h.issueToken(w, id); err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	_ = utils.WriteOK(w, sess)
}

// HandleChangeLanguage handles PUT /api/v1/session/language
func (h *SessionHandler) HandleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}
	logger := observability.FromContext(ctx, h.logger)

	var req ChangeLanguageRequest
	if !decodeAndValidate(w, r, &req, logger) {
		return
	}

	sess, err := h.sessions.ChangeLanguage(ctx, id, req.Language)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	if _, _, err := h.issueToken(w, id); err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	_ = utils.WriteOK(w, sess)
}

// HandleNavigation handles GET /api/v1/session/navigation
func (h *SessionHandler) HandleNavigation(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}

	items, err := h.sessions.Navigation(ctx, id)
	if err != nil {
		HandleServiceError(w, err, observability.FromContext(ctx, h.logger))
		return
	}
	_ = utils.WriteOK(w, items)
}

// HandleContent handles GET /api/v1/session/content.
// A denied render is a normal 200 response carrying the access-denied view.
func (h *SessionHandler) HandleContent(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}

	out, err := h.sessions.Render(ctx, id)
	if err != nil {
		HandleServiceError(w, err, observability.FromContext(ctx, h.logger))
		return
	}
	_ = utils.WriteOK(w, out)
}

// HandleEnd handles DELETE /api/v1/session
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}

	if err := h.sessions.End(ctx, id); err != nil {
		HandleServiceError(w, err, observability.FromContext(ctx, h.logger))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteNoContent(w)
}

// HandleEvents handles GET /api/v1/session/events?limit=&offset=
func (h *SessionHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := h.sessionFrom(w, r)
	if !ok {
		return
	}
	logger := observability.FromContext(ctx, h.logger)

	limit, err := queryInt(r, "limit")
	if err != nil {
		_ = utils.WriteBadRequest(w, "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		_ = utils.WriteBadRequest(w, "offset must be an integer", nil)
		return
	}

	events, err := h.sessions.Events(ctx, id, limit, offset)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}
	_ = utils.WriteOK(w, events)
}

// issueToken signs a token for a session whose expiry was just restarted
// and hands it out in the response headers and the session cookie.
// Writes must call it before the body is written.
func (h *SessionHandler) issueToken(w http.ResponseWriter, id uuid.UUID) (string, time.Time, error) {
	token, expiresAt, err := h.tokens.Issue(id)
	if err != nil {
		return "", time.Time{}, services.WrapInternal("failed to issue session token", err)
	}

	w.Header().Set(middleware.SessionTokenHeader, token)
	w.Header().Set(middleware.SessionExpiresHeader, expiresAt.UTC().Format(time.RFC3339))
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return token, expiresAt, nil
}

// sessionFrom returns the request context and the session ID placed there
// by the auth middleware.
func (h *SessionHandler) sessionFrom(w http.ResponseWriter, r *http.Request) (context.Context, uuid.UUID, bool) {
	ctx := requestContext(r)
	id, ok := middleware.GetSessionIDFromContext(ctx)
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return nil, uuid.Nil, false
	}
	return ctx, id, true
}

// requestContext attaches the request ID and client IP for audit events
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	return session.WithRequestInfo(ctx, session.RequestInfo{
		RequestID: middleware.GetRequestIDFromContext(ctx),
		IPAddress: middleware.ClientIP(r),
	})
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
