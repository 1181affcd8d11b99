package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/middleware"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/services"
	"github.com/wellirecord/connect/services/session"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, in session.CreateInput) (*models.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*session.RoleChange, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.RoleChange), args.Error(1)
}

func (m *MockSessionService) RequestView(ctx context.Context, id uuid.UUID, view models.View) (*models.Session, error) {
	args := m.Called(ctx, id, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) ChangeLanguage(ctx context.Context, id uuid.UUID, lang models.Language) (*models.Session, error) {
	args := m.Called(ctx, id, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) Navigation(ctx context.Context, id uuid.UUID) ([]session.NavItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]session.NavItem), args.Error(1)
}

func (m *MockSessionService) Render(ctx context.Context, id uuid.UUID) (*dispatch.Output, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Output), args.Error(1)
}

func (m *MockSessionService) Refresh(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) End(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionService) Events(ctx context.Context, id uuid.UUID, limit, offset int) ([]*models.AccessEvent, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AccessEvent), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(sessionID uuid.UUID) (string, time.Time, error) {
	args := m.Called(sessionID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

// authed returns a request carrying the session ID the way the auth
// middleware leaves it.
func authed(method, target string, body *bytes.Buffer, id uuid.UUID) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithSessionID(req.Context(), id))
}

func TestSessionHandler_HandleCreate(t *testing.T) {
	logger := zap.NewNop()
	expiresAt := time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC)

	t.Run("creates session with defaults on empty body", func(t *testing.T) {
		svc := new(MockSessionService)
		tokens := new(MockTokenIssuer)
		sess := models.NewSession(models.RoleAdmin, models.ViewDashboard, models.LanguageEnglish)

		svc.On("Create", mock.Anything, session.CreateInput{}).Return(sess, nil)
		tokens.On("Issue", sess.ID).Return("signed-token", expiresAt, nil)

		handler := NewSessionHandler(svc, tokens, false, logger)
		w := httptest.NewRecorder()
		handler.HandleCreate(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusCreated, w.Code)

		var response struct {
			Data SessionTokenResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "signed-token", response.Data.Token)
		assert.Equal(t, sess.ID, response.Data.Session.ID)
		assert.True(t, expiresAt.Equal(response.Data.ExpiresAt))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.Equal(t, "signed-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)

		svc.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("passes requested role and language", func(t *testing.T) {
		svc := new(MockSessionService)
		tokens := new(MockTokenIssuer)
		sess := models.NewSession(models.RoleLabTech, models.ViewDashboard, models.LanguageYoruba)

		svc.On("Create", mock.Anything, session.CreateInput{Role: models.RoleLabTech, Language: models.LanguageYoruba}).
			Return(sess, nil)
		tokens.On("Issue", sess.ID).Return("t", expiresAt, nil)

		handler := NewSessionHandler(svc, tokens, false, logger)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
			jsonBody(t, map[string]string{"role": "lab_tech", "language": "YOR"}))
		handler.HandleCreate(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		svc := new(MockSessionService)
		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, logger)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", jsonBody(t, map[string]string{"role": "janitor"}))
		handler.HandleCreate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		handler := NewSessionHandler(new(MockSessionService), new(MockTokenIssuer), false, logger)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", jsonBody(t, map[string]string{"tenant": "x"}))
		handler.HandleCreate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("token failure is internal", func(t *testing.T) {
		svc := new(MockSessionService)
		tokens := new(MockTokenIssuer)
		sess := models.NewSession(models.RoleAdmin, models.ViewDashboard, models.LanguageEnglish)

		svc.On("Create", mock.Anything, mock.Anything).Return(sess, nil)
		tokens.On("Issue", sess.ID).Return("", time.Time{}, errors.New("signing failed"))

		handler := NewSessionHandler(svc, tokens, false, logger)
		w := httptest.NewRecorder()
		handler.HandleCreate(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

var renewedAt = time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

func TestSessionHandler_HandleRequestView(t *testing.T) {
	logger := zap.NewNop()
	id := uuid.New()

	t.Run("granted view", func(t *testing.T) {
		svc := new(MockSessionService)
		sess := models.NewSession(models.RoleClinician, models.ViewClinic, models.LanguageEnglish)
		svc.On("RequestView", mock.Anything, id, models.ViewClinic).Return(sess, nil)
		tokens := new(MockTokenIssuer)
		tokens.On("Issue", id).Return("renewed-token", renewedAt, nil)

		handler := NewSessionHandler(svc, tokens, false, logger)
		w := httptest.NewRecorder()
		handler.HandleRequestView(w, authed(http.MethodPut, "/api/v1/session/view",
			jsonBody(t, map[string]string{"view": "clinic"}), id))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "renewed-token", w.Header().Get(middleware.SessionTokenHeader))
		assert.Equal(t, "2025-01-15T14:00:00Z", w.Header().Get(middleware.SessionExpiresHeader))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "renewed-token", cookies[0].Value)
		svc.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("denied view is 403 with denial message", func(t *testing.T) {
		svc := new(MockSessionService)
		denial := &access.AccessDeniedError{Role: models.RolePatient, View: models.ViewDeveloper}
		svc.On("RequestView", mock.Anything, id, models.ViewDeveloper).Return(nil,
			services.NewDomainError(services.ErrorTypeForbidden, denial.Message(), denial).
				WithDetail("role", models.RolePatient).
				WithDetail("view", models.ViewDeveloper))

		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, logger)
		w := httptest.NewRecorder()
		handler.HandleRequestView(w, authed(http.MethodPut, "/api/v1/session/view",
			jsonBody(t, map[string]string{"view": "developer"}), id))

		assert.Equal(t, http.StatusForbidden, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "forbidden", response.Error)
		assert.Equal(t, access.DenialMessage(models.RolePatient), response.Message)
		assert.Equal(t, map[string]interface{}{"role": "patient", "view": "developer"}, response.Details)
		assert.Empty(t, w.Header().Get(middleware.SessionTokenHeader), "a denied request does not write the session")
	})

	t.Run("invalid view never reaches the service", func(t *testing.T) {
		svc := new(MockSessionService)
		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, logger)

		w := httptest.NewRecorder()
		handler.HandleRequestView(w, authed(http.MethodPut, "/api/v1/session/view",
			jsonBody(t, map[string]string{"view": "access_denied"}), id))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "RequestView", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing session in context", func(t *testing.T) {
		handler := NewSessionHandler(new(MockSessionService), new(MockTokenIssuer), false, logger)

		w := httptest.NewRecorder()
		handler.HandleRequestView(w, httptest.NewRequest(http.MethodPut, "/api/v1/session/view",
			jsonBody(t, map[string]string{"view": "clinic"})))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSessionHandler_HandleChangeRole(t *testing.T) {
	id := uuid.New()
	svc := new(MockSessionService)
	sess := models.NewSession(models.RolePatient, models.ViewDashboard, models.LanguageEnglish)
	svc.On("ChangeRole", mock.Anything, id, models.RolePatient).Return(&session.RoleChange{
		Session:   sess,
		Previous:  models.ViewLab,
		Corrected: true,
	}, nil)

	tokens := new(MockTokenIssuer)
	tokens.On("Issue", id).Return("renewed-token", renewedAt, nil)

	handler := NewSessionHandler(svc, tokens, false, zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleChangeRole(w, authed(http.MethodPut, "/api/v1/session/role",
		jsonBody(t, map[string]string{"role": "patient"}), id))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data session.RoleChange `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Data.Corrected)
	assert.Equal(t, models.ViewLab, response.Data.Previous)
	assert.Equal(t, models.ViewDashboard, response.Data.Session.View)
	assert.Equal(t, "renewed-token", w.Header().Get(middleware.SessionTokenHeader))
	svc.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestSessionHandler_HandleChangeLanguage(t *testing.T) {
	id := uuid.New()
	svc := new(MockSessionService)
	tokens := new(MockTokenIssuer)
	tokens.On("Issue", id).Return("renewed-token", renewedAt, nil)
	handler := NewSessionHandler(svc, tokens, false, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleChangeLanguage(w, authed(http.MethodPut, "/api/v1/session/language",
		jsonBody(t, map[string]string{"language": "xx"}), id))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sess := models.NewSession(models.RoleAdmin, models.ViewDashboard, models.LanguageHausa)
	svc.On("ChangeLanguage", mock.Anything, id, models.LanguageHausa).Return(sess, nil)

	w = httptest.NewRecorder()
	handler.HandleChangeLanguage(w, authed(http.MethodPut, "/api/v1/session/language",
		jsonBody(t, map[string]string{"language": "HAU"}), id))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
	tokens.AssertNumberOfCalls(t, "Issue", 1)
}

func TestSessionHandler_HandleRefresh(t *testing.T) {
	id := uuid.New()

	t.Run("returns a fresh token", func(t *testing.T) {
		svc := new(MockSessionService)
		tokens := new(MockTokenIssuer)
		sess := models.NewSession(models.RoleAdmin, models.ViewSystems, models.LanguageEnglish)
		svc.On("Refresh", mock.Anything, id).Return(sess, nil)
		tokens.On("Issue", id).Return("renewed-token", renewedAt, nil)

		handler := NewSessionHandler(svc, tokens, false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleRefresh(w, authed(http.MethodPost, "/api/v1/session/refresh", nil, id))

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data SessionTokenResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "renewed-token", response.Data.Token)
		assert.True(t, renewedAt.Equal(response.Data.ExpiresAt))
		assert.Equal(t, models.ViewSystems, response.Data.Session.View)
		assert.Equal(t, "renewed-token", w.Header().Get(middleware.SessionTokenHeader))
		svc.AssertExpectations(t)
	})

	t.Run("ended session is not refreshed", func(t *testing.T) {
		svc := new(MockSessionService)
		tokens := new(MockTokenIssuer)
		svc.On("Refresh", mock.Anything, id).Return(nil, services.ErrSessionNotFound)

		handler := NewSessionHandler(svc, tokens, false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleRefresh(w, authed(http.MethodPost, "/api/v1/session/refresh", nil, id))

		assert.Equal(t, http.StatusNotFound, w.Code)
		tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})
}

func TestSessionHandler_HandleContent(t *testing.T) {
	id := uuid.New()

	t.Run("denied render is still 200", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Render", mock.Anything, id).Return(dispatch.DeniedOutput(models.RoleLabTech), nil)

		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleContent(w, authed(http.MethodGet, "/api/v1/session/content", nil, id))

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data dispatch.Output `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, models.ViewAccessDenied, response.Data.View)
		assert.Equal(t, dispatch.AccessDeniedTitle, response.Data.Title)
		assert.Equal(t, access.DenialMessage(models.RoleLabTech), response.Data.Message)
	})

	t.Run("expired session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Render", mock.Anything, id).Return(nil, services.ErrSessionNotFound)

		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleContent(w, authed(http.MethodGet, "/api/v1/session/content", nil, id))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSessionHandler_HandleNavigation(t *testing.T) {
	id := uuid.New()
	svc := new(MockSessionService)
	items := []session.NavItem{
		{View: models.ViewDashboard, Active: true},
		{View: models.ViewIdentity},
		{View: models.ViewSettings},
	}
	svc.On("Navigation", mock.Anything, id).Return(items, nil)

	handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleNavigation(w, authed(http.MethodGet, "/api/v1/session/navigation", nil, id))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data []session.NavItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, items, response.Data)
}

func TestSessionHandler_HandleEnd(t *testing.T) {
	id := uuid.New()
	svc := new(MockSessionService)
	svc.On("End", mock.Anything, id).Return(nil)

	handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleEnd(w, authed(http.MethodDelete, "/api/v1/session", nil, id))

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	svc.AssertExpectations(t)
}

func TestSessionHandler_HandleEvents(t *testing.T) {
	id := uuid.New()

	t.Run("passes paging", func(t *testing.T) {
		svc := new(MockSessionService)
		events := []*models.AccessEvent{
			models.NewAccessEvent(id, models.AccessActionViewDenied, models.RolePatient, models.ViewLab),
		}
		svc.On("Events", mock.Anything, id, 10, 5).Return(events, nil)

		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleEvents(w, authed(http.MethodGet, "/api/v1/session/events?limit=10&offset=5", nil, id))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("defaults are left to the service", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Events", mock.Anything, id, 0, 0).Return([]*models.AccessEvent{}, nil)

		handler := NewSessionHandler(svc, new(MockTokenIssuer), false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleEvents(w, authed(http.MethodGet, "/api/v1/session/events", nil, id))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		handler := NewSessionHandler(new(MockSessionService), new(MockTokenIssuer), false, zap.NewNop())
		w := httptest.NewRecorder()
		handler.HandleEvents(w, authed(http.MethodGet, "/api/v1/session/events?limit=ten", nil, id))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"

	ctx := requestContext(req)
	assert.NotNil(t, ctx)
	assert.Equal(t, "192.0.2.10", middleware.ClientIP(req))
}
