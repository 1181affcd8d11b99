package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wellirecord/connect/internal/auth"
	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/utils"
	"go.uber.org/zap"
)

const (
	// SessionCookieName carries the session token for browser clients.
	// The Authorization header takes precedence.
	SessionCookieName = "connect_session"

	// SessionTokenHeader carries a re-issued token on responses to session
	// writes. Every write restarts the session's expiry, so clients should
	// replace their token with it.
	SessionTokenHeader = "X-Session-Token"

	// SessionExpiresHeader is the RFC 3339 expiry of SessionTokenHeader
	SessionExpiresHeader = "X-Session-Expires-At"
)

// TokenValidator defines the interface for validating session tokens
type TokenValidator interface {
	// ValidateToken validates a session token and returns its claims
	ValidateToken(ctx context.Context, token string) (*auth.SessionClaims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireSession requires a valid session token and puts the session ID
// into the request context
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := observability.FromContext(ctx, m.logger)

		token := extractToken(r)
		if token == "" {
			logger.Warn("missing session token")
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			logger.Warn("session token validation failed", zap.Error(err))
			if errors.Is(err, auth.ErrTokenExpired) {
				_ = utils.WriteUnauthorized(w, "Session token expired")
				return
			}
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		sessionID, err := claims.SessionID()
		if err != nil {
			logger.Warn("session token without session id", zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithSessionID(ctx, sessionID)
		ctx = observability.ContextWithFields(ctx, zap.String("session_id", sessionID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts the token from the Authorization header
// ("Bearer TOKEN") or the session cookie.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
