package middleware

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

// SessionIDKey is the context key for the authenticated session ID
const SessionIDKey contextKey = "session_id"

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// GetSessionIDFromContext retrieves the authenticated session ID from context
func GetSessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if val := ctx.Value(SessionIDKey); val != nil {
		if id, ok := val.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// WithSessionID adds the authenticated session ID to the context
func WithSessionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}
