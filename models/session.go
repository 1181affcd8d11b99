package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-client dashboard state. View must always be one
// of the views permitted for Role once a mutation has returned.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	View      View      `json:"view"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session with the given initial state.
// Callers are responsible for correcting View against the permission table.
func NewSession(role Role, view View, language Language) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Role:      role,
		View:      view,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the update timestamp
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
