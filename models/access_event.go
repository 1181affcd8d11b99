package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AccessAction represents the kind of access decision being audited
type AccessAction string

const (
	AccessActionSessionCreated AccessAction = "session_created"
	AccessActionSessionEnded   AccessAction = "session_ended"
	AccessActionRoleChanged    AccessAction = "role_changed"
	AccessActionViewGranted    AccessAction = "view_granted"
	AccessActionViewDenied     AccessAction = "view_denied"
	AccessActionViewCorrected  AccessAction = "view_corrected"
	AccessActionRenderDenied   AccessAction = "render_denied"
)

// AccessEvent is an audit trail entry for a session-level access decision
type AccessEvent struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SessionID uuid.UUID       `json:"session_id" db:"session_id"`
	Action    AccessAction    `json:"action" db:"action"`
	Role      Role            `json:"role" db:"role"`
	View      View            `json:"view,omitempty" db:"view"`
	Previous  View            `json:"previous_view,omitempty" db:"previous_view"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	RequestID string          `json:"request_id,omitempty" db:"request_id"`
	IPAddress string          `json:"ip_address,omitempty" db:"ip_address"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AccessEvent model
func (AccessEvent) TableName() string {
	return "access_events"
}

// NewAccessEvent creates a new AccessEvent instance
func NewAccessEvent(sessionID uuid.UUID, action AccessAction, role Role, view View) *AccessEvent {
	return &AccessEvent{
		ID:        uuid.New(),
		SessionID: sessionID,
		Action:    action,
		Role:      role,
		View:      view,
		Timestamp: time.Now(),
	}
}

// WithPrevious records the view that was active before the decision
func (e *AccessEvent) WithPrevious(view View) *AccessEvent {
	e.Previous = view
	return e
}

// WithDetails sets the details
func (e *AccessEvent) WithDetails(details interface{}) *AccessEvent {
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}

// WithRequest sets request metadata
func (e *AccessEvent) WithRequest(requestID, ipAddress string) *AccessEvent {
	e.RequestID = requestID
	e.IPAddress = ipAddress
	return e
}
