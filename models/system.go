package models

import "time"

// NodeType is the kind of connected health system
type NodeType string

const (
	NodeTypeClinic       NodeType = "clinic"
	NodeTypeLab          NodeType = "lab"
	NodeTypePharmacy     NodeType = "pharmacy"
	NodeTypeTelemedicine NodeType = "telemedicine"
	NodeTypeIdentity     NodeType = "identity"
)

// NodeStatus is the connection state of a system node
type NodeStatus string

const (
	NodeStatusConnected NodeStatus = "connected"
	NodeStatusSyncing   NodeStatus = "syncing"
	NodeStatusError     NodeStatus = "error"
	NodeStatusOffline   NodeStatus = "offline"
)

// SystemNode is a connected clinic, lab, pharmacy or service endpoint
type SystemNode struct {
	ID           string     `json:"id" yaml:"id" db:"id"`
	Name         string     `json:"name" yaml:"name" db:"name"`
	Type         NodeType   `json:"type" yaml:"type" db:"type"`
	Status       NodeStatus `json:"status" yaml:"status" db:"status"`
	LastSync     time.Time  `json:"last_sync" yaml:"last_sync" db:"last_sync"`
	HealthScore  int        `json:"health_score" yaml:"health_score" db:"health_score"`
	Region       string     `json:"region" yaml:"region" db:"region"`
	IPAddress    string     `json:"ip_address,omitempty" yaml:"ip_address" db:"ip_address"`
	Version      string     `json:"version,omitempty" yaml:"version" db:"version"`
	LatencyMs    int        `json:"latency_ms" yaml:"latency_ms" db:"latency_ms"`
	ErrorMessage string     `json:"error_message,omitempty" yaml:"error_message" db:"error_message"`
}

// TableName returns the table name for the SystemNode model
func (SystemNode) TableName() string {
	return "system_nodes"
}

// IsDown reports whether the node needs operator attention
func (n SystemNode) IsDown() bool {
	return n.Status == NodeStatusError || n.Status == NodeStatusOffline
}

// ActivityType categorizes activity feed entries
type ActivityType string

const (
	ActivityDataTransfer  ActivityType = "data_transfer"
	ActivityConsentUpdate ActivityType = "consent_update"
	ActivityAlert         ActivityType = "alert"
	ActivitySystem        ActivityType = "system"
)

// ActivityStatus is the outcome attached to an activity entry
type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "success"
	ActivityWarning ActivityStatus = "warning"
	ActivityError   ActivityStatus = "error"
)

// ActivityLog is one entry of the operations activity feed
type ActivityLog struct {
	ID        string         `json:"id" yaml:"id" db:"id"`
	Type      ActivityType   `json:"type" yaml:"type" db:"type"`
	Message   string         `json:"message" yaml:"message" db:"message"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp" db:"timestamp"`
	Source    string         `json:"source" yaml:"source" db:"source"`
	Status    ActivityStatus `json:"status" yaml:"status" db:"status"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
