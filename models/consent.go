package models

import "time"

// DataScope is a category of patient data a provider may access
type DataScope string

const (
	ScopeDemographics  DataScope = "demographics"
	ScopeClinicalNotes DataScope = "clinical_notes"
	ScopeMedications   DataScope = "medications"
	ScopeLabResults    DataScope = "lab_results"
	ScopeGenomics      DataScope = "genomics"
	ScopeMentalHealth  DataScope = "mental_health"
)

// AccessDuration bounds how long a consent scope stays granted
type AccessDuration string

const (
	Duration24h     AccessDuration = "24h"
	Duration7d      AccessDuration = "7d"
	Duration30d     AccessDuration = "30d"
	DurationForever AccessDuration = "forever"
)

// ConsentScope is one grantable scope inside a consent record
type ConsentScope struct {
	Key       DataScope      `json:"key" yaml:"key"`
	Label     string         `json:"label" yaml:"label"`
	Enabled   bool           `json:"enabled" yaml:"enabled"`
	Sensitive bool           `json:"sensitive" yaml:"sensitive"`
	Duration  AccessDuration `json:"duration" yaml:"duration"`
}

// ConsentStatus is the lifecycle state of a consent record
type ConsentStatus string

const (
	ConsentActive  ConsentStatus = "active"
	ConsentRevoked ConsentStatus = "revoked"
	ConsentPending ConsentStatus = "pending"
	ConsentExpired ConsentStatus = "expired"
)

// ConsentRecord captures what a provider may read about the patient
type ConsentRecord struct {
	ID           string         `json:"id" yaml:"id" db:"id"`
	ProviderName string         `json:"provider_name" yaml:"provider_name" db:"provider_name"`
	ProviderType string         `json:"provider_type" yaml:"provider_type" db:"provider_type"`
	TrustScore   int            `json:"trust_score" yaml:"trust_score" db:"trust_score"`
	LastAccess   time.Time      `json:"last_access" yaml:"last_access" db:"last_access"`
	Scopes       []ConsentScope `json:"scopes" yaml:"scopes" db:"scopes"`
	Status       ConsentStatus  `json:"status" yaml:"status" db:"status"`
}

// TableName returns the table name for the ConsentRecord model
func (ConsentRecord) TableName() string {
	return "consent_records"
}

// SensitiveScopesEnabled counts enabled scopes flagged as sensitive
func (c ConsentRecord) SensitiveScopesEnabled() int {
	n := 0
	for _, s := range c.Scopes {
		if s.Enabled && s.Sensitive {
			n++
		}
	}
	return n
}
