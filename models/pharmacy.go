package models

import "time"

// PrescriptionStatus tracks a prescription through dispensing
type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "pending"
	PrescriptionVerified PrescriptionStatus = "verified"
	PrescriptionFilled   PrescriptionStatus = "filled"
	PrescriptionFlagged  PrescriptionStatus = "flagged"
)

// PrescriptionType distinguishes first prescriptions from refills
type PrescriptionType string

const (
	PrescriptionNew    PrescriptionType = "new"
	PrescriptionRefill PrescriptionType = "refill"
)

// InteractionType is what a prescription conflicts with
type InteractionType string

const (
	InteractionDrug      InteractionType = "drug"
	InteractionAllergy   InteractionType = "allergy"
	InteractionCondition InteractionType = "condition"
)

// IsValid reports whether t is a known interaction type
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionDrug, InteractionAllergy, InteractionCondition:
		return true
	}
	return false
}

// InteractionSeverity grades an interaction
type InteractionSeverity string

const (
	SeverityHigh     InteractionSeverity = "high"
	SeverityModerate InteractionSeverity = "moderate"
	SeverityLow      InteractionSeverity = "low"
)

// IsValid reports whether s is a known severity
func (s InteractionSeverity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityModerate, SeverityLow:
		return true
	}
	return false
}

// Interaction is a detected conflict for a prescription
type Interaction struct {
	Type        InteractionType     `json:"type" yaml:"type"`
	Severity    InteractionSeverity `json:"severity" yaml:"severity"`
	Description string              `json:"description" yaml:"description"`
}

// Prescription is a medication order awaiting or past dispensing
type Prescription struct {
	ID               string             `json:"id" yaml:"id" db:"id"`
	PatientName      string             `json:"patient_name" yaml:"patient_name" db:"patient_name"`
	PatientID        string             `json:"patient_id" yaml:"patient_id" db:"patient_id"`
	Provider         string             `json:"provider" yaml:"provider" db:"provider"`
	Medication       string             `json:"medication" yaml:"medication" db:"medication"`
	GenericName      string             `json:"generic_name,omitempty" yaml:"generic_name" db:"generic_name"`
	Dosage           string             `json:"dosage" yaml:"dosage" db:"dosage"`
	Instructions     string             `json:"instructions" yaml:"instructions" db:"instructions"`
	Date             time.Time          `json:"date" yaml:"date" db:"date"`
	Status           PrescriptionStatus `json:"status" yaml:"status" db:"status"`
	Type             PrescriptionType   `json:"type" yaml:"type" db:"type"`
	RefillsRemaining int                `json:"refills_remaining" yaml:"refills_remaining" db:"refills_remaining"`
	Interactions     []Interaction      `json:"interactions,omitempty" yaml:"interactions" db:"interactions"`
	IsControlled     bool               `json:"is_controlled" yaml:"is_controlled" db:"is_controlled"`
}

// TableName returns the table name for the Prescription model
func (Prescription) TableName() string {
	return "prescriptions"
}

// HighSeverityInteractions returns the interactions graded high
func (p Prescription) HighSeverityInteractions() []Interaction {
	var out []Interaction
	for _, i := range p.Interactions {
		if i.Severity == SeverityHigh {
			out = append(out, i)
		}
	}
	return out
}
