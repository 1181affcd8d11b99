package models

import "time"

// PatientStatus marks whether a patient chart is in use
type PatientStatus string

const (
	PatientActive   PatientStatus = "active"
	PatientArchived PatientStatus = "archived"
)

// Patient is a person with a clinical record
type Patient struct {
	ID            string        `json:"id" yaml:"id" db:"id"`
	DID           string        `json:"did" yaml:"did" db:"did"` // decentralized identifier
	Name          string        `json:"name" yaml:"name" db:"name"`
	DateOfBirth   string        `json:"dob" yaml:"dob" db:"dob"`
	Gender        string        `json:"gender" yaml:"gender" db:"gender"`
	BloodType     string        `json:"blood_type" yaml:"blood_type" db:"blood_type"`
	Allergies     []string      `json:"allergies" yaml:"allergies" db:"allergies"`
	LastVisit     time.Time     `json:"last_visit" yaml:"last_visit" db:"last_visit"`
	Status        PatientStatus `json:"status" yaml:"status" db:"status"`
	FHIRCompliant bool          `json:"fhir_compliant" yaml:"fhir_compliant" db:"fhir_compliant"`
}

// TableName returns the table name for the Patient model
func (Patient) TableName() string {
	return "patients"
}

// NoteType classifies a clinical note
type NoteType string

const (
	NoteVisit        NoteType = "visit"
	NotePrescription NoteType = "prescription"
	NoteReferral     NoteType = "referral"
	NoteLabOrder     NoteType = "lab_order"
)

// ClinicalNote is a signed entry in a patient's record
type ClinicalNote struct {
	ID            string    `json:"id" yaml:"id" db:"id"`
	PatientID     string    `json:"patient_id" yaml:"patient_id" db:"patient_id"`
	Date          time.Time `json:"date" yaml:"date" db:"date"`
	Provider      string    `json:"provider" yaml:"provider" db:"provider"`
	Role          string    `json:"role" yaml:"role" db:"role"`
	Type          NoteType  `json:"type" yaml:"type" db:"type"`
	Title         string    `json:"title" yaml:"title" db:"title"`
	Content       string    `json:"content" yaml:"content" db:"content"`
	SignedAt      time.Time `json:"signed_at" yaml:"signed_at" db:"signed_at"`
	SignatureHash string    `json:"signature_hash" yaml:"signature_hash" db:"signature_hash"`
	Verified      bool      `json:"verified" yaml:"verified" db:"verified"`
	FHIRCompliant bool      `json:"fhir_compliant" yaml:"fhir_compliant" db:"fhir_compliant"`
	FHIRIssues    []string  `json:"fhir_issues,omitempty" yaml:"fhir_issues" db:"fhir_issues"`
}

// TableName returns the table name for the ClinicalNote model
func (ClinicalNote) TableName() string {
	return "clinical_notes"
}

// VitalSign is a single measurement shown on a clinical chart
type VitalSign struct {
	Type      string    `json:"type" yaml:"type"`
	Value     string    `json:"value" yaml:"value"`
	Unit      string    `json:"unit" yaml:"unit"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Status    string    `json:"status" yaml:"status"` // normal, warning, critical
}
