package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wellirecord/connect/models"
)

// ErrNotFound is wrapped by every repository when a lookup by ID misses
var ErrNotFound = errors.New("record not found")

// SystemFilter narrows a system node listing. Zero fields match anything.
type SystemFilter struct {
	Type   models.NodeType
	Status models.NodeStatus
	Region string
}

// SystemRepository provides read access to connected system nodes
type SystemRepository interface {
	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*models.SystemNode, error)

	// List returns nodes matching filter ordered by ID
	List(ctx context.Context, filter SystemFilter) ([]*models.SystemNode, error)
}

// ActivityFilter narrows the activity feed
type ActivityFilter struct {
	Type   models.ActivityType
	Status models.ActivityStatus
	Since  time.Time
	Limit  int
}

// ActivityRepository provides read access to the operations activity feed
type ActivityRepository interface {
	GetByID(ctx context.Context, id string) (*models.ActivityLog, error)

	// List returns entries newest first
	List(ctx context.Context, filter ActivityFilter) ([]*models.ActivityLog, error)
}

// ConsentFilter narrows consent records
type ConsentFilter struct {
	Status models.ConsentStatus
}

// ConsentRepository provides read access to provider consent records
type ConsentRepository interface {
	GetByID(ctx context.Context, id string) (*models.ConsentRecord, error)

	// List returns records most recently accessed first
	List(ctx context.Context, filter ConsentFilter) ([]*models.ConsentRecord, error)
}

// PatientFilter narrows patient listings
type PatientFilter struct {
	Status models.PatientStatus
}

// PatientRepository provides read access to patients
type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)

	// List returns patients ordered by name
	List(ctx context.Context, filter PatientFilter) ([]*models.Patient, error)
}

// ClinicalNoteFilter narrows clinical notes
type ClinicalNoteFilter struct {
	PatientID string
	Type      models.NoteType
	Limit     int
}

// ClinicalNoteRepository provides read access to clinical notes
type ClinicalNoteRepository interface {
	GetByID(ctx context.Context, id string) (*models.ClinicalNote, error)

	// List returns notes newest first
	List(ctx context.Context, filter ClinicalNoteFilter) ([]*models.ClinicalNote, error)
}

// LabOrderFilter narrows lab orders
type LabOrderFilter struct {
	Status   models.LabOrderStatus
	Priority models.LabPriority
}

// LabOrderRepository provides read access to lab orders
type LabOrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.LabOrder, error)

	// List returns orders oldest received first
	List(ctx context.Context, filter LabOrderFilter) ([]*models.LabOrder, error)
}

// PrescriptionFilter narrows prescriptions
type PrescriptionFilter struct {
	Status models.PrescriptionStatus
}

// PrescriptionRepository provides read access to prescriptions
type PrescriptionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Prescription, error)

	// List returns prescriptions newest first
	List(ctx context.Context, filter PrescriptionFilter) ([]*models.Prescription, error)
}

// ConsultationFilter narrows telemedicine consultations
type ConsultationFilter struct {
	Status models.ConsultationStatus
}

// ConsultationRepository provides read access to teleconsultations
type ConsultationRepository interface {
	GetByID(ctx context.Context, id string) (*models.TeleConsultation, error)

	// List returns consultations by scheduled time ascending
	List(ctx context.Context, filter ConsultationFilter) ([]*models.TeleConsultation, error)
}

// AccessEventRepository handles the access decision audit trail
type AccessEventRepository interface {
	// Insert inserts a new access event
	Insert(ctx context.Context, event *models.AccessEvent) error

	// GetBySessionID retrieves events for a session, newest first
	GetBySessionID(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.AccessEvent, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Systems       SystemRepository
	Activities    ActivityRepository
	Consents      ConsentRepository
	Patients      PatientRepository
	ClinicalNotes ClinicalNoteRepository
	LabOrders     LabOrderRepository
	Prescriptions PrescriptionRepository
	Consultations ConsultationRepository
	AccessEvents  AccessEventRepository
}
