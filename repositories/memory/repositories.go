// Package memory serves entity data from an in-process dataset. It backs the
// dashboard when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const (
	// DefaultEventSessions is how many session trails the audit store keeps
	DefaultEventSessions = 2000
	// DefaultEventsPerSession caps the events kept per session
	DefaultEventsPerSession = 500
)

// Option configures the in-memory repository set
type Option func(*options)

type options struct {
	eventSessions    int
	eventsPerSession int
}

// WithEventRetention bounds the in-memory access event trail
func WithEventRetention(sessions, perSession int) Option {
	return func(o *options) {
		o.eventSessions = sessions
		o.eventsPerSession = perSession
	}
}

// NewRepositories builds the full repository set over ds
func NewRepositories(ds *Dataset, opts ...Option) *repositories.Repositories {
	o := options{eventSessions: DefaultEventSessions, eventsPerSession: DefaultEventsPerSession}
	for _, opt := range opts {
		opt(&o)
	}

	return &repositories.Repositories{
		Systems:       NewSystemRepository(ds.Systems),
		Activities:    NewActivityRepository(ds.Activities),
		Consents:      NewConsentRepository(ds.Consents),
		Patients:      NewPatientRepository(ds.Patients),
		ClinicalNotes: NewClinicalNoteRepository(ds.ClinicalNotes),
		LabOrders:     NewLabOrderRepository(ds.LabOrders),
		Prescriptions: NewPrescriptionRepository(ds.Prescriptions),
		Consultations: NewConsultationRepository(ds.Consultations),
		AccessEvents:  NewAccessEventRepository(o.eventSessions, o.eventsPerSession),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, repositories.ErrNotFound)
}

// SystemRepository implements repositories.SystemRepository
type SystemRepository struct {
	t *table[models.SystemNode]
}

// NewSystemRepository creates a new in-memory system repository
func NewSystemRepository(rows []models.SystemNode) *SystemRepository {
	return &SystemRepository{t: newTable(rows,
		func(n *models.SystemNode) string { return n.ID },
		func(a, b *models.SystemNode) bool { return a.ID < b.ID },
	)}
}

func (r *SystemRepository) GetByID(ctx context.Context, id string) (*models.SystemNode, error) {
	if n, ok := r.t.get(id); ok {
		return n, nil
	}
	return nil, notFound("system node", id)
}

func (r *SystemRepository) List(ctx context.Context, f repositories.SystemFilter) ([]*models.SystemNode, error) {
	return r.t.list(func(n *models.SystemNode) bool {
		return (f.Type == "" || n.Type == f.Type) &&
			(f.Status == "" || n.Status == f.Status) &&
			(f.Region == "" || n.Region == f.Region)
	}, 0), nil
}

// ActivityRepository implements repositories.ActivityRepository
type ActivityRepository struct {
	t *table[models.ActivityLog]
}

// NewActivityRepository creates a new in-memory activity repository
func NewActivityRepository(rows []models.ActivityLog) *ActivityRepository {
	return &ActivityRepository{t: newTable(rows,
		func(a *models.ActivityLog) string { return a.ID },
		func(a, b *models.ActivityLog) bool { return a.Timestamp.After(b.Timestamp) },
	)}
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.ActivityLog, error) {
	if a, ok := r.t.get(id); ok {
		return a, nil
	}
	return nil, notFound("activity", id)
}

func (r *ActivityRepository) List(ctx context.Context, f repositories.ActivityFilter) ([]*models.ActivityLog, error) {
	return r.t.list(func(a *models.ActivityLog) bool {
		return (f.Type == "" || a.Type == f.Type) &&
			(f.Status == "" || a.Status == f.Status) &&
			(f.Since.IsZero() || !a.Timestamp.Before(f.Since))
	}, f.Limit), nil
}

// ConsentRepository implements repositories.ConsentRepository
type ConsentRepository struct {
	t *table[models.ConsentRecord]
}

// NewConsentRepository creates a new in-memory consent repository
func NewConsentRepository(rows []models.ConsentRecord) *ConsentRepository {
	return &ConsentRepository{t: newTable(rows,
		func(c *models.ConsentRecord) string { return c.ID },
		func(a, b *models.ConsentRecord) bool { return a.LastAccess.After(b.LastAccess) },
	)}
}

func (r *ConsentRepository) GetByID(ctx context.Context, id string) (*models.ConsentRecord, error) {
	if c, ok := r.t.get(id); ok {
		return c, nil
	}
	return nil, notFound("consent record", id)
}

func (r *ConsentRepository) List(ctx context.Context, f repositories.ConsentFilter) ([]*models.ConsentRecord, error) {
	return r.t.list(func(c *models.ConsentRecord) bool {
		return f.Status == "" || c.Status == f.Status
	}, 0), nil
}

// PatientRepository implements repositories.PatientRepository
type PatientRepository struct {
	t *table[models.Patient]
}

// NewPatientRepository creates a new in-memory patient repository
func NewPatientRepository(rows []models.Patient) *PatientRepository {
	return &PatientRepository{t: newTable(rows,
		func(p *models.Patient) string { return p.ID },
		func(a, b *models.Patient) bool { return a.Name < b.Name },
	)}
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	if p, ok := r.t.get(id); ok {
		return p, nil
	}
	return nil, notFound("patient", id)
}

func (r *PatientRepository) List(ctx context.Context, f repositories.PatientFilter) ([]*models.Patient, error) {
	return r.t.list(func(p *models.Patient) bool {
		return f.Status == "" || p.Status == f.Status
	}, 0), nil
}

// ClinicalNoteRepository implements repositories.ClinicalNoteRepository
type ClinicalNoteRepository struct {
	t *table[models.ClinicalNote]
}

// NewClinicalNoteRepository creates a new in-memory clinical note repository
func NewClinicalNoteRepository(rows []models.ClinicalNote) *ClinicalNoteRepository {
	return &ClinicalNoteRepository{t: newTable(rows,
		func(n *models.ClinicalNote) string { return n.ID },
		func(a, b *models.ClinicalNote) bool { return a.Date.After(b.Date) },
	)}
}

func (r *ClinicalNoteRepository) GetByID(ctx context.Context, id string) (*models.ClinicalNote, error) {
	if n, ok := r.t.get(id); ok {
		return n, nil
	}
	return nil, notFound("clinical note", id)
}

func (r *ClinicalNoteRepository) List(ctx context.Context, f repositories.ClinicalNoteFilter) ([]*models.ClinicalNote, error) {
	return r.t.list(func(n *models.ClinicalNote) bool {
		return (f.PatientID == "" || n.PatientID == f.PatientID) &&
			(f.Type == "" || n.Type == f.Type)
	}, f.Limit), nil
}

// LabOrderRepository implements repositories.LabOrderRepository
type LabOrderRepository struct {
	t *table[models.LabOrder]
}

// NewLabOrderRepository creates a new in-memory lab order repository
func NewLabOrderRepository(rows []models.LabOrder) *LabOrderRepository {
	return &LabOrderRepository{t: newTable(rows,
		func(o *models.LabOrder) string { return o.ID },
		func(a, b *models.LabOrder) bool { return a.ReceivedAt.Before(b.ReceivedAt) },
	)}
}

func (r *LabOrderRepository) GetByID(ctx context.Context, id string) (*models.LabOrder, error) {
	if o, ok := r.t.get(id); ok {
		return o, nil
	}
	return nil, notFound("lab order", id)
}

func (r *LabOrderRepository) List(ctx context.Context, f repositories.LabOrderFilter) ([]*models.LabOrder, error) {
	return r.t.list(func(o *models.LabOrder) bool {
		return (f.Status == "" || o.Status == f.Status) &&
			(f.Priority == "" || o.Priority == f.Priority)
	}, 0), nil
}

// PrescriptionRepository implements repositories.PrescriptionRepository
type PrescriptionRepository struct {
	t *table[models.Prescription]
}

// NewPrescriptionRepository creates a new in-memory prescription repository
func NewPrescriptionRepository(rows []models.Prescription) *PrescriptionRepository {
	return &PrescriptionRepository{t: newTable(rows,
		func(p *models.Prescription) string { return p.ID },
		func(a, b *models.Prescription) bool { return a.Date.After(b.Date) },
	)}
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	if p, ok := r.t.get(id); ok {
		return p, nil
	}
	return nil, notFound("prescription", id)
}

func (r *PrescriptionRepository) List(ctx context.Context, f repositories.PrescriptionFilter) ([]*models.Prescription, error) {
	return r.t.list(func(p *models.Prescription) bool {
		return f.Status == "" || p.Status == f.Status
	}, 0), nil
}

// ConsultationRepository implements repositories.ConsultationRepository
type ConsultationRepository struct {
	t *table[models.TeleConsultation]
}

// NewConsultationRepository creates a new in-memory consultation repository
func NewConsultationRepository(rows []models.TeleConsultation) *ConsultationRepository {
	return &ConsultationRepository{t: newTable(rows,
		func(c *models.TeleConsultation) string { return c.ID },
		func(a, b *models.TeleConsultation) bool { return a.ScheduledTime.Before(b.ScheduledTime) },
	)}
}

func (r *ConsultationRepository) GetByID(ctx context.Context, id string) (*models.TeleConsultation, error) {
	if c, ok := r.t.get(id); ok {
		return c, nil
	}
	return nil, notFound("consultation", id)
}

func (r *ConsultationRepository) List(ctx context.Context, f repositories.ConsultationFilter) ([]*models.TeleConsultation, error) {
	return r.t.list(func(c *models.TeleConsultation) bool {
		return f.Status == "" || c.Status == f.Status
	}, 0), nil
}

// AccessEventRepository keeps the access audit trail in memory, indexed by
// session. Trails of the least recently active sessions are dropped once
// more than maxSessions are held, and each trail keeps only its newest
// perSession events.
type AccessEventRepository struct {
	mu         sync.Mutex
	trails     *lru.Cache[uuid.UUID, []*models.AccessEvent]
	perSession int
}

// NewAccessEventRepository creates an empty in-memory access event
// repository. Non-positive limits take the defaults.
func NewAccessEventRepository(maxSessions, perSession int) *AccessEventRepository {
	if maxSessions <= 0 {
		maxSessions = DefaultEventSessions
	}
	if perSession <= 0 {
		perSession = DefaultEventsPerSession
	}
	// lru.New only fails for a non-positive size
	trails, _ := lru.New[uuid.UUID, []*models.AccessEvent](maxSessions)
	return &AccessEventRepository{trails: trails, perSession: perSession}
}

func (r *AccessEventRepository) Insert(ctx context.Context, event *models.AccessEvent) error {
	if event == nil {
		return fmt.Errorf("access event is nil")
	}
	e := *event

	r.mu.Lock()
	defer r.mu.Unlock()

	trail, _ := r.trails.Get(e.SessionID)
	trail = append(trail, &e)
	if over := len(trail) - r.perSession; over > 0 {
		trail = append([]*models.AccessEvent(nil), trail[over:]...)
	}
	r.trails.Add(e.SessionID, trail)
	return nil
}

// Len returns the number of events held across all sessions
func (r *AccessEventRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, id := range r.trails.Keys() {
		trail, _ := r.trails.Peek(id)
		n += len(trail)
	}
	return n
}

func (r *AccessEventRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.AccessEvent, error) {
	r.mu.Lock()
	trail, _ := r.trails.Peek(sessionID)
	matched := make([]*models.AccessEvent, 0, len(trail))
	// walk backwards so equal timestamps keep newest-inserted first
	for i := len(trail) - 1; i >= 0; i-- {
		c := *trail[i]
		matched = append(matched, &c)
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*models.AccessEvent{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
