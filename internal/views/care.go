package views

import (
	"context"
	"fmt"
	"sort"

	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

// ClinicModel is the content of the clinic view
type ClinicModel struct {
	Patients          []*models.Patient      `json:"patients"`
	RecentNotes       []*models.ClinicalNote `json:"recent_notes"`
	UnverifiedNotes   int                    `json:"unverified_notes"`
	NonCompliantNotes int                    `json:"non_compliant_notes"`
}

// Clinic renders the clinical workspace
func (s *Set) Clinic(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	patients, err := s.repos.Patients.List(ctx, repositories.PatientFilter{Status: models.PatientActive})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	notes, err := s.repos.ClinicalNotes.List(ctx, repositories.ClinicalNoteFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical notes: %w", err)
	}

	recent := notes
	if len(recent) > defaultNotesLimit {
		recent = recent[:defaultNotesLimit]
	}

	// the counts cover every note, not only the recent ones shown
	model := &ClinicModel{Patients: patients, RecentNotes: recent}
	for _, n := range notes {
		if !n.Verified {
			model.UnverifiedNotes++
		}
		if !n.FHIRCompliant {
			model.NonCompliantNotes++
		}
	}

	return output(models.ViewClinic, "Clinical Workspace", model), nil
}

// LabModel is the content of the lab view
type LabModel struct {
	Queue    []*models.LabOrder            `json:"queue"`
	ByStatus map[models.LabOrderStatus]int `json:"by_status"`
}

// SortLabQueue orders by priority (stat first) then oldest received
func SortLabQueue(orders []*models.LabOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		ri, rj := orders[i].Priority.Rank(), orders[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return orders[i].ReceivedAt.Before(orders[j].ReceivedAt)
	})
}

// Lab renders the laboratory work queue. Completed orders are counted but
// not queued.
func (s *Set) Lab(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	orders, err := s.repos.LabOrders.List(ctx, repositories.LabOrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list lab orders: %w", err)
	}

	model := &LabModel{
		Queue:    make([]*models.LabOrder, 0, len(orders)),
		ByStatus: make(map[models.LabOrderStatus]int),
	}
	for _, o := range orders {
		model.ByStatus[o.Status]++
		if o.Status != models.LabOrderCompleted {
			model.Queue = append(model.Queue, o)
		}
	}
	SortLabQueue(model.Queue)

	return output(models.ViewLab, "Laboratory Queue", model), nil
}

// InteractionAlert is a high-severity interaction attached to a prescription
type InteractionAlert struct {
	PrescriptionID string             `json:"prescription_id"`
	PatientName    string             `json:"patient_name"`
	Medication     string             `json:"medication"`
	Interaction    models.Interaction `json:"interaction"`
}

// PharmacyModel is the content of the pharmacy view
type PharmacyModel struct {
	Prescriptions      []*models.Prescription `json:"prescriptions"`
	Flagged            int                    `json:"flagged"`
	Controlled         int                    `json:"controlled"`
	HighSeverityAlerts []InteractionAlert     `json:"high_severity_alerts"`
}

// Pharmacy renders the dispensing queue
func (s *Set) Pharmacy(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	rxs, err := s.repos.Prescriptions.List(ctx, repositories.PrescriptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	model := &PharmacyModel{Prescriptions: rxs, HighSeverityAlerts: []InteractionAlert{}}
	for _, rx := range rxs {
		if rx.Status == models.PrescriptionFlagged {
			model.Flagged++
		}
		if rx.IsControlled {
			model.Controlled++
		}
		for _, in := range rx.HighSeverityInteractions() {
			model.HighSeverityAlerts = append(model.HighSeverityAlerts, InteractionAlert{
				PrescriptionID: rx.ID,
				PatientName:    rx.PatientName,
				Medication:     rx.Medication,
				Interaction:    in,
			})
		}
	}

	return output(models.ViewPharmacy, "Pharmacy", model), nil
}

// TelemedicineModel is the content of the telemedicine view
type TelemedicineModel struct {
	Consultations  []*models.TeleConsultation `json:"consultations"`
	Waiting        int                        `json:"waiting"`
	DevicesOffline int                        `json:"devices_offline"`
}

// Telemedicine renders the virtual waiting room
func (s *Set) Telemedicine(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	consultations, err := s.repos.Consultations.List(ctx, repositories.ConsultationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	model := &TelemedicineModel{Consultations: consultations}
	for _, c := range consultations {
		if c.Status == models.ConsultationWaiting {
			model.Waiting++
		}
		if c.DeviceOffline() {
			model.DevicesOffline++
		}
	}

	return output(models.ViewTelemedicine, "Telemedicine", model), nil
}
