package memory

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wellirecord/connect/models"
)

//go:embed seed.yaml
var seedData []byte

// Dataset is the entity data served by the in-memory repositories
type Dataset struct {
	// Anchor is the reference instant the fixture timestamps were written against.
	// Rebase shifts every timestamp by the distance between Anchor and now.
	Anchor        time.Time                 `yaml:"anchor"`
	Systems       []models.SystemNode       `yaml:"systems"`
	Activities    []models.ActivityLog      `yaml:"activities"`
	Consents      []models.ConsentRecord    `yaml:"consents"`
	Patients      []models.Patient          `yaml:"patients"`
	ClinicalNotes []models.ClinicalNote     `yaml:"clinical_notes"`
	LabOrders     []models.LabOrder         `yaml:"lab_orders"`
	Prescriptions []models.Prescription     `yaml:"prescriptions"`
	Consultations []models.TeleConsultation `yaml:"consultations"`
}

// ParseDataset decodes a YAML dataset and checks that IDs are unique per collection
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// LoadDataset reads a YAML dataset from disk
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return ParseDataset(data)
}

// SeedDataset returns the embedded demo dataset
func SeedDataset() (*Dataset, error) {
	return ParseDataset(seedData)
}

func (d *Dataset) validate() error {
	checks := []struct {
		name string
		ids  []string
	}{
		{"systems", collectIDs(d.Systems, func(v models.SystemNode) string { return v.ID })},
		{"activities", collectIDs(d.Activities, func(v models.ActivityLog) string { return v.ID })},
		{"consents", collectIDs(d.Consents, func(v models.ConsentRecord) string { return v.ID })},
		{"patients", collectIDs(d.Patients, func(v models.Patient) string { return v.ID })},
		{"clinical_notes", collectIDs(d.ClinicalNotes, func(v models.ClinicalNote) string { return v.ID })},
		{"lab_orders", collectIDs(d.LabOrders, func(v models.LabOrder) string { return v.ID })},
		{"prescriptions", collectIDs(d.Prescriptions, func(v models.Prescription) string { return v.ID })},
		{"consultations", collectIDs(d.Consultations, func(v models.TeleConsultation) string { return v.ID })},
	}
	for _, c := range checks {
		seen := make(map[string]struct{}, len(c.ids))
		for _, id := range c.ids {
			if id == "" {
				return fmt.Errorf("dataset %s: entry without id", c.name)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("dataset %s: duplicate id %q", c.name, id)
			}
			seen[id] = struct{}{}
		}
	}

	for _, p := range d.Prescriptions {
		if p.Type != models.PrescriptionNew && p.Type != models.PrescriptionRefill {
			return fmt.Errorf("dataset prescriptions: %s has unknown type %q", p.ID, p.Type)
		}
		for _, in := range p.Interactions {
			if !in.Type.IsValid() {
				return fmt.Errorf("dataset prescriptions: %s has unknown interaction type %q", p.ID, in.Type)
			}
			if !in.Severity.IsValid() {
				return fmt.Errorf("dataset prescriptions: %s has unknown interaction severity %q", p.ID, in.Severity)
			}
		}
	}
	return nil
}

func collectIDs[T any](rows []T, id func(T) string) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = id(r)
	}
	return ids
}

// Rebase moves every timestamp so that Anchor becomes now.
// A dataset without an anchor is left as is.
func (d *Dataset) Rebase(now time.Time) {
	if d.Anchor.IsZero() {
		return
	}
	delta := now.Sub(d.Anchor)
	shift := func(t *time.Time) {
		if !t.IsZero() {
			*t = t.Add(delta)
		}
	}

	for i := range d.Systems {
		shift(&d.Systems[i].LastSync)
	}
	for i := range d.Activities {
		shift(&d.Activities[i].Timestamp)
	}
	for i := range d.Consents {
		shift(&d.Consents[i].LastAccess)
	}
	for i := range d.Patients {
		shift(&d.Patients[i].LastVisit)
	}
	for i := range d.ClinicalNotes {
		shift(&d.ClinicalNotes[i].Date)
		shift(&d.ClinicalNotes[i].SignedAt)
	}
	for i := range d.LabOrders {
		shift(&d.LabOrders[i].ReceivedAt)
	}
	for i := range d.Prescriptions {
		shift(&d.Prescriptions[i].Date)
	}
	for i := range d.Consultations {
		shift(&d.Consultations[i].ScheduledTime)
		if v := d.Consultations[i].RemoteVitals; v != nil {
			shift(&v.LastUpdate)
		}
	}
	d.Anchor = now
}
