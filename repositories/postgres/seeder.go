package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wellirecord/connect/repositories/memory"
)

// Seeder loads a fixture dataset into the entity tables
type Seeder struct {
	db     *DB
	tx     *TransactionManager
	logger *zap.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(db *DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		tx:     NewTransactionManager(db, logger),
		logger: logger,
	}
}

// Seed inserts every row of ds in one transaction. Rows whose ID already
// exists are left untouched. It returns the number of rows written.
func (s *Seeder) Seed(ctx context.Context, ds *memory.Dataset) (int, error) {
	written := 0
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)
		insert := func(table, query string, args ...interface{}) error {
			res, err := exec.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", table, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				written += int(n)
			}
			return nil
		}

		for _, n := range ds.Systems {
			if err := insert("system_nodes",
				"INSERT INTO system_nodes ("+systemColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (id) DO NOTHING",
				n.ID, n.Name, n.Type, n.Status, n.LastSync, n.HealthScore, n.Region, n.IPAddress, n.Version, n.LatencyMs, n.ErrorMessage,
			); err != nil {
				return err
			}
		}

		for _, a := range ds.Activities {
			if err := insert("activity_logs",
				"INSERT INTO activity_logs ("+activityColumns+") VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING",
				a.ID, a.Type, a.Message, a.Timestamp, a.Source, a.Status,
			); err != nil {
				return err
			}
		}

		for _, c := range ds.Consents {
			scopes, err := jsonColumn(c.Scopes)
			if err != nil {
				return err
			}
			if err := insert("consent_records",
				"INSERT INTO consent_records ("+consentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING",
				c.ID, c.ProviderName, c.ProviderType, c.TrustScore, c.LastAccess, scopes, c.Status,
			); err != nil {
				return err
			}
		}

		for _, p := range ds.Patients {
			if err := insert("patients",
				"INSERT INTO patients ("+patientColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (id) DO NOTHING",
				p.ID, p.DID, p.Name, p.DateOfBirth, p.Gender, p.BloodType, textArray(p.Allergies), p.LastVisit, p.Status, p.FHIRCompliant,
			); err != nil {
				return err
			}
		}

		for _, n := range ds.ClinicalNotes {
			if err := insert("clinical_notes",
				"INSERT INTO clinical_notes ("+clinicalNoteColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) ON CONFLICT (id) DO NOTHING",
				n.ID, n.PatientID, n.Date, n.Provider, n.Role, n.Type, n.Title, n.Content, n.SignedAt, n.SignatureHash, n.Verified, n.FHIRCompliant, textArray(n.FHIRIssues),
			); err != nil {
				return err
			}
		}

		for _, o := range ds.LabOrders {
			if err := insert("lab_orders",
				"INSERT INTO lab_orders ("+labOrderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO NOTHING",
				o.ID, o.PatientName, o.PatientID, o.Requester, o.TestName, o.Priority, o.Status, o.ReceivedAt, o.SpecimenID,
			); err != nil {
				return err
			}
		}

		for _, p := range ds.Prescriptions {
			interactions, err := jsonColumn(p.Interactions)
			if err != nil {
				return err
			}
			if err := insert("prescriptions",
				"INSERT INTO prescriptions ("+prescriptionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) ON CONFLICT (id) DO NOTHING",
				p.ID, p.PatientName, p.PatientID, p.Provider, p.Medication, p.GenericName, p.Dosage, p.Instructions, p.Date, p.Status, p.Type, p.RefillsRemaining, interactions, p.IsControlled,
			); err != nil {
				return err
			}
		}

		for _, c := range ds.Consultations {
			var vitals interface{}
			if c.RemoteVitals != nil {
				data, err := jsonColumn(c.RemoteVitals)
				if err != nil {
					return err
				}
				vitals = data
			}
			if err := insert("tele_consultations",
				"INSERT INTO tele_consultations ("+consultationColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING",
				c.ID, c.PatientName, c.PatientID, c.ScheduledTime, c.Status, c.Reason, vitals, textArray(c.Symptoms),
			); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("dataset seeded", zap.Int("rows", written))
	return written, nil
}
