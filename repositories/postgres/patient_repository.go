package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const patientColumns = "id, did, name, dob, gender, blood_type, allergies, last_visit, status, fhir_compliant"

// PatientRepository implements repositories.PatientRepository
type PatientRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *DB, logger *zap.Logger) repositories.PatientRepository {
	return &PatientRepository{
		db:     db,
		logger: logger,
	}
}

func scanPatient(s scanner) (*models.Patient, error) {
	p := &models.Patient{}
	err := s.Scan(
		&p.ID,
		&p.DID,
		&p.Name,
		&p.DateOfBirth,
		&p.Gender,
		&p.BloodType,
		pq.Array(&p.Allergies),
		&p.LastVisit,
		&p.Status,
		&p.FHIRCompliant,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a patient by ID
func (r *PatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	query := "SELECT " + patientColumns + " FROM patients WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	p, err := scanPatient(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// List retrieves patients ordered by name
func (r *PatientRepository) List(ctx context.Context, pf repositories.PatientFilter) ([]*models.Patient, error) {
	var f filter
	f.eq("status", string(pf.Status))
	query := "SELECT " + patientColumns + " FROM patients" + f.where() + " ORDER BY name"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := make([]*models.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}
	return patients, nil
}
