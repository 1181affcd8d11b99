package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const prescriptionColumns = "id, patient_name, patient_id, provider, medication, generic_name, dosage, instructions, date, status, type, refills_remaining, interactions, is_controlled"

// PrescriptionRepository implements repositories.PrescriptionRepository
type PrescriptionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPrescriptionRepository creates a new prescription repository
func NewPrescriptionRepository(db *DB, logger *zap.Logger) repositories.PrescriptionRepository {
	return &PrescriptionRepository{
		db:     db,
		logger: logger,
	}
}

func scanPrescription(s scanner) (*models.Prescription, error) {
	p := &models.Prescription{}
	var interactions []byte
	err := s.Scan(
		&p.ID,
		&p.PatientName,
		&p.PatientID,
		&p.Provider,
		&p.Medication,
		&p.GenericName,
		&p.Dosage,
		&p.Instructions,
		&p.Date,
		&p.Status,
		&p.Type,
		&p.RefillsRemaining,
		&interactions,
		&p.IsControlled,
	)
	if err != nil {
		return nil, err
	}
	if len(interactions) > 0 {
		if err := json.Unmarshal(interactions, &p.Interactions); err != nil {
			return nil, fmt.Errorf("failed to decode interactions: %w", err)
		}
	}
	return p, nil
}

// GetByID retrieves a prescription by ID
func (r *PrescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	query := "SELECT " + prescriptionColumns + " FROM prescriptions WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	p, err := scanPrescription(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("prescription %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return p, nil
}

// List retrieves prescriptions newest first
func (r *PrescriptionRepository) List(ctx context.Context, pf repositories.PrescriptionFilter) ([]*models.Prescription, error) {
	var f filter
	f.eq("status", string(pf.Status))
	query := "SELECT " + prescriptionColumns + " FROM prescriptions" + f.where() + " ORDER BY date DESC"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	prescriptions := make([]*models.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		prescriptions = append(prescriptions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prescriptions: %w", err)
	}
	return prescriptions, nil
}
