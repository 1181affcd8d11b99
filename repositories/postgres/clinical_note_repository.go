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

const clinicalNoteColumns = "id, patient_id, date, provider, role, type, title, content, signed_at, signature_hash, verified, fhir_compliant, fhir_issues"

// ClinicalNoteRepository implements repositories.ClinicalNoteRepository
type ClinicalNoteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewClinicalNoteRepository creates a new clinical note repository
func NewClinicalNoteRepository(db *DB, logger *zap.Logger) repositories.ClinicalNoteRepository {
	return &ClinicalNoteRepository{
		db:     db,
		logger: logger,
	}
}

func scanClinicalNote(s scanner) (*models.ClinicalNote, error) {
	n := &models.ClinicalNote{}
	err := s.Scan(
		&n.ID,
		&n.PatientID,
		&n.Date,
		&n.Provider,
		&n.Role,
		&n.Type,
		&n.Title,
		&n.Content,
		&n.SignedAt,
		&n.SignatureHash,
		&n.Verified,
		&n.FHIRCompliant,
		pq.Array(&n.FHIRIssues),
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetByID retrieves a clinical note by ID
func (r *ClinicalNoteRepository) GetByID(ctx context.Context, id string) (*models.ClinicalNote, error) {
	query := "SELECT " + clinicalNoteColumns + " FROM clinical_notes WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	n, err := scanClinicalNote(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("clinical note %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get clinical note: %w", err)
	}
	return n, nil
}

// List retrieves clinical notes newest first
func (r *ClinicalNoteRepository) List(ctx context.Context, nf repositories.ClinicalNoteFilter) ([]*models.ClinicalNote, error) {
	var f filter
	f.eq("patient_id", nf.PatientID)
	f.eq("type", string(nf.Type))
	where := f.where()
	query := "SELECT " + clinicalNoteColumns + " FROM clinical_notes" + where + " ORDER BY date DESC" + f.limit(nf.Limit)

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clinical notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.ClinicalNote, 0)
	for rows.Next() {
		n, err := scanClinicalNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clinical note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clinical notes: %w", err)
	}
	return notes, nil
}
