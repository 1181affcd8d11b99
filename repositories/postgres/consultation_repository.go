package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const consultationColumns = "id, patient_name, patient_id, scheduled_time, status, reason, remote_vitals, symptoms"

// ConsultationRepository implements repositories.ConsultationRepository
type ConsultationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewConsultationRepository creates a new teleconsultation repository
func NewConsultationRepository(db *DB, logger *zap.Logger) repositories.ConsultationRepository {
	return &ConsultationRepository{
		db:     db,
		logger: logger,
	}
}

func scanConsultation(s scanner) (*models.TeleConsultation, error) {
	c := &models.TeleConsultation{}
	var vitals []byte
	err := s.Scan(
		&c.ID,
		&c.PatientName,
		&c.PatientID,
		&c.ScheduledTime,
		&c.Status,
		&c.Reason,
		&vitals,
		pq.Array(&c.Symptoms),
	)
	if err != nil {
		return nil, err
	}
	// remote_vitals is NULL for visits without a monitoring device
	if len(vitals) > 0 {
		c.RemoteVitals = &models.RemoteVitals{}
		if err := json.Unmarshal(vitals, c.RemoteVitals); err != nil {
			return nil, fmt.Errorf("failed to decode remote vitals: %w", err)
		}
	}
	return c, nil
}

// GetByID retrieves a consultation by ID
func (r *ConsultationRepository) GetByID(ctx context.Context, id string) (*models.TeleConsultation, error) {
	query := "SELECT " + consultationColumns + " FROM tele_consultations WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	c, err := scanConsultation(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("consultation %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return c, nil
}

// List retrieves consultations by scheduled time
func (r *ConsultationRepository) List(ctx context.Context, cf repositories.ConsultationFilter) ([]*models.TeleConsultation, error) {
	var f filter
	f.eq("status", string(cf.Status))
	query := "SELECT " + consultationColumns + " FROM tele_consultations" + f.where() + " ORDER BY scheduled_time"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	consultations := make([]*models.TeleConsultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		consultations = append(consultations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating consultations: %w", err)
	}
	return consultations, nil
}
