package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const labOrderColumns = "id, patient_name, patient_id, requester, test_name, priority, status, received_at, specimen_id"

// LabOrderRepository implements repositories.LabOrderRepository
type LabOrderRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLabOrderRepository creates a new lab order repository
func NewLabOrderRepository(db *DB, logger *zap.Logger) repositories.LabOrderRepository {
	return &LabOrderRepository{
		db:     db,
		logger: logger,
	}
}

func scanLabOrder(s scanner) (*models.LabOrder, error) {
	o := &models.LabOrder{}
	err := s.Scan(
		&o.ID,
		&o.PatientName,
		&o.PatientID,
		&o.Requester,
		&o.TestName,
		&o.Priority,
		&o.Status,
		&o.ReceivedAt,
		&o.SpecimenID,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID retrieves a lab order by ID
func (r *LabOrderRepository) GetByID(ctx context.Context, id string) (*models.LabOrder, error) {
	query := "SELECT " + labOrderColumns + " FROM lab_orders WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	o, err := scanLabOrder(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lab order %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lab order: %w", err)
	}
	return o, nil
}

// List retrieves lab orders oldest received first
func (r *LabOrderRepository) List(ctx context.Context, lf repositories.LabOrderFilter) ([]*models.LabOrder, error) {
	var f filter
	f.eq("status", string(lf.Status))
	f.eq("priority", string(lf.Priority))
	query := "SELECT " + labOrderColumns + " FROM lab_orders" + f.where() + " ORDER BY received_at"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.LabOrder, 0)
	for rows.Next() {
		o, err := scanLabOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab orders: %w", err)
	}
	return orders, nil
}
