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

const activityColumns = "id, type, message, timestamp, source, status"

// ActivityRepository implements repositories.ActivityRepository
type ActivityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity feed repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

func scanActivity(s scanner) (*models.ActivityLog, error) {
	a := &models.ActivityLog{}
	if err := s.Scan(&a.ID, &a.Type, &a.Message, &a.Timestamp, &a.Source, &a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an activity entry by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.ActivityLog, error) {
	query := "SELECT " + activityColumns + " FROM activity_logs WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	a, err := scanActivity(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("activity %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// List retrieves activity entries newest first
func (r *ActivityRepository) List(ctx context.Context, af repositories.ActivityFilter) ([]*models.ActivityLog, error) {
	var f filter
	f.eq("type", string(af.Type))
	f.eq("status", string(af.Status))
	if !af.Since.IsZero() {
		f.add("timestamp >= $%d", af.Since)
	}
	where := f.where()
	query := "SELECT " + activityColumns + " FROM activity_logs" + where + " ORDER BY timestamp DESC" + f.limit(af.Limit)

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ActivityLog, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return entries, nil
}
