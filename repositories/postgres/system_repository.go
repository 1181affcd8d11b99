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

const systemColumns = "id, name, type, status, last_sync, health_score, region, ip_address, version, latency_ms, error_message"

// SystemRepository implements repositories.SystemRepository
type SystemRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSystemRepository creates a new system node repository
func NewSystemRepository(db *DB, logger *zap.Logger) repositories.SystemRepository {
	return &SystemRepository{
		db:     db,
		logger: logger,
	}
}

func scanSystemNode(s scanner) (*models.SystemNode, error) {
	n := &models.SystemNode{}
	err := s.Scan(
		&n.ID,
		&n.Name,
		&n.Type,
		&n.Status,
		&n.LastSync,
		&n.HealthScore,
		&n.Region,
		&n.IPAddress,
		&n.Version,
		&n.LatencyMs,
		&n.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetByID retrieves a system node by ID
func (r *SystemRepository) GetByID(ctx context.Context, id string) (*models.SystemNode, error) {
	query := "SELECT " + systemColumns + " FROM system_nodes WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	n, err := scanSystemNode(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("system node %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get system node: %w", err)
	}
	return n, nil
}

// List retrieves system nodes matching the filter ordered by ID
func (r *SystemRepository) List(ctx context.Context, sf repositories.SystemFilter) ([]*models.SystemNode, error) {
	var f filter
	f.eq("type", string(sf.Type))
	f.eq("status", string(sf.Status))
	f.eq("region", sf.Region)
	query := "SELECT " + systemColumns + " FROM system_nodes" + f.where() + " ORDER BY id"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query system nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]*models.SystemNode, 0)
	for rows.Next() {
		n, err := scanSystemNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan system node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system nodes: %w", err)
	}

	r.logger.Debug("system nodes listed", zap.Int("count", len(nodes)))
	return nodes, nil
}
