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

const consentColumns = "id, provider_name, provider_type, trust_score, last_access, scopes, status"

// ConsentRepository implements repositories.ConsentRepository
type ConsentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewConsentRepository creates a new consent record repository
func NewConsentRepository(db *DB, logger *zap.Logger) repositories.ConsentRepository {
	return &ConsentRepository{
		db:     db,
		logger: logger,
	}
}

func scanConsent(s scanner) (*models.ConsentRecord, error) {
	c := &models.ConsentRecord{}
	var scopes []byte
	err := s.Scan(
		&c.ID,
		&c.ProviderName,
		&c.ProviderType,
		&c.TrustScore,
		&c.LastAccess,
		&scopes,
		&c.Status,
	)
	if err != nil {
		return nil, err
	}
	if len(scopes) > 0 {
		if err := json.Unmarshal(scopes, &c.Scopes); err != nil {
			return nil, fmt.Errorf("failed to decode consent scopes: %w", err)
		}
	}
	return c, nil
}

// GetByID retrieves a consent record by ID
func (r *ConsentRepository) GetByID(ctx context.Context, id string) (*models.ConsentRecord, error) {
	query := "SELECT " + consentColumns + " FROM consent_records WHERE id = $1"

	executor := GetExecutor(ctx, r.db)
	c, err := scanConsent(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("consent record %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get consent record: %w", err)
	}
	return c, nil
}

// List retrieves consent records most recently accessed first
func (r *ConsentRepository) List(ctx context.Context, cf repositories.ConsentFilter) ([]*models.ConsentRecord, error) {
	var f filter
	f.eq("status", string(cf.Status))
	query := "SELECT " + consentColumns + " FROM consent_records" + f.where() + " ORDER BY last_access DESC"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consent records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ConsentRecord, 0)
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consent record: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating consent records: %w", err)
	}
	return records, nil
}
