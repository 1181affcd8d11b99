package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const accessEventColumns = "id, session_id, action, role, view, previous_view, details, request_id, ip_address, timestamp"

// AccessEventRepository implements repositories.AccessEventRepository
type AccessEventRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAccessEventRepository creates a new access event repository
func NewAccessEventRepository(db *DB, logger *zap.Logger) repositories.AccessEventRepository {
	return &AccessEventRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new access event
func (r *AccessEventRepository) Insert(ctx context.Context, event *models.AccessEvent) error {
	if event == nil {
		return fmt.Errorf("access event is nil")
	}

	query := "INSERT INTO access_events (" + accessEventColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"

	var details interface{}
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		event.Action,
		event.Role,
		event.View,
		event.Previous,
		details,
		event.RequestID,
		event.IPAddress,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert access event: %w", err)
	}

	r.logger.Debug("access event inserted",
		zap.String("id", event.ID.String()),
		zap.String("action", string(event.Action)))
	return nil
}

// GetBySessionID retrieves events for a session newest first
func (r *AccessEventRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*models.AccessEvent, error) {
	query := "SELECT " + accessEventColumns + " FROM access_events WHERE session_id = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query access events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.AccessEvent, 0)
	for rows.Next() {
		e := &models.AccessEvent{}
		var details []byte
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Action,
			&e.Role,
			&e.View,
			&e.Previous,
			&details,
			&e.RequestID,
			&e.IPAddress,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan access event: %w", err)
		}
		e.Details = details
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access events: %w", err)
	}
	return events, nil
}
