package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/wellirecord/connect/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the dashboard tables when they do not exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS system_nodes (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		last_sync TIMESTAMPTZ NOT NULL,
		health_score INTEGER NOT NULL DEFAULT 0,
		region VARCHAR(64) NOT NULL DEFAULT '',
		ip_address VARCHAR(45) NOT NULL DEFAULT '',
		version VARCHAR(64) NOT NULL DEFAULT '',
		latency_ms INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id VARCHAR(64) PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		message TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		source VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS consent_records (
		id VARCHAR(64) PRIMARY KEY,
		provider_name VARCHAR(255) NOT NULL,
		provider_type VARCHAR(64) NOT NULL,
		trust_score INTEGER NOT NULL DEFAULT 0,
		last_access TIMESTAMPTZ NOT NULL,
		scopes JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(32) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patients (
		id VARCHAR(64) PRIMARY KEY,
		did VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		dob VARCHAR(16) NOT NULL DEFAULT '',
		gender VARCHAR(32) NOT NULL DEFAULT '',
		blood_type VARCHAR(8) NOT NULL DEFAULT '',
		allergies TEXT[] NOT NULL DEFAULT '{}',
		last_visit TIMESTAMPTZ NOT NULL,
		status VARCHAR(32) NOT NULL,
		fhir_compliant BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS clinical_notes (
		id VARCHAR(64) PRIMARY KEY,
		patient_id VARCHAR(64) NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		provider VARCHAR(255) NOT NULL,
		role VARCHAR(64) NOT NULL,
		type VARCHAR(32) NOT NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		signed_at TIMESTAMPTZ NOT NULL,
		signature_hash VARCHAR(255) NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT false,
		fhir_compliant BOOLEAN NOT NULL DEFAULT false,
		fhir_issues TEXT[] NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS lab_orders (
		id VARCHAR(64) PRIMARY KEY,
		patient_name VARCHAR(255) NOT NULL,
		patient_id VARCHAR(64) NOT NULL,
		requester VARCHAR(255) NOT NULL,
		test_name VARCHAR(255) NOT NULL,
		priority VARCHAR(16) NOT NULL,
		status VARCHAR(32) NOT NULL,
		received_at TIMESTAMPTZ NOT NULL,
		specimen_id VARCHAR(64) NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS prescriptions (
		id VARCHAR(64) PRIMARY KEY,
		patient_name VARCHAR(255) NOT NULL,
		patient_id VARCHAR(64) NOT NULL,
		provider VARCHAR(255) NOT NULL,
		medication VARCHAR(255) NOT NULL,
		generic_name VARCHAR(255) NOT NULL DEFAULT '',
		dosage VARCHAR(64) NOT NULL,
		instructions TEXT NOT NULL DEFAULT '',
		date TIMESTAMPTZ NOT NULL,
		status VARCHAR(32) NOT NULL,
		type VARCHAR(16) NOT NULL,
		refills_remaining INTEGER NOT NULL DEFAULT 0,
		interactions JSONB NOT NULL DEFAULT '[]',
		is_controlled BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS tele_consultations (
		id VARCHAR(64) PRIMARY KEY,
		patient_name VARCHAR(255) NOT NULL,
		patient_id VARCHAR(64) NOT NULL,
		scheduled_time TIMESTAMPTZ NOT NULL,
		status VARCHAR(32) NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		remote_vitals JSONB,
		symptoms TEXT[] NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS access_events (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		role VARCHAR(32) NOT NULL,
		view VARCHAR(32) NOT NULL DEFAULT '',
		previous_view VARCHAR(32) NOT NULL DEFAULT '',
		details JSONB,
		request_id VARCHAR(255) NOT NULL DEFAULT '',
		ip_address VARCHAR(45) NOT NULL DEFAULT '',
		timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_system_nodes_status ON system_nodes(status);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_type_status ON activity_logs(type, status);
	CREATE INDEX IF NOT EXISTS idx_clinical_notes_patient_id ON clinical_notes(patient_id);
	CREATE INDEX IF NOT EXISTS idx_lab_orders_status ON lab_orders(status);
	CREATE INDEX IF NOT EXISTS idx_prescriptions_status ON prescriptions(status);
	CREATE INDEX IF NOT EXISTS idx_tele_consultations_scheduled ON tele_consultations(scheduled_time);
	CREATE INDEX IF NOT EXISTS idx_access_events_session_id ON access_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_access_events_timestamp ON access_events(timestamp);
`
