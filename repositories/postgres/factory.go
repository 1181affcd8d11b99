package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/wellirecord/connect/config"
	"github.com/wellirecord/connect/repositories"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool and optionally creates the schema
func NewRepositoryFactory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return newRepositories(f.db, f.logger)
}

func newRepositories(db *DB, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Systems:       NewSystemRepository(db, logger),
		Activities:    NewActivityRepository(db, logger),
		Consents:      NewConsentRepository(db, logger),
		Patients:      NewPatientRepository(db, logger),
		ClinicalNotes: NewClinicalNoteRepository(db, logger),
		LabOrders:     NewLabOrderRepository(db, logger),
		Prescriptions: NewPrescriptionRepository(db, logger),
		Consultations: NewConsultationRepository(db, logger),
		AccessEvents:  NewAccessEventRepository(db, logger),
	}
}

// Seeder returns a seeder bound to the factory's pool
func (f *RepositoryFactory) Seeder() *Seeder {
	return NewSeeder(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
