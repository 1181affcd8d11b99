package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wellirecord/connect/config"
	"github.com/wellirecord/connect/handlers"
	"github.com/wellirecord/connect/internal/access"
	"github.com/wellirecord/connect/internal/auth"
	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/internal/views"
	"github.com/wellirecord/connect/middleware"
	"github.com/wellirecord/connect/repositories"
	"github.com/wellirecord/connect/repositories/memory"
	"github.com/wellirecord/connect/repositories/postgres"
	"github.com/wellirecord/connect/services/audit"
	"github.com/wellirecord/connect/services/ratelimit"
	"github.com/wellirecord/connect/services/session"
	"go.uber.org/zap"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics
	StartedAt time.Time

	// Storage. RepoFactory is nil when running on the in-memory dataset.
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	Storage     string

	// Access control
	Table      *access.PermissionTable
	Controller *access.Controller
	Dispatcher *dispatch.Dispatcher

	// Services
	Audit       *audit.AuditService
	Sessions    *session.Service
	Tokens      *auth.TokenIssuer
	RateLimiter *ratelimit.RateLimitService

	// HTTP
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	SessionHandler      *handlers.SessionHandler
	PermissionHandler   *handlers.PermissionHandler
	HealthHandler       *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	deps.initMetrics()

	if err := deps.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := deps.initAccess(ctx); err != nil {
		deps.closeStorage()
		return nil, fmt.Errorf("failed to initialize access control: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.closeStorage()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP()

	logger.Info("all dependencies initialized successfully",
		zap.String("storage", deps.Storage),
		zap.Int("roles", len(deps.Table.Roles())))
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initStorage connects to PostgreSQL when configured and otherwise loads
// the YAML dataset into memory.
func (d *Dependencies) initStorage(ctx context.Context) error {
	if d.Config.Database != nil {
		factory, err := postgres.NewRepositoryFactory(ctx, *d.Config.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.Repos = factory.NewRepositories()
		d.Storage = storagePostgres
		d.Logger.Info("repositories initialized", zap.String("storage", storagePostgres))
		return nil
	}

	ds, err := LoadDataset(d.Config.Data)
	if err != nil {
		return err
	}
	// trails outlive sessions, so retain more of them than the store holds
	d.Repos = memory.NewRepositories(ds,
		memory.WithEventRetention(2*d.Config.Session.MaxSessions, memory.DefaultEventsPerSession))
	d.Storage = storageMemory
	d.Logger.Info("repositories initialized",
		zap.String("storage", storageMemory),
		zap.String("fixtures", d.Config.Data.FixturesFile),
		zap.Bool("rebased", d.Config.Data.Rebase))
	return nil
}

// LoadDataset reads the fixtures file, or the embedded demo dataset when
// none is configured, and rebases its timestamps when asked to.
func LoadDataset(cfg config.DataConfig) (*memory.Dataset, error) {
	var (
		ds  *memory.Dataset
		err error
	)
	if cfg.FixturesFile != "" {
		ds, err = memory.LoadDataset(cfg.FixturesFile)
	} else {
		ds, err = memory.SeedDataset()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	if cfg.Rebase {
		ds.Rebase(time.Now())
	}
	return ds, nil
}

// PolicySource returns the configured permission table source
func PolicySource(cfg config.AccessConfig) access.PolicySource {
	if cfg.PolicyFile != "" {
		return access.FileSource{Path: cfg.PolicyFile}
	}
	return access.StaticSource{Policy: access.DefaultPolicy()}
}

func (d *Dependencies) initAccess(ctx context.Context) error {
	table, err := access.LoadTable(ctx, PolicySource(d.Config.Access))
	if err != nil {
		return err
	}

	set := views.New(d.Repos, views.WithDefaultLanguage(d.Config.Session.DefaultLanguage))
	dispatcher, err := dispatch.NewDispatcher(set.Renderers())
	if err != nil {
		return err
	}

	if err := table.CheckCoverage(dispatcher.Views()); err != nil {
		return err
	}

	d.Table = table
	d.Controller = access.NewController(table)
	d.Dispatcher = dispatcher
	d.Logger.Info("permission table loaded",
		zap.String("policy_file", d.Config.Access.PolicyFile),
		zap.Int("views", len(dispatcher.Views())))
	return nil
}

func (d *Dependencies) initServices() error {
	obs := d.Config.Observability

	d.Audit = audit.NewAuditService(d.Repos.AccessEvents, d.Logger, audit.Config{
		BufferSize:  obs.AuditBufferSize,
		WorkerCount: obs.AuditWorkers,
	})
	d.Audit.OnDrop(d.Metrics.RecordAuditDropped)
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	sessions, err := session.NewService(session.Config{
		TTL:             d.Config.Session.TTL,
		MaxSessions:     d.Config.Session.MaxSessions,
		DefaultRole:     d.Config.Session.DefaultRole,
		DefaultLanguage: d.Config.Session.DefaultLanguage,
	}, d.Controller, d.Dispatcher, d.Audit, d.Repos.AccessEvents, d.Metrics, d.Logger)
	if err != nil {
		d.stopAudit()
		return err
	}
	d.Sessions = sessions

	tokens, err := auth.NewTokenIssuer(d.Config.Session.TokenSecret, d.Config.Session.TokenIssuer, d.Config.Session.TTL)
	if err != nil {
		d.stopAudit()
		return err
	}
	d.Tokens = tokens

	if d.Config.RateLimit.Enabled {
		limiter, err := ratelimit.NewRateLimitService(ratelimit.Config{
			RequestsPerSecond: d.Config.RateLimit.RPS,
			Burst:             d.Config.RateLimit.Burst,
		}, d.Logger)
		if err != nil {
			d.stopAudit()
			return err
		}
		d.RateLimiter = limiter
	}

	return nil
}

func (d *Dependencies) initHTTP() {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Logger)
	if d.RateLimiter != nil {
		d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(d.RateLimiter, d.Metrics, d.Logger)
	}

	d.SessionHandler = handlers.NewSessionHandler(d.Sessions, d.Tokens, d.Config.Server.TLS.Enabled, d.Logger)
	d.PermissionHandler = handlers.NewPermissionHandler(d.Table, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.sqlDB(), handlers.StatusSources{
		Environment: d.Config.Environment,
		Storage:     d.Storage,
		StartedAt:   d.StartedAt,
		Table:       d.Table,
		Sessions:    d.Sessions,
		Audit:       d.Audit,
	}, d.Logger)
}

func (d *Dependencies) sqlDB() *sql.DB {
	if d.RepoFactory == nil {
		return nil
	}
	return d.RepoFactory.GetDB().DB
}

func (d *Dependencies) stopAudit() {
	if err := d.Audit.Stop(d.Config.Server.ShutdownTimeout); err != nil {
		d.Logger.Warn("audit service did not stop cleanly", zap.Error(err))
	}
}

func (d *Dependencies) closeStorage() {
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}

// Close gracefully shuts down all dependencies. The audit queue is
// drained before the database closes.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	timeout := d.Config.Server.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if d.Audit != nil {
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
