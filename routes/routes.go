package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/wellirecord/connect/app"
	"github.com/wellirecord/connect/middleware"
	"github.com/wellirecord/connect/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.Observability.MetricsEnabled {
		r.Use(deps.Metrics.Middleware)
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-Session-Token", "X-Session-Expires-At"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if cfg.Observability.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.RateLimitMiddleware != nil {
			r.Use(deps.RateLimitMiddleware.Limit)
		}

		// Public routes
		r.Get("/status", deps.HealthHandler.HandleStatus)
		r.Get("/roles", deps.PermissionHandler.HandleListRoles)
		r.Get("/roles/{role}/views", deps.PermissionHandler.HandleRoleViews)
		r.Post("/sessions", deps.SessionHandler.HandleCreate)

		// Session routes (require a session token)
		r.Route("/session", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireSession)
			r.Get("/", deps.SessionHandler.HandleGet)
			r.Delete("/", deps.SessionHandler.HandleEnd)
			r.Post("/refresh", deps.SessionHandler.HandleRefresh)
			r.Put("/role", deps.SessionHandler.HandleChangeRole)
			r.Put("/view", deps.SessionHandler.HandleRequestView)
			r.Put("/language", deps.SessionHandler.HandleChangeLanguage)
			r.Get("/navigation", deps.SessionHandler.HandleNavigation)
			r.Get("/content", deps.SessionHandler.HandleContent)
			r.Get("/events", deps.SessionHandler.HandleEvents)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusMethodNotAllowed, utils.ErrorResponse{
			Error:   "method_not_allowed",
			Message: "method not allowed",
		})
	})

	return r
}
