package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/api/middleware"
	"github.com/reelboard/reelboard/internal/auth"
	"github.com/reelboard/reelboard/internal/config"
	"github.com/reelboard/reelboard/internal/handlers"
	"github.com/reelboard/reelboard/internal/models"
	"github.com/reelboard/reelboard/internal/ws"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, h *handlers.Handler, wsh *ws.Handler, authn *auth.Authenticator, redisClient *redis.Client) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(32 * 1024)) // 32KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (needs Redis)
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the dashboard origins come from configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authmw := middleware.NewAuthMiddleware(authn)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/login", h.Login)

	// Relay endpoint authenticates its own handshake credential
	r.Get("/ws", wsh.ServeWS)

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth)

		r.Get("/users/{id}", h.GetUser)
		r.With(authmw.RequireRole(models.RoleAdmin)).Post("/users", h.CreateUser)

		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)
		r.With(authmw.RequireRole(models.RoleAdmin, models.RoleManager)).Post("/projects", h.CreateProject)
		r.With(authmw.RequireRole(models.RoleAdmin, models.RoleManager)).Patch("/projects/{id}", h.UpdateProject)
		r.With(authmw.RequireRole(models.RoleAdmin)).Delete("/projects/{id}", h.DeleteProject)

		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{id}", h.GetTask)
		r.Get("/tasks/{id}/history", h.GetTaskHistory)
		r.With(authmw.RequireRole(models.RoleAdmin, models.RoleManager)).Post("/tasks", h.CreateTask)
		r.Patch("/tasks/{id}", h.UpdateTask)
		r.With(authmw.RequireRole(models.RoleAdmin, models.RoleManager)).Delete("/tasks/{id}", h.DeleteTask)

		r.Get("/stats", h.Stats)
		r.Get("/find", h.Search)
	})

	return r
}
