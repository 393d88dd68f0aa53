package api

import (
	"net/http"

	"github.com/Rrens/trip-planner/internal/api/handler"
	customMiddleware "github.com/Rrens/trip-planner/internal/api/middleware"
	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/Rrens/trip-planner/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the collaborators the HTTP layer is built from.
// Limiter and Ready entries are optional.
type Dependencies struct {
	Config     *config.Config
	JWTManager *security.JWTManager
	Auth       *service.AuthService
	Planner    *service.PlannerService
	Limiter    customMiddleware.Limiter
	Ready      map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	plannerHandler := handler.NewPlannerHandler(deps.Planner)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWTManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(deps.Limiter)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Ready))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/register/", authHandler.Register)
			r.Post("/login/", authHandler.Login)
			r.Post("/logout/", authHandler.Logout)
		})
		r.Post("/token/refresh/", authHandler.Refresh)

		r.Route("/planner", func(r chi.Router) {
			r.With(authMiddleware.Optional, rateLimitMiddleware.Limit).
				Post("/generate/", plannerHandler.Generate)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)

				r.Post("/save/", plannerHandler.Save)
				r.Post("/approve/", plannerHandler.Approve)
				r.Get("/history/", plannerHandler.History)
				r.Delete("/history/{itineraryID}/", plannerHandler.Delete)
			})
		})
	})

	return r
}
