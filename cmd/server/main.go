package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rrens/trip-planner/internal/api"
	"github.com/Rrens/trip-planner/internal/api/handler"
	customMiddleware "github.com/Rrens/trip-planner/internal/api/middleware"
	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/generator"
	"github.com/Rrens/trip-planner/internal/generator/gemini"
	"github.com/Rrens/trip-planner/internal/logging"
	"github.com/Rrens/trip-planner/internal/mailer"
	"github.com/Rrens/trip-planner/internal/repository/memory"
	"github.com/Rrens/trip-planner/internal/repository/postgres"
	"github.com/Rrens/trip-planner/internal/repository/redis"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/Rrens/trip-planner/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting trip planner API server")

	ctx := context.Background()
	ready := map[string]handler.Pinger{}

	// Storage
	var (
		userRepo      domain.UserRepository      = memory.NewUserRepository()
		itineraryRepo domain.ItineraryRepository = memory.NewItineraryRepository()
		revocations   domain.TokenRevocations    = memory.NewRevocations()
		limiter       customMiddleware.Limiter
	)

	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		userRepo = postgres.NewUserRepository(db)
		itineraryRepo = postgres.NewItineraryRepository(db)
		ready["database"] = db
	} else {
		log.Warn().Msg("Database disabled, data is kept in memory")
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		revocations = redis.NewRevocations(redisClient)
		limiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
		ready["redis"] = redisClient
	} else {
		limiter = memory.NewRateLimiter(
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	}

	// Itinerary generation
	generators := generator.NewRouter(cfg.Generator.Default)
	if cfg.Generator.Gemini.APIKey != "" {
		log.Info().Str("model", cfg.Generator.Gemini.Model).Msg("Registering Gemini generator")
		generators.RegisterProvider(gemini.NewProvider(cfg.Generator.Gemini))
	}
	log.Info().
		Strs("providers", generators.ListProviders()).
		Str("default", generators.DefaultProvider()).
		Msg("Itinerary generators ready")

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	router := api.NewRouter(api.Dependencies{
		Config:     cfg,
		JWTManager: jwtManager,
		Auth:       service.NewAuthService(userRepo, revocations, jwtManager),
		Planner:    service.NewPlannerService(itineraryRepo, generators, mailer.New(cfg.Mail), cfg.Generator.Timeout),
		Limiter:    limiter,
		Ready:      ready,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
