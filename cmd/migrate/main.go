package main

import (
	"fmt"
	"os"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/logging"
	"github.com/Rrens/trip-planner/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	status := flag.Bool("status", false, "print the applied schema version and exit")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("source", *source).
		Msg("Connecting to database")

	if *status {
		version, dirty, err := postgres.MigrationVersion(cfg.Database.DSN(), *source)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration version")
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	}

	if *down > 0 {
		err = postgres.RollbackMigrations(cfg.Database.DSN(), *source, *down)
	} else {
		err = postgres.RunMigrations(cfg.Database.DSN(), *source)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
