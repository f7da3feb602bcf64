// Ratewise Core - Store Rating Platform
//
// This is the main entry point for the Ratewise Core application.
// Ratewise Core provides the session, access-control, and store-rating
// backbone for a role-based store rating platform:
//   - JWT access/refresh sessions with single-use refresh rotation
//   - Immediate token revocation via an in-memory blacklist
//   - A closed three-role authorisation model
//   - SQLite-backed user, store, and audit persistence
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ratewise/ratewise-core/migrations"

	"github.com/ratewise/ratewise-core/internal/api"
	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
	"github.com/ratewise/ratewise-core/internal/infrastructure/config"
	"github.com/ratewise/ratewise-core/internal/infrastructure/database"
	"github.com/ratewise/ratewise-core/internal/infrastructure/logging"
	"github.com/ratewise/ratewise-core/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Ratewise Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	users := auth.NewUserRepository(db.DB)
	stores := store.NewRepository(db.DB)
	auditLog := audit.NewSQLiteRepository(db.DB)

	// Token pipeline: codec -> revocation store -> verifier -> issuer
	codec, err := auth.NewCodec(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.Issuer,
		cfg.Security.JWT.Audience,
	)
	if err != nil {
		return fmt.Errorf("initialising token codec: %w", err)
	}

	revocations := auth.NewMemoryRevocationStore(codec)
	verifier := auth.NewVerifier(codec, revocations, users)
	issuer := auth.NewIssuer(codec, verifier, revocations,
		cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL())

	// Periodically purge naturally-expired revocation entries so the
	// blacklist stays bounded by the refresh TTL.
	go revocations.SweepLoop(ctx, cfg.GetSweepInterval())

	// Start API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		Logger:      log,
		Users:       users,
		Stores:      stores,
		Audit:       auditLog,
		Verifier:    verifier,
		Issuer:      issuer,
		Revocations: revocations,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := server.Close(); err != nil {
		log.Error("error stopping API server", "error", err)
	}

	log.Info("Ratewise Core stopped")
	return nil
}

// getConfigPath returns the configuration file path from the environment
// or the default.
func getConfigPath() string {
	if path := os.Getenv("RATEWISE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
