/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the participation-rate risk engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env optional), then apply flags
  2. Build the zerolog logger
  3. Initialize SQLite store
  4. Load the ruleset (RULESET_PATH or built-in defaults)
  5. Create API handler and router
  6. Register the report snapshot job
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -port    HTTP server port (PORT, default: 8080)
  -db      SQLite database path (DATABASE_PATH, default: participation.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  RULESET_PATH       JSON or YAML ruleset document
  LOG_LEVEL          debug, info, warn, error
  LOG_PRETTY         console output instead of JSON
  SNAPSHOT_SCHEDULE  cron spec for report archiving, empty disables
  CORS_ORIGINS       comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running snapshot)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - factory/ruleset.go: Ruleset documents
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/participation-engine/api"
	"github.com/warp/participation-engine/config"
	"github.com/warp/participation-engine/factory"
	"github.com/warp/participation-engine/logger"
	"github.com/warp/participation-engine/participation"
	"github.com/warp/participation-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DatabasePath = *dbPath

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	rs, err := loadRuleset(cfg.RulesetPath)
	if err != nil {
		return err
	}
	log.Info().
		Str("version", rs.Version).
		Str("warning_rate", rs.WarningRate.String()).
		Str("limit_rate", rs.LimitRate.String()).
		Msg("ruleset loaded")

	handler := api.NewHandler(store, rs, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Report archiving
	sched := api.NewScheduler(log)
	if cfg.SnapshotSchedule != "" {
		if err := sched.AddJob(cfg.SnapshotSchedule, api.NewSnapshotJob(handler)); err != nil {
			return fmt.Errorf("schedule snapshot job %q: %w", cfg.SnapshotSchedule, err)
		}
	} else {
		log.Info().Msg("snapshot job disabled")
	}
	sched.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("db", cfg.DatabasePath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func loadRuleset(path string) (participation.Ruleset, error) {
	if path == "" {
		return participation.DefaultRuleset(), nil
	}
	return factory.LoadRulesetFile(path)
}
