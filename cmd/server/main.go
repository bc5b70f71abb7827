/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the day-off tracking server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (defaults, YAML, .env, environment)
  3. Build the zap logger
  4. Initialize the store (memory or SQLite)
  5. Seed users and holidays, start the year rollover check
  6. Configure HTTP router and start the server

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port, overrides addr
  -db      SQLite database path, selects the sqlite store
           Use ":memory:" for an in-memory SQLite database

ENVIRONMENT:
  DAYOFF_ADDR, DAYOFF_STORE, DAYOFF_DB_PATH, DAYOFF_LOG_LEVEL,
  DAYOFF_LOG_FORMAT, DAYOFF_CORS_ORIGINS, DAYOFF_ANALYZER_URL,
  DAYOFF_ANALYZER_TIMEOUT. A .env file in the working directory is read
  first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Wait for background suggestion calls
  4. Close database connection
  5. Exit

EXAMPLES:
  # In-memory store with default holidays
  ./server

  # Run with file database
  ./server -db="./data/dayoff.db"

  # Run with config file on a different port
  ./server -config=dayoff.yaml -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Configuration sources
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/dayoff/api"
	"github.com/warp/dayoff/config"
	"github.com/warp/dayoff/logging"
	"github.com/warp/dayoff/seed"
	"github.com/warp/dayoff/store/memory"
	"github.com/warp/dayoff/store/sqlite"
	"github.com/warp/dayoff/timeoff"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config addr)")
	dbPath := flag.String("db", "", "SQLite database path (selects the sqlite store)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.Store = "sqlite"
		cfg.DBPath = *dbPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	store, closer, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closer.Close()
	logger.Info("store ready", zap.String("store", cfg.Store), zap.String("db", cfg.DBPath))

	// Services
	var analyzer timeoff.Analyzer = timeoff.NopAnalyzer{}
	if cfg.Analyzer.URL != "" {
		analyzer = timeoff.NewHTTPAnalyzer(cfg.Analyzer.URL, cfg.Analyzer.Timeout)
		logger.Info("suggestions enabled", zap.String("url", cfg.Analyzer.URL))
	}
	requests := timeoff.NewRequestService(store, analyzer, logger.Named("requests"))
	requests.AnalyzeTimeout = cfg.Analyzer.Timeout
	admin := timeoff.NewAdminService(store, logger.Named("admin"))

	now := time.Now()
	if _, err := seed.Apply(context.Background(), admin, cfg.Seed, cfg.SeedYears(now), now, logger.Named("seed")); err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	rollover := seed.NewScheduler(admin, cfg.Seed, logger.Named("rollover"))
	rollover.Start()
	defer rollover.Stop()

	// Create router
	handler := api.NewHandler(requests, admin, logger.Named("api"))
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.CORS.AllowedOrigins})

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	requests.Wait()

	logger.Info("server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(cfg *config.Config) (timeoff.Store, io.Closer, error) {
	switch cfg.Store {
	case "sqlite":
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return memory.New(), nopCloser{}, nil
	}
}
