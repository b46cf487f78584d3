// main is the entry point of the Toys API application.
//
// STARTUP SEQUENCE:
//  1. Load an optional .env file, then the configuration
//  2. Initialise the logger
//  3. Open the configured storage (memory, mongo or sqlite)
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/toys-api --config=config/local.yaml
//
// or (with environment variables only):
//
//	STORAGE_DRIVER=mongo MONGO_URI=mongodb://localhost:27017/ go run ./cmd/toys-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aanand-mishra/toys-api/internal/config"
	"github.com/aanand-mishra/toys-api/internal/http/handlers/toy"
	"github.com/aanand-mishra/toys-api/internal/http/router"
	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/storage/memory"
	"github.com/aanand-mishra/toys-api/internal/storage/mongo"
	"github.com/aanand-mishra/toys-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("failed to load .env file", slog.String("error", envErr.Error()))
	}

	log.Info("starting toys-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, closeStore, err := openStorage(context.Background(), cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// ── 4. Register HTTP Routes ───────────────────────────────────────────
	// The persistent variants answer POST/PUT with {"id": ...} only.
	reply := toy.ReplyRecord
	if cfg.Storage.Persistent() {
		reply = toy.ReplyID
	}

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(store, router.Options{Reply: reply}),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Start Server in a Goroutine ────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
	}

	if err := closeStore(ctx); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}

// openStorage builds the backend named by cfg.Storage.Driver and returns
// a function releasing its resources.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func(context.Context) error, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), func(context.Context) error { return nil }, nil

	case config.DriverMongo:
		s, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storage initialised",
			slog.String("database", cfg.Storage.Database),
			slog.String("collection", cfg.Storage.Collection))
		return s, s.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storage initialised", slog.String("path", cfg.Storage.Path))
		return s, func(context.Context) error { return s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}
