// Package cli provides common CLI initialization utilities shared by
// cmd/spendwise, cmd/spendwise-worker and cmd/spendwise-cli.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default. An unknown level falls back to info.
func SetupLogger(level, format, component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Format = format
	cfg.Component = component

	lvl, err := applog.ParseLevel(level)
	cfg.Level = lvl

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid LOG_LEVEL, using info", applog.FieldError, err.Error())
	}
	return logger
}

// LoadEnvFile loads .env files for local development. With no paths it reads
// ./.env. Errors are ignored since the files are optional in production.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldOperation, applog.OpValidate)
		os.Exit(1)
	}
	return cfg
}

// StorageOptions maps the database settings onto storage.Options.
func StorageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Driver:       storage.Driver(cfg.DBDriver),
		DSN:          cfg.DSN(),
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}
}

// InitRepository opens, pings and migrates the database.
// Returns the repository or exits the process on failure.
func InitRepository(ctx context.Context, logger *applog.Logger, cfg *config.Config) *storage.Repository {
	repo, err := storage.Connect(ctx, StorageOptions(cfg))
	if err != nil {
		logger.Error("Failed to initialize database",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldOperation, applog.OpStartup,
			"driver", cfg.DBDriver)
		os.Exit(1)
	}
	logger.Info("Database ready",
		applog.FieldOperation, applog.OpStartup,
		"driver", string(repo.Driver()))
	return repo
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has returned.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received",
			applog.FieldOperation, applog.OpShutdown,
			"signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", applog.FieldOperation, applog.OpShutdown)
		} else {
			logger.Info("Shutdown complete", applog.FieldOperation, applog.OpShutdown)
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
