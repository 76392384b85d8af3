package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	boot := config.Load()
	logger := cli.SetupLogger(boot.LogLevel, boot.LogFormat, applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateSheets(); err != nil {
		logger.Error("Worker configuration validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	logger.Info("Starting spendwise-worker")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	repo := cli.InitRepository(startupCtx, logger, cfg)
	defer repo.Close()

	mirrorCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateMirror(startupCtx, mirrorCfg)
	if err != nil {
		logger.Error("Failed to initialize sheet mirror", applog.FieldError, err.Error())
		os.Exit(1)
	}
	mirror := result.Mirror
	cancelStartup()

	amqpClient := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(mirror)
	reconciler := services.NewMirrorReconciler(repo, mirror, services.ReconcilerConfig{
		Interval: cfg.GoogleReconcileInterval,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if !reconciler.IsRunning() {
			return
		}
		if err := reconciler.Stop(ctx); err != nil {
			logger.Warn("Reconciler stop error", applog.FieldError, err.Error())
		}
	})

	// Catch up on anything missed while the worker was down.
	if _, err := reconciler.ReconcileOnce(ctx); err != nil {
		logger.Error("Startup reconcile failed", applog.FieldError, err.Error())
	}
	if cfg.GoogleReconcileInterval > 0 {
		if err := reconciler.Start(ctx); err != nil {
			logger.Error("Failed to start reconciler", applog.FieldError, err.Error())
		}
		logger.Info("Periodic reconcile enabled",
			applog.FieldOperation, applog.OpSync,
			"running", reconciler.IsRunning(),
			"interval", cfg.GoogleReconcileInterval)
	}

	logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeExpenseEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
