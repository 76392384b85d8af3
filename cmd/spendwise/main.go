package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/cli"
	"spendwise/internal/config"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	boot := config.Load()
	logger := cli.SetupLogger(boot.LogLevel, boot.LogFormat, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting SpendWise API", "port", cfg.Port, "driver", cfg.DBDriver)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	repo := cli.InitRepository(startupCtx, logger, cfg)
	cancelStartup()

	// Events are optional; a broker outage never blocks the API.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err := client.Connect(); err != nil {
			logger.Warn("AMQP unavailable, events will be retried lazily",
				applog.FieldError, err.Error(),
				applog.FieldErrorType, applog.ErrorTypeNetwork,
				applog.FieldComponent, applog.ComponentAMQP)
		} else {
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
		publisher = client
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewExpenseService(repo, publisher)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		Logger:            logger,
	}, svc)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close resources", applog.FieldError, err.Error())
		}
	})

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		_ = svc.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
