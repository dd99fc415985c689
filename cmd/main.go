/**
 * @description
 * This is the main entry point for the recurring-service. It wires together
 * configuration, the database pool, Redis, RabbitMQ, the ledger client, the
 * HTTP API, and the cron scheduler that drives the payment sweep, then runs
 * until a termination signal arrives.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/solpay/recurring-service/internal/api"
	"github.com/solpay/recurring-service/internal/app"
	"github.com/solpay/recurring-service/internal/config"
	"github.com/solpay/recurring-service/internal/store"
	"github.com/solpay/recurring-service/pkg/ledgerclient"
	"github.com/solpay/recurring-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	// Configure connection pool for high-traffic scenarios
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// The ledger client holds the custodial treasury key. Without it every
	// settlement would fail, so refuse to start instead.
	ledgerClient, err := ledgerclient.NewClient(cfg.LedgerRPCURL, cfg.TreasurySigningKey)
	if err != nil {
		logger.Error("failed to initialize ledger client", "error", err)
		os.Exit(1)
	}
	if !ledgerClient.CanSign() {
		logger.Error("treasury signing key must be configured", "env", "TREASURY_SIGNING_KEY")
		os.Exit(1)
	}

	// Redis backs the cross-instance sweep lease. Missing Redis degrades to
	// single-instance behavior with a warning.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		logger.Warn("redis url missing, sweep lease disabled", "env", "REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed, sweep lease disabled", "error", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				logger.Warn("redis ping failed, sweep lease disabled", "error", pingErr)
				redisClient = nil
			}
			cancelPing()
		}
	}
	sweepLock := app.NewRedisSweepLock(redisClient, time.Duration(cfg.SweepLockTTLSeconds)*time.Second)

	// Initialize the event producer, falling back to a no-op publisher when
	// the broker is unreachable at startup.
	var events rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		logger.Warn("rabbitmq url missing, settlement events disabled", "env", "RABBITMQ_URL")
		events = &rabbitmq.NoopPublisher{Logger: logger}
	} else if producer, prodErr := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.EventExchange); prodErr != nil {
		logger.Warn("rabbitmq producer unavailable, using fallback", "error", prodErr)
		events = &rabbitmq.NoopPublisher{Logger: logger}
	} else {
		defer producer.Close()
		events = producer
		logger.Info("rabbitmq producer connected", "exchange", cfg.EventExchange)
	}

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	service := app.NewService(repository, cfg.FrontendBaseURL)
	handler := api.NewHandler(service)
	router := api.NewRouter(handler, cfg.JWKSURL, cfg.InternalAPIKey)

	sweeper := app.NewSweeper(repository, ledgerClient, sweepLock, events, logger, *cfg)
	scheduler := app.NewScheduler(sweeper, logger, *cfg)

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Start the cron scheduler in the background
	scheduler.Start()
	logger.Info("scheduler started", "sweep_schedule", cfg.SweepSchedule)

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// Stop the scheduler and wait for a running sweep to finish
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}
