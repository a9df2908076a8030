package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/caseflow-io/caseflow/pkg/api"
	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/config"
	"github.com/caseflow-io/caseflow/pkg/middleware"
	"github.com/caseflow-io/caseflow/pkg/observability"
	"github.com/caseflow-io/caseflow/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := postgres.Connect(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(ctx, db); err != nil {
		cancel()
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}
	cancel()
	logger.Info("Database ready")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		logger.WithField("addr", cfg.Redis.URL).Info("Redis connected, login rate limiting enabled")
	} else {
		logger.Warn("Redis not configured, login rate limiting disabled")
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	auditLogger := audit.NewDBLogger(db, logger)
	retention := audit.NewRetentionJob(auditLogger, cfg.Audit.Retention, logger)
	if err := retention.Start(cfg.Audit.CleanupSchedule); err != nil {
		logger.WithError(err).Error("Failed to start audit retention job")
		os.Exit(1)
	}

	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)

	var loginLimiter *middleware.LoginRateLimiter
	if redisClient != nil {
		loginLimiter = middleware.NewLoginRateLimiter(redisClient,
			cfg.Redis.LoginLimit, cfg.Redis.LoginWindow, logger)
	}

	server := api.NewServer(db, tokens, logger, metrics, auditLogger, loginLimiter)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{Addr: ":" + cfg.Server.HealthPort, Handler: healthMux}

	go func() {
		logger.WithField("port", cfg.Server.HealthPort).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	if metrics != nil {
		go pollDBStats(db, metrics)
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(retention.Stop)

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func pollDBStats(db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.UpdateDBStats(db.Stats())
	}
}
