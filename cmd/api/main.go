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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/config"
	"github.com/josh-kwaku/remittance-api/internal/events"
	"github.com/josh-kwaku/remittance-api/internal/fx"
	"github.com/josh-kwaku/remittance-api/internal/handler"
	"github.com/josh-kwaku/remittance-api/internal/jobs"
	"github.com/josh-kwaku/remittance-api/internal/logging"
	"github.com/josh-kwaku/remittance-api/internal/middleware"
	"github.com/josh-kwaku/remittance-api/internal/ratelimit"
	"github.com/josh-kwaku/remittance-api/internal/repository"
	"github.com/josh-kwaku/remittance-api/internal/server"
	"github.com/josh-kwaku/remittance-api/internal/service"
	"github.com/josh-kwaku/remittance-api/internal/service/transfer"
	"github.com/josh-kwaku/remittance-api/internal/settlement"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("remittance-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db, cfg.MigrationsDir); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(db)
	beneficiaries := repository.NewBeneficiaryRepository(db)
	transfers := repository.NewTransferRepository(db)
	idempotency := repository.NewIdempotencyStore(db)

	rates := fx.NewRateCache(
		fx.NewHTTPRateSource(cfg.ExchangeAPIURL, cfg.ExchangeAPITimeout),
		cfg.RateCacheTTL, cfg.RateFallbackTTL, time.Now,
	)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	gateway := settlement.NewGateway(settlement.GatewayConfig{
		Latency:     cfg.GatewayLatency,
		FailureRate: cfg.GatewayFailureRate,
	})
	dispatcher := settlement.NewDispatcher(
		transfer.NewSettler(transfers, gateway, publisher),
		cfg.SettlementWorkers, cfg.SettlementQueueSize, logger,
	)
	dispatcher.Start(context.WithoutCancel(ctx))

	transferSvc := transfer.NewService(transfers, beneficiaries, rates, dispatcher, publisher)
	authSvc := service.NewAuthService(users, auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiry), cfg.BcryptCost)
	beneficiarySvc := service.NewBeneficiaryService(beneficiaries)

	checks := map[string]handler.HealthCheck{"database": db.PingContext}
	deps := server.Deps{
		Auth:           handler.NewAuthHandler(authSvc),
		Beneficiaries:  handler.NewBeneficiaryHandler(beneficiarySvc),
		Transfers:      handler.NewTransferHandler(transferSvc),
		Authenticator:  authSvc,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   middleware.DefaultMaxBodyBytes,
	}

	rdb, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		deps.Limiter = ratelimit.NewLimiter(rdb, "")
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		slog.Warn("REDIS_URL not set, rate limiting disabled")
	}
	deps.Health = handler.NewHealthHandler(checks)

	scheduler := jobs.NewScheduler(jobs.Config{
		IdempotencyCleanupSchedule: cfg.IdempotencyCleanupSchedule,
		StaleScanSchedule:          cfg.StaleScanSchedule,
		StaleProcessingAfter:       cfg.StaleProcessingAfter,
	}, idempotency, transfers, logger)
	if err := scheduler.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(deps),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	<-scheduler.Stop().Done()
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		slog.Error("settlement dispatcher did not drain", "error", err)
	}
	slog.Info("server stopped")
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.RabbitMQURL == "" {
		slog.Warn("RABBITMQ_URL not set, transfer events disabled")
		return events.NopPublisher{}
	}

	p, err := events.NewRabbitPublisher(cfg.RabbitMQURL, events.TransfersExchange, logger)
	if err != nil {
		slog.Error("failed to connect to rabbitmq, transfer events disabled", "error", err)
		return events.NopPublisher{}
	}
	return p
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("connectRedis: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The limiter fails open, so an unreachable redis only degrades rate limiting.
		slog.Warn("redis ping failed", "error", err)
	}
	return client, nil
}
