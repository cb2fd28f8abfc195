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

	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/iho/pairpoints/internal/adapter/http"
	"github.com/iho/pairpoints/internal/adapter/http/handler"
	postgresRepo "github.com/iho/pairpoints/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/pairpoints/internal/adapter/repository/redis"
	"github.com/iho/pairpoints/internal/infrastructure/auth"
	"github.com/iho/pairpoints/internal/infrastructure/config"
	"github.com/iho/pairpoints/internal/infrastructure/logger"
	"github.com/iho/pairpoints/internal/infrastructure/metrics"
	"github.com/iho/pairpoints/internal/infrastructure/notify"
	"github.com/iho/pairpoints/internal/infrastructure/postgres"
	"github.com/iho/pairpoints/internal/infrastructure/redis"
	"github.com/iho/pairpoints/internal/infrastructure/stream"
	"github.com/iho/pairpoints/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger := slog.Default()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve timezone")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:         cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		PingTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Metrics registry
	m := metrics.New()
	go reportPoolStats(ctx, pool, m)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	connectionRepo := postgresRepo.NewConnectionRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	timeoutRepo := postgresRepo.NewTimeoutRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier().WithOnRetry(m.DBRetries.Inc)

	// Change stream and notifications
	broker := stream.NewBroker(redisClient, m)
	notifier := notify.New(broker, slogger)

	// Initialize use cases
	timeoutUC := usecase.NewTimeoutUseCase(txManager, accountRepo, connectionRepo,
		timeoutRepo, idGen, retrier, notifier, broker, cache, loc, m)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, connectionRepo,
		transactionRepo, timeoutUC, idGen, retrier, notifier, broker, m)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, connectionRepo,
		transactionRepo, idGen)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transferHandler := handler.NewTransferHandler(ledgerUC)
	timeoutHandler := handler.NewTimeoutHandler(timeoutUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   accountHandler,
		TransferHandler:  transferHandler,
		TimeoutHandler:   timeoutHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		JWTManager:       jwtManager,
		Metrics:          m,
		Logger:           log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.DBConnections.Set(float64(pool.Stat().TotalConns()))
		}
	}
}
