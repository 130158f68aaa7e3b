// Package main provides the HTTP API server of the store back office.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/rueidis"

	"github.com/jnst/store-backoffice/internal/api"
	"github.com/jnst/store-backoffice/internal/auth"
	"github.com/jnst/store-backoffice/internal/cache"
	"github.com/jnst/store-backoffice/internal/config"
	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/repository"
	"github.com/jnst/store-backoffice/internal/service"
)

const (
	exitCode        = 1
	shutdownTimeout = 10 * time.Second
	readTimeout     = 15 * time.Second
)

func setupCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisClient, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{cfg.RedisAddr},
		})
		if err != nil {
			return nil, nil, err
		}

		return cache.NewRedisCache(redisClient, cfg.CacheKeyPrefix), redisClient.Close, nil
	case config.CacheBackendMemory:
		return cache.NewMemoryCache(cfg.CacheCapacity, cfg.CacheTTL), func() {}, nil
	default:
		return cache.NopCache{}, func() {}, nil
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer dbPool.Close()

	// An unreachable cache only degrades reads, so startup continues.
	backend, closeCache, err := setupCache(cfg)
	if err != nil {
		log.Warn("cache unavailable, running without cache", slog.String("error", err.Error()))
		backend, closeCache = cache.NopCache{}, func() {}
	}
	defer closeCache()

	aside := cache.NewAside(backend, cfg.CacheTTL, log)

	categoryRepo := repository.NewCategoryRepositoryImpl(dbPool)
	productRepo := repository.NewProductRepositoryImpl(dbPool)
	userRepo := repository.NewUserRepositoryImpl(dbPool)
	outboxRepo := repository.NewOutboxRepositoryImpl(dbPool)
	reportRepo := repository.NewReportRepositoryImpl(dbPool)
	transactionMgr := repository.NewTransactionManagerImpl(dbPool)

	tokens := auth.NewTokenService(auth.TokenConfig{
		Key:      cfg.JWTKey,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	services := api.Services{
		Categories: service.NewCategoryServiceImpl(categoryRepo, outboxRepo, transactionMgr, aside, log),
		Products:   service.NewProductServiceImpl(productRepo, categoryRepo, outboxRepo, transactionMgr, aside, log),
		Auth:       service.NewAuthServiceImpl(userRepo, auth.NewBcryptHasher(0), tokens, log),
		Reports:    service.NewReportServiceImpl(reportRepo),
		// The API only lists and requeues, so it never publishes.
		Outbox: service.NewOutboxServiceImpl(outboxRepo, transactionMgr, nil,
			service.RetrySchedule(cfg.RetryIntervals), clockwork.NewRealClock(), log),
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewServer(services, tokens, api.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			ShowCriticalData: cfg.ShowCriticalData,
		}, log),
		ReadHeaderTimeout: readTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server", slog.String("error", err.Error()))
		}
	}()

	log.Info("starting API server", slog.String("service", "api"), slog.String("port", cfg.Port))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to start server", slog.String("error", err.Error()))
		return
	}

	log.Info("API server stopped")
}
