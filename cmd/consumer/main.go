// Package main provides the event consumer that reacts to store events.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/rueidis"

	"github.com/jnst/store-backoffice/internal/config"
	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
	"github.com/jnst/store-backoffice/internal/service"
)

const exitCode = 1

func setupRedisClient(cfg *config.Config) (rueidis.Client, error) {
	if cfg.BusDriver != config.BusDriverRedis {
		return nil, nil
	}

	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
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

	redisClient, err := setupRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	if redisClient != nil {
		defer redisClient.Close()
	}

	subscriber, err := messaging.NewSubscriber(ctx, cfg, redisClient, log)
	if err != nil {
		log.Error("failed to create subscriber", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer subscriber.Close()

	notifier := service.NewCategoryNotifier(log)
	router := service.NewEventRouter(log).
		On(model.EventActionCategoryCreated, notifier.HandleCategoryCreated)

	consumer := service.NewEventConsumerImpl(
		cfg.ConsumerGroup,
		router.Handle,
		repository.NewInboxRepositoryImpl(dbPool),
		repository.NewTransactionManagerImpl(dbPool),
		service.RetrySchedule(cfg.RetryIntervals),
		clockwork.NewRealClock(),
		log,
	)

	log.Info("starting event consumer",
		slog.String("service", "consumer"),
		slog.String("bus", cfg.BusDriver),
		slog.String("consumer", cfg.ConsumerGroup),
	)

	if err := subscriber.Subscribe(ctx, consumer.Consume); err != nil {
		log.Error("consumer stopped with error", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
}
