// Package main provides the outbox relay that publishes committed events to
// the message bus.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/rueidis"

	"github.com/jnst/store-backoffice/internal/config"
	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/repository"
	"github.com/jnst/store-backoffice/internal/service"
)

const exitCode = 1

func setupPublisherRedisClient(cfg *config.Config) (rueidis.Client, error) {
	if cfg.BusDriver != config.BusDriverRedis {
		return nil, nil
	}

	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
}

// runPublisherLoop relays on every tick and on every NOTIFY wake-up. A full
// batch triggers another pass immediately.
func runPublisherLoop(
	ctx context.Context,
	outboxService service.OutboxService,
	wake <-chan struct{},
	pollInterval time.Duration,
	batchSize int,
	log *slog.Logger,
) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	relay := func() {
		for ctx.Err() == nil {
			result, err := outboxService.ProcessUnpublishedEvents(ctx, batchSize)
			if err != nil {
				log.Error("error processing outbox events", slog.String("error", err.Error()))
				return
			}

			if result.Total() > 0 {
				log.Info("relayed outbox events",
					slog.Int("delivered", result.Delivered),
					slog.Int("retried", result.Retried),
					slog.Int("parked", result.Parked),
				)
			}

			if result.Total() < batchSize {
				return
			}
		}
	}

	relay()

	for {
		select {
		case <-ctx.Done():
			log.Info("publisher stopped")
			return
		case <-ticker.C:
			relay()
		case <-wake:
			relay()
		}
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

	redisClient, err := setupPublisherRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := messaging.NewPublisher(ctx, cfg, redisClient, log)
	if err != nil {
		log.Error("failed to create publisher", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer publisher.Close()

	wake := make(chan struct{}, 1)

	notifier, err := repository.NewOutboxNotifier(cfg.DatabaseURL, log)
	if err != nil {
		// Polling alone still delivers every event.
		log.Warn("LISTEN unavailable, relying on polling", slog.String("error", err.Error()))
	} else {
		defer notifier.Close()

		go notifier.Run(ctx, wake)
	}

	outboxRepo := repository.NewOutboxRepositoryImpl(dbPool)
	transactionMgr := repository.NewTransactionManagerImpl(dbPool)
	outboxService := service.NewOutboxServiceImpl(
		outboxRepo,
		transactionMgr,
		publisher,
		service.RetrySchedule(cfg.RetryIntervals),
		clockwork.NewRealClock(),
		log,
	)

	log.Info("starting outbox publisher",
		slog.String("bus", cfg.BusDriver),
		slog.Duration("poll_interval", cfg.PublisherPollInterval),
		slog.Int("batch_size", cfg.PublisherBatchSize),
	)

	runPublisherLoop(ctx, outboxService, wake, cfg.PublisherPollInterval, cfg.PublisherBatchSize, log)
}
