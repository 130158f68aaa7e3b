package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/rueidis"

	"github.com/jnst/store-backoffice/internal/config"
)

// NewPublisher builds the publisher selected by cfg.BusDriver. redisClient is
// only used by the redis driver.
func NewPublisher(ctx context.Context, cfg *config.Config, redisClient rueidis.Client, logger *slog.Logger) (Publisher, error) {
	switch cfg.BusDriver {
	case config.BusDriverRedis:
		return NewRedisStreamPublisher(redisClient, cfg.EventStream), nil
	case config.BusDriverNATS:
		return NewJetStreamPublisher(ctx, DefaultJetStreamConfig(cfg.NATSURL), logger)
	case config.BusDriverRabbitMQ:
		return NewRabbitMQPublisher(DefaultRabbitMQConfig(cfg.RabbitMQURL, cfg.ConsumerGroup))
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.BusDriver)
	}
}

// NewSubscriber builds the subscriber selected by cfg.BusDriver.
func NewSubscriber(ctx context.Context, cfg *config.Config, redisClient rueidis.Client, logger *slog.Logger) (Subscriber, error) {
	switch cfg.BusDriver {
	case config.BusDriverRedis:
		return NewRedisStreamSubscriber(redisClient, cfg.EventStream, cfg.ConsumerGroup, cfg.ConsumerName, logger), nil
	case config.BusDriverNATS:
		js := DefaultJetStreamConfig(cfg.NATSURL)
		js.ConsumerName = cfg.ConsumerGroup

		return NewJetStreamSubscriber(ctx, js, logger)
	case config.BusDriverRabbitMQ:
		return NewRabbitMQSubscriber(DefaultRabbitMQConfig(cfg.RabbitMQURL, cfg.ConsumerGroup), logger)
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.BusDriver)
	}
}
