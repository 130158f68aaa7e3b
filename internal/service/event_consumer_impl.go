package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/repository"
)

// EventConsumerImpl runs a handler for each delivered event at most once per
// consumer name. The inbox marker and the handler's writes share one
// transaction, so a failed attempt leaves no marker behind.
type EventConsumerImpl struct {
	name           string
	handler        messaging.Handler
	inboxRepo      repository.InboxRepository
	transactionMgr repository.TransactionManager
	schedule       RetrySchedule
	clock          clockwork.Clock
	logger         *slog.Logger
}

// NewEventConsumerImpl creates a new EventConsumer implementation.
func NewEventConsumerImpl(
	name string,
	handler messaging.Handler,
	inboxRepo repository.InboxRepository,
	transactionMgr repository.TransactionManager,
	schedule RetrySchedule,
	clock clockwork.Clock,
	logger *slog.Logger,
) EventConsumer {
	return &EventConsumerImpl{
		name:           name,
		handler:        handler,
		inboxRepo:      inboxRepo,
		transactionMgr: transactionMgr,
		schedule:       schedule,
		clock:          clock,
		logger:         logger,
	}
}

// Consume retries the handler over the schedule. It returns an error wrapping
// messaging.ErrDeadLetter once retries are exhausted or the handler reports
// a permanent failure.
func (c *EventConsumerImpl) Consume(ctx context.Context, env *messaging.Envelope) error {
	for failures := 1; ; failures++ {
		err := c.attempt(ctx, env)
		if err == nil {
			return nil
		}

		if errors.Is(err, messaging.ErrDeadLetter) {
			c.logger.Error("event rejected by handler",
				slog.String("message_id", env.MessageID.String()),
				slog.String("error", err.Error()),
			)

			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay, ok := c.schedule.Delay(failures)
		if !ok {
			c.logger.Error("event dead-lettered after exhausting retries",
				slog.String("message_id", env.MessageID.String()),
				slog.String("event_type", env.EventType),
				slog.Int("attempts", failures),
				slog.String("error", err.Error()),
			)

			return fmt.Errorf("%w: %w", messaging.ErrDeadLetter, err)
		}

		c.logger.Warn("event handler failed, retrying",
			slog.String("message_id", env.MessageID.String()),
			slog.Int("attempt", failures),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}

func (c *EventConsumerImpl) attempt(ctx context.Context, env *messaging.Envelope) error {
	return c.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		inserted, err := c.inboxRepo.Record(ctx, env.MessageID, c.name)
		if err != nil {
			return fmt.Errorf("failed to record inbox marker: %w", err)
		}

		if !inserted {
			c.logger.Debug("skipping duplicate event",
				slog.String("message_id", env.MessageID.String()),
				slog.String("consumer", c.name),
			)

			return nil
		}

		return c.handler(ctx, env)
	})
}
