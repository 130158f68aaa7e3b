package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// RelayResult counts the outcomes of one relay pass.
type RelayResult struct {
	Delivered int
	Retried   int
	Parked    int
}

// Total is the number of events the pass handled.
func (r RelayResult) Total() int {
	return r.Delivered + r.Retried + r.Parked
}

// OutboxServiceImpl implements OutboxService for processing outbox events.
type OutboxServiceImpl struct {
	outboxRepo     repository.OutboxRepository
	transactionMgr repository.TransactionManager
	publisher      messaging.Publisher
	schedule       RetrySchedule
	clock          clockwork.Clock
	logger         *slog.Logger
}

// NewOutboxServiceImpl creates a new OutboxService implementation.
func NewOutboxServiceImpl(
	outboxRepo repository.OutboxRepository,
	transactionMgr repository.TransactionManager,
	publisher messaging.Publisher,
	schedule RetrySchedule,
	clock clockwork.Clock,
	logger *slog.Logger,
) OutboxService {
	return &OutboxServiceImpl{
		outboxRepo:     outboxRepo,
		transactionMgr: transactionMgr,
		publisher:      publisher,
		schedule:       schedule,
		clock:          clock,
		logger:         logger,
	}
}

// ProcessUnpublishedEvents publishes up to limit due events. The batch is
// locked for the duration of the pass, so concurrent relays skip it.
func (s *OutboxServiceImpl) ProcessUnpublishedEvents(ctx context.Context, limit int) (*RelayResult, error) {
	result := &RelayResult{}

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		events, err := s.outboxRepo.FetchDue(ctx, s.clock.Now(), limit)
		if err != nil {
			return fmt.Errorf("failed to fetch due events: %w", err)
		}

		for _, event := range events {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := s.relay(ctx, event, result); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *OutboxServiceImpl) relay(ctx context.Context, event *model.OutboxEvent, result *RelayResult) error {
	publishErr := s.publisher.Publish(ctx, event)
	now := s.clock.Now()

	if publishErr == nil {
		if err := s.outboxRepo.MarkAsPublished(ctx, event.ID, now); err != nil {
			return fmt.Errorf("failed to mark event %d as published: %w", event.ID, err)
		}

		result.Delivered++

		s.logger.Debug("published event",
			slog.Int64("event_id", event.ID),
			slog.String("event_type", event.EventType),
		)

		return nil
	}

	attempts := event.Attempts + 1

	delay, ok := s.schedule.Delay(attempts)
	if !ok {
		if err := s.outboxRepo.MarkAsFailed(ctx, event.ID, attempts, publishErr.Error()); err != nil {
			return fmt.Errorf("failed to park event %d: %w", event.ID, err)
		}

		result.Parked++

		s.logger.Error("event parked after exhausting retries",
			slog.Int64("event_id", event.ID),
			slog.String("message_id", event.MessageID.String()),
			slog.Int("attempts", attempts),
			slog.String("error", publishErr.Error()),
		)

		return nil
	}

	if err := s.outboxRepo.ScheduleRetry(ctx, event.ID, attempts, now.Add(delay), publishErr.Error()); err != nil {
		return fmt.Errorf("failed to schedule retry of event %d: %w", event.ID, err)
	}

	result.Retried++

	s.logger.Warn("failed to publish event, retry scheduled",
		slog.Int64("event_id", event.ID),
		slog.Int("attempts", attempts),
		slog.Duration("retry_in", delay),
		slog.String("error", publishErr.Error()),
	)

	return nil
}

// ListParked returns events that exhausted their retries.
func (s *OutboxServiceImpl) ListParked(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return s.outboxRepo.ListFailed(ctx, limit)
}

// Requeue moves a parked event back to pending with a fresh retry budget.
func (s *OutboxServiceImpl) Requeue(ctx context.Context, id int64) error {
	if err := s.outboxRepo.Requeue(ctx, id, s.clock.Now()); err != nil {
		return err
	}

	s.logger.Info("parked event requeued", slog.Int64("event_id", id))

	return nil
}
