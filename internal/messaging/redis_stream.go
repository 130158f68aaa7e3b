package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/jnst/store-backoffice/internal/model"
)

const (
	redisBlockTimeout    = 1000 // milliseconds
	redisReadCount       = 10
	redisErrorRetryDelay = time.Second
	redisPendingInterval = 30 * time.Second
	redisDeadSuffix      = ":dead"
)

// RedisStreamPublisher publishes events with XADD.
type RedisStreamPublisher struct {
	client rueidis.Client
	stream string
}

// NewRedisStreamPublisher creates a publisher appending to stream.
func NewRedisStreamPublisher(client rueidis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

// Publish appends the event to the stream.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event *model.OutboxEvent) error {
	env := NewEnvelope(event)

	cmd := p.client.B().Xadd().Key(p.stream).Id("*").
		FieldValue().FieldValue("message_id", env.MessageID.String()).
		FieldValue("event_type", env.EventType).
		FieldValue("aggregate_id", env.AggregateID).
		FieldValue("occurred_at", env.OccurredAt.Format(time.RFC3339Nano)).
		FieldValue("payload", string(env.Payload)).
		Build()

	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish event %d to stream %s: %w", event.ID, p.stream, err)
	}

	return nil
}

// Close is a no-op; the client is owned by the caller.
func (*RedisStreamPublisher) Close() error { return nil }

// RedisStreamSubscriber consumes a stream through a consumer group.
type RedisStreamSubscriber struct {
	client   rueidis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger
}

// NewRedisStreamSubscriber creates a consumer-group subscriber.
func NewRedisStreamSubscriber(client rueidis.Client, stream, group, consumer string, logger *slog.Logger) *RedisStreamSubscriber {
	return &RedisStreamSubscriber{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger,
	}
}

// Subscribe reads new messages, and periodically re-reads this consumer's
// pending entries so that unacknowledged messages are redelivered.
func (s *RedisStreamSubscriber) Subscribe(ctx context.Context, handler Handler) error {
	s.createConsumerGroup(ctx)

	s.logger.Info("starting stream consumer",
		slog.String("stream", s.stream),
		slog.String("group", s.group),
		slog.String("consumer", s.consumer),
	)

	pending := time.NewTicker(redisPendingInterval)
	defer pending.Stop()

	// Entries left pending by a previous run come first.
	s.consume(ctx, handler, "0")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream consumer stopped")
			return nil
		case <-pending.C:
			s.consume(ctx, handler, "0")
		default:
			s.consume(ctx, handler, ">")
		}
	}
}

// Close is a no-op; the client is owned by the caller.
func (*RedisStreamSubscriber) Close() error { return nil }

func (s *RedisStreamSubscriber) createConsumerGroup(ctx context.Context) {
	cmd := s.client.B().XgroupCreate().Key(s.stream).Group(s.group).Id("0").Mkstream().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.logger.Debug("consumer group creation result (may already exist)", slog.String("error", err.Error()))
	}
}

func (s *RedisStreamSubscriber) consume(ctx context.Context, handler Handler, id string) {
	streams, err := s.readMessages(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		s.logger.Error("error consuming messages", slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
		case <-time.After(redisErrorRetryDelay):
		}

		return
	}

	for _, entries := range streams {
		for _, entry := range entries {
			s.processEntry(ctx, handler, entry)
		}
	}
}

func (s *RedisStreamSubscriber) readMessages(ctx context.Context, id string) (map[string][]rueidis.XRangeEntry, error) {
	readCmd := s.client.B().Xreadgroup().Group(s.group, s.consumer).
		Count(redisReadCount).
		Block(redisBlockTimeout).
		Streams().
		Key(s.stream).
		Id(id).
		Build()

	result := s.client.Do(ctx, readCmd)
	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}

		return nil, err
	}

	return result.AsXRead()
}

func (s *RedisStreamSubscriber) processEntry(ctx context.Context, handler Handler, entry rueidis.XRangeEntry) {
	// A pending entry whose payload was trimmed from the stream has no fields.
	if entry.FieldValues == nil {
		s.acknowledge(ctx, entry.ID)
		return
	}

	env, err := envelopeFromFields(entry.FieldValues)
	if err != nil {
		s.logger.Error("malformed stream entry", slog.String("entry_id", entry.ID), slog.String("error", err.Error()))
		s.deadLetter(ctx, entry)

		return
	}

	err = handler(ctx, env)

	switch {
	case err == nil:
		s.acknowledge(ctx, entry.ID)
	case errors.Is(err, ErrDeadLetter):
		s.deadLetter(ctx, entry)
	default:
		s.logger.Error("failed to process message, leaving pending",
			slog.String("entry_id", entry.ID),
			slog.String("message_id", env.MessageID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RedisStreamSubscriber) acknowledge(ctx context.Context, entryID string) {
	ackCmd := s.client.B().Xack().Key(s.stream).Group(s.group).Id(entryID).Build()
	if err := s.client.Do(ctx, ackCmd).Error(); err != nil {
		s.logger.Error("failed to ACK message", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return
	}

	s.logger.Debug("ACKed message", slog.String("entry_id", entryID))
}

func (s *RedisStreamSubscriber) deadLetter(ctx context.Context, entry rueidis.XRangeEntry) {
	dead := s.stream + redisDeadSuffix

	cmd := s.client.B().Xadd().Key(dead).Id("*").FieldValue().
		FieldValue("source_id", entry.ID).
		FieldValue("message_id", entry.FieldValues["message_id"]).
		FieldValue("event_type", entry.FieldValues["event_type"]).
		FieldValue("aggregate_id", entry.FieldValues["aggregate_id"]).
		FieldValue("payload", entry.FieldValues["payload"]).
		Build()

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.logger.Error("failed to dead-letter message, leaving pending",
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)

		return
	}

	s.logger.Warn("message dead-lettered", slog.String("entry_id", entry.ID), slog.String("stream", dead))
	s.acknowledge(ctx, entry.ID)
}

func envelopeFromFields(fields map[string]string) (*Envelope, error) {
	eventType, ok := fields["event_type"]
	if !ok {
		return nil, errors.New("missing event_type in message")
	}

	payload, ok := fields["payload"]
	if !ok {
		return nil, errors.New("missing payload in message")
	}

	messageID, err := uuid.Parse(fields["message_id"])
	if err != nil {
		return nil, fmt.Errorf("invalid message_id in message: %w", err)
	}

	occurredAt, _ := time.Parse(time.RFC3339Nano, fields["occurred_at"])

	return &Envelope{
		MessageID:   messageID,
		EventType:   eventType,
		AggregateID: fields["aggregate_id"],
		Payload:     []byte(payload),
		OccurredAt:  occurredAt,
	}, nil
}
