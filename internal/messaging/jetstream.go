package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jnst/store-backoffice/internal/model"
)

// JetStreamConfig configures the NATS JetStream driver.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	ConsumerName    string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	AckWait         time.Duration
}

// DefaultJetStreamConfig returns the driver defaults for url.
func DefaultJetStreamConfig(url string) JetStreamConfig {
	return JetStreamConfig{
		URL:             url,
		StreamName:      "STORE_EVENTS",
		SubjectPrefix:   "store.events",
		ConsumerName:    "category-notifier",
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Hour,
		AckWait:         2 * time.Minute,
	}
}

func connectJetStream(cfg JetStreamConfig, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Store outbox events",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  cfg.DuplicateWindow,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.StreamName, err)
	}

	return nil
}

func subjectFor(prefix, eventType string) string {
	return prefix + "." + strings.ReplaceAll(eventType, ".", "_")
}

// JetStreamPublisher publishes events to a JetStream stream. The outbox
// message id doubles as the JetStream deduplication id, so relay retries
// inside the duplicate window are dropped by the server.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	logger *slog.Logger
}

// NewJetStreamPublisher connects and ensures the stream exists.
func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, js, err := connectJetStream(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	return &JetStreamPublisher{nc: nc, js: js, config: cfg, logger: logger}, nil
}

// Publish sends the event and waits for the stream ack.
func (p *JetStreamPublisher) Publish(ctx context.Context, event *model.OutboxEvent) error {
	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subjectFor(p.config.SubjectPrefix, event.EventType),
		Data:    data,
		Header: nats.Header{
			"Event-Type":   []string{event.EventType},
			"Aggregate-ID": []string{event.AggregateID},
		},
	}

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(event.MessageID.String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	p.logger.Debug("published to JetStream",
		slog.String("subject", msg.Subject),
		slog.String("message_id", event.MessageID.String()),
		slog.Uint64("sequence", ack.Sequence),
		slog.Bool("duplicate", ack.Duplicate),
	)

	return nil
}

// Close drains the connection.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}

	return nil
}

// JetStreamSubscriber consumes through a durable explicit-ack consumer.
type JetStreamSubscriber struct {
	nc       *nats.Conn
	consumer jetstream.Consumer
	config   JetStreamConfig
	logger   *slog.Logger
}

// NewJetStreamSubscriber connects and creates or reuses the durable consumer.
func NewJetStreamSubscriber(ctx context.Context, cfg JetStreamConfig, logger *slog.Logger) (*JetStreamSubscriber, error) {
	nc, js, err := connectJetStream(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		Description:   "Store event consumer",
		FilterSubject: cfg.SubjectPrefix + ".>",
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxAckPending: 100,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer %s: %w", cfg.ConsumerName, err)
	}

	return &JetStreamSubscriber{nc: nc, consumer: consumer, config: cfg, logger: logger}, nil
}

// Subscribe processes messages one at a time until ctx is done.
func (s *JetStreamSubscriber) Subscribe(ctx context.Context, handler Handler) error {
	s.logger.Info("starting JetStream consumer",
		slog.String("stream", s.config.StreamName),
		slog.String("consumer", s.config.ConsumerName),
	)

	messages := make(chan jetstream.Msg)

	consumeCtx, err := s.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messages <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("JetStream consumer stopped")
			return nil
		case msg := <-messages:
			s.process(ctx, handler, msg)
		}
	}
}

func (s *JetStreamSubscriber) process(ctx context.Context, handler Handler, msg jetstream.Msg) {
	env, err := DecodeEnvelope(msg.Data())
	if err != nil {
		s.logger.Error("malformed message", slog.String("subject", msg.Subject()), slog.String("error", err.Error()))
		err = ErrDeadLetter
	} else {
		err = handler(ctx, env)
	}

	var ackErr error

	switch {
	case err == nil:
		ackErr = msg.Ack()
	case errors.Is(err, ErrDeadLetter):
		s.logger.Warn("message terminated", slog.String("subject", msg.Subject()))
		ackErr = msg.Term()
	default:
		s.logger.Error("failed to process message", slog.String("subject", msg.Subject()), slog.String("error", err.Error()))
		ackErr = msg.Nak()
	}

	if ackErr != nil {
		s.logger.Error("failed to acknowledge message", slog.String("error", ackErr.Error()))
	}
}

// Close closes the connection.
func (s *JetStreamSubscriber) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}

	return nil
}
