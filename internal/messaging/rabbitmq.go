package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/jnst/store-backoffice/internal/model"
)

const rabbitPublishTimeout = 5 * time.Second

// RabbitMQConfig configures the RabbitMQ driver.
type RabbitMQConfig struct {
	URL           string
	Exchange      string
	Queue         string
	DeadExchange  string
	RoutingPrefix string
	PrefetchCount int
}

// DefaultRabbitMQConfig returns the driver defaults for url.
func DefaultRabbitMQConfig(url, queue string) RabbitMQConfig {
	return RabbitMQConfig{
		URL:           url,
		Exchange:      "store.events",
		Queue:         queue,
		DeadExchange:  "store.events.dlx",
		RoutingPrefix: "store",
		PrefetchCount: 10,
	}
}

func (c RabbitMQConfig) routingKey(eventType string) string {
	return c.RoutingPrefix + "." + eventType
}

// ErrUnroutable is returned when the broker returns a mandatory message that
// matched no queue.
var ErrUnroutable = errors.New("message matched no queue")

// RabbitMQPublisher publishes persistent messages to a topic exchange and
// waits for the broker confirm of each one.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	confirm chan amqp.Confirmation
	returns chan amqp.Return
	config  RabbitMQConfig
	// seq is the delivery tag of the last publish; confirm mode numbers
	// publishes on the channel from 1.
	seq uint64
}

// NewRabbitMQPublisher dials the broker and declares the full topology, so a
// publish before the first consumer start still reaches the queue.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open producer channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("producer channel could not be put into confirm mode: %w", err)
	}

	if err := declareRabbitTopology(ch, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{
		conn:    conn,
		channel: ch,
		confirm: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		returns: ch.NotifyReturn(make(chan amqp.Return, 1)),
		config:  cfg,
	}, nil
}

// Publish sends the event; a nack, a return or a missing confirm is an error.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *model.OutboxEvent) error {
	body, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	messageID := event.MessageID.String()

	err = p.channel.Publish(p.config.Exchange, p.config.routingKey(event.EventType), true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Type:         event.EventType,
		Timestamp:    event.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %d: %w", event.ID, err)
	}

	p.seq++

	if err := awaitConfirm(ctx, p.confirm, p.returns, p.seq, messageID, rabbitPublishTimeout); err != nil {
		return fmt.Errorf("event %d: %w", event.ID, err)
	}

	return nil
}

// awaitConfirm waits for the confirm carrying tag. Confirms of earlier tags
// arrive late after a timeout and are discarded. The broker sends basic.return
// before the ack of the same message, so a return for messageID seen by then
// fails the publish.
func awaitConfirm(
	ctx context.Context,
	confirms <-chan amqp.Confirmation,
	returns <-chan amqp.Return,
	tag uint64,
	messageID string,
	timeout time.Duration,
) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	returned := false

	noteReturn := func(r amqp.Return) {
		if r.MessageId == messageID {
			returned = true
		}
	}

	for {
		select {
		case r, ok := <-returns:
			if !ok {
				returns = nil
				continue
			}

			noteReturn(r)
		case confirmed, ok := <-confirms:
			if !ok {
				return errors.New("confirm channel closed")
			}

			if confirmed.DeliveryTag < tag {
				continue
			}

			if confirmed.DeliveryTag > tag {
				return fmt.Errorf("confirm for delivery tag %d never arrived", tag)
			}

			if !confirmed.Ack {
				return errors.New("broker nacked the message")
			}

			for drained := false; !drained && returns != nil; {
				select {
				case r := <-returns:
					noteReturn(r)
				default:
					drained = true
				}
			}

			if returned {
				return ErrUnroutable
			}

			return nil
		case <-timer.C:
			return fmt.Errorf("timed out waiting for confirm of delivery tag %d", tag)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	_ = p.channel.Close()
	return p.conn.Close()
}

// RabbitMQSubscriber consumes a durable queue bound to every store event.
// Dead-lettered messages are rejected into the dead-letter exchange.
type RabbitMQSubscriber struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  RabbitMQConfig
	logger  *slog.Logger
}

// NewRabbitMQSubscriber dials the broker and declares the queue topology.
func NewRabbitMQSubscriber(cfg RabbitMQConfig, logger *slog.Logger) (*RabbitMQSubscriber, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS on consumer channel: %w", err)
	}

	if err := declareRabbitTopology(ch, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitMQSubscriber{conn: conn, channel: ch, config: cfg, logger: logger}, nil
}

// declareRabbitTopology declares the event exchange, the dead-letter
// exchange with its queue, and the consumer queue bound to every store event.
func declareRabbitTopology(ch *amqp.Channel, cfg RabbitMQConfig) error {
	dlq := cfg.Queue + ".dlq"

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	if err := ch.ExchangeDeclare(cfg.DeadExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLX %s: %w", cfg.DeadExchange, err)
	}

	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", dlq, err)
	}

	if err := ch.QueueBind(dlq, "", cfg.DeadExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ %s: %w", dlq, err)
	}

	args := amqp.Table{"x-dead-letter-exchange": cfg.DeadExchange}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	if err := ch.QueueBind(cfg.Queue, cfg.RoutingPrefix+".#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", cfg.Queue, err)
	}

	return nil
}

// Subscribe consumes until ctx is done or the channel closes.
func (s *RabbitMQSubscriber) Subscribe(ctx context.Context, handler Handler) error {
	deliveries, err := s.channel.Consume(s.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", s.config.Queue, err)
	}

	s.logger.Info("starting RabbitMQ consumer", slog.String("queue", s.config.Queue))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("RabbitMQ consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("RabbitMQ delivery channel closed")
			}

			s.process(ctx, handler, d)
		}
	}
}

func (s *RabbitMQSubscriber) process(ctx context.Context, handler Handler, d amqp.Delivery) {
	env, err := DecodeEnvelope(d.Body)
	if err != nil {
		s.logger.Error("malformed message", slog.String("message_id", d.MessageId), slog.String("error", err.Error()))
		err = ErrDeadLetter
	} else {
		err = handler(ctx, env)
	}

	var ackErr error

	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case errors.Is(err, ErrDeadLetter):
		s.logger.Warn("message rejected to dead letter", slog.String("message_id", d.MessageId))
		ackErr = d.Nack(false, false)
	default:
		s.logger.Error("failed to process message, requeueing",
			slog.String("message_id", d.MessageId),
			slog.String("error", err.Error()),
		)
		ackErr = d.Nack(false, true)
	}

	if ackErr != nil {
		s.logger.Error("failed to acknowledge message", slog.String("error", ackErr.Error()))
	}
}

// Close closes the channel and connection.
func (s *RabbitMQSubscriber) Close() error {
	_ = s.channel.Close()
	return s.conn.Close()
}
