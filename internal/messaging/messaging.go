// Package messaging carries outbox events over a message bus. Drivers exist
// for Redis Streams, NATS JetStream and RabbitMQ; all share the Envelope wire
// format and the ack semantics of Handler.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jnst/store-backoffice/internal/model"
)

// ErrDeadLetter tells a Subscriber to stop redelivering a message and park it
// on the driver's dead-letter destination.
var ErrDeadLetter = errors.New("message routed to dead letter")

// Envelope is the wire format of a published outbox event.
type Envelope struct {
	MessageID   uuid.UUID       `json:"message_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewEnvelope builds the envelope of an outbox event.
func NewEnvelope(event *model.OutboxEvent) Envelope {
	return Envelope{
		MessageID:   event.MessageID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(event.Payload),
		OccurredAt:  event.CreatedAt.UTC(),
	}
}

// DecodeEnvelope parses an envelope and checks its required fields.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	if env.MessageID == uuid.Nil {
		return nil, errors.New("missing message_id in envelope")
	}

	if env.EventType == "" {
		return nil, errors.New("missing event_type in envelope")
	}

	return &env, nil
}

// Publisher sends outbox events to the bus. A nil error means the bus
// confirmed the message.
type Publisher interface {
	Publish(ctx context.Context, event *model.OutboxEvent) error
	Close() error
}

// Handler processes one delivered envelope. nil acknowledges the message,
// ErrDeadLetter parks it, any other error leaves it for redelivery.
type Handler func(ctx context.Context, env *Envelope) error

// Subscriber delivers bus messages to a Handler until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}
