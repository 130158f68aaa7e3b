package model

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	// OutboxStatusPending is waiting for its first delivery attempt.
	OutboxStatusPending OutboxStatus = "pending"
	// OutboxStatusRetryWait failed transiently and waits for NextAttemptAt.
	OutboxStatusRetryWait OutboxStatus = "retry_wait"
	// OutboxStatusDelivered was confirmed by the bus.
	OutboxStatusDelivered OutboxStatus = "delivered"
	// OutboxStatusFailed exhausted its retries and is parked for an operator.
	OutboxStatusFailed OutboxStatus = "failed"
)

// CanTransitionTo reports whether the state machine allows moving to next.
//
//	pending    -> delivered | retry_wait | failed
//	retry_wait -> pending | delivered | retry_wait | failed
//	failed     -> pending (operator requeue)
func (s OutboxStatus) CanTransitionTo(next OutboxStatus) bool {
	switch s {
	case OutboxStatusPending:
		return next == OutboxStatusDelivered || next == OutboxStatusRetryWait || next == OutboxStatusFailed
	case OutboxStatusRetryWait:
		return next == OutboxStatusPending || next == OutboxStatusDelivered ||
			next == OutboxStatusRetryWait || next == OutboxStatusFailed
	case OutboxStatusFailed:
		return next == OutboxStatusPending
	default:
		return false
	}
}

// Deliverable reports whether the relay may pick the event up.
func (s OutboxStatus) Deliverable() bool {
	return s == OutboxStatusPending || s == OutboxStatusRetryWait
}

// OutboxEvent represents an outbox event for reliable message delivery.
type OutboxEvent struct {
	ID            int64        `json:"id"`
	MessageID     uuid.UUID    `json:"message_id"`
	AggregateID   string       `json:"aggregate_id"`
	EventType     string       `json:"event_type"`
	Payload       []byte       `json:"payload"`
	Status        OutboxStatus `json:"status"`
	Attempts      int          `json:"attempts"`
	NextAttemptAt time.Time    `json:"next_attempt_at"`
	LastError     string       `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	PublishedAt   *time.Time   `json:"published_at"`
}

// CreateOutboxEventParams represents parameters for creating a new outbox event.
type CreateOutboxEventParams struct {
	MessageID   uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

// InboxRecord marks a message as processed by one consumer.
type InboxRecord struct {
	MessageID   uuid.UUID `json:"message_id"`
	Consumer    string    `json:"consumer"`
	ProcessedAt time.Time `json:"processed_at"`
}
