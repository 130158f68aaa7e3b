package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/model"
)

// EventRouter dispatches envelopes to handlers by event type. Unknown event
// types are acknowledged and ignored.
type EventRouter struct {
	handlers map[string]messaging.Handler
	logger   *slog.Logger
}

// NewEventRouter creates an empty router.
func NewEventRouter(logger *slog.Logger) *EventRouter {
	return &EventRouter{handlers: make(map[string]messaging.Handler), logger: logger}
}

// On registers handler for action.
func (r *EventRouter) On(action model.EventAction, handler messaging.Handler) *EventRouter {
	r.handlers[string(action)] = handler
	return r
}

// Handle implements messaging.Handler.
func (r *EventRouter) Handle(ctx context.Context, env *messaging.Envelope) error {
	handler, ok := r.handlers[env.EventType]
	if !ok {
		r.logger.Debug("ignoring event", slog.String("event_type", env.EventType))
		return nil
	}

	return handler(ctx, env)
}

// decodePayload unmarshals an event payload. A payload that cannot be decoded
// will never succeed, so it is routed to the dead letter.
func decodePayload(env *messaging.Envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: failed to parse %s payload: %w", messaging.ErrDeadLetter, env.EventType, err)
	}

	return nil
}
