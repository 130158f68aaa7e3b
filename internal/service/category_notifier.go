package service

import (
	"context"
	"log/slog"

	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/model"
)

// CategoryNotifier announces new categories.
type CategoryNotifier struct {
	logger *slog.Logger
}

// NewCategoryNotifier creates a notifier writing to logger.
func NewCategoryNotifier(logger *slog.Logger) *CategoryNotifier {
	return &CategoryNotifier{logger: logger}
}

// HandleCategoryCreated processes category_created events.
func (n *CategoryNotifier) HandleCategoryCreated(_ context.Context, env *messaging.Envelope) error {
	var event model.CategoryEvent
	if err := decodePayload(env, &event); err != nil {
		return err
	}

	n.logger.Info("new category available",
		slog.String("event_type", env.EventType),
		slog.Int64("category_id", event.CategoryID),
		slog.String("name", event.Name),
		slog.String("message_id", env.MessageID.String()),
	)

	return nil
}
