package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// appendEvent writes an outbox event. It must run inside the transaction of
// the change it describes.
func appendEvent(
	ctx context.Context,
	outboxRepo repository.OutboxRepository,
	aggregateID string,
	action model.EventAction,
	payload any,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = outboxRepo.CreateEvent(ctx, &model.CreateOutboxEventParams{
		MessageID:   uuid.New(),
		AggregateID: aggregateID,
		EventType:   string(action),
		Payload:     payloadJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	return nil
}
