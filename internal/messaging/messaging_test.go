package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/config"
	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/model"
)

func sampleEvent() *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:          7,
		MessageID:   uuid.MustParse("0b6f1c9e-6b7d-4f6e-9b1e-3f7f2c1d4a55"),
		AggregateID: model.CategoryAggregateID(3),
		EventType:   string(model.EventActionCategoryCreated),
		Payload:     []byte(`{"category_id":3,"name":"Tools","action":"category_created"}`),
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env := NewEnvelope(sampleEvent())
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)

	assert.Equal(t, env.MessageID, decoded.MessageID)
	assert.Equal(t, "category_created", decoded.EventType)
	assert.Equal(t, "category_3", decoded.AggregateID)
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))
	assert.True(t, env.OccurredAt.Equal(decoded.OccurredAt))
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":           `{`,
		"missing message id": `{"event_type":"category_created","payload":{}}`,
		"missing event type": `{"message_id":"0b6f1c9e-6b7d-4f6e-9b1e-3f7f2c1d4a55","payload":{}}`,
		"bad message id":     `{"message_id":"nope","event_type":"category_created"}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestEnvelopeFromFields(t *testing.T) {
	event := sampleEvent()
	env := NewEnvelope(event)

	fields := map[string]string{
		"message_id":   env.MessageID.String(),
		"event_type":   env.EventType,
		"aggregate_id": env.AggregateID,
		"occurred_at":  env.OccurredAt.Format(time.RFC3339Nano),
		"payload":      string(env.Payload),
	}

	got, err := envelopeFromFields(fields)
	require.NoError(t, err)
	assert.Equal(t, env.MessageID, got.MessageID)
	assert.Equal(t, env.AggregateID, got.AggregateID)
	assert.Equal(t, string(event.Payload), string(got.Payload))
	assert.True(t, env.OccurredAt.Equal(got.OccurredAt))

	for _, missing := range []string{"message_id", "event_type", "payload"} {
		t.Run("without "+missing, func(t *testing.T) {
			partial := make(map[string]string, len(fields))
			for k, v := range fields {
				if k != missing {
					partial[k] = v
				}
			}

			_, err := envelopeFromFields(partial)
			assert.Error(t, err)
		})
	}
}

func TestRoutingNames(t *testing.T) {
	assert.Equal(t, "store.events.category_created", subjectFor("store.events", "category_created"))
	assert.Equal(t, "store.events.a_b", subjectFor("store.events", "a.b"))

	cfg := DefaultRabbitMQConfig("amqp://localhost", "category-notifier")
	assert.Equal(t, "store.product_deleted", cfg.routingKey("product_deleted"))
}

func TestNewPublisher_UnknownDriver(t *testing.T) {
	cfg := &config.Config{BusDriver: "kafka"}

	_, err := NewPublisher(context.Background(), cfg, nil, logger.Discard())
	require.Error(t, err)

	_, err = NewSubscriber(context.Background(), cfg, nil, logger.Discard())
	require.Error(t, err)
}
