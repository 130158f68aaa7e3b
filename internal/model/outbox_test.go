package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutboxStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OutboxStatus
		want     bool
	}{
		{OutboxStatusPending, OutboxStatusDelivered, true},
		{OutboxStatusPending, OutboxStatusRetryWait, true},
		{OutboxStatusPending, OutboxStatusFailed, true},
		{OutboxStatusRetryWait, OutboxStatusPending, true},
		{OutboxStatusRetryWait, OutboxStatusRetryWait, true},
		{OutboxStatusRetryWait, OutboxStatusDelivered, true},
		{OutboxStatusRetryWait, OutboxStatusFailed, true},
		{OutboxStatusFailed, OutboxStatusPending, true},
		{OutboxStatusFailed, OutboxStatusDelivered, false},
		{OutboxStatusDelivered, OutboxStatusPending, false},
		{OutboxStatusDelivered, OutboxStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOutboxStatus_Deliverable(t *testing.T) {
	assert.True(t, OutboxStatusPending.Deliverable())
	assert.True(t, OutboxStatusRetryWait.Deliverable())
	assert.False(t, OutboxStatusDelivered.Deliverable())
	assert.False(t, OutboxStatusFailed.Deliverable())
}

func TestAggregateIDs(t *testing.T) {
	assert.Equal(t, "category_7", CategoryAggregateID(7))
	assert.Equal(t, "product_9", ProductAggregateID(9))
}
