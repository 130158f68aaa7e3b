package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/service"
)

type scriptedRelay struct {
	results []service.RelayResult
	err     error
	calls   int
	// onCall runs after each pass with the pass number.
	onCall func(n int)
}

func (r *scriptedRelay) ProcessUnpublishedEvents(context.Context, int) (*service.RelayResult, error) {
	r.calls++
	defer r.onCall(r.calls)

	if r.err != nil {
		return nil, r.err
	}

	if r.calls <= len(r.results) {
		result := r.results[r.calls-1]
		return &result, nil
	}

	return &service.RelayResult{}, nil
}

func (*scriptedRelay) ListParked(context.Context, int) ([]*model.OutboxEvent, error) { return nil, nil }

func (*scriptedRelay) Requeue(context.Context, int64) error { return nil }

func TestRunPublisherLoop_DrainsFullBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := &scriptedRelay{
		results: []service.RelayResult{{Delivered: 2}, {Delivered: 1, Retried: 1}, {Delivered: 1}},
	}
	relay.onCall = func(n int) {
		if n == 3 {
			cancel()
		}
	}

	runPublisherLoop(ctx, relay, nil, time.Hour, 2, logger.Discard())

	assert.Equal(t, 3, relay.calls)
}

func TestRunPublisherLoop_WakesOnNotify(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wake := make(chan struct{}, 1)
	relay := &scriptedRelay{}
	relay.onCall = func(n int) {
		switch n {
		case 1:
			wake <- struct{}{}
		case 2:
			cancel()
		}
	}

	runPublisherLoop(ctx, relay, wake, time.Hour, 10, logger.Discard())

	assert.Equal(t, 2, relay.calls)
}

func TestRunPublisherLoop_ErrorEndsPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := &scriptedRelay{err: errors.New("database unavailable")}
	relay.onCall = func(int) { cancel() }

	runPublisherLoop(ctx, relay, nil, time.Hour, 10, logger.Discard())

	assert.Equal(t, 1, relay.calls)
}
