package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/testsupport"
)

var errBusDown = errors.New("bus unreachable")

type relayFixture struct {
	*fixture
	clock     *clockwork.FakeClock
	publisher *testsupport.Publisher
	relay     OutboxService
}

func newRelayFixture(t *testing.T, script ...error) *relayFixture {
	t.Helper()

	f := newFixture(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	f.store.Now = clock.Now
	publisher := testsupport.NewPublisher(script...)

	return &relayFixture{
		fixture:   f,
		clock:     clock,
		publisher: publisher,
		relay: NewOutboxServiceImpl(
			f.store.Outbox(), f.store, publisher, DefaultRetrySchedule(), clock, logger.Discard(),
		),
	}
}

func (f *relayFixture) pass(t *testing.T) RelayResult {
	t.Helper()

	result, err := f.relay.ProcessUnpublishedEvents(context.Background(), 10)
	require.NoError(t, err)

	return *result
}

func TestOutboxService_DeliversCommittedEvents(t *testing.T) {
	f := newRelayFixture(t)
	f.createCategory(t, "Tools")
	f.createCategory(t, "Garden")

	assert.Equal(t, RelayResult{Delivered: 2}, f.pass(t))

	published := f.publisher.Published()
	require.Len(t, published, 2)
	assert.Equal(t, string(model.EventActionCategoryCreated), published[0].EventType)

	for _, e := range f.store.OutboxEvents() {
		assert.Equal(t, model.OutboxStatusDelivered, e.Status)
		require.NotNil(t, e.PublishedAt)
	}

	assert.Equal(t, RelayResult{}, f.pass(t))
}

func TestOutboxService_RolledBackEventsAreNeverPublished(t *testing.T) {
	f := newRelayFixture(t)
	f.store.FailCommits(errors.New("commit failed"))

	_, err := f.categories.Create(context.Background(), &model.CreateCategoryParams{Name: "Tools"})
	require.Error(t, err)

	f.store.FailCommits(nil)

	assert.Equal(t, RelayResult{}, f.pass(t))
	assert.Zero(t, f.publisher.Attempts())
}

func TestOutboxService_BackoffThenPark(t *testing.T) {
	f := newRelayFixture(t)
	f.publisher.FailAlways(errBusDown)
	f.createCategory(t, "Tools")

	steps := []time.Duration{5 * time.Second, 10 * time.Second, 30 * time.Second}

	for i, delay := range steps {
		assert.Equal(t, RelayResult{Retried: 1}, f.pass(t), "attempt %d", i+1)

		event := f.store.OutboxEvents()[0]
		assert.Equal(t, model.OutboxStatusRetryWait, event.Status)
		assert.Equal(t, i+1, event.Attempts)
		assert.Equal(t, f.clock.Now().Add(delay), event.NextAttemptAt)
		assert.Equal(t, errBusDown.Error(), event.LastError)

		// Not yet due.
		f.clock.Advance(delay - time.Second)
		assert.Equal(t, RelayResult{}, f.pass(t))
		f.clock.Advance(time.Second)
	}

	assert.Equal(t, RelayResult{Parked: 1}, f.pass(t))

	event := f.store.OutboxEvents()[0]
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Equal(t, 4, event.Attempts)

	// Parked events are kept, never retried automatically.
	f.clock.Advance(time.Hour)
	assert.Equal(t, RelayResult{}, f.pass(t))
	assert.Equal(t, 4, f.publisher.Attempts())
}

func TestOutboxService_RequeueParkedEvent(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture(t)
	f.publisher.FailAlways(errBusDown)
	f.createCategory(t, "Tools")

	for _, delay := range DefaultRetrySchedule() {
		f.pass(t)
		f.clock.Advance(delay)
	}

	assert.Equal(t, RelayResult{Parked: 1}, f.pass(t))

	parked, err := f.relay.ListParked(ctx, 10)
	require.NoError(t, err)
	require.Len(t, parked, 1)

	require.NoError(t, f.relay.Requeue(ctx, parked[0].ID))

	err = f.relay.Requeue(ctx, parked[0].ID)
	require.ErrorIs(t, err, model.ErrOutboxEventNotFound)

	f.publisher.FailAlways(nil)
	assert.Equal(t, RelayResult{Delivered: 1}, f.pass(t))

	parked, err = f.relay.ListParked(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, parked)
}

func TestOutboxService_TransientFailureRecovers(t *testing.T) {
	f := newRelayFixture(t, errBusDown)
	f.createCategory(t, "Tools")

	assert.Equal(t, RelayResult{Retried: 1}, f.pass(t))

	f.clock.Advance(5 * time.Second)
	assert.Equal(t, RelayResult{Delivered: 1}, f.pass(t))

	event := f.store.OutboxEvents()[0]
	assert.Equal(t, model.OutboxStatusDelivered, event.Status)
	assert.Equal(t, 2, event.Attempts)
	assert.Empty(t, event.LastError)
}

func TestRetrySchedule_Delay(t *testing.T) {
	schedule := DefaultRetrySchedule()

	for failures, want := range map[int]time.Duration{1: 5 * time.Second, 2: 10 * time.Second, 3: 30 * time.Second} {
		got, ok := schedule.Delay(failures)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := schedule.Delay(4)
	assert.False(t, ok)

	_, ok = schedule.Delay(0)
	assert.False(t, ok)

	assert.Equal(t, 4, schedule.MaxAttempts())
}

func TestOutboxService_ListParkedEmptyIsNotNil(t *testing.T) {
	f := newRelayFixture(t)
	f.createCategory(t, "Tools")

	parked, err := f.relay.ListParked(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, parked)
	assert.Empty(t, parked)
}
