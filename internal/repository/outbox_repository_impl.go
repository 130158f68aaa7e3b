package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jnst/store-backoffice/internal/model"
)

const outboxColumns = `id, message_id, aggregate_id, event_type, payload, status, attempts,
	next_attempt_at, COALESCE(last_error, ''), created_at, published_at`

// OutboxRepositoryImpl implements OutboxRepository using PostgreSQL.
type OutboxRepositoryImpl struct {
	pool DBTX
}

// NewOutboxRepositoryImpl creates a new OutboxRepository implementation.
func NewOutboxRepositoryImpl(pool DBTX) OutboxRepository {
	return &OutboxRepositoryImpl{pool: pool}
}

// CreateEvent creates a new pending outbox event. Called inside the business
// transaction, so the event commits or rolls back with the entity change.
func (r *OutboxRepositoryImpl) CreateEvent(
	ctx context.Context, params *model.CreateOutboxEventParams,
) (*model.OutboxEvent, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO outbox_events (message_id, aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+outboxColumns,
		params.MessageID, params.AggregateID, params.EventType, params.Payload,
	)

	event, err := scanOutboxEvent(row)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return event, nil
}

// FetchDue retrieves deliverable events with row locks. Rows locked by another
// relay instance are skipped.
func (r *OutboxRepositoryImpl) FetchDue(ctx context.Context, now time.Time, limit int) ([]*model.OutboxEvent, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+outboxColumns+`
		 FROM outbox_events
		 WHERE status IN ('pending', 'retry_wait') AND next_attempt_at <= $1
		 ORDER BY id
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// MarkAsPublished marks an outbox event as delivered.
func (r *OutboxRepositoryImpl) MarkAsPublished(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx,
		`UPDATE outbox_events
		 SET status = 'delivered', attempts = attempts + 1, published_at = $2, last_error = NULL
		 WHERE id = $1`,
		id, at,
	)
}

// ScheduleRetry moves an event to retry_wait until next.
func (r *OutboxRepositoryImpl) ScheduleRetry(
	ctx context.Context, id int64, attempts int, next time.Time, lastErr string,
) error {
	return r.exec(ctx,
		`UPDATE outbox_events
		 SET status = 'retry_wait', attempts = $2, next_attempt_at = $3, last_error = $4
		 WHERE id = $1`,
		id, attempts, next, lastErr,
	)
}

// MarkAsFailed parks an event that exhausted its retries.
func (r *OutboxRepositoryImpl) MarkAsFailed(ctx context.Context, id int64, attempts int, lastErr string) error {
	return r.exec(ctx,
		`UPDATE outbox_events SET status = 'failed', attempts = $2, last_error = $3 WHERE id = $1`,
		id, attempts, lastErr,
	)
}

// ListFailed retrieves parked events, oldest first.
func (r *OutboxRepositoryImpl) ListFailed(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+outboxColumns+`
		 FROM outbox_events
		 WHERE status = 'failed'
		 ORDER BY id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// Requeue returns a parked event to pending with a fresh retry budget.
func (r *OutboxRepositoryImpl) Requeue(ctx context.Context, id int64, now time.Time) error {
	return r.exec(ctx,
		`UPDATE outbox_events
		 SET status = 'pending', attempts = 0, next_attempt_at = $2, last_error = NULL
		 WHERE id = $1 AND status = 'failed'`,
		id, now,
	)
}

func (r *OutboxRepositoryImpl) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return translateError(err, nil)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOutboxEventNotFound
	}

	return nil
}

func collectOutboxEvents(rows pgx.Rows) ([]*model.OutboxEvent, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.OutboxEvent, error) {
		return scanOutboxEvent(row)
	})
}

func scanOutboxEvent(row pgx.Row) (*model.OutboxEvent, error) {
	var (
		event  model.OutboxEvent
		status string
	)

	err := row.Scan(
		&event.ID,
		&event.MessageID,
		&event.AggregateID,
		&event.EventType,
		&event.Payload,
		&status,
		&event.Attempts,
		&event.NextAttemptAt,
		&event.LastError,
		&event.CreatedAt,
		&event.PublishedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Status = model.OutboxStatus(status)

	return &event, nil
}
