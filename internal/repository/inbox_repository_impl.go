package repository

import (
	"context"

	"github.com/google/uuid"
)

// InboxRepositoryImpl implements InboxRepository using PostgreSQL.
type InboxRepositoryImpl struct {
	pool DBTX
}

// NewInboxRepositoryImpl creates a new InboxRepository implementation.
func NewInboxRepositoryImpl(pool DBTX) InboxRepository {
	return &InboxRepositoryImpl{pool: pool}
}

// Record inserts the (message, consumer) marker. It returns false when the
// marker already existed, meaning the message was processed before.
func (r *InboxRepositoryImpl) Record(ctx context.Context, messageID uuid.UUID, consumer string) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO inbox_records (message_id, consumer) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		messageID, consumer,
	)
	if err != nil {
		return false, translateError(err, nil)
	}

	return tag.RowsAffected() == 1, nil
}
