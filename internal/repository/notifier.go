package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// OutboxNotifyChannel is the channel the outbox_events_notify trigger in
// schema.sql notifies on insert.
const OutboxNotifyChannel = "outbox_events"

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// OutboxNotifier turns Postgres NOTIFY messages on the outbox channel into
// wake-ups for the relay. Polling remains the fallback for missed notifications.
type OutboxNotifier struct {
	listener *pq.Listener
	channel  string
	logger   *slog.Logger
}

// NewOutboxNotifier opens a dedicated LISTEN connection on OutboxNotifyChannel.
func NewOutboxNotifier(databaseURL string, logger *slog.Logger) (*OutboxNotifier, error) {
	channel := OutboxNotifyChannel

	l := pq.NewListener(databaseURL, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("outbox listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
			}
		},
	)

	if err := l.Listen(channel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel %s: %w", channel, err)
	}

	return &OutboxNotifier{
		listener: l,
		channel:  channel,
		logger:   logger,
	}, nil
}

// Run forwards notifications to wake until ctx is done. Sends never block: a
// pending wake-up already covers every event committed before it is consumed.
func (n *OutboxNotifier) Run(ctx context.Context, wake chan<- struct{}) {
	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	n.logger.Info("listening for outbox notifications", slog.String("channel", n.channel))

	for {
		select {
		case <-ctx.Done():
			return
		case note := <-n.listener.Notify:
			// nil means the connection was re-established; events may have been missed.
			if note != nil {
				n.logger.Debug("outbox notification", slog.String("event_id", note.Extra))
			}

			select {
			case wake <- struct{}{}:
			default:
			}
		case <-ping.C:
			if err := n.listener.Ping(); err != nil {
				n.logger.Error("failed to ping outbox listener", slog.String("error", err.Error()))
			}
		}
	}
}

// Close closes the LISTEN connection.
func (n *OutboxNotifier) Close() error {
	return n.listener.Close()
}
