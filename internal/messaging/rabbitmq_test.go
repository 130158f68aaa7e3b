package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmations(cs ...amqp.Confirmation) chan amqp.Confirmation {
	ch := make(chan amqp.Confirmation, len(cs))
	for _, c := range cs {
		ch <- c
	}

	return ch
}

func returnsOf(ids ...string) chan amqp.Return {
	ch := make(chan amqp.Return, len(ids))
	for _, id := range ids {
		ch <- amqp.Return{MessageId: id, ReplyCode: 312, ReplyText: "NO_ROUTE"}
	}

	return ch
}

func TestAwaitConfirm(t *testing.T) {
	tests := []struct {
		name     string
		confirms chan amqp.Confirmation
		returns  chan amqp.Return
		wantErr  string
		is       error
	}{
		{
			name:     "ack for own tag",
			confirms: confirmations(amqp.Confirmation{DeliveryTag: 2, Ack: true}),
			returns:  returnsOf(),
		},
		{
			name: "late ack of a timed out publish is skipped",
			confirms: confirmations(
				amqp.Confirmation{DeliveryTag: 1, Ack: true},
				amqp.Confirmation{DeliveryTag: 2, Ack: true},
			),
			returns: returnsOf(),
		},
		{
			name: "late ack does not hide a nack",
			confirms: confirmations(
				amqp.Confirmation{DeliveryTag: 1, Ack: true},
				amqp.Confirmation{DeliveryTag: 2, Ack: false},
			),
			returns: returnsOf(),
			wantErr: "nacked",
		},
		{
			name:     "only a late ack arrives",
			confirms: confirmations(amqp.Confirmation{DeliveryTag: 1, Ack: true}),
			returns:  returnsOf(),
			wantErr:  "timed out",
		},
		{
			name:     "tag skipped",
			confirms: confirmations(amqp.Confirmation{DeliveryTag: 3, Ack: true}),
			returns:  returnsOf(),
			wantErr:  "never arrived",
		},
		{
			name:     "unroutable message",
			confirms: confirmations(amqp.Confirmation{DeliveryTag: 2, Ack: true}),
			returns:  returnsOf("msg-2"),
			is:       ErrUnroutable,
		},
		{
			name:     "return of an earlier message is ignored",
			confirms: confirmations(amqp.Confirmation{DeliveryTag: 2, Ack: true}),
			returns:  returnsOf("msg-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := awaitConfirm(context.Background(), tt.confirms, tt.returns, 2, "msg-2", 20*time.Millisecond)

			switch {
			case tt.is != nil:
				require.ErrorIs(t, err, tt.is)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestAwaitConfirm_ConsecutivePublishesAfterTimeout(t *testing.T) {
	confirms := make(chan amqp.Confirmation, 2)
	returns := make(chan amqp.Return, 1)

	err := awaitConfirm(context.Background(), confirms, returns, 1, "msg-1", 10*time.Millisecond)
	require.Error(t, err)

	// The broker confirms the first publish only after it timed out.
	confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}

	err = awaitConfirm(context.Background(), confirms, returns, 2, "msg-2", 10*time.Millisecond)
	require.Error(t, err, "an ack for tag 1 must not confirm tag 2")

	confirms <- amqp.Confirmation{DeliveryTag: 2, Ack: true}
	require.NoError(t, awaitConfirm(context.Background(), confirms, returns, 2, "msg-2", 10*time.Millisecond))
}

func TestAwaitConfirm_ClosedOrCancelled(t *testing.T) {
	closed := make(chan amqp.Confirmation)
	close(closed)

	err := awaitConfirm(context.Background(), closed, returnsOf(), 1, "msg-1", time.Second)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = awaitConfirm(ctx, make(chan amqp.Confirmation), returnsOf(), 1, "msg-1", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
