package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

type fakeAcknowledger struct {
	acked    int
	nacked   int
	rejected int
	requeue  bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.rejected++
	f.requeue = requeue
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name         string
		handlerErr   error
		wantAcked    int
		wantNacked   int
		wantRejected int
		wantRequeue  bool
	}{
		{name: "success acks", handlerErr: nil, wantAcked: 1},
		{name: "transient error requeues", handlerErr: errors.New("smtp down"), wantNacked: 1, wantRequeue: true},
		{name: "drop error rejects", handlerErr: fmt.Errorf("bad json: %w", ErrDrop), wantRejected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{}`)}

			var gotBody []byte
			handler := func(_ context.Context, body []byte) error {
				gotBody = body
				return tt.handlerErr
			}

			handleDelivery(context.Background(), d, handler, newNoopLogger())

			assert.Equal(t, []byte(`{}`), gotBody)
			assert.Equal(t, tt.wantAcked, ack.acked)
			assert.Equal(t, tt.wantNacked, ack.nacked)
			assert.Equal(t, tt.wantRejected, ack.rejected)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()

	assert.Equal(t, []QueueConfig{
		{QueueName: QueueCreated, RoutingKey: RoutingCreated},
		{QueueName: QueueDigest, RoutingKey: RoutingDigest},
	}, queues)

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
}
