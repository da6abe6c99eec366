package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/nesi-market/nesi/internal/lib/sl"
)

// prefetch ограничивает и QoS канала, и число одновременно обрабатываемых сообщений.
const prefetch = 10

// ErrDrop помечает сообщения, которые бессмысленно обрабатывать повторно.
// Такие сообщения отклоняются без возврата в очередь.
var ErrDrop = errors.New("drop message")

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди queueName.
// Обработка идёт в фоне до отмены ctx или закрытия канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	go func() {
		sem := make(chan struct{}, prefetch)
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					handleDelivery(ctx, d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler, log *slog.Logger) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrDrop):
		log.Error("dropping message", sl.Err(err))
		if rejErr := d.Reject(false); rejErr != nil {
			log.Error("failed to reject message", sl.Err(rejErr))
		}
	default:
		log.Warn("message handling failed, requeue", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
