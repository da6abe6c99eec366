package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nesi-market/nesi/internal/lib/sl"
)

// CategoryInvalidationChannel канал сигналов сброса кеша категорий.
const CategoryInvalidationChannel = "nesi:categories:invalidate"

// Publish отправляет сигнал в канал.
func (c *Cache) Publish(ctx context.Context, channel, payload string) error {
	const op = "cache.Publish"
	if err := c.Db.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribe подписывается на канал и вызывает handle для каждого сообщения,
// пока не отменён ctx. Возвращает ошибку, только если подписка не удалась.
func (c *Cache) Subscribe(ctx context.Context, channel string, handle func(payload string), log *slog.Logger) error {
	const op = "cache.Subscribe"

	sub := c.Db.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				log.Warn("failed to close subscription", slog.String("channel", channel), sl.Err(err))
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handle(msg.Payload)
			}
		}
	}()
	return nil
}
