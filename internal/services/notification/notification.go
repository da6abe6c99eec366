// Package notification ведёт журнал уведомлений пользователя и их состояние прочтения.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

const (
	// DefaultListLimit размер страницы по умолчанию.
	DefaultListLimit = 20
	// MaxListLimit максимальный размер страницы.
	MaxListLimit = 100
)

var (
	// ErrNotFound уведомление не найдено у пользователя.
	ErrNotFound = errors.New("notification not found")
	// ErrInvalidInput некорректные параметры запроса.
	ErrInvalidInput = errors.New("invalid input")
)

// Repository хранилище уведомлений.
type Repository interface {
	CreateNotification(ctx context.Context, n models.NewNotification) (*models.Notification, error)
	ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userUID string, id int64) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userUID string) (int64, error)
	CountUnreadNotifications(ctx context.Context, userUID string) (int64, error)
}

// EventPublisher публикует события для воркеров доставки.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Ledger журнал уведомлений.
type Ledger struct {
	repo      Repository
	publisher EventPublisher
	log       *slog.Logger
}

// New создаёт Ledger. publisher может быть nil, тогда события не публикуются.
func New(repo Repository, publisher EventPublisher, log *slog.Logger) *Ledger {
	return &Ledger{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Create сохраняет уведомление и ставит его в очередь доставки.
// Уведомления о входе только сохраняются.
func (l *Ledger) Create(ctx context.Context, n models.NewNotification) (*models.Notification, error) {
	const op = "notification.Create"
	if n.UserID == "" || n.Type == "" || n.Title == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	created, err := l.repo.CreateNotification(ctx, n)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if created.Type == models.NotificationLogin || l.publisher == nil {
		return created, nil
	}
	event := models.NotificationEvent{
		NotificationID: created.ID,
		UserID:         created.UserID,
		Type:           created.Type,
		Title:          created.Title,
		Message:        created.Message,
		Link:           created.Link,
	}
	if err := l.publisher.Publish(ctx, rabbitmq.RoutingCreated, event); err != nil {
		l.log.Warn("failed to publish notification event",
			slog.Int64("notification_id", created.ID), sl.Err(err))
	}
	return created, nil
}

// List возвращает страницу уведомлений пользователя, новые первыми.
// limit вне диапазона [1, MaxListLimit] заменяется на DefaultListLimit.
func (l *Ledger) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	const op = "notification.List"
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}
	list, err := l.repo.ListNotifications(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// MarkRead помечает одно уведомление пользователя прочитанным.
// Повторная отметка успешна.
func (l *Ledger) MarkRead(ctx context.Context, userUID string, id int64) error {
	const op = "notification.MarkRead"
	ok, err := l.repo.MarkNotificationRead(ctx, userUID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// MarkAllRead помечает прочитанными все уведомления пользователя и возвращает число изменённых.
// Повторный вызов возвращает 0.
func (l *Ledger) MarkAllRead(ctx context.Context, userUID string) (int64, error) {
	const op = "notification.MarkAllRead"
	n, err := l.repo.MarkAllNotificationsRead(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	l.log.Debug("notifications marked read", slog.String("user_id", userUID), slog.Int64("count", n))
	return n, nil
}

// CountUnread считает непрочитанные уведомления без учёта уведомлений о входе.
func (l *Ledger) CountUnread(ctx context.Context, userUID string) (int64, error) {
	const op = "notification.CountUnread"
	n, err := l.repo.CountUnreadNotifications(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
