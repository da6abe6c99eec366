package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nesi-market/nesi/internal/models"
)

// CreateNotification сохраняет уведомление и возвращает его с ID и датой создания.
func (s *Storage) CreateNotification(ctx context.Context, n models.NewNotification) (*models.Notification, error) {
	const op = "storage.CreateNotification"

	created := &models.Notification{
		UserID:  n.UserID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Link:    n.Link,
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, link)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		n.UserID, string(n.Type), n.Title, n.Message, n.Link,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return created, nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми.
func (s *Storage) ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, link, is_read, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, userUID, limit, offset)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Notification, 0, limit)
	for rows.Next() {
		n := &models.Notification{}
		var typ string
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		n.Type = models.NotificationType(typ)
		if link.Valid {
			n.Link = &link.String
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead помечает одно уведомление пользователя прочитанным.
// Возвращает false, если у пользователя нет такого уведомления.
func (s *Storage) MarkNotificationRead(ctx context.Context, userUID string, id int64) (bool, error) {
	const op = "storage.MarkNotificationRead"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userUID)
	if err != nil {
		return false, mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// MarkAllNotificationsRead помечает прочитанными все непрочитанные уведомления пользователя
// и возвращает число изменённых строк.
func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userUID string) (int64, error) {
	const op = "storage.MarkAllNotificationsRead"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userUID)
	if err != nil {
		return 0, mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CountUnreadNotifications считает непрочитанные уведомления, кроме уведомлений о входе.
func (s *Storage) CountUnreadNotifications(ctx context.Context, userUID string) (int64, error) {
	const op = "storage.CountUnreadNotifications"

	var count int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = $1 AND is_read = false AND type <> $2`,
		userUID, string(models.NotificationLogin),
	).Scan(&count)
	if err != nil {
		return 0, mapError(op, err)
	}
	return count, nil
}

// FindUnreadDigests возвращает незаблокированных пользователей с непрочитанными
// уведомлениями старше olderThan и их общее число непрочитанных.
func (s *Storage) FindUnreadDigests(ctx context.Context, olderThan time.Time) ([]models.UnreadDigest, error) {
	const op = "storage.FindUnreadDigests"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT n.user_id, COUNT(*)
		 FROM notifications n
		 JOIN users u ON u.uid = n.user_id
		 WHERE n.is_read = false AND n.type <> $1 AND NOT u.blocked
		 GROUP BY n.user_id
		 HAVING MIN(n.created_at) < $2
		 ORDER BY n.user_id`,
		string(models.NotificationLogin), olderThan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UnreadDigest
	for rows.Next() {
		var d models.UnreadDigest
		if err := rows.Scan(&d.UserID, &d.Unread); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
