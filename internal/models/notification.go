package models

import "time"

// NotificationType тип уведомления.
type NotificationType string

const (
	// NotificationLogin информационное уведомление о входе, не участвует в счётчике непрочитанных.
	NotificationLogin      NotificationType = "login"
	NotificationInfo       NotificationType = "info"
	NotificationResponse   NotificationType = "response"
	NotificationHire       NotificationType = "hire"
	NotificationTaskStatus NotificationType = "task_status"
	NotificationPayment    NotificationType = "payment"
	NotificationMessage    NotificationType = "message"
)

// Notification запись журнала уведомлений пользователя.
// IsRead меняется только с false на true.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      *string          `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification данные для создания уведомления.
type NewNotification struct {
	UserID  string
	Type    NotificationType
	Title   string
	Message string
	Link    *string
}

// NotificationEvent сообщение в очереди доставки уведомлений.
type NotificationEvent struct {
	NotificationID int64            `json:"notification_id"`
	UserID         string           `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Link           *string          `json:"link,omitempty"`
}

// DigestEvent сообщение о накопившихся непрочитанных уведомлениях.
type DigestEvent struct {
	UserID string `json:"user_id"`
	Unread int64  `json:"unread"`
}

// UnreadDigest строка выборки для дайджеста.
type UnreadDigest struct {
	UserID string
	Unread int64
}
