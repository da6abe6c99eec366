package rabbitmq

// NotificationsExchange direct-обменник событий уведомлений.
const NotificationsExchange = "notifications"

const (
	// RoutingCreated ключ событий о созданных уведомлениях.
	RoutingCreated = "created"
	// RoutingDigest ключ дайджестов непрочитанных уведомлений.
	RoutingDigest = "digest"

	// QueueCreated очередь доставки созданных уведомлений.
	QueueCreated = "notification.created"
	// QueueDigest очередь доставки дайджестов.
	QueueDigest = "notification.digest"
)

// QueueConfig описывает очередь и ключ её привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые объявляет каждый участник обмена.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueCreated, RoutingKey: RoutingCreated},
		{QueueName: QueueDigest, RoutingKey: RoutingDigest},
	}
}
