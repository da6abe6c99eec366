// Package sender доставляет уведомления из очереди по почте и в Telegram.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

// UserRepository источник контактов получателя.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Mailer отправляет письма.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// MessageSender отправляет сообщения в Telegram.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// Service обрабатывает события уведомлений и дайджестов.
type Service struct {
	users    UserRepository
	mailer   Mailer
	telegram MessageSender
	log      *slog.Logger
}

// New создаёт Service. telegram может быть nil, тогда канал отключён.
func New(users UserRepository, mailer Mailer, telegram MessageSender, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		mailer:   mailer,
		telegram: telegram,
		log:      log,
	}
}

// HandleCreated доставляет одно созданное уведомление.
func (s *Service) HandleCreated(ctx context.Context, body []byte) error {
	const op = "sender.HandleCreated"

	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrDrop, err)
	}
	if event.UserID == "" {
		return fmt.Errorf("%s: %w: empty user_id", op, rabbitmq.ErrDrop)
	}

	text := event.Message
	if event.Link != nil {
		text += "\n\n" + *event.Link
	}
	tgText := "<b>" + html.EscapeString(event.Title) + "</b>\n" + html.EscapeString(event.Message)

	if err := s.deliver(ctx, event.UserID, event.Title, text, tgText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HandleDigest доставляет дайджест непрочитанных уведомлений.
func (s *Service) HandleDigest(ctx context.Context, body []byte) error {
	const op = "sender.HandleDigest"

	var event models.DigestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrDrop, err)
	}
	if event.UserID == "" || event.Unread <= 0 {
		return fmt.Errorf("%s: %w: empty digest", op, rabbitmq.ErrDrop)
	}

	subject := "Непрочитанные уведомления на NESI"
	text := fmt.Sprintf("У вас %d непрочитанных уведомлений.", event.Unread)
	if err := s.deliver(ctx, event.UserID, subject, text, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// deliver отправляет письмо и, если привязан чат, сообщение в Telegram.
// Ошибка письма возвращается для повторной доставки, ошибка Telegram только логируется,
// чтобы повтор не дублировал письмо.
func (s *Service) deliver(ctx context.Context, userUID, subject, text, tgText string) error {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s not found", rabbitmq.ErrDrop, userUID)
		}
		return err
	}
	log := s.log.With(slog.String("user_id", userUID))
	if user.Blocked {
		log.Info("skip delivery to blocked user")
		return nil
	}

	if err := s.mailer.Send([]string{user.Email}, subject, text); err != nil {
		return err
	}
	log.Info("email sent")

	if s.telegram != nil && user.TelegramChatID != nil {
		if err := s.telegram.SendMessage(*user.TelegramChatID, tgText); err != nil {
			log.Warn("failed to send telegram message", sl.Err(err))
		} else {
			log.Info("telegram message sent")
		}
	}
	return nil
}
