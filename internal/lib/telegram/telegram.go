// Package telegram отправляет уведомления пользователям через Telegram-бота.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API подмножество клиента бота, которое нужно для отправки сообщений.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет сообщения в чаты пользователей.
type Notifier struct {
	api API
}

// New подключается к Bot API по токену.
func New(token string) (*Notifier, error) {
	const op = "telegram.New"
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Notifier{api: api}, nil
}

// NewWithAPI создаёт Notifier поверх готового клиента.
func NewWithAPI(api API) *Notifier {
	return &Notifier{api: api}
}

// SendMessage отправляет HTML-сообщение в чат chatID.
func (n *Notifier) SendMessage(chatID int64, text string) error {
	const op = "telegram.SendMessage"
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
