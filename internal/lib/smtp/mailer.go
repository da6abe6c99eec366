package smtp

import (
	"fmt"
	"mime"
	"strings"
)

// Mailer формирует письмо и отправляет его через транспорт.
type Mailer struct {
	transport TransportInterface
}

// NewMailer создаёт Mailer поверх транспорта.
func NewMailer(transport TransportInterface) *Mailer {
	return &Mailer{transport: transport}
}

// Send отправляет текстовое письмо в UTF-8 одному или нескольким получателям.
// Тема кодируется по RFC 2047.
func (m *Mailer) Send(to []string, subject, body string) error {
	const op = "smtp.Send"
	if len(to) == 0 {
		return fmt.Errorf("%s: no recipients", op)
	}
	from := m.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	client, err := m.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: MAIL FROM: %w", op, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("%s: RCPT TO %s: %w", op, addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: DATA: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write body: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: QUIT: %w", op, err)
	}
	return nil
}
