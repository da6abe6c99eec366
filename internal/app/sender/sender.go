// Package sender собирает воркер доставки уведомлений по почте и в Telegram.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/lib/smtp"
	"github.com/nesi-market/nesi/internal/lib/telegram"
	senderservice "github.com/nesi-market/nesi/internal/services/sender"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

// App воркер доставки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к базе и брокеру и готовит каналы доставки.
// Пустой токен Telegram отключает доставку в мессенджер.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	var tg senderservice.MessageSender
	if cfg.TelegramToken != "" {
		bot, err := telegram.New(cfg.TelegramToken)
		if err != nil {
			logger.Warn("telegram disabled", sl.Err(err))
		} else {
			tg = bot
		}
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger))
	senderService := senderservice.New(db, mailer, tg, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueCreated, a.senderService.HandleCreated, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueCreated), sl.Err(err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueDigest, a.senderService.HandleDigest, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueDigest), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
