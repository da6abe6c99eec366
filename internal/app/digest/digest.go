// Package digest собирает планировщик дайджестов непрочитанных уведомлений.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	digestservice "github.com/nesi-market/nesi/internal/services/digest"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

// App приложение планировщика.
type App struct {
	scheduler *digestservice.Scheduler
	conn      *amqp.Connection
	ch        *amqp.Channel
	db        *repository.Storage
	logger    *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	service := digestservice.New(db, rabbitmq.NewPublisher(ch, rabbitmq.NotificationsExchange), cfg.DigestMinAge, logger)
	scheduler, err := digestservice.NewScheduler(ctx, service, cfg.DigestSchedule, logger)
	if err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	return &App{
		scheduler: scheduler,
		conn:      conn,
		ch:        ch,
		db:        db,
		logger:    logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)

	a.logger.Info("shutting down digest scheduler")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
