// Package nesi собирает HTTP API маркетплейса: хранилище, кеши, брокер и сервисы.
package nesi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"

	"github.com/nesi-market/nesi/internal/cache"
	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/lib/jwt"
	"github.com/nesi-market/nesi/internal/lib/metrics"
	"github.com/nesi-market/nesi/internal/lib/password"
	"github.com/nesi-market/nesi/internal/lib/rabbitmq"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/migrations"
	authservice "github.com/nesi-market/nesi/internal/services/auth"
	"github.com/nesi-market/nesi/internal/services/category"
	"github.com/nesi-market/nesi/internal/services/eligibility"
	"github.com/nesi-market/nesi/internal/services/notification"
	"github.com/nesi-market/nesi/internal/services/task"
	"github.com/nesi-market/nesi/internal/storage/repository"
)

// App HTTP-сервер API вместе с открытыми ресурсами.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	amqpConn   *amqp.Connection
	amqpCh     *amqp.Channel
	categories *category.Service
}

// New подключает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher notification.EventPublisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			app.close()
			return nil, err
		}
		app.amqpConn, app.amqpCh = conn, ch
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.NotificationsExchange)
	} else {
		logger.Warn("rabbitmq url is empty, notification delivery disabled")
	}

	ledger := notification.New(db, publisher, logger)
	checker := eligibility.New(db, eligibility.NewTableLimits(cfg.Eligibility), logger)
	tasks := task.New(db, checker, ledger, cacheRedis, logger)
	auth := authservice.New(
		db,
		password.NewHasher(bcrypt.DefaultCost),
		jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		ledger,
		logger,
	)
	categoryCache := category.NewCache(db, cfg.CategoryCacheTTL, category.WithObserver(metrics.ObserveCategoryCache))
	app.categories = category.NewService(categoryCache, db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:          auth,
		Categories:    app.categories,
		Eligibility:   checker,
		Tasks:         tasks,
		Notifications: ledger,
		Limiter:       newLimiter(cfg),
		Health:        app.healthChecks(),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	if err := a.cache.Subscribe(ctx, cache.CategoryInvalidationChannel, a.categories.HandleInvalidation, a.logger); err != nil {
		a.logger.Warn("category invalidation subscription failed, peers will rely on ttl", sl.Err(err))
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
