package nesi

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/http/handlers/auth/login"
	"github.com/nesi-market/nesi/internal/http/handlers/auth/register"
	categorylist "github.com/nesi-market/nesi/internal/http/handlers/category/list"
	"github.com/nesi-market/nesi/internal/http/handlers/category/minprice"
	"github.com/nesi-market/nesi/internal/http/handlers/executor/busy"
	eligibilityhandler "github.com/nesi-market/nesi/internal/http/handlers/executor/eligibility"
	"github.com/nesi-market/nesi/internal/http/handlers/health"
	notificationlist "github.com/nesi-market/nesi/internal/http/handlers/notification/list"
	notificationread "github.com/nesi-market/nesi/internal/http/handlers/notification/read"
	"github.com/nesi-market/nesi/internal/http/handlers/notification/readall"
	"github.com/nesi-market/nesi/internal/http/handlers/notification/unread"
	"github.com/nesi-market/nesi/internal/http/handlers/task/hire"
	taskread "github.com/nesi-market/nesi/internal/http/handlers/task/read"
	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/lib/metrics"
	"github.com/nesi-market/nesi/internal/models"
	authservice "github.com/nesi-market/nesi/internal/services/auth"
	"github.com/nesi-market/nesi/internal/services/category"
	"github.com/nesi-market/nesi/internal/services/eligibility"
	"github.com/nesi-market/nesi/internal/services/notification"
	"github.com/nesi-market/nesi/internal/services/task"
)

// Services зависимости маршрутов API.
type Services struct {
	Auth          *authservice.Service
	Categories    *category.Service
	Eligibility   *eligibility.Checker
	Tasks         *task.Service
	Notifications *notification.Ledger
	Limiter       *middlewarectx.RateLimiter
	Health        map[string]health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки, лимит по IP-адресу
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))

			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
			r.Get("/categories", categorylist.New(logger, s.Categories).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))
			r.Use(middlewarectx.ActiveUserMiddleware(s.Auth, logger))

			r.With(middlewarectx.RequireRole(logger)).Group(func(r chi.Router) {
				r.Get("/tasks/{id}", taskread.New(logger, s.Tasks).ServeHTTP)
				r.Get("/notifications", notificationlist.New(logger, s.Notifications).ServeHTTP)
				r.Get("/notifications/unread-count", unread.New(logger, s.Notifications).ServeHTTP)
				r.Post("/notifications/read-all", readall.New(logger, s.Notifications).ServeHTTP)
				r.Post("/notifications/{id}/read", notificationread.New(logger, s.Notifications).ServeHTTP)
			})

			r.With(middlewarectx.RequireRole(logger, models.RoleExecutor)).Group(func(r chi.Router) {
				r.Get("/executors/{id}/eligibility", eligibilityhandler.New(logger, s.Eligibility).ServeHTTP)
				r.Get("/executors/{id}/busy", busy.New(logger, s.Eligibility).ServeHTTP)
			})

			r.With(middlewarectx.RequireRole(logger, models.RoleCustomer)).
				Post("/tasks/{id}/hire", hire.New(logger, s.Tasks).ServeHTTP)

			r.With(middlewarectx.RequireRole(logger, models.RoleAdmin)).
				Put("/admin/subcategories/{id}/min-price", minprice.New(logger, s.Categories).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func newLimiter(cfg *config.Config) *middlewarectx.RateLimiter {
	return middlewarectx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

func (a *App) healthChecks() map[string]health.Checker {
	return map[string]health.Checker{
		"postgres": func(ctx context.Context) error { return a.db.DB.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return a.cache.Db.Ping(ctx).Err() },
	}
}
