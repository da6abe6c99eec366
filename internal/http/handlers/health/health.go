// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nesi-market/nesi/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker func(ctx context.Context) error

// Handler отвечает "OK", если все проверки прошли.
type Handler struct {
	log    *slog.Logger
	checks map[string]Checker
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  plain
// @Success 200 {string} string "OK"
// @Failure 503 {string} string "unavailable"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.log.Error("health check failed", slog.String("dependency", name), sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(name + " unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
