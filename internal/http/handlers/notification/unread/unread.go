// Package unread реализует HTTP-обработчик счётчика непрочитанных уведомлений.
package unread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
)

// Service считает непрочитанные уведомления.
type Service interface {
	CountUnread(ctx context.Context, userUID string) (int64, error)
}

// Handler обрабатывает запросы счётчика.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Число непрочитанных уведомлений
// @Description Уведомления о входе не учитываются.
// @Tags Notifications
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /notifications/unread-count [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.unread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, _ := middlewarectx.CallerFrom(r.Context())

	n, err := h.service.CountUnread(r.Context(), caller.UserID)
	if err != nil {
		log.Error("failed to count unread notifications", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, map[string]any{
		"unread": n,
	})
}
