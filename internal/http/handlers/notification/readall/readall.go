// Package readall реализует HTTP-обработчик отметки всех уведомлений прочитанными.
package readall

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
)

// Service отмечает все уведомления пользователя прочитанными.
type Service interface {
	MarkAllRead(ctx context.Context, userUID string) (int64, error)
}

// Handler обрабатывает запросы read-all.
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
// @Summary Прочитать все уведомления
// @Tags Notifications
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /notifications/read-all [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.readall"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, _ := middlewarectx.CallerFrom(r.Context())

	updated, err := h.service.MarkAllRead(r.Context(), caller.UserID)
	if err != nil {
		log.Error("failed to mark notifications read", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Debug("notifications marked read", slog.Int64("updated", updated))
	response.OK(w, r, map[string]any{
		"updated": updated,
	})
}
