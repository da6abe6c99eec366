// Package read реализует HTTP-обработчик отметки одного уведомления прочитанным.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/services/notification"
)

// Service отмечает уведомление прочитанным.
type Service interface {
	MarkRead(ctx context.Context, userUID string, id int64) error
}

// Handler обрабатывает запросы на отметку уведомления.
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
// @Summary Прочитать уведомление
// @Description Повторная отметка не является ошибкой. Чужое уведомление выглядит как отсутствующее.
// @Tags Notifications
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID уведомления"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Router /notifications/{id}/read [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())

	if err := h.service.MarkRead(r.Context(), caller.UserID, id); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			response.Fail(w, r, http.StatusNotFound, "notification not found")
			return
		}
		log.Error("failed to mark notification read", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, map[string]any{
		"id":      id,
		"is_read": true,
	})
}
