// Package list реализует HTTP-обработчик ленты уведомлений вызывающего.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
)

// Service отдаёт страницу уведомлений пользователя.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error)
}

// Handler обрабатывает запросы на получение ленты уведомлений.
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
// @Summary Лента уведомлений
// @Description Уведомления текущего пользователя, новые сначала.
// @Tags Notifications
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Размер страницы (1..100, по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, ok := queryInt(r, "limit")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok || offset < 0 {
		response.Fail(w, r, http.StatusBadRequest, "invalid offset")
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())

	items, err := h.service.List(r.Context(), caller.UserID, limit, offset)
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}

	response.OK(w, r, map[string]any{
		"notifications": items,
	})
}

// queryInt читает необязательный целый параметр. Отсутствие параметра даёт 0.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
