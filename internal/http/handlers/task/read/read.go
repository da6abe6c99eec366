// Package read реализует HTTP-обработчик получения задачи по идентификатору.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/services/task"
)

// Service читает задачу.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Task, error)
}

// Handler обрабатывает запросы на чтение задачи.
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
// @Summary Получить задачу
// @Tags Tasks
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID задачи"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Router /tasks/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			response.Fail(w, r, http.StatusNotFound, "task not found")
			return
		}
		log.Error("failed to read task", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, t)
}
