// Package hire реализует HTTP-обработчик найма исполнителя на задачу.
package hire

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	"github.com/nesi-market/nesi/internal/services/task"
)

// Request тело запроса найма.
type Request struct {
	ExecutorID string `json:"executor_id" validate:"required,uuid"`
}

// Service назначает исполнителя на задачу.
type Service interface {
	Hire(ctx context.Context, customerUID string, taskID int64, executorUID string) (*models.Task, error)
}

// Handler обрабатывает запросы на найм.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Нанять исполнителя
// @Description Назначает исполнителя на открытую задачу, если его уровень позволяет взять ещё одну.
// @Tags Tasks
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path int true "ID задачи"
// @Param request body Request true "Исполнитель"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Задача другого заказчика"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 409 {object} response.ErrorResponse "Задача закрыта или лимит исполнителя исчерпан"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /tasks/{id}/hire [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.hire"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || taskID <= 0 {
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.Invalid(w, r, verrs)
			return
		}
		response.Fail(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())

	t, err := h.service.Hire(r.Context(), caller.UserID, taskID, req.ExecutorID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		response.Fail(w, r, http.StatusNotFound, "task not found")
		return
	case errors.Is(err, task.ErrForbidden):
		response.Fail(w, r, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, task.ErrTaskNotOpen):
		response.Fail(w, r, http.StatusConflict, "task is not open")
		return
	case errors.Is(err, task.ErrLimitReached):
		log.Info("executor limit reached", slog.String("executor_id", req.ExecutorID))
		reason := task.ErrLimitReached.Error()
		var le *task.LimitError
		if errors.As(err, &le) && le.Reason != "" {
			reason = le.Reason
		}
		response.Fail(w, r, http.StatusConflict, reason)
		return
	case errors.Is(err, task.ErrNotExecutor):
		response.Fail(w, r, http.StatusBadRequest, "user is not an executor")
		return
	case err != nil:
		log.Error("failed to hire executor", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, t)
}
