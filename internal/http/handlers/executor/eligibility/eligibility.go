// Package eligibility реализует HTTP-обработчик проверки допуска исполнителя к новой задаче.
package eligibility

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/nesi-market/nesi/internal/authz"
	"github.com/nesi-market/nesi/internal/http/middlewarectx"
	"github.com/nesi-market/nesi/internal/http/response"
	"github.com/nesi-market/nesi/internal/lib/sl"
	"github.com/nesi-market/nesi/internal/models"
	eligibilityservice "github.com/nesi-market/nesi/internal/services/eligibility"
)

// Service вычисляет допуск исполнителя.
type Service interface {
	CanTakeMoreTasks(ctx context.Context, executorUID string) (eligibilityservice.Eligibility, error)
}

// Handler обрабатывает запросы на проверку допуска.
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
// @Summary Допуск исполнителя к новой задаче
// @Description Возвращает число активных задач, лимит уровня и причину отказа.
// @Tags Executors
// @Security BearerAuth
// @Produce  json
// @Param id path string true "UUID исполнителя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /executors/{id}/eligibility [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.executor.eligibility"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Warn("invalid executor id", slog.String("id", id))
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())
	if err := authz.RequireSelfOr(caller, id, models.RoleExecutor); err != nil {
		middlewarectx.WriteAuthzError(w, r, log, err)
		return
	}

	verdict, err := h.service.CanTakeMoreTasks(r.Context(), id)
	if err != nil {
		log.Error("failed to evaluate eligibility", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	response.OK(w, r, verdict)
}
